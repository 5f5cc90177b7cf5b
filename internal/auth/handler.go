package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// UserUpserter persists the verified Google identity.
type UserUpserter interface {
	UpsertGoogleUser(ctx context.Context, gu GoogleUser) (*User, error)
}

// Handler exposes the Google sign-in endpoint.
type Handler struct {
	verifier TokenVerifier
	store    UserUpserter
	issuer   *TokenIssuer
	logger   *logging.Logger
}

// NewHandler creates the auth HTTP handler.
func NewHandler(verifier TokenVerifier, store UserUpserter, issuer *TokenIssuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{verifier: verifier, store: store, issuer: issuer, logger: logger}
}

type signInRequest struct {
	Token string `json:"token"`
}

type signInResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// GoogleSignIn handles POST /api/auth/google: verify the Google ID token,
// upsert the account, and hand back an API session token.
func (h *Handler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil || h.store == nil || h.issuer == nil {
		http.Error(w, `{"error":"authentication not configured"}`, http.StatusServiceUnavailable)
		return
	}

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		http.Error(w, `{"error":"token is required"}`, http.StatusBadRequest)
		return
	}

	gu, err := h.verifier.Verify(r.Context(), req.Token)
	if err != nil {
		h.logger.Warn("google sign-in rejected", "error", err)
		http.Error(w, `{"error":"authentication failed"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.store.UpsertGoogleUser(r.Context(), *gu)
	if err != nil {
		h.logger.Error("failed to upsert user", "error", err, "email", gu.Email)
		http.Error(w, `{"error":"failed to create account"}`, http.StatusInternalServerError)
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed to issue session token", "error", err, "user_id", user.ID)
		http.Error(w, `{"error":"failed to issue token"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("user signed in", "user_id", user.ID, "email", user.Email)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signInResponse{Token: token, User: user})
}
