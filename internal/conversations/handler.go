package conversations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sirish76/healthcare-assistant/internal/auth"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// Handler exposes the conversation history endpoints. All routes require
// an authenticated user on the request context.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates the conversations HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes mounts the conversation endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{conversationID}", h.Get)
	r.Put("/{conversationID}", h.UpdateTitle)
	r.Delete("/{conversationID}", h.Delete)
	r.Post("/{conversationID}/messages", h.AddMessage)
}

// List handles GET /api/conversations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	list, err := h.repo.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err, "user_id", userID)
		http.Error(w, `{"error":"failed to load conversations"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/conversations.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if r.Body != nil {
		// An empty body starts an untitled conversation.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	conv, err := h.repo.Create(r.Context(), userID, req.Title)
	if err != nil {
		h.logger.Error("failed to create conversation", "error", err, "user_id", userID)
		http.Error(w, `{"error":"failed to create conversation"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, conv)
}

// Get handles GET /api/conversations/{conversationID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, conversationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	conv, err := h.repo.Get(r.Context(), userID, conversationID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, `{"error":"failed to load conversation"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, conv)
}

// AddMessage handles POST /api/conversations/{conversationID}/messages.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	userID, conversationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req struct {
		Role               string          `json:"role"`
		Content            string          `json:"content"`
		ContentType        string          `json:"contentType"`
		DoctorSearchResult json.RawMessage `json:"doctorSearchResult"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Role != "user" && req.Role != "assistant" {
		http.Error(w, `{"error":"role must be user or assistant"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusBadRequest)
		return
	}

	msg, err := h.repo.AddMessage(r.Context(), userID, conversationID, Message{
		Role:               req.Role,
		Content:            req.Content,
		ContentType:        req.ContentType,
		DoctorSearchResult: req.DoctorSearchResult,
	})
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to add message", "error", err, "conversation_id", conversationID)
		http.Error(w, `{"error":"failed to save message"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, msg)
}

// UpdateTitle handles PUT /api/conversations/{conversationID}.
func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	userID, conversationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	err := h.repo.UpdateTitle(r.Context(), userID, conversationID, req.Title)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to rename conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, `{"error":"failed to rename conversation"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/conversations/{conversationID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, conversationID, ok := h.scope(w, r)
	if !ok {
		return
	}
	err := h.repo.Delete(r.Context(), userID, conversationID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, `{"error":"failed to delete conversation"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (userID, conversationID int64, ok bool) {
	userID, ok = auth.UserIDFromContext(r.Context())
	if !ok {
		h.unauthorized(w)
		return 0, 0, false
	}
	conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid conversation id"}`, http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, conversationID, true
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
