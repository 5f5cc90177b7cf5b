package payments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// CheckoutHandler exposes checkout session creation over HTTP.
type CheckoutHandler struct {
	checkout *CheckoutService
	logger   *logging.Logger
}

type checkoutRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	SlotStart       string `json:"slotStart"`
	DisplayDateTime string `json:"displayDateTime,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Service         string `json:"service,omitempty"`
	Message         string `json:"message,omitempty"`
}

type checkoutResponse struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"sessionId,omitempty"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewCheckoutHandler creates the checkout HTTP handler.
func NewCheckoutHandler(checkout *CheckoutService, logger *logging.Logger) *CheckoutHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

// CreateCheckoutSession handles POST /api/payment/create-checkout-session.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCheckoutError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	name := strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
	if req.Email == "" || req.SlotStart == "" {
		writeCheckoutError(w, http.StatusBadRequest, "email and slotStart are required")
		return
	}
	if name == "" {
		writeCheckoutError(w, http.StatusBadRequest, "name is required")
		return
	}

	session, err := h.checkout.CreateSession(r.Context(), booking.Request{
		SlotStart:   req.SlotStart,
		ClientName:  name,
		ClientEmail: req.Email,
		ClientPhone: req.Phone,
		Service:     req.Service,
		Message:     req.Message,
	}, req.DisplayDateTime)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			writeCheckoutError(w, http.StatusServiceUnavailable, "online payment is not configured")
			return
		}
		h.logger.Error("stripe checkout creation failed", "error", err)
		writeCheckoutError(w, http.StatusBadGateway, "failed to create checkout session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkoutResponse{
		Success:     true,
		SessionID:   session.ID,
		CheckoutURL: session.CheckoutURL,
	})
}

func writeCheckoutError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checkoutResponse{Success: false, Error: msg})
}
