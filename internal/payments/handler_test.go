package payments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

func postCheckout(t *testing.T, h *CheckoutHandler, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/payment/create-checkout-session", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	h.CreateCheckoutSession(rr, req)
	return rr
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://checkout.stripe.com/c/1"})
	}))
	defer srv.Close()

	svc := NewCheckoutService(checkoutConfig(), logging.Default()).WithBaseURL(srv.URL)
	h := NewCheckoutHandler(svc, logging.Default())

	rr := postCheckout(t, h, map[string]string{
		"email":           "jane@example.com",
		"firstName":       "Jane",
		"lastName":        "Doe",
		"slotStart":       "2025-06-09T09:00:00-07:00",
		"displayDateTime": "Monday, June 9 at 9:00 AM",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.SessionID != "cs_1" || resp.CheckoutURL == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateCheckoutSession_ValidatesRequiredFields(t *testing.T) {
	h := NewCheckoutHandler(NewCheckoutService(checkoutConfig(), nil), nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"firstName": "Jane", "slotStart": "2025-06-09T09:00:00-07:00"}},
		{"missing slotStart", map[string]string{"email": "jane@example.com", "firstName": "Jane"}},
		{"missing name", map[string]string{"email": "jane@example.com", "slotStart": "2025-06-09T09:00:00-07:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postCheckout(t, h, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestCreateCheckoutSession_NotConfiguredDegrades(t *testing.T) {
	cfg := checkoutConfig()
	cfg.SecretKey = ""
	h := NewCheckoutHandler(NewCheckoutService(cfg, nil), nil)

	rr := postCheckout(t, h, map[string]string{
		"email":     "jane@example.com",
		"firstName": "Jane",
		"lastName":  "Doe",
		"slotStart": "2025-06-09T09:00:00-07:00",
	})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when unconfigured, got %d", rr.Code)
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected explicit failure payload, got %+v", resp)
	}
}
