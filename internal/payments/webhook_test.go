package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

type stubBooker struct {
	requests []booking.Request
	duration time.Duration
	result   booking.Result
}

func (s *stubBooker) Book(ctx context.Context, req booking.Request, duration time.Duration) booking.Result {
	s.requests = append(s.requests, req)
	s.duration = duration
	return s.result
}

type stubNotifier struct {
	calls     int
	recipient string
	display   string
}

func (s *stubNotifier) SendPaidConfirmation(ctx context.Context, recipient, clientName, displayDateTime, service string) {
	s.calls++
	s.recipient = recipient
	s.display = displayDateTime
}

func buildWebhookPayload(t *testing.T, eventID, eventType, sessionID string, metadata map[string]string) []byte {
	t.Helper()
	evt := map[string]any{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":           sessionID,
				"amount_total": 1999,
				"currency":     "usd",
				"metadata":     metadata,
				"status":       "complete",
			},
		},
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("failed to marshal stripe event: %v", err)
	}
	return data
}

func stripeSign(payload []byte, secret string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%s,v1=%s", ts, sig)
}

func paidMetadata() map[string]string {
	return map[string]string{
		"customerName":    "Jane Doe",
		"customerEmail":   "jane@example.com",
		"customerPhone":   "+15551234567",
		"slotStart":       "2025-06-09T09:00:00-07:00",
		"displayDateTime": "Monday, June 9 at 9:00 AM",
		"service":         "Insurance Review",
		"message":         "",
		"sessionType":     "paid-60",
	}
}

func deliver(t *testing.T, h *WebhookHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "https://example.com/api/payment/webhook", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestWebhook_CompletedSessionBooksAndNotifies(t *testing.T) {
	booker := &stubBooker{result: booking.Result{Success: true, EventID: "evt-cal-1"}}
	notifier := &stubNotifier{}
	h := NewWebhookHandler("whsec_test123", booker, notifier, NewMemoryTracker(time.Hour), nil, logging.Default())

	payload := buildWebhookPayload(t, "evt_1", "checkout.session.completed", "cs_1", paidMetadata())
	rr := deliver(t, h, payload, stripeSign(payload, "whsec_test123"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(booker.requests) != 1 {
		t.Fatalf("expected one booking, got %d", len(booker.requests))
	}
	if booker.duration != booking.PaidDuration {
		t.Fatalf("paid webhook must book 60 minutes, got %s", booker.duration)
	}
	if booker.requests[0].ClientEmail != "jane@example.com" {
		t.Fatalf("metadata not threaded into booking: %+v", booker.requests[0])
	}
	if notifier.calls != 1 || notifier.display != "Monday, June 9 at 9:00 AM" {
		t.Fatalf("expected one paid confirmation with display time, got %d (%q)", notifier.calls, notifier.display)
	}
}

func TestWebhook_InvalidSignatureNeverBooks(t *testing.T) {
	booker := &stubBooker{result: booking.Result{Success: true}}
	h := NewWebhookHandler("whsec_test123", booker, &stubNotifier{}, NewMemoryTracker(time.Hour), nil, logging.Default())

	payload := buildWebhookPayload(t, "evt_2", "checkout.session.completed", "cs_2", paidMetadata())

	rr := deliver(t, h, payload, stripeSign(payload, "whsec_wrong"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad signature, got %d", rr.Code)
	}

	rr = deliver(t, h, payload, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing signature, got %d", rr.Code)
	}

	if len(booker.requests) != 0 {
		t.Fatalf("booking executor called despite invalid signature: %d", len(booker.requests))
	}
}

func TestWebhook_DuplicateDeliveryBooksOnce(t *testing.T) {
	booker := &stubBooker{result: booking.Result{Success: true, EventID: "evt-cal-1"}}
	notifier := &stubNotifier{}
	h := NewWebhookHandler("whsec_test123", booker, notifier, NewMemoryTracker(time.Hour), nil, logging.Default())

	payload := buildWebhookPayload(t, "evt_3", "checkout.session.completed", "cs_dup", paidMetadata())
	sig := stripeSign(payload, "whsec_test123")

	for i := 0; i < 3; i++ {
		rr := deliver(t, h, payload, sig)
		if rr.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected acknowledgement, got %d", i, rr.Code)
		}
	}

	if len(booker.requests) != 1 {
		t.Fatalf("expected at most one booking side effect, got %d", len(booker.requests))
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one confirmation, got %d", notifier.calls)
	}
}

func TestWebhook_OtherEventTypesAcknowledgedWithoutAction(t *testing.T) {
	booker := &stubBooker{result: booking.Result{Success: true}}
	h := NewWebhookHandler("whsec_test123", booker, &stubNotifier{}, NewMemoryTracker(time.Hour), nil, logging.Default())

	payload := buildWebhookPayload(t, "evt_4", "payment_intent.created", "cs_4", paidMetadata())
	rr := deliver(t, h, payload, stripeSign(payload, "whsec_test123"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected acknowledgement, got %d", rr.Code)
	}
	if len(booker.requests) != 0 {
		t.Fatal("non-completion event must not book")
	}
}

func TestWebhook_MissingMetadataAcknowledgedWithoutBooking(t *testing.T) {
	booker := &stubBooker{result: booking.Result{Success: true}}
	h := NewWebhookHandler("whsec_test123", booker, &stubNotifier{}, NewMemoryTracker(time.Hour), nil, logging.Default())

	payload := buildWebhookPayload(t, "evt_5", "checkout.session.completed", "cs_5", map[string]string{})
	rr := deliver(t, h, payload, stripeSign(payload, "whsec_test123"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected acknowledgement, got %d", rr.Code)
	}
	if len(booker.requests) != 0 {
		t.Fatal("nothing to book without metadata")
	}
}

func TestWebhook_BookingFailureStillAcknowledged(t *testing.T) {
	booker := &stubBooker{result: booking.Result{Success: false, Error: "calendar rejected event"}}
	notifier := &stubNotifier{}
	h := NewWebhookHandler("whsec_test123", booker, notifier, NewMemoryTracker(time.Hour), nil, logging.Default())

	payload := buildWebhookPayload(t, "evt_6", "checkout.session.completed", "cs_6", paidMetadata())
	rr := deliver(t, h, payload, stripeSign(payload, "whsec_test123"))

	if rr.Code != http.StatusOK {
		t.Fatalf("booking failure must not withhold acknowledgement, got %d", rr.Code)
	}
	if notifier.calls != 0 {
		t.Fatal("failed booking must not send a confirmation")
	}

	var resp map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || !resp["received"] {
		t.Fatalf("expected received acknowledgement body, got %s", rr.Body.String())
	}
}

func TestVerifyStripeSignature_StaleTimestampRejected(t *testing.T) {
	payload := []byte(`{"id":"evt_old"}`)
	ts := fmt.Sprintf("%d", time.Now().Add(-10*time.Minute).Unix())
	mac := hmac.New(sha256.New, []byte("whsec_test123"))
	mac.Write([]byte(ts + "." + string(payload)))
	header := fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	if verifyStripeSignature("whsec_test123", payload, header) {
		t.Fatal("expected stale timestamp to be rejected")
	}
}
