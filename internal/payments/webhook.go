package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/internal/observability/metrics"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// SlotBooker is the booking capability the webhook drives after payment.
type SlotBooker interface {
	Book(ctx context.Context, req booking.Request, duration time.Duration) booking.Result
}

// ConfirmationSender sends the paid booking confirmation. Best-effort: the
// webhook never fails on a notification error.
type ConfirmationSender interface {
	SendPaidConfirmation(ctx context.Context, recipient, clientName, displayDateTime, service string)
}

// WebhookHandler reacts to Stripe checkout completion events by booking the
// paid 60-minute slot and notifying the client. Duplicate deliveries of the
// same session are deduplicated; the webhook is acknowledged once the
// signature verifies, regardless of downstream booking outcome, so the
// provider does not redeliver a failure it cannot fix.
type WebhookHandler struct {
	webhookSecret string
	booker        SlotBooker
	notifier      ConfirmationSender
	processed     ProcessedTracker
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
}

// NewWebhookHandler creates a handler for Stripe payment webhooks.
func NewWebhookHandler(
	webhookSecret string,
	booker SlotBooker,
	notifier ConfirmationSender,
	processed ProcessedTracker,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		webhookSecret: webhookSecret,
		booker:        booker,
		notifier:      notifier,
		processed:     processed,
		metrics:       m,
		logger:        logger,
	}
}

// Handle processes one webhook delivery.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if !verifyStripeSignature(h.webhookSecret, payload, sigHeader) {
		h.metrics.ObserveWebhook("unknown", "signature_invalid")
		http.Error(w, "signature verification failed", http.StatusForbidden)
		return
	}

	var evt stripeWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.logger.Error("failed to decode stripe event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	defer func() {
		h.metrics.ObserveWebhookLatency(evt.Type, time.Since(started).Seconds())
	}()

	// All non-completion event types are acknowledged without action.
	if evt.Type != "checkout.session.completed" {
		h.metrics.ObserveWebhook(evt.Type, "ignored")
		writeReceived(w)
		return
	}

	session := evt.Data.Object
	if session.ID != "" && h.processed != nil {
		fresh, err := h.processed.MarkProcessed(r.Context(), session.ID)
		if err != nil {
			// A dedup-store outage must not drop a paid booking; proceed
			// and rely on the calendar owner to resolve a rare double.
			h.logger.Error("processed tracker failed", "error", err, "session_id", session.ID)
		} else if !fresh {
			h.logger.Info("duplicate webhook delivery ignored", "session_id", session.ID, "event_id", evt.ID)
			h.metrics.ObserveWebhook(evt.Type, "duplicate")
			writeReceived(w)
			return
		}
	}

	meta := session.Metadata
	req := booking.Request{
		SlotStart:   meta["slotStart"],
		ClientName:  meta["customerName"],
		ClientEmail: meta["customerEmail"],
		ClientPhone: meta["customerPhone"],
		Service:     meta["service"],
		Message:     meta["message"],
	}
	if req.SlotStart == "" || req.ClientEmail == "" {
		h.logger.Warn("completed session carries no booking metadata",
			"event_id", evt.ID, "session_id", session.ID)
		h.metrics.ObserveWebhook(evt.Type, "no_metadata")
		writeReceived(w)
		return
	}

	// Paid sessions are always the 60-minute format.
	result := h.booker.Book(r.Context(), req, booking.PaidDuration)
	if result.Success {
		h.logger.Info("paid consultation booked", "event_id", evt.ID,
			"session_id", session.ID, "calendar_event_id", result.EventID)
		h.metrics.ObserveWebhook(evt.Type, "booked")
		if h.notifier != nil {
			displayDateTime := meta["displayDateTime"]
			if displayDateTime == "" {
				displayDateTime = req.SlotStart
			}
			h.notifier.SendPaidConfirmation(r.Context(), req.ClientEmail, req.ClientName, displayDateTime, req.Service)
		}
	} else {
		// Surfaced for operational visibility, but still acknowledged:
		// redelivery cannot fix a booking-side failure.
		h.logger.Error("failed to book calendar after payment",
			"error", result.Error, "event_id", evt.ID, "session_id", session.ID)
		h.metrics.ObserveWebhook(evt.Type, "booking_failed")
	}

	writeReceived(w)
}

func writeReceived(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// stripeWebhookEvent is the Stripe webhook event envelope.
type stripeWebhookEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object stripeSessionObject `json:"object"`
	} `json:"data"`
}

// stripeSessionObject is the checkout.session object from the webhook.
type stripeSessionObject struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
	Status      string            `json:"status"`
}

// verifyStripeSignature verifies a Stripe webhook signature.
// Stripe signs with HMAC-SHA256 and sends the signature in the
// Stripe-Signature header as: t=<timestamp>,v1=<signature>[,v0=<test>]
func verifyStripeSignature(secret string, payload []byte, header string) bool {
	if secret == "" {
		return true // bypass for development
	}
	if header == "" {
		return false
	}

	var timestamp string
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	// Check timestamp tolerance (5 minutes).
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if abs64(time.Now().Unix()-ts) > 300 {
		return false
	}

	// Expected signature: HMAC-SHA256(secret, "timestamp.payload")
	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
