// Package payments creates Stripe Checkout Sessions for paid consultations
// and drives the payment-completion webhook to an idempotent booking action.
// The session metadata bag is the only durable carrier of booking intent
// between checkout creation and webhook arrival; there is no server-side
// store of pending paid bookings.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

var stripeTracer = otel.Tracer("healthassist.internal.payments.stripe")

// ErrNotConfigured is returned when no Stripe credentials are present, so
// callers can degrade the paid flow instead of crashing.
var ErrNotConfigured = errors.New("payments: stripe not configured")

// Session is a created Stripe Checkout Session.
type Session struct {
	ID          string
	CheckoutURL string
}

// CheckoutConfig holds Stripe credentials and the fixed consultation price.
type CheckoutConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	PriceCents int64
	Currency   string
}

// CheckoutService creates Stripe Checkout Sessions for the paid 1-hour
// consultation. Fixed price, fixed currency, single line item.
type CheckoutService struct {
	cfg        CheckoutConfig
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewCheckoutService creates a new Stripe checkout service.
func NewCheckoutService(cfg CheckoutConfig, logger *logging.Logger) *CheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckoutService{
		cfg:        cfg,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *CheckoutService) WithBaseURL(baseURL string) *CheckoutService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// CreateSession creates a checkout session whose metadata encodes the full
// booking request so it survives the hosted payment flow without any
// server-side persistence. displayDateTime is the human-readable slot label
// echoed in the confirmation email.
func (s *CheckoutService) CreateSession(ctx context.Context, req booking.Request, displayDateTime string) (*Session, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_checkout_session")
	defer span.End()
	span.SetAttributes(
		attribute.String("healthassist.slot_start", req.SlotStart),
		attribute.Int64("healthassist.amount_cents", s.cfg.PriceCents),
	)

	if s.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	if displayDateTime == "" {
		displayDateTime = req.SlotStart
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.cfg.SuccessURL)
	form.Set("cancel_url", s.cfg.CancelURL)
	form.Set("customer_email", req.ClientEmail)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", s.cfg.Currency)
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", s.cfg.PriceCents))
	form.Set("line_items[0][price_data][product_data][name]", "1-Hour Specialist Consultation")
	form.Set("line_items[0][price_data][product_data][description]", "Full hour session with a Zumanely healthcare specialist")

	// Booking intent rides in the session metadata so the webhook can book
	// the calendar after payment.
	form.Set("metadata[customerName]", req.ClientName)
	form.Set("metadata[customerEmail]", req.ClientEmail)
	form.Set("metadata[customerPhone]", req.ClientPhone)
	form.Set("metadata[slotStart]", req.SlotStart)
	form.Set("metadata[displayDateTime]", displayDateTime)
	form.Set("metadata[service]", req.Service)
	form.Set("metadata[message]", req.Message)
	form.Set("metadata[sessionType]", "paid-60")

	apiURL := s.baseURL + "/v1/checkout/sessions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Stripe-Version", s.apiVersion)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payments: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payments: stripe api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed stripeCheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("payments: stripe decode: %w", err)
	}
	if parsed.URL == "" {
		return nil, fmt.Errorf("payments: stripe response missing checkout url")
	}

	s.logger.Info("checkout session created", "session_id", parsed.ID, "slot_start", req.SlotStart)
	return &Session{ID: parsed.ID, CheckoutURL: parsed.URL}, nil
}

// stripeCheckoutSession is the subset of Stripe's Checkout Session we need.
type stripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
