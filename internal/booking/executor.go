// Package booking commits confirmed slots to the external calendar. The
// calendar is the sole source of truth: the executor performs no freshness
// pre-check before insert, so a race between two clients selecting
// overlapping slots is a documented limitation, not prevented by locking.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

var bookingTracer = otel.Tracer("healthassist.internal.booking")

const (
	// FreeDuration is the complimentary screening length.
	FreeDuration = 20 * time.Minute
	// PaidDuration is the payment-gated consultation length.
	PaidDuration = 60 * time.Minute

	notProvided = "Not provided"
)

// Request carries the booking intent collected at the boundary. Name and
// email are required; the rest is optional context for the practitioner.
type Request struct {
	SlotStart   string // ISO-8601 offset datetime
	ClientName  string
	ClientEmail string
	ClientPhone string
	Service     string
	Message     string
}

// Result is always returned by Book; a failed booking carries Error and
// never a panic or leaked upstream exception.
type Result struct {
	Success         bool
	EventID         string
	ConfirmationURL string
	Start           string
	End             string
	Error           string
}

// Event is the calendar event the executor asks the calendar capability to
// create.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CreatedEvent is the calendar's confirmation of an insert.
type CreatedEvent struct {
	ID       string
	HTMLLink string
}

// EventInserter is the narrow calendar capability the executor consumes.
type EventInserter interface {
	InsertEvent(ctx context.Context, ev Event) (CreatedEvent, error)
}

// Executor books slots by creating calendar events.
type Executor struct {
	calendar EventInserter
	zone     *time.Location
	logger   *logging.Logger
}

// NewExecutor constructs a booking executor. A nil calendar means the
// feature is unconfigured; Book then fails gracefully per request.
func NewExecutor(calendar EventInserter, zone *time.Location, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Executor{calendar: calendar, zone: zone, logger: logger}
}

// Book validates the request, creates exactly one calendar event of the
// given duration, and returns the outcome as a value.
func (e *Executor) Book(ctx context.Context, req Request, duration time.Duration) Result {
	ctx, span := bookingTracer.Start(ctx, "booking.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("healthassist.slot_start", req.SlotStart),
		attribute.Int("healthassist.duration_minutes", int(duration.Minutes())),
	)

	if strings.TrimSpace(req.ClientName) == "" || strings.TrimSpace(req.ClientEmail) == "" {
		return Result{Success: false, Error: "client name and email are required"}
	}
	if e.calendar == nil {
		return Result{Success: false, Error: "calendar service not available"}
	}

	start, err := time.Parse(time.RFC3339, req.SlotStart)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("invalid slot start time: %v", err)}
	}
	start = start.In(e.zone)
	end := start.Add(duration)

	created, err := e.calendar.InsertEvent(ctx, Event{
		Summary:     eventSummary(req.ClientName, duration),
		Description: eventDescription(req, duration),
		Start:       start,
		End:         end,
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Error("failed to book slot", "error", err, "slot_start", req.SlotStart)
		return Result{Success: false, Error: err.Error()}
	}

	e.logger.Info("booking created", "event_id", created.ID,
		"client_email", req.ClientEmail, "duration_minutes", duration.Minutes())
	return Result{
		Success:         true,
		EventID:         created.ID,
		ConfirmationURL: created.HTMLLink,
		Start:           start.Format(time.RFC3339),
		End:             end.Format(time.RFC3339),
	}
}

// eventSummary tags the event title with the session format so paid hours
// are distinguishable from free screenings at a glance.
func eventSummary(clientName string, duration time.Duration) string {
	if duration >= PaidDuration {
		return "Zumanely PAID Consultation (1hr): " + clientName
	}
	return "Zumanely Consultation: " + clientName
}

func eventDescription(req Request, duration time.Duration) string {
	var b strings.Builder
	if duration >= PaidDuration {
		b.WriteString("PAID 1-HOUR SESSION\n")
	}
	fmt.Fprintf(&b, "Client: %s\n", req.ClientName)
	fmt.Fprintf(&b, "Email: %s\n", req.ClientEmail)
	fmt.Fprintf(&b, "Phone: %s\n", orMarker(req.ClientPhone))
	fmt.Fprintf(&b, "Service: %s\n", orMarker(req.Service))
	fmt.Fprintf(&b, "Message: %s", orMarker(req.Message))
	return b.String()
}

func orMarker(value string) string {
	if strings.TrimSpace(value) == "" {
		return notProvided
	}
	return value
}
