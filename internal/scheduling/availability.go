package scheduling

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

var availabilityTracer = otel.Tracer("healthassist.internal.scheduling")

// BusyFetcher retrieves the external calendar's busy intervals for a range.
// An empty result means "no conflicts", not "unavailable".
type BusyFetcher interface {
	FreeBusy(ctx context.Context, rangeStart, rangeEnd time.Time) ([]BusyInterval, error)
}

// Status distinguishes "zero free slots because fully booked" from "unknown
// because the calendar could not be reached" — the two need different
// user-facing messaging.
type Status string

const (
	// StatusOK means the busy snapshot was fetched and Slots is authoritative.
	StatusOK Status = "ok"
	// StatusCalendarUnavailable means the calendar was unreachable or not
	// configured; Slots is empty but availability is unknown, not zero.
	StatusCalendarUnavailable Status = "calendar_unavailable"
)

// Availability is the result of one availability computation.
type Availability struct {
	Slots  []TimeSlot
	Status Status
}

// Calculator intersects generated slots with the calendar's busy intervals.
type Calculator struct {
	cfg     SlotConfig
	fetcher BusyFetcher
	logger  *logging.Logger

	// now is overridable in tests.
	now func() time.Time
}

// NewCalculator constructs an availability calculator.
func NewCalculator(cfg SlotConfig, fetcher BusyFetcher, logger *logging.Logger) *Calculator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Calculator{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the clock (for testing).
func (c *Calculator) WithNow(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Available computes the bookable slot set for the configured window.
// A fetcher failure surfaces as StatusCalendarUnavailable rather than an
// error so the HTTP boundary can render a deterministic response either way.
func (c *Calculator) Available(ctx context.Context) Availability {
	ctx, span := availabilityTracer.Start(ctx, "scheduling.available")
	defer span.End()

	now := c.now()
	rangeStart, rangeEnd := c.cfg.Window(now)
	span.SetAttributes(
		attribute.String("healthassist.range_start", rangeStart.Format(time.RFC3339)),
		attribute.String("healthassist.range_end", rangeEnd.Format(time.RFC3339)),
	)

	if c.fetcher == nil {
		c.logger.Warn("availability requested without a configured calendar")
		return Availability{Slots: []TimeSlot{}, Status: StatusCalendarUnavailable}
	}

	busy, err := c.fetcher.FreeBusy(ctx, rangeStart, rangeEnd)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("free/busy query failed", "error", err,
			"range_start", rangeStart, "range_end", rangeEnd)
		return Availability{Slots: []TimeSlot{}, Status: StatusCalendarUnavailable}
	}

	slots := FilterAvailable(GenerateSlots(now, c.cfg), busy)
	span.SetAttributes(attribute.Int("healthassist.available_slots", len(slots)))
	c.logger.Info("availability computed", "slots", len(slots), "busy_intervals", len(busy))
	return Availability{Slots: slots, Status: StatusOK}
}
