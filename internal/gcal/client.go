// Package gcal wraps the Google Calendar API behind the narrow calendar
// capability the scheduling and booking components consume: a free/busy
// query and an event insert.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/internal/scheduling"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// ErrNotConfigured is returned when the service-account key or calendar
// identity is absent. Callers degrade the scheduling feature instead of
// crashing.
var ErrNotConfigured = errors.New("gcal: calendar not configured")

// Client talks to a single Google Calendar on behalf of a service account.
type Client struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
	logger     *logging.Logger
}

// Config holds the calendar identity and credentials.
type Config struct {
	CalendarEmail         string
	ServiceAccountKeyPath string
	Timezone              string
}

// NewClient builds a calendar client from a service-account key file.
// Returns ErrNotConfigured when either the key path or calendar email is
// missing.
func NewClient(ctx context.Context, cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.ServiceAccountKeyPath == "" || cfg.CalendarEmail == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := calendar.NewService(ctx,
		option.WithCredentialsFile(cfg.ServiceAccountKeyPath),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("gcal: init calendar service: %w", err)
	}

	logger.Info("google calendar service initialized", "calendar", cfg.CalendarEmail)
	return &Client{
		svc:        svc,
		calendarID: cfg.CalendarEmail,
		timezone:   cfg.Timezone,
		logger:     logger,
	}, nil
}

// FreeBusy queries the calendar's busy intervals for the half-open range.
// An empty result means the calendar has no conflicts in the range.
func (c *Client) FreeBusy(ctx context.Context, rangeStart, rangeEnd time.Time) ([]scheduling.BusyInterval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin:  rangeStart.Format(time.RFC3339),
		TimeMax:  rangeEnd.Format(time.RFC3339),
		TimeZone: c.timezone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}

	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("gcal: freebusy response missing calendar %s", c.calendarID)
	}

	busy := make([]scheduling.BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("gcal: parse busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("gcal: parse busy end %q: %w", period.End, err)
		}
		busy = append(busy, scheduling.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

// InsertEvent creates a calendar event and returns its id and link.
func (c *Client) InsertEvent(ctx context.Context, ev booking.Event) (booking.CreatedEvent, error) {
	event := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return booking.CreatedEvent{}, fmt.Errorf("gcal: insert event: %w", err)
	}

	c.logger.Info("calendar event created", "event_id", created.Id, "start", ev.Start)
	return booking.CreatedEvent{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}
