package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/internal/observability/metrics"
	"github.com/sirish76/healthcare-assistant/internal/scheduling"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// AvailabilityComputer computes the current bookable slot set.
type AvailabilityComputer interface {
	Available(ctx context.Context) scheduling.Availability
}

// SlotBooker commits a slot to the calendar for the given session duration.
type SlotBooker interface {
	Book(ctx context.Context, req booking.Request, duration time.Duration) booking.Result
}

// BookingNotifier sends the free-session confirmation email.
type BookingNotifier interface {
	SendBookingConfirmation(ctx context.Context, recipient, clientName, displayDateTime, service string)
}

// SchedulingHandler serves slot availability and free 20-minute bookings.
type SchedulingHandler struct {
	availability AvailabilityComputer
	booker       SlotBooker
	notifier     BookingNotifier
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
}

// NewSchedulingHandler creates the scheduling HTTP handler.
func NewSchedulingHandler(
	availability AvailabilityComputer,
	booker SlotBooker,
	notifier BookingNotifier,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *SchedulingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulingHandler{
		availability: availability,
		booker:       booker,
		notifier:     notifier,
		metrics:      m,
		logger:       logger,
	}
}

type slotResponse struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Date        string `json:"date"`
	DisplayTime string `json:"displayTime"`
	DayOfWeek   string `json:"dayOfWeek"`
}

type slotsResponse struct {
	Slots  []slotResponse `json:"slots"`
	Status string         `json:"status"`
}

// GetSlots handles GET /api/scheduling/slots. An unreachable calendar
// produces status "calendar_unavailable" with an empty slot list so the
// client can tell "fully booked" from "unknown".
func (h *SchedulingHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	avail := h.availability.Available(r.Context())
	h.metrics.ObserveAvailability(string(avail.Status))

	resp := slotsResponse{
		Slots:  make([]slotResponse, 0, len(avail.Slots)),
		Status: string(avail.Status),
	}
	for _, s := range avail.Slots {
		resp.Slots = append(resp.Slots, slotResponse{
			Start:       s.Start.Format(time.RFC3339),
			End:         s.End.Format(time.RFC3339),
			Date:        s.Start.Format("2006-01-02"),
			DisplayTime: s.Start.Format("3:04 PM"),
			DayOfWeek:   strings.ToUpper(s.Start.Weekday().String()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type bookRequest struct {
	StartTime       string `json:"startTime"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Service         string `json:"service,omitempty"`
	Message         string `json:"message,omitempty"`
	DisplayDateTime string `json:"displayDateTime,omitempty"`
}

type bookResponse struct {
	Success         bool   `json:"success"`
	EventID         string `json:"eventId,omitempty"`
	ConfirmationURL string `json:"confirmationUrl,omitempty"`
	Start           string `json:"start,omitempty"`
	End             string `json:"end,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BookSlot handles POST /api/scheduling/book: the free 20-minute booking.
// Booking failures come back as success:false in a 200 body; only malformed
// requests get a 4xx.
func (h *SchedulingHandler) BookSlot(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBookError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	name := strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
	if req.StartTime == "" || req.Email == "" || name == "" {
		writeBookError(w, http.StatusBadRequest, "startTime, email, and name are required")
		return
	}

	result := h.booker.Book(r.Context(), booking.Request{
		SlotStart:   req.StartTime,
		ClientName:  name,
		ClientEmail: req.Email,
		ClientPhone: req.Phone,
		Service:     req.Service,
		Message:     req.Message,
	}, booking.FreeDuration)

	if result.Success {
		h.metrics.ObserveBooking("free", "success")
		if h.notifier != nil {
			display := req.DisplayDateTime
			if display == "" {
				display = req.StartTime
			}
			h.notifier.SendBookingConfirmation(r.Context(), req.Email, name, display, req.Service)
		}
	} else {
		h.metrics.ObserveBooking("free", "failure")
		h.logger.Warn("free booking failed", "error", result.Error, "start_time", req.StartTime)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookResponse{
		Success:         result.Success,
		EventID:         result.EventID,
		ConfirmationURL: result.ConfirmationURL,
		Start:           result.Start,
		End:             result.End,
		Error:           result.Error,
	})
}

func writeBookError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(bookResponse{Success: false, Error: msg})
}
