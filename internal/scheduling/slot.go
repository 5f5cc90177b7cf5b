// Package scheduling derives bookable time slots from business-hour policy
// and the external calendar's busy state. Slot truth is never persisted; it
// is recomputed from the calendar on every query.
package scheduling

import (
	"time"
)

// TimeSlot is a fixed-duration candidate appointment window.
type TimeSlot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// BusyInterval is a half-open [Start, End) range during which the calendar
// owner is unavailable, as reported by the external calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// SlotConfig controls slot generation. It is passed explicitly to each
// component; there is no process-wide scheduling state.
type SlotConfig struct {
	Zone          *time.Location
	BusinessStart int // hour of day, inclusive
	BusinessEnd   int // hour of day, slots must end by this hour
	SlotDuration  time.Duration
	DaysAhead     int // business days covered, starting tomorrow
}

// businessDays returns the midnights of the next DaysAhead business days in
// the configured zone, starting tomorrow. Weekend days are skipped and do
// not count against DaysAhead.
func (cfg SlotConfig) businessDays(now time.Time) []time.Time {
	local := now.In(cfg.Zone)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, cfg.Zone)

	days := make([]time.Time, 0, cfg.DaysAhead)
	for len(days) < cfg.DaysAhead {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, day)
	}
	return days
}

// Window returns the free/busy query range: midnight tomorrow through
// midnight after the last business day in the window, as instants in the
// configured zone. The range is half-open.
func (cfg SlotConfig) Window(now time.Time) (time.Time, time.Time) {
	local := now.In(cfg.Zone)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, cfg.Zone).AddDate(0, 0, 1)
	days := cfg.businessDays(now)
	if len(days) == 0 {
		return start, start
	}
	return start, days[len(days)-1].AddDate(0, 0, 1)
}

// GenerateSlots enumerates every candidate slot in the window for the given
// reference time. Within a business day slots start at BusinessStart:00 and
// repeat every SlotDuration; the last slot must end by BusinessEnd:00. The
// output is deterministic for a (now, cfg) pair and chronologically ordered.
func GenerateSlots(now time.Time, cfg SlotConfig) []TimeSlot {
	var slots []TimeSlot
	for _, day := range cfg.businessDays(now) {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), cfg.BusinessStart, 0, 0, 0, cfg.Zone)
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), cfg.BusinessEnd, 0, 0, 0, cfg.Zone)

		for start := dayStart; !start.Add(cfg.SlotDuration).After(dayEnd); start = start.Add(cfg.SlotDuration) {
			slots = append(slots, TimeSlot{
				Start:    start,
				End:      start.Add(cfg.SlotDuration),
				Duration: cfg.SlotDuration,
			})
		}
	}
	return slots
}

// Overlaps reports whether a slot shares any instant with a busy interval,
// using half-open interval semantics: a slot ending exactly when a busy
// block starts does not overlap it.
func Overlaps(s TimeSlot, b BusyInterval) bool {
	return s.Start.Before(b.End) && s.End.After(b.Start)
}

// FilterAvailable returns the slots that overlap none of the busy intervals,
// preserving chronological order.
func FilterAvailable(slots []TimeSlot, busy []BusyInterval) []TimeSlot {
	available := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		conflict := false
		for _, b := range busy {
			if Overlaps(s, b) {
				conflict = true
				break
			}
		}
		if !conflict {
			available = append(available, s)
		}
	}
	return available
}
