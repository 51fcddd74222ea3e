// Package calendar answers validity questions against a stylist's
// working-hours configuration. Pure functions over a snapshot; the
// snapshot is loaded by the caller, never mutated here.
package calendar

import (
	"time"

	"github.com/stilistico/salonsched/internal/model"
)

// Week is one stylist's working-hours configuration, indexed by weekday.
// Missing weekdays behave as non-working days.
type Week struct {
	days [7]model.WorkingHours
}

func NewWeek(rows []model.WorkingHours) Week {
	var w Week
	for i := range w.days {
		w.days[i].BreakStart = model.NoBreak
		w.days[i].BreakEnd = model.NoBreak
	}
	for _, r := range rows {
		w.days[int(r.Weekday)] = r
	}
	return w
}

func (w Week) Day(d time.Weekday) model.WorkingHours {
	return w.days[int(d)]
}

// WithinWorkingHours reports whether [start, end] is fully contained in
// the day's working interval. A non-working day rejects every interval.
func (w Week) WithinWorkingHours(d time.Weekday, start, end model.MinuteOfDay) bool {
	day := w.days[int(d)]
	if !day.IsWorking {
		return false
	}
	return start >= day.Start && end <= day.End
}

// OverlapsBreak reports whether [start, end) intersects the day's break,
// if one is configured. Partial intersection counts.
func (w Week) OverlapsBreak(d time.Weekday, start, end model.MinuteOfDay) bool {
	day := w.days[int(d)]
	if !day.IsWorking || !day.HasBreak() {
		return false
	}
	return start < day.BreakEnd && day.BreakStart < end
}
