// Package conflict decides whether a proposed appointment may occupy a
// stylist's calendar. Called synchronously from the booking path before
// any insert or reschedule is committed.
package conflict

import (
	"context"
	"errors"

	"github.com/stilistico/salonsched/internal/calendar"
	"github.com/stilistico/salonsched/internal/model"
)

var ErrInvalidInterval = errors.New("appointment start must be before end")

type Reason string

const (
	OutsideWorkingHours Reason = "outside_working_hours"
	SlotOccupied        Reason = "slot_occupied"
)

// Candidate is a proposed placement. ExcludeAppointmentID is set for
// reschedule-in-place checks so the appointment being moved does not
// conflict with itself.
type Candidate struct {
	StylistID            int64
	Date                 model.Date
	Start                model.MinuteOfDay
	End                  model.MinuteOfDay
	ExcludeAppointmentID int64
}

// Placement is the outcome of a check. BreakOverlap is a soft warning:
// break slots are bookable by explicit choice, so it never sets a Reason.
type Placement struct {
	OK           bool
	Reason       Reason
	BreakOverlap bool
	// BlockingID is the existing appointment occupying the slot when
	// Reason is SlotOccupied.
	BlockingID int64
}

type HoursProvider interface {
	GetWeek(ctx context.Context, stylistID int64) (calendar.Week, error)
}

type AppointmentSource interface {
	ListByStylistAndDate(ctx context.Context, stylistID int64, date model.Date) ([]model.Appointment, error)
}

type Checker struct {
	hours HoursProvider
	appts AppointmentSource
}

func NewChecker(hours HoursProvider, appts AppointmentSource) *Checker {
	return &Checker{hours: hours, appts: appts}
}

func (c *Checker) CheckPlacement(ctx context.Context, cand Candidate) (Placement, error) {
	if cand.Start >= cand.End {
		return Placement{}, ErrInvalidInterval
	}

	week, err := c.hours.GetWeek(ctx, cand.StylistID)
	if err != nil {
		return Placement{}, err
	}

	weekday := cand.Date.Weekday()
	if !week.WithinWorkingHours(weekday, cand.Start, cand.End) {
		return Placement{Reason: OutsideWorkingHours}, nil
	}
	breakOverlap := week.OverlapsBreak(weekday, cand.Start, cand.End)

	existing, err := c.appts.ListByStylistAndDate(ctx, cand.StylistID, cand.Date)
	if err != nil {
		return Placement{}, err
	}
	for _, a := range existing {
		if a.ID == cand.ExcludeAppointmentID || a.Status == model.StatusCancelled {
			continue
		}
		// Half-open intervals: an appointment ending at 10:00 does not
		// conflict with one starting at 10:00.
		if cand.Start < a.End && a.Start < cand.End {
			return Placement{Reason: SlotOccupied, BreakOverlap: breakOverlap, BlockingID: a.ID}, nil
		}
	}

	return Placement{OK: true, BreakOverlap: breakOverlap}, nil
}
