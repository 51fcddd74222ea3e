package model

import (
	"fmt"
	"time"
)

// NoBreak marks the break columns as absent.
const NoBreak MinuteOfDay = -1

// WorkingHours is one stylist's configuration for one weekday.
// Owned by stylist administration; read-only inside this engine.
type WorkingHours struct {
	StylistID  int64
	Weekday    time.Weekday
	IsWorking  bool
	Start      MinuteOfDay
	End        MinuteOfDay
	BreakStart MinuteOfDay
	BreakEnd   MinuteOfDay
}

func (w WorkingHours) HasBreak() bool {
	return w.BreakStart != NoBreak && w.BreakEnd != NoBreak
}

func (w WorkingHours) Validate() error {
	if !w.IsWorking {
		return nil
	}
	if w.Start >= w.End {
		return fmt.Errorf("working hours for %s: start %s not before end %s", w.Weekday, w.Start, w.End)
	}
	if w.HasBreak() {
		if w.BreakStart < w.Start || w.BreakEnd > w.End || w.BreakStart >= w.BreakEnd {
			return fmt.Errorf("working hours for %s: break %s-%s outside %s-%s", w.Weekday, w.BreakStart, w.BreakEnd, w.Start, w.End)
		}
	}
	return nil
}
