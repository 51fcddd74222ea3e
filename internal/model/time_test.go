package model

import (
	"testing"
	"time"
)

func TestParseMinuteOfDay(t *testing.T) {
	m, err := ParseMinuteOfDay("20:15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m != 20*60+15 {
		t.Fatalf("expected 1215, got %d", m)
	}
	if m.String() != "20:15" {
		t.Fatalf("round trip: got %s", m.String())
	}

	for _, bad := range []string{"25:00", "09:75", "nine", ""} {
		if _, err := ParseMinuteOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDateAddDays_NormalizesMonthEnd(t *testing.T) {
	d := Date{Year: 2025, Month: time.January, Day: 31}
	got := d.AddDays(1)
	want := Date{Year: 2025, Month: time.February, Day: 1}
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestDateAt_UsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	d := Date{Year: 2025, Month: time.July, Day: 17}
	instant := d.At(9*60, loc)
	if instant.Hour() != 9 || instant.Location() != loc {
		t.Fatalf("expected 09:00 in CET, got %s", instant)
	}
	if !instant.Equal(time.Date(2025, 7, 17, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 08:00 UTC equivalent, got %s", instant.UTC())
	}
}

func TestDateWeekday(t *testing.T) {
	d := Date{Year: 2025, Month: time.July, Day: 17}
	if d.Weekday() != time.Thursday {
		t.Fatalf("2025-07-17 is a Thursday, got %s", d.Weekday())
	}
}
