package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stilistico/salonsched/internal/dispatch"
	"github.com/stilistico/salonsched/internal/model"
)

var salonTZ = time.FixedZone("CET", 3600)

type stubRunner struct {
	block   chan struct{}
	started chan struct{}
	targets []model.Date
}

func (r *stubRunner) RunCycle(_ context.Context, target model.Date) (dispatch.CycleReport, error) {
	r.targets = append(r.targets, target)
	if r.started != nil {
		close(r.started)
		r.started = nil
	}
	if r.block != nil {
		<-r.block
	}
	return dispatch.CycleReport{TargetDate: target, ClientsNotified: 1}, nil
}

func newTestScheduler(r Runner) *Scheduler {
	return New(r, Config{
		FireTime: 9 * 60,
		Location: salonTZ,
		LeadDays: 1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNextFireAt_BeforeFireTime(t *testing.T) {
	s := newTestScheduler(&stubRunner{})
	now := time.Date(2025, 7, 17, 8, 30, 0, 0, salonTZ)

	fire := s.NextFireAt(now)
	want := time.Date(2025, 7, 17, 9, 0, 0, 0, salonTZ)
	if !fire.Equal(want) {
		t.Fatalf("expected fire today at 09:00, got %s", fire)
	}
}

func TestNextFireAt_AfterFireTime(t *testing.T) {
	s := newTestScheduler(&stubRunner{})
	// 09:30 local: today's 09:00 has passed, next fire is tomorrow.
	now := time.Date(2025, 7, 17, 9, 30, 0, 0, salonTZ)

	fire := s.NextFireAt(now)
	want := time.Date(2025, 7, 18, 9, 0, 0, 0, salonTZ)
	if !fire.Equal(want) {
		t.Fatalf("expected fire tomorrow at 09:00, got %s", fire)
	}
}

func TestNextFireAt_ExactlyAtFireTime(t *testing.T) {
	s := newTestScheduler(&stubRunner{})
	now := time.Date(2025, 7, 17, 9, 0, 0, 0, salonTZ)

	fire := s.NextFireAt(now)
	want := time.Date(2025, 7, 18, 9, 0, 0, 0, salonTZ)
	if !fire.Equal(want) {
		t.Fatalf("09:00 sharp belongs to the next day, got %s", fire)
	}
}

func TestNextFireAt_HostTimezoneIrrelevant(t *testing.T) {
	s := newTestScheduler(&stubRunner{})
	// Same instant expressed in UTC must yield the same salon-local fire time.
	now := time.Date(2025, 7, 17, 7, 30, 0, 0, time.UTC) // 08:30 CET

	fire := s.NextFireAt(now)
	want := time.Date(2025, 7, 17, 9, 0, 0, 0, salonTZ)
	if !fire.Equal(want) {
		t.Fatalf("expected 09:00 salon-local, got %s", fire)
	}
}

func TestTriggerNow_RunsCycleForLeadDay(t *testing.T) {
	r := &stubRunner{}
	s := newTestScheduler(r)
	s.now = func() time.Time { return time.Date(2025, 7, 17, 12, 0, 0, 0, salonTZ) }

	report, err := s.TriggerNow(context.Background(), model.Date{})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	want := model.Date{Year: 2025, Month: time.July, Day: 18}
	if report.TargetDate != want {
		t.Fatalf("expected default target %s, got %s", want, report.TargetDate)
	}
}

func TestTriggerNow_ExplicitDate(t *testing.T) {
	r := &stubRunner{}
	s := newTestScheduler(r)

	want := model.Date{Year: 2025, Month: time.August, Day: 1}
	if _, err := s.TriggerNow(context.Background(), want); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(r.targets) != 1 || r.targets[0] != want {
		t.Fatalf("expected explicit target %s, got %v", want, r.targets)
	}
}

func TestTriggerNow_RejectedWhileDispatching(t *testing.T) {
	r := &stubRunner{block: make(chan struct{}), started: make(chan struct{})}
	s := newTestScheduler(r)

	started := r.started
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.TriggerNow(context.Background(), model.Date{Year: 2025, Month: time.July, Day: 18})
	}()
	<-started

	_, err := s.TriggerNow(context.Background(), model.Date{Year: 2025, Month: time.July, Day: 18})
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(r.block)
	<-done

	// Once the first cycle completed the trigger is accepted again.
	r.block = nil
	if _, err := s.TriggerNow(context.Background(), model.Date{Year: 2025, Month: time.July, Day: 19}); err != nil {
		t.Fatalf("trigger after completion: %v", err)
	}
}
