// Package scheduler drives the daily reminder cycle. It fires at a
// fixed local time-of-day in the configured salon timezone, never the
// host timezone, and recomputes the absolute fire instant after every
// cycle. A process restart loses nothing: the next fire time is a pure
// function of the wall clock and configuration.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stilistico/salonsched/internal/dispatch"
	"github.com/stilistico/salonsched/internal/model"
)

// ErrAlreadyRunning rejects a manual trigger while a cycle is in
// progress. Triggers are rejected, not queued.
var ErrAlreadyRunning = errors.New("a reminder cycle is already running")

type Runner interface {
	RunCycle(ctx context.Context, targetDate model.Date) (dispatch.CycleReport, error)
}

type Config struct {
	// FireTime is the local time-of-day the daily cycle starts.
	FireTime model.MinuteOfDay
	// Location is the salon timezone.
	Location *time.Location
	// LeadDays is how many days ahead the fired cycle targets: 1 means
	// the 09:00 run reminds clients of tomorrow's appointments.
	LeadDays int
}

type Scheduler struct {
	runner Runner
	cfg    Config
	logger *slog.Logger

	// trigger tokens: the single slot is held while Dispatching.
	busy chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

func New(runner Runner, cfg Config, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		busy:   make(chan struct{}, 1),
		now:    time.Now,
	}
	return s
}

// NextFireAt returns the next occurrence of the configured fire time in
// the salon timezone: today if now is before it, otherwise tomorrow.
func (s *Scheduler) NextFireAt(now time.Time) time.Time {
	local := now.In(s.cfg.Location)
	fire := model.DateOf(local).At(s.cfg.FireTime, s.cfg.Location)
	if !local.Before(fire) {
		fire = model.DateOf(local).AddDays(1).At(s.cfg.FireTime, s.cfg.Location)
	}
	return fire
}

// Run blocks until ctx is cancelled, firing one cycle per local
// calendar day. The timer is rearmed only after the cycle completes, so
// two scheduled cycles can never overlap; the cadence stays anchored to
// the fire time regardless of how long a cycle takes.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		fireAt := s.NextFireAt(s.now())
		s.logger.Info("reminder scheduler armed",
			"fire_at", fireAt.Format(time.RFC3339),
			"fire_time", s.cfg.FireTime.String(),
			"timezone", s.cfg.Location.String(),
		)

		timer := time.NewTimer(fireAt.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("reminder scheduler stopped")
			return
		case <-timer.C:
		}

		target := model.DateOf(fireAt.In(s.cfg.Location)).AddDays(s.cfg.LeadDays)
		if _, err := s.runScheduled(ctx, target); err != nil {
			s.logger.Error("scheduled reminder cycle failed", "target_date", target.String(), "err", err)
		}
	}
}

func (s *Scheduler) runScheduled(ctx context.Context, target model.Date) (dispatch.CycleReport, error) {
	select {
	case s.busy <- struct{}{}:
	default:
		// A manual trigger is mid-cycle; skip rather than stack a second
		// run. The next scheduled fire retries naturally.
		return dispatch.CycleReport{}, ErrAlreadyRunning
	}
	defer func() { <-s.busy }()
	return s.runner.RunCycle(ctx, target)
}

// TriggerNow runs a cycle for targetDate immediately, for the
// administrative surface. Returns ErrAlreadyRunning when a cycle
// (scheduled or manual) is in progress.
func (s *Scheduler) TriggerNow(ctx context.Context, targetDate model.Date) (dispatch.CycleReport, error) {
	select {
	case s.busy <- struct{}{}:
	default:
		return dispatch.CycleReport{}, ErrAlreadyRunning
	}
	defer func() { <-s.busy }()

	if targetDate.IsZero() {
		targetDate = model.DateOf(s.now().In(s.cfg.Location)).AddDays(s.cfg.LeadDays)
	}
	s.logger.Info("manual reminder cycle triggered", "target_date", targetDate.String())
	return s.runner.RunCycle(ctx, targetDate)
}
