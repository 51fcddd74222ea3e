package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/stilistico/salonsched/internal/db"
	"github.com/stilistico/salonsched/internal/dedupe"
	"github.com/stilistico/salonsched/internal/dispatch"
)

// Recorder writes engine audit events through the outbox. Audit is
// best-effort: a failed insert is logged, never propagated, so a cycle
// can not fail because Kafka plumbing is down.
type Recorder struct {
	pool   *db.Pool
	repo   *Repository
	logger *slog.Logger
}

func NewRecorder(pool *db.Pool, repo *Repository, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, repo: repo, logger: logger}
}

func (r *Recorder) CycleCompleted(ctx context.Context, report dispatch.CycleReport) {
	payload, err := json.Marshal(map[string]any{
		"run_id":              report.RunID,
		"target_date":         report.TargetDate.String(),
		"clients_notified":    report.ClientsNotified,
		"appointments_marked": report.AppointmentsMarked,
		"already_sent":        report.AlreadySent,
		"invalid_phones":      report.InvalidPhones,
		"failures":            report.Failures,
		"completed_at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		r.logger.Error("cycle audit payload marshal failed", "err", err)
		return
	}
	r.record(ctx, Event{
		AggregateType: "reminder_cycle",
		AggregateID:   report.RunID,
		EventType:     "reminder.cycle.completed.v1",
		Payload:       payload,
	})
}

func (r *Recorder) DuplicatesReconciled(ctx context.Context, runID string, result dedupe.Result) {
	payload, err := json.Marshal(map[string]any{
		"run_id":        runID,
		"kept_ids":      result.Kept,
		"deleted_ids":   result.Deleted,
		"reconciled_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		r.logger.Error("reconcile audit payload marshal failed", "err", err)
		return
	}
	r.record(ctx, Event{
		AggregateType: "duplicate_reconciliation",
		AggregateID:   runID,
		EventType:     "duplicates.reconciled.v1",
		Payload:       payload,
	})
}

func (r *Recorder) record(ctx context.Context, evt Event) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("audit event not recorded", "event_type", evt.EventType, "err", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.repo.Insert(ctx, tx, evt); err != nil {
		r.logger.Error("audit event not recorded", "event_type", evt.EventType, "err", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("audit event not recorded", "event_type", evt.EventType, "err", err)
	}
}
