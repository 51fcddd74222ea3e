// Package dispatch runs one reminder cycle: select the day's eligible
// appointments, group them by normalized phone, send one message per
// group and flip reminder_sent only after a confirmed send.
package dispatch

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stilistico/salonsched/internal/model"
	"github.com/stilistico/salonsched/internal/notifier"
	"github.com/stilistico/salonsched/internal/phone"
)

// Store is the appointment persistence the cycle reads and commits
// through. MarkReminderSent must be atomic and idempotent.
type Store interface {
	ListByDate(ctx context.Context, date model.Date) ([]model.AppointmentDetail, error)
	MarkReminderSent(ctx context.Context, ids []int64) error
}

// Audit records completed cycles; failures to audit never fail a cycle.
type Audit interface {
	CycleCompleted(ctx context.Context, report CycleReport)
}

type GroupFailure struct {
	Phone          string  `json:"phone"`
	AppointmentIDs []int64 `json:"appointment_ids"`
	Reason         string  `json:"reason"`
}

type CycleReport struct {
	RunID              string         `json:"run_id"`
	TargetDate         model.Date     `json:"target_date"`
	ClientsNotified    int            `json:"clients_notified"`
	AppointmentsMarked int            `json:"appointments_marked"`
	AlreadySent        int            `json:"already_sent"`
	InvalidPhones      int            `json:"invalid_phones"`
	Failures           []GroupFailure `json:"failures,omitempty"`
}

type Runner struct {
	store      Store
	notifier   notifier.Notifier
	normalizer phone.Normalizer
	audit      Audit
	logger     *slog.Logger
	workers    int
}

func NewRunner(store Store, n notifier.Notifier, normalizer phone.Normalizer, audit Audit, logger *slog.Logger, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		store:      store,
		notifier:   n,
		normalizer: normalizer,
		audit:      audit,
		logger:     logger,
		workers:    workers,
	}
}

// clientGroup is every eligible appointment sharing one normalized
// phone. Grouping is by phone, not client id: two client records with
// the same number must not receive two messages.
type clientGroup struct {
	phone      string
	clientName string
	ids        []int64
	entries    []notifier.Entry
}

// RunCycle is cycle-fatal only on store errors; per-group notifier and
// commit failures are counted and the cycle continues.
func (r *Runner) RunCycle(ctx context.Context, targetDate model.Date) (CycleReport, error) {
	ctx, span := otel.Tracer("dispatch").Start(ctx, "reminder.cycle")
	defer span.End()
	span.SetAttributes(attribute.String("reminder.target_date", targetDate.String()))

	report := CycleReport{RunID: uuid.NewString(), TargetDate: targetDate}

	appts, err := r.store.ListByDate(ctx, targetDate)
	if err != nil {
		span.RecordError(err)
		return CycleReport{}, err
	}

	groups := make(map[string]*clientGroup)
	for _, a := range appts {
		if a.Status != model.StatusScheduled {
			continue
		}
		if a.ReminderSent {
			report.AlreadySent++
			continue
		}
		normalized, err := r.normalizer.Normalize(a.ClientPhone)
		if err != nil {
			report.InvalidPhones++
			r.logger.Warn("appointment skipped: invalid phone",
				"appointment_id", a.ID, "client_id", a.ClientID)
			continue
		}
		g := groups[normalized]
		if g == nil {
			g = &clientGroup{phone: normalized, clientName: a.ClientName}
			groups[normalized] = g
		}
		g.ids = append(g.ids, a.ID)
		g.entries = append(g.entries, notifier.Entry{Start: a.Start, Service: a.ServiceName})
	}

	ordered := make([]*clientGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.entries, func(i, j int) bool { return g.entries[i].Start < g.entries[j].Start })
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].phone < ordered[j].phone })

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.workers)
	)
	for _, g := range ordered {
		wg.Add(1)
		sem <- struct{}{}
		go func(g *clientGroup) {
			defer wg.Done()
			defer func() { <-sem }()

			notified, marked, failure := r.dispatchGroup(ctx, targetDate, g)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				report.Failures = append(report.Failures, *failure)
				return
			}
			report.ClientsNotified += notified
			report.AppointmentsMarked += marked
		}(g)
	}
	wg.Wait()

	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Phone < report.Failures[j].Phone })

	r.logger.Info("reminder cycle finished",
		"run_id", report.RunID,
		"target_date", targetDate.String(),
		"clients_notified", report.ClientsNotified,
		"appointments_marked", report.AppointmentsMarked,
		"already_sent", report.AlreadySent,
		"invalid_phones", report.InvalidPhones,
		"failures", len(report.Failures),
	)
	if r.audit != nil {
		r.audit.CycleCompleted(ctx, report)
	}
	return report, nil
}

func (r *Runner) dispatchGroup(ctx context.Context, targetDate model.Date, g *clientGroup) (notified, marked int, failure *GroupFailure) {
	msg := notifier.Message{
		ClientName: g.clientName,
		Date:       targetDate,
		Entries:    g.entries,
	}

	messageID, err := r.notifier.Send(ctx, g.phone, msg)
	if err != nil {
		r.logger.Error("notifier send failed", "phone", g.phone, "err", err)
		return 0, 0, &GroupFailure{Phone: g.phone, AppointmentIDs: g.ids, Reason: "send failed: " + err.Error()}
	}

	// The message left the building; if the commit fails the group stays
	// unsent and a later cycle retries it. A duplicate message beats a
	// silently dropped reminder.
	if err := r.store.MarkReminderSent(ctx, g.ids); err != nil {
		r.logger.Error("reminder sent but state commit failed",
			"phone", g.phone, "message_id", messageID, "err", err)
		return 0, 0, &GroupFailure{Phone: g.phone, AppointmentIDs: g.ids, Reason: "sent but not committed: " + err.Error()}
	}

	r.logger.Info("reminder sent", "phone", g.phone, "message_id", messageID, "appointments", len(g.ids))
	return 1, len(g.ids), nil
}
