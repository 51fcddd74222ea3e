package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/stilistico/salonsched/internal/dedupe"
	"github.com/stilistico/salonsched/internal/dispatch"
	"github.com/stilistico/salonsched/internal/model"
	"github.com/stilistico/salonsched/internal/scheduler"
)

// Trigger is the manual side of the reminder scheduler.
type Trigger interface {
	TriggerNow(ctx context.Context, targetDate model.Date) (dispatch.CycleReport, error)
}

// ReconcileStore is what a duplicate reconciliation run reads and deletes through.
type ReconcileStore interface {
	ListAll(ctx context.Context) ([]model.Appointment, error)
	ListByDate(ctx context.Context, date model.Date) ([]model.AppointmentDetail, error)
	Delete(ctx context.Context, ids []int64) error
}

// ReconcileAudit records reconciliation runs; nil-able.
type ReconcileAudit interface {
	DuplicatesReconciled(ctx context.Context, runID string, result dedupe.Result)
}

type AdminHandler struct {
	trigger Trigger
	store   ReconcileStore
	audit   ReconcileAudit
	logger  *slog.Logger
}

func NewAdminHandler(trigger Trigger, store ReconcileStore, audit ReconcileAudit, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{trigger: trigger, store: store, audit: audit, logger: logger}
}

// RunReminders handles POST /admin/reminders/run. An optional
// date=YYYY-MM-DD overrides the configured target day.
func (h *AdminHandler) RunReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var targetDate model.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		targetDate = parsed
	}

	report, err := h.trigger.TriggerNow(r.Context(), targetDate)
	if err != nil {
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			http.Error(w, "reminder cycle already running", http.StatusConflict)
			return
		}
		h.logger.Error("manual reminder cycle failed", "err", err)
		http.Error(w, "reminder cycle failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type reconcileResponse struct {
	RunID        string  `json:"run_id"`
	GroupsFound  int     `json:"groups_found"`
	KeptIDs      []int64 `json:"kept_ids"`
	DeletedIDs   []int64 `json:"deleted_ids"`
	DeletedCount int     `json:"deleted_count"`
}

// ReconcileDuplicates handles POST /admin/duplicates/reconcile. Without
// a date parameter the whole appointment table is scanned.
func (h *AdminHandler) ReconcileDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		appts []model.Appointment
		err   error
	)
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, perr := model.ParseDate(raw)
		if perr != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		details, derr := h.store.ListByDate(r.Context(), date)
		if derr != nil {
			err = derr
		} else {
			for _, d := range details {
				appts = append(appts, d.Appointment)
			}
		}
	} else {
		appts, err = h.store.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("reconcile read failed", "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	groups := dedupe.Find(appts)
	result, err := dedupe.Reconcile(r.Context(), h.store, groups)
	if err != nil {
		h.logger.Error("reconcile delete failed", "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	runID := uuid.NewString()
	h.logger.Info("duplicates reconciled",
		"run_id", runID, "groups", len(groups), "deleted", len(result.Deleted))
	if h.audit != nil {
		h.audit.DuplicatesReconciled(r.Context(), runID, result)
	}

	writeJSON(w, http.StatusOK, reconcileResponse{
		RunID:        runID,
		GroupsFound:  len(groups),
		KeptIDs:      result.Kept,
		DeletedIDs:   result.Deleted,
		DeletedCount: len(result.Deleted),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
