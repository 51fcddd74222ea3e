package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stilistico/salonsched/internal/dispatch"
	"github.com/stilistico/salonsched/internal/model"
	"github.com/stilistico/salonsched/internal/scheduler"
)

type stubTrigger struct {
	report dispatch.CycleReport
	err    error
	target model.Date
}

func (s *stubTrigger) TriggerNow(_ context.Context, targetDate model.Date) (dispatch.CycleReport, error) {
	s.target = targetDate
	return s.report, s.err
}

type stubStore struct {
	appts   []model.Appointment
	deleted []int64
}

func (s *stubStore) ListAll(_ context.Context) ([]model.Appointment, error) {
	return s.appts, nil
}

func (s *stubStore) ListByDate(_ context.Context, date model.Date) ([]model.AppointmentDetail, error) {
	var details []model.AppointmentDetail
	for _, a := range s.appts {
		if a.Date == date {
			details = append(details, model.AppointmentDetail{Appointment: a})
		}
	}
	return details, nil
}

func (s *stubStore) Delete(_ context.Context, ids []int64) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunReminders_OK(t *testing.T) {
	trigger := &stubTrigger{report: dispatch.CycleReport{
		RunID:           "r1",
		TargetDate:      model.Date{Year: 2025, Month: time.July, Day: 18},
		ClientsNotified: 2,
	}}
	h := NewAdminHandler(trigger, &stubStore{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/admin/reminders/run?date=2025-07-18", nil)
	rec := httptest.NewRecorder()
	h.RunReminders(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := model.Date{Year: 2025, Month: time.July, Day: 18}
	if trigger.target != want {
		t.Fatalf("expected target %s, got %s", want, trigger.target)
	}
	var report dispatch.CycleReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.ClientsNotified != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunReminders_AlreadyRunning(t *testing.T) {
	trigger := &stubTrigger{err: scheduler.ErrAlreadyRunning}
	h := NewAdminHandler(trigger, &stubStore{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/admin/reminders/run", nil)
	rec := httptest.NewRecorder()
	h.RunReminders(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRunReminders_MethodAndDateValidation(t *testing.T) {
	h := NewAdminHandler(&stubTrigger{}, &stubStore{}, nil, testLogger())

	rec := httptest.NewRecorder()
	h.RunReminders(rec, httptest.NewRequest(http.MethodGet, "/admin/reminders/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.RunReminders(rec, httptest.NewRequest(http.MethodPost, "/admin/reminders/run?date=18-07-2025", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestReconcileDuplicates(t *testing.T) {
	date := model.Date{Year: 2025, Month: time.July, Day: 17}
	dup := model.Appointment{
		Date: date, Start: 9 * 60, End: 10 * 60,
		ClientID: 5, StylistID: 2, ServiceID: 3, Status: model.StatusScheduled,
	}
	a, b := dup, dup
	a.ID, b.ID = 10, 11
	store := &stubStore{appts: []model.Appointment{a, b}}
	h := NewAdminHandler(&stubTrigger{}, store, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/admin/duplicates/reconcile", nil)
	rec := httptest.NewRecorder()
	h.ReconcileDuplicates(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp reconcileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.GroupsFound != 1 || resp.DeletedCount != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 11 {
		t.Fatalf("expected id 11 deleted, got %v", store.deleted)
	}
}
