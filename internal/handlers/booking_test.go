package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stilistico/salonsched/internal/calendar"
	"github.com/stilistico/salonsched/internal/conflict"
	"github.com/stilistico/salonsched/internal/model"
)

type stubBookingStore struct {
	inserted *model.Appointment
	existing []model.Appointment
	services map[int64]model.Service
}

func (s *stubBookingStore) Insert(_ context.Context, appt *model.Appointment) (int64, error) {
	s.inserted = appt
	return 101, nil
}

func (s *stubBookingStore) GetService(_ context.Context, id int64) (model.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return model.Service{}, pgx.ErrNoRows
	}
	return svc, nil
}

func (s *stubBookingStore) GetWeek(_ context.Context, _ int64) (calendar.Week, error) {
	var rows []model.WorkingHours
	for d := time.Sunday; d <= time.Saturday; d++ {
		rows = append(rows, model.WorkingHours{
			Weekday: d, IsWorking: true, Start: 9 * 60, End: 18 * 60,
			BreakStart: model.NoBreak, BreakEnd: model.NoBreak,
		})
	}
	return calendar.NewWeek(rows), nil
}

func (s *stubBookingStore) ListByStylistAndDate(_ context.Context, _ int64, _ model.Date) ([]model.Appointment, error) {
	return s.existing, nil
}

func newBookingHandler(store *stubBookingStore) *BookingHandler {
	checker := conflict.NewChecker(store, store)
	return NewBookingHandler(checker, store, testLogger())
}

func postBooking(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreateBooking_DefaultDuration(t *testing.T) {
	store := &stubBookingStore{services: map[int64]model.Service{3: {ID: 3, Name: "Taglio", DurationMinutes: 45}}}
	h := newBookingHandler(store)

	rec := postBooking(t, h, `{"stylist_id":2,"client_id":5,"service_id":3,"date":"2025-07-17","start":"10:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.inserted == nil || store.inserted.End != 10*60+45 {
		t.Fatalf("expected end derived from service duration, got %+v", store.inserted)
	}

	var resp createBookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AppointmentID != 101 || resp.ModifiedDuration {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateBooking_ExplicitEndFlagsModifiedDuration(t *testing.T) {
	store := &stubBookingStore{services: map[int64]model.Service{3: {ID: 3, Name: "Taglio", DurationMinutes: 45}}}
	h := newBookingHandler(store)

	rec := postBooking(t, h, `{"stylist_id":2,"client_id":5,"service_id":3,"date":"2025-07-17","start":"10:00","end":"11:30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createBookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.ModifiedDuration {
		t.Fatalf("90 minute booking of a 45 minute service must be flagged")
	}
}

func TestCreateBooking_SlotOccupied(t *testing.T) {
	store := &stubBookingStore{
		services: map[int64]model.Service{3: {ID: 3, Name: "Taglio", DurationMinutes: 45}},
		existing: []model.Appointment{{
			ID: 7, StylistID: 2, Start: 10 * 60, End: 11 * 60, Status: model.StatusScheduled,
			Date: model.Date{Year: 2025, Month: time.July, Day: 17},
		}},
	}
	h := newBookingHandler(store)

	rec := postBooking(t, h, `{"stylist_id":2,"client_id":5,"service_id":3,"date":"2025-07-17","start":"10:30"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if store.inserted != nil {
		t.Fatalf("conflicting booking must not be inserted")
	}
}

func TestCreateBooking_OutsideWorkingHours(t *testing.T) {
	store := &stubBookingStore{services: map[int64]model.Service{3: {ID: 3, Name: "Taglio", DurationMinutes: 45}}}
	h := newBookingHandler(store)

	rec := postBooking(t, h, `{"stylist_id":2,"client_id":5,"service_id":3,"date":"2025-07-17","start":"19:00"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCreateBooking_UnknownService(t *testing.T) {
	store := &stubBookingStore{services: map[int64]model.Service{}}
	h := newBookingHandler(store)

	rec := postBooking(t, h, `{"stylist_id":2,"client_id":5,"service_id":99,"date":"2025-07-17","start":"10:00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
