package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stilistico/salonsched/internal/conflict"
	"github.com/stilistico/salonsched/internal/model"
	"github.com/stilistico/salonsched/internal/storage"
)

// BookingStore is the subset of the appointment repository the booking
// path mutates through.
type BookingStore interface {
	Insert(ctx context.Context, appt *model.Appointment) (int64, error)
	GetService(ctx context.Context, id int64) (model.Service, error)
}

type BookingHandler struct {
	checker *conflict.Checker
	store   BookingStore
	logger  *slog.Logger
}

func NewBookingHandler(checker *conflict.Checker, store BookingStore, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{checker: checker, store: store, logger: logger}
}

type createBookingRequest struct {
	StylistID int64  `json:"stylist_id"`
	ClientID  int64  `json:"client_id"`
	ServiceID int64  `json:"service_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	// End overrides the service's default duration when set.
	End   string `json:"end,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type createBookingResponse struct {
	AppointmentID    int64 `json:"appointment_id"`
	BreakOverlap     bool  `json:"break_overlap,omitempty"`
	ModifiedDuration bool  `json:"modified_duration,omitempty"`
}

// Create handles POST /bookings: conflict check, then insert. Break
// overlap does not block the booking; it is echoed back as a warning.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.StylistID == 0 || req.ClientID == 0 || req.ServiceID == 0 {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	start, err := model.ParseMinuteOfDay(req.Start)
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}

	svc, err := h.store.GetService(r.Context(), req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service", http.StatusBadRequest)
			return
		}
		h.logger.Error("service lookup failed", "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	end := start + model.MinuteOfDay(svc.DurationMinutes)
	if req.End != "" {
		end, err = model.ParseMinuteOfDay(req.End)
		if err != nil {
			http.Error(w, "invalid end", http.StatusBadRequest)
			return
		}
	}
	if start >= end {
		http.Error(w, "start must be before end", http.StatusBadRequest)
		return
	}

	placement, err := h.checker.CheckPlacement(r.Context(), conflict.Candidate{
		StylistID: req.StylistID,
		Date:      date,
		Start:     start,
		End:       end,
	})
	if err != nil {
		h.logger.Error("placement check failed", "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	if !placement.OK {
		switch placement.Reason {
		case conflict.OutsideWorkingHours:
			http.Error(w, "outside working hours", http.StatusUnprocessableEntity)
		case conflict.SlotOccupied:
			http.Error(w, "slot occupied", http.StatusConflict)
		default:
			http.Error(w, "placement rejected", http.StatusConflict)
		}
		return
	}

	appt := &model.Appointment{
		StylistID: req.StylistID,
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		Date:      date,
		Start:     start,
		End:       end,
		Status:    model.StatusScheduled,
		Notes:     req.Notes,
	}
	id, err := h.store.Insert(r.Context(), appt)
	if err != nil {
		h.logger.Error("booking insert failed", "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	h.logger.Info("booking created", "appointment_id", id,
		"stylist_id", req.StylistID, "date", date.String(),
		"break_overlap", placement.BreakOverlap)

	writeJSON(w, http.StatusCreated, createBookingResponse{
		AppointmentID:    id,
		BreakOverlap:     placement.BreakOverlap,
		ModifiedDuration: appt.ModifiedDuration(svc.DurationMinutes),
	})
}
