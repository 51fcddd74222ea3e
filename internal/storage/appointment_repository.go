package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stilistico/salonsched/internal/db"
	"github.com/stilistico/salonsched/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentDetailColumns = `
	a.id, a.stylist_id, a.client_id, a.service_id,
	a.date, a.start_minute, a.end_minute, a.status, a.reminder_sent,
	COALESCE(a.notes, ''), a.created_at,
	c.name, c.phone, s.name`

// ListByDate returns every appointment on date joined with its client
// and service, one read-consistent snapshot for a dispatch cycle.
func (r *AppointmentRepository) ListByDate(ctx context.Context, date model.Date) ([]model.AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentDetailColumns+`
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		WHERE a.date = $1
		ORDER BY a.start_minute, a.id
	`, dateArg(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDetails(rows)
}

func (r *AppointmentRepository) ListByStylistAndDate(ctx context.Context, stylistID int64, date model.Date) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stylist_id, client_id, service_id, date, start_minute, end_minute,
			status, reminder_sent, COALESCE(notes, ''), created_at
		FROM appointments
		WHERE stylist_id = $1 AND date = $2
		ORDER BY start_minute, id
	`, stylistID, dateArg(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// ListAll feeds full-table duplicate reconciliation.
func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stylist_id, client_id, service_id, date, start_minute, end_minute,
			status, reminder_sent, COALESCE(notes, ''), created_at
		FROM appointments
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// MarkReminderSent flips reminder_sent for the whole group in one
// statement. The reminder_sent = false guard makes a replay a no-op.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent = true
		WHERE id = ANY($1) AND reminder_sent = false
	`, ids)
	return err
}

func (r *AppointmentRepository) Insert(ctx context.Context, appt *model.Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (stylist_id, client_id, service_id, date, start_minute, end_minute, status, reminder_sent, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
		RETURNING id
	`, appt.StylistID, appt.ClientID, appt.ServiceID, dateArg(appt.Date),
		int(appt.Start), int(appt.End), string(appt.Status), appt.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Delete hard-deletes; only the duplicate reconciler calls this.
func (r *AppointmentRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = ANY($1)`, ids)
	return err
}

// Cancel soft-retires; the booking path never hard-deletes.
func (r *AppointmentRepository) Cancel(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = 'cancelled' WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) GetService(ctx context.Context, id int64) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, duration_minutes FROM services WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.DurationMinutes)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func dateArg(d model.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

type appointmentScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row appointmentScanner) (model.Appointment, error) {
	var (
		a      model.Appointment
		date   time.Time
		start  int
		end    int
		status string
	)
	if err := row.Scan(&a.ID, &a.StylistID, &a.ClientID, &a.ServiceID, &date, &start, &end,
		&status, &a.ReminderSent, &a.Notes, &a.CreatedAt); err != nil {
		return model.Appointment{}, err
	}
	a.Date = model.DateOf(date)
	a.Start = model.MinuteOfDay(start)
	a.End = model.MinuteOfDay(end)
	a.Status = model.AppointmentStatus(status)
	return a, nil
}

func scanDetails(rows pgx.Rows) ([]model.AppointmentDetail, error) {
	var details []model.AppointmentDetail
	for rows.Next() {
		var (
			d      model.AppointmentDetail
			date   time.Time
			start  int
			end    int
			status string
		)
		if err := rows.Scan(&d.ID, &d.StylistID, &d.ClientID, &d.ServiceID, &date, &start, &end,
			&status, &d.ReminderSent, &d.Notes, &d.CreatedAt,
			&d.ClientName, &d.ClientPhone, &d.ServiceName); err != nil {
			return nil, err
		}
		d.Date = model.DateOf(date)
		d.Start = model.MinuteOfDay(start)
		d.End = model.MinuteOfDay(end)
		d.Status = model.AppointmentStatus(status)
		details = append(details, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return details, nil
}
