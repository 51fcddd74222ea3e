package storage

import (
	"context"
	"time"

	"github.com/stilistico/salonsched/internal/calendar"
	"github.com/stilistico/salonsched/internal/db"
	"github.com/stilistico/salonsched/internal/model"
)

type WorkingHoursRepository struct {
	pool *db.Pool
}

func NewWorkingHoursRepository(pool *db.Pool) *WorkingHoursRepository {
	return &WorkingHoursRepository{pool: pool}
}

// GetWeek loads the stylist's full weekly configuration as one
// snapshot. Weekdays without a row come back as non-working days.
func (r *WorkingHoursRepository) GetWeek(ctx context.Context, stylistID int64) (calendar.Week, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stylist_id, weekday, is_working, start_minute, end_minute,
			COALESCE(break_start_minute, -1), COALESCE(break_end_minute, -1)
		FROM stylist_working_hours
		WHERE stylist_id = $1
	`, stylistID)
	if err != nil {
		return calendar.Week{}, err
	}
	defer rows.Close()

	var hours []model.WorkingHours
	for rows.Next() {
		var (
			w          model.WorkingHours
			weekday    int
			start      int
			end        int
			breakStart int
			breakEnd   int
		)
		if err := rows.Scan(&w.StylistID, &weekday, &w.IsWorking, &start, &end, &breakStart, &breakEnd); err != nil {
			return calendar.Week{}, err
		}
		w.Weekday = time.Weekday(weekday)
		w.Start = model.MinuteOfDay(start)
		w.End = model.MinuteOfDay(end)
		w.BreakStart = model.MinuteOfDay(breakStart)
		w.BreakEnd = model.MinuteOfDay(breakEnd)
		hours = append(hours, w)
	}
	if rows.Err() != nil {
		return calendar.Week{}, rows.Err()
	}
	return calendar.NewWeek(hours), nil
}
