package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stilistico/salonsched/internal/model"
)

type fakeDeleter struct {
	deleted []int64
	err     error
}

func (f *fakeDeleter) Delete(_ context.Context, ids []int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

func duplicateSet() []model.Appointment {
	date := model.Date{Year: 2025, Month: time.July, Day: 17}
	tmpl := model.Appointment{
		Date: date, Start: 9 * 60, End: 10 * 60,
		ClientID: 5, StylistID: 2, ServiceID: 3,
		Status: model.StatusScheduled,
	}
	a, b, c := tmpl, tmpl, tmpl
	a.ID, b.ID, c.ID = 11, 10, 12
	unrelated := tmpl
	unrelated.ID = 20
	unrelated.Start = 11 * 60
	return []model.Appointment{a, b, c, unrelated}
}

func TestFind_GroupsExactDuplicates(t *testing.T) {
	groups := Find(duplicateSet())
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if len(g.IDs) != 3 || g.IDs[0] != 10 || g.IDs[1] != 11 || g.IDs[2] != 12 {
		t.Fatalf("expected ids [10 11 12] ascending, got %v", g.IDs)
	}
}

func TestReconcile_KeepsLowestID(t *testing.T) {
	store := &fakeDeleter{}
	result, err := Reconcile(context.Background(), store, Find(duplicateSet()))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Kept) != 1 || result.Kept[0] != 10 {
		t.Fatalf("expected to keep id 10, got %v", result.Kept)
	}
	if len(result.Deleted) != 2 || result.Deleted[0] != 11 || result.Deleted[1] != 12 {
		t.Fatalf("expected to delete [11 12], got %v", result.Deleted)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected 2 hard deletes, got %v", store.deleted)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	appts := duplicateSet()
	store := &fakeDeleter{}
	first, err := Reconcile(context.Background(), store, Find(appts))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Remove what the first run deleted and rerun.
	deleted := make(map[int64]bool)
	for _, id := range first.Deleted {
		deleted[id] = true
	}
	var remaining []model.Appointment
	for _, a := range appts {
		if !deleted[a.ID] {
			remaining = append(remaining, a)
		}
	}

	second, err := Reconcile(context.Background(), store, Find(remaining))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Deleted) != 0 {
		t.Fatalf("second run must delete nothing, got %v", second.Deleted)
	}
}

func TestReconcile_DeleteFailure(t *testing.T) {
	wantErr := errors.New("store down")
	store := &fakeDeleter{err: wantErr}
	_, err := Reconcile(context.Background(), store, Find(duplicateSet()))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
