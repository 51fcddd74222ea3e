// Package dedupe collapses accidental duplicate bookings. Duplicates are
// data-entry errors, not real appointments, so losers are hard-deleted.
package dedupe

import (
	"context"
	"sort"

	"github.com/stilistico/salonsched/internal/model"
)

// Key identifies a booking-of-record: two appointments with the same key
// are the same booking entered twice.
type Key struct {
	Date      model.Date
	Start     model.MinuteOfDay
	ClientID  int64
	StylistID int64
	ServiceID int64
}

// Group is a set of appointment ids sharing one Key, ids ascending.
type Group struct {
	Key Key
	IDs []int64
}

type Result struct {
	Kept    []int64
	Deleted []int64
}

type Deleter interface {
	Delete(ctx context.Context, ids []int64) error
}

// Find returns only groups with more than one member. Recomputed on each
// run; nothing is persisted, so a second run over reconciled data finds
// nothing.
func Find(appointments []model.Appointment) []Group {
	byKey := make(map[Key][]int64)
	for _, a := range appointments {
		k := Key{Date: a.Date, Start: a.Start, ClientID: a.ClientID, StylistID: a.StylistID, ServiceID: a.ServiceID}
		byKey[k] = append(byKey[k], a.ID)
	}

	var groups []Group
	for k, ids := range byKey {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, Group{Key: k, IDs: ids})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].IDs[0] < groups[j].IDs[0] })
	return groups
}

// Reconcile keeps the lowest id of each group (the earliest created, ids
// being monotonic) and deletes the rest.
func Reconcile(ctx context.Context, store Deleter, groups []Group) (Result, error) {
	var res Result
	for _, g := range groups {
		res.Kept = append(res.Kept, g.IDs[0])
		res.Deleted = append(res.Deleted, g.IDs[1:]...)
	}
	if len(res.Deleted) == 0 {
		return res, nil
	}
	if err := store.Delete(ctx, res.Deleted); err != nil {
		return Result{}, err
	}
	return res, nil
}
