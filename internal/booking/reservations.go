package booking

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/example/courtbook/internal/api"
)

// ReservationGateway is the gateway slice the list manager needs.
type ReservationGateway interface {
	Reservations(ctx context.Context) ([]api.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
}

// ReservationList mirrors the caller's active reservations. Mutations are
// confirm-then-mutate: the local list only changes after the backend
// acknowledges, so it never understates server truth.
type ReservationList struct {
	client ReservationGateway
	log    *zap.Logger

	mu    sync.Mutex
	items []api.Reservation
}

func NewReservationList(client ReservationGateway, log *zap.Logger) *ReservationList {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationList{client: client, log: log}
}

// Load fetches the caller's reservations, drops cancelled ones, and keeps
// them newest first. A failed fetch leaves the previous list intact.
func (l *ReservationList) Load(ctx context.Context) ([]api.Reservation, error) {
	fetched, err := l.client.Reservations(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]api.Reservation, 0, len(fetched))
	for _, r := range fetched {
		if !r.IsCancelled {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	l.mu.Lock()
	l.items = active
	l.mu.Unlock()
	return append([]api.Reservation(nil), active...), nil
}

// Cancel asks the backend to cancel the reservation and removes it from the
// local list only after the backend confirms. On failure the list is left
// exactly as it was; the entry must never silently disappear.
func (l *ReservationList) Cancel(ctx context.Context, id int64) error {
	if err := l.client.CancelReservation(ctx, id); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0]
	for _, r := range l.items {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	l.items = kept
	l.log.Info("reservation cancelled", zap.Int64("reservation_id", id))
	return nil
}

// Reservations returns the current local snapshot.
func (l *ReservationList) Reservations() []api.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.Reservation(nil), l.items...)
}
