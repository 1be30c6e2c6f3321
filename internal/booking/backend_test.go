package booking

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/example/courtbook/internal/api"
)

// fakeBackend is an in-memory stand-in for the reservation service. It
// applies the real backend's rules: one active reservation per slot, a cap
// of two active reservations per session.
type fakeBackend struct {
	mu           sync.Mutex
	slots        map[string][]api.TimeSlot // date -> slots
	reservations []api.Reservation
	nextID       int64

	slotCalls   int
	createCalls int

	// createBarrier, when set, blocks CreateReservation until released.
	createBarrier chan struct{}
	createStarted chan struct{}

	failNext error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{slots: map[string][]api.TimeSlot{}, nextID: 100}
}

func (b *fakeBackend) addSlot(date string, s api.TimeSlot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s.Date = date
	b.slots[date] = append(b.slots[date], s)
}

func (b *fakeBackend) setAvailable(date string, id int64, available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.slots[date] {
		if b.slots[date][i].ID == id {
			b.slots[date][i].IsAvailable = available
		}
	}
}

func (b *fakeBackend) TimeSlots(ctx context.Context, scope api.Scope, date string) ([]api.TimeSlot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slotCalls++
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return nil, err
	}
	return append([]api.TimeSlot(nil), b.slots[date]...), nil
}

func (b *fakeBackend) CreateReservation(ctx context.Context, timeSlotID int64) (api.Reservation, error) {
	if b.createStarted != nil {
		close(b.createStarted)
		b.createStarted = nil
	}
	if b.createBarrier != nil {
		<-b.createBarrier
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCalls++
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return api.Reservation{}, err
	}

	for date, slots := range b.slots {
		for i, s := range slots {
			if s.ID != timeSlotID {
				continue
			}
			// availability is checked before anything else, like the
			// real backend
			if !s.IsAvailable {
				return api.Reservation{}, &api.APIError{
					Kind: api.KindSlotTaken, Status: http.StatusBadRequest,
					Detail: "This time slot is already booked.",
				}
			}
			active := 0
			for _, r := range b.reservations {
				if !r.IsCancelled {
					active++
				}
			}
			if active >= 2 {
				return api.Reservation{}, &api.APIError{
					Kind: api.KindUserLimit, Status: http.StatusBadRequest,
					Detail: "Maximum number of reservations (2) reached.",
				}
			}
			b.slots[date][i].IsAvailable = false
			b.nextID++
			res := api.Reservation{
				ID:              b.nextID,
				TimeSlot:        s.ID,
				TimeSlotDetails: b.slots[date][i],
				CreatedAt:       time.Now(),
			}
			b.reservations = append(b.reservations, res)
			return res, nil
		}
	}
	return api.Reservation{}, &api.APIError{
		Kind: api.KindNotFound, Status: http.StatusNotFound, Detail: "Time slot not found.",
	}
}

func (b *fakeBackend) Reservations(ctx context.Context) ([]api.Reservation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return nil, err
	}
	return append([]api.Reservation(nil), b.reservations...), nil
}

func (b *fakeBackend) CancelReservation(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return err
	}
	for i, r := range b.reservations {
		if r.ID == id {
			b.reservations[i].IsCancelled = true
			for date, slots := range b.slots {
				for j, s := range slots {
					if s.ID == r.TimeSlot {
						b.slots[date][j].IsAvailable = true
					}
				}
			}
			return nil
		}
	}
	return &api.APIError{Kind: api.KindNotFound, Status: http.StatusNotFound, Detail: "Not found."}
}
