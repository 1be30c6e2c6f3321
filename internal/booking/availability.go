package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/courtbook/internal/api"
)

// SlotClient is the gateway slice the availability view needs.
type SlotClient interface {
	TimeSlots(ctx context.Context, scope api.Scope, date string) ([]api.TimeSlot, error)
}

var (
	// ErrPastDate rejects slot loads for dates before today. New bookings
	// in the past are never valid, so this is caught before any request.
	ErrPastDate = errors.New("booking: date is in the past")

	// ErrSuperseded marks a load whose response arrived after a newer
	// date was requested. The response is discarded, never merged.
	ErrSuperseded = errors.New("booking: slot load superseded by a newer date")
)

// Availability caches the bookable slots for one scope and one date at a
// time. Each successful load replaces the cached set wholesale; slot
// availability changes between loads, so stale entries must never survive
// a reload.
type Availability struct {
	client SlotClient
	scope  api.Scope
	log    *zap.Logger

	// now is swapped in tests.
	now func() time.Time

	mu    sync.Mutex
	gen   uint64
	date  string
	slots []api.TimeSlot
}

func NewAvailability(client SlotClient, scope api.Scope, log *zap.Logger) *Availability {
	if log == nil {
		log = zap.NewNop()
	}
	return &Availability{client: client, scope: scope, log: log, now: time.Now}
}

// Load fetches the slots for date, sorted by start time ascending, and
// makes them the cached set. A failed fetch leaves the previous cache
// intact and returns the typed error so the caller can offer a retry. An
// empty result is a valid, empty day, not an error.
func (a *Availability) Load(ctx context.Context, date time.Time) ([]api.TimeSlot, error) {
	day := date.Format(api.DateFormat)
	today := a.now().Format(api.DateFormat)
	if day < today {
		return nil, ErrPastDate
	}

	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	slots, err := a.client.TimeSlots(ctx, a.scope, day)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		a.log.Debug("dropping superseded slot load",
			zap.Stringer("scope", a.scope), zap.String("date", day))
		return nil, ErrSuperseded
	}

	// Zero-padded HH:MM:SS, so string order is time order.
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime < slots[j].StartTime
	})

	a.date = day
	a.slots = slots
	return append([]api.TimeSlot(nil), slots...), nil
}

// Reload refetches the currently cached date. Used after a conflict so the
// claimed slot shows up unavailable.
func (a *Availability) Reload(ctx context.Context) error {
	a.mu.Lock()
	day := a.date
	a.mu.Unlock()
	if day == "" {
		return nil
	}
	d, err := time.Parse(api.DateFormat, day)
	if err != nil {
		return err
	}
	_, err = a.Load(ctx, d)
	if errors.Is(err, ErrPastDate) {
		// Midnight passed while the view was open; nothing to refresh.
		return nil
	}
	return err
}

// Slots returns the cached set, in start-time order.
func (a *Availability) Slots() []api.TimeSlot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]api.TimeSlot(nil), a.slots...)
}

// Date returns the cached date (YYYY-MM-DD), empty before the first load.
func (a *Availability) Date() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.date
}

// Slot looks up a cached slot by id.
func (a *Availability) Slot(id int64) (api.TimeSlot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.slots {
		if s.ID == id {
			return s, true
		}
	}
	return api.TimeSlot{}, false
}

// Selectable reports whether the slot exists in the cache and is available.
func (a *Availability) Selectable(id int64) bool {
	s, ok := a.Slot(id)
	return ok && s.IsAvailable
}
