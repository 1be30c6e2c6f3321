package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/courtbook/internal/api"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
}

func day(s string) time.Time {
	d, err := time.Parse(api.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLoadSortsByStartTime(t *testing.T) {
	b := newFakeBackend()
	b.addSlot("2024-06-01", api.TimeSlot{ID: 3, StartTime: "14:00:00", EndTime: "15:00:00", IsAvailable: true})
	b.addSlot("2024-06-01", api.TimeSlot{ID: 1, StartTime: "09:00:00", EndTime: "10:00:00", IsAvailable: true})
	b.addSlot("2024-06-01", api.TimeSlot{ID: 2, StartTime: "10:00:00", EndTime: "11:00:00", IsAvailable: false})

	a := NewAvailability(b, api.CourtScope(7), nil)
	a.now = fixedNow

	slots, err := a.Load(context.Background(), day("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for i := 1; i < len(slots); i++ {
		assert.LessOrEqual(t, slots[i-1].StartTime, slots[i].StartTime)
	}
	assert.Equal(t, []int64{1, 2, 3}, []int64{slots[0].ID, slots[1].ID, slots[2].ID})
}

func TestLoadEmptyDayIsNotAnError(t *testing.T) {
	b := newFakeBackend()
	a := NewAvailability(b, api.CourtScope(7), nil)
	a.now = fixedNow

	slots, err := a.Load(context.Background(), day("2024-06-02"))
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, "2024-06-02", a.Date())
}

func TestLoadFailureKeepsPreviousCache(t *testing.T) {
	b := newFakeBackend()
	b.addSlot("2024-06-01", api.TimeSlot{ID: 1, StartTime: "09:00:00", EndTime: "10:00:00", IsAvailable: true})

	a := NewAvailability(b, api.CourtScope(7), nil)
	a.now = fixedNow
	_, err := a.Load(context.Background(), day("2024-06-01"))
	require.NoError(t, err)

	b.failNext = &api.APIError{Kind: api.KindTransient, Detail: "connection refused"}
	_, err = a.Load(context.Background(), day("2024-06-02"))
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindTransient))

	assert.Equal(t, "2024-06-01", a.Date(), "failed load must not clobber the cache")
	assert.Len(t, a.Slots(), 1)
}

func TestLoadRejectsPastDates(t *testing.T) {
	b := newFakeBackend()
	a := NewAvailability(b, api.CourtScope(7), nil)
	a.now = fixedNow

	_, err := a.Load(context.Background(), day("2024-05-31"))
	require.ErrorIs(t, err, ErrPastDate)
	assert.Zero(t, b.slotCalls, "past dates are rejected before any request")
}

// blockingSlotClient lets a test hold one load in flight while another
// completes.
type blockingSlotClient struct {
	inner   SlotClient
	block   map[string]chan struct{} // date -> release barrier
	started chan string
}

func (c *blockingSlotClient) TimeSlots(ctx context.Context, scope api.Scope, date string) ([]api.TimeSlot, error) {
	c.started <- date
	if ch, ok := c.block[date]; ok {
		<-ch
	}
	return c.inner.TimeSlots(ctx, scope, date)
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	b := newFakeBackend()
	b.addSlot("2024-06-01", api.TimeSlot{ID: 1, StartTime: "09:00:00", EndTime: "10:00:00", IsAvailable: true})
	b.addSlot("2024-06-02", api.TimeSlot{ID: 9, StartTime: "11:00:00", EndTime: "12:00:00", IsAvailable: true})

	release := make(chan struct{})
	bc := &blockingSlotClient{
		inner:   b,
		block:   map[string]chan struct{}{"2024-06-01": release},
		started: make(chan string, 2),
	}

	a := NewAvailability(bc, api.CourtScope(7), nil)
	a.now = fixedNow

	firstDone := make(chan error, 1)
	go func() {
		_, err := a.Load(context.Background(), day("2024-06-01"))
		firstDone <- err
	}()
	require.Equal(t, "2024-06-01", <-bc.started)

	// user picks a new date while the first load hangs
	_, err := a.Load(context.Background(), day("2024-06-02"))
	require.NoError(t, err)
	require.Equal(t, "2024-06-02", <-bc.started)

	close(release)
	require.ErrorIs(t, <-firstDone, ErrSuperseded)

	// the late response never replaced the newer date's slots
	assert.Equal(t, "2024-06-02", a.Date())
	require.Len(t, a.Slots(), 1)
	assert.Equal(t, int64(9), a.Slots()[0].ID)
}

func TestSelectable(t *testing.T) {
	b := newFakeBackend()
	b.addSlot("2024-06-01", api.TimeSlot{ID: 1, StartTime: "09:00:00", EndTime: "10:00:00", IsAvailable: true})
	b.addSlot("2024-06-01", api.TimeSlot{ID: 2, StartTime: "10:00:00", EndTime: "11:00:00", IsAvailable: false})

	a := NewAvailability(b, api.CourtScope(7), nil)
	a.now = fixedNow
	_, err := a.Load(context.Background(), day("2024-06-01"))
	require.NoError(t, err)

	assert.True(t, a.Selectable(1))
	assert.False(t, a.Selectable(2), "unavailable slot is not selectable")
	assert.False(t, a.Selectable(99), "unknown slot is not selectable")
}
