package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/courtbook/internal/api"
)

func seedReservations(b *fakeBackend) {
	base := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)
	b.reservations = []api.Reservation{
		{ID: 10, TimeSlot: 1, CreatedAt: base, CourtName: "Court 1"},
		{ID: 11, TimeSlot: 2, CreatedAt: base.Add(2 * time.Hour), CourtName: "Court 2"},
		{ID: 12, TimeSlot: 3, CreatedAt: base.Add(time.Hour), IsCancelled: true},
	}
}

func TestLoadFiltersCancelledAndSortsNewestFirst(t *testing.T) {
	b := newFakeBackend()
	seedReservations(b)
	l := NewReservationList(b, nil)

	rs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 2, "cancelled reservations are excluded")
	assert.Equal(t, int64(11), rs[0].ID)
	assert.Equal(t, int64(10), rs[1].ID)
}

func TestCancelRemovesAfterConfirmation(t *testing.T) {
	b := newFakeBackend()
	seedReservations(b)
	l := NewReservationList(b, nil)
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, l.Cancel(context.Background(), 11))

	local := l.Reservations()
	require.Len(t, local, 1)
	assert.Equal(t, int64(10), local[0].ID)

	// the backend agrees after a fresh load
	rs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, int64(10), rs[0].ID)
}

func TestFailedCancelLeavesListUnchanged(t *testing.T) {
	b := newFakeBackend()
	seedReservations(b)
	l := NewReservationList(b, nil)
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	before := l.Reservations()
	b.failNext = &api.APIError{Kind: api.KindTransient, Status: 503, Detail: "try later"}

	err = l.Cancel(context.Background(), 11)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindTransient))
	assert.Equal(t, before, l.Reservations(), "a failed cancel must not drop the entry")
}

func TestCancelUnknownReservation(t *testing.T) {
	b := newFakeBackend()
	seedReservations(b)
	l := NewReservationList(b, nil)
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	before := l.Reservations()
	err = l.Cancel(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindNotFound))
	assert.Equal(t, before, l.Reservations())
}

func TestLoadFailureKeepsPreviousList(t *testing.T) {
	b := newFakeBackend()
	seedReservations(b)
	l := NewReservationList(b, nil)
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	b.failNext = &api.APIError{Kind: api.KindTransient, Status: 502}
	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.Len(t, l.Reservations(), 2)
}

func TestCancelFreesTheSlot(t *testing.T) {
	b := newFakeBackend()
	b.addSlot("2024-06-01", api.TimeSlot{ID: 1, StartTime: "09:00:00", EndTime: "10:00:00", IsAvailable: true})

	a := NewAvailability(b, api.CourtScope(7), nil)
	a.now = fixedNow
	o := NewOrchestrator(a, b)
	ctx := context.Background()
	require.NoError(t, o.SelectDate(ctx, day("2024-06-01")))
	require.True(t, o.SelectSlot(1))
	res, err := o.Submit(ctx)
	require.NoError(t, err)

	l := NewReservationList(b, nil)
	_, err = l.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Cancel(ctx, res.ID))

	// the slot is bookable again on the next load
	_, err = a.Load(ctx, day("2024-06-01"))
	require.NoError(t, err)
	assert.True(t, a.Selectable(1))
}
