// Package watch polls a court's availability until a wanted slot frees up,
// optionally booking it on the spot. It runs one target in the foreground;
// the client owns no durable job state.
package watch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/courtbook/internal/api"
	"github.com/example/courtbook/internal/booking"
)

// ErrWatchEnded means the watched date passed without a slot freeing up.
var ErrWatchEnded = errors.New("watch: date passed without an available slot")

// Watcher polls availability on an interval. When one of the preferred
// start times (or, with none configured, any slot) becomes available it
// either reports it or books it through the orchestrator.
type Watcher struct {
	Avail *booking.Availability
	Orch  *booking.Orchestrator
	Date  time.Time

	// PreferredTimes are start times like "09:00" or "09:00:00", tried in
	// slot order. Empty means first available wins.
	PreferredTimes []string

	Interval time.Duration
	Book     bool
	Log      *zap.Logger

	// Found runs when a matching slot shows up and Book is false.
	// Returning false keeps the watch running.
	Found func(api.TimeSlot) bool
}

// Run polls until booked, found, cancelled, or the date has passed.
// Returns the confirmed reservation when Book is set, nil otherwise.
func (w *Watcher) Run(ctx context.Context) (*api.Reservation, error) {
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	wanted := normalizeTimes(w.PreferredTimes)

	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// first attempt immediately
	if res, done, err := w.tick(ctx, wanted); done {
		return res, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
			if res, done, err := w.tick(ctx, wanted); done {
				return res, err
			}
		}
	}
}

func (w *Watcher) tick(ctx context.Context, wanted []string) (*api.Reservation, bool, error) {
	err := w.Orch.SelectDate(ctx, w.Date)
	switch {
	case err == nil:
		// loaded
	case errors.Is(err, booking.ErrPastDate):
		return nil, true, ErrWatchEnded
	case api.IsKind(err, api.KindUnauthorized):
		return nil, true, err
	default:
		// transient or otherwise; keep polling
		w.Log.Warn("slot poll failed", zap.Error(err))
		return nil, false, nil
	}

	slot, ok := pickSlot(w.Avail.Slots(), wanted)
	if !ok {
		w.Log.Debug("no wanted slot available yet",
			zap.String("date", w.Date.Format(api.DateFormat)))
		return nil, false, nil
	}

	if !w.Book {
		w.Log.Info("slot available", zap.Int64("time_slot", slot.ID), zap.String("interval", slot.Label()))
		if w.Found != nil && !w.Found(slot) {
			return nil, false, nil
		}
		return nil, true, nil
	}

	if !w.Orch.SelectSlot(slot.ID) {
		// availability flipped between load and select
		return nil, false, nil
	}
	res, err := w.Orch.Submit(ctx)
	if err == nil {
		return &res, true, nil
	}
	switch w.Orch.LastReason() {
	case booking.ReasonUnauthorized:
		return nil, true, err
	case booking.ReasonUserLimit, booking.ReasonDuplicateSlot:
		// polling again cannot fix these
		return nil, true, err
	default:
		// lost the race or transient; keep watching
		w.Log.Info("booking attempt failed, continuing watch",
			zap.Stringer("reason", w.Orch.LastReason()))
		return nil, false, nil
	}
}

// pickSlot returns the first available slot matching the wanted start
// times, or the earliest available slot when none are configured.
func pickSlot(slots []api.TimeSlot, wanted []string) (api.TimeSlot, bool) {
	for _, s := range slots {
		if !s.IsAvailable {
			continue
		}
		if len(wanted) == 0 {
			return s, true
		}
		for _, t := range wanted {
			if s.StartTime == t {
				return s, true
			}
		}
	}
	return api.TimeSlot{}, false
}

// normalizeTimes pads HH:MM to the backend's HH:MM:SS.
func normalizeTimes(times []string) []string {
	var out []string
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) == 5 {
			t += ":00"
		}
		out = append(out, t)
	}
	return out
}
