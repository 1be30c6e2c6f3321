package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/courtbook/internal/api"
)

// State is the booking workflow state.
type State int

const (
	StateIdle State = iota
	StateSlotSelected
	StateSubmitting
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSlotSelected:
		return "slot_selected"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// Reason classifies a failed submission.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSlotTaken
	ReasonUserLimit
	ReasonDuplicateSlot
	ReasonUnauthorized
	ReasonTransient
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSlotTaken:
		return "slot_taken"
	case ReasonUserLimit:
		return "user_limit"
	case ReasonDuplicateSlot:
		return "duplicate_slot"
	case ReasonUnauthorized:
		return "unauthorized"
	case ReasonTransient:
		return "transient"
	}
	return "unknown"
}

// Message is the user-facing wording for a failure reason.
func (r Reason) Message() string {
	switch r {
	case ReasonSlotTaken:
		return "That time slot was just booked by someone else. Please pick another slot."
	case ReasonUserLimit:
		return "You have reached the maximum number of active reservations. Cancel one to book another."
	case ReasonDuplicateSlot:
		return "You already have a reservation for this time slot."
	case ReasonUnauthorized:
		return "Your session has expired. Please log in again."
	case ReasonTransient:
		return "The reservation service is unreachable. It is safe to retry."
	}
	return ""
}

var (
	// ErrNoSlotSelected means Submit was called without a selected slot.
	// Resolved locally; no request is made.
	ErrNoSlotSelected = errors.New("booking: no slot selected")

	// ErrSubmitInFlight rejects a Submit that overlaps another one.
	ErrSubmitInFlight = errors.New("booking: a submission is already in flight")
)

// ReservationCreator is the gateway slice the orchestrator needs.
type ReservationCreator interface {
	CreateReservation(ctx context.Context, timeSlotID int64) (api.Reservation, error)
}

// SessionInvalidator drops local authentication state when the backend
// rejects the token.
type SessionInvalidator interface {
	Invalidate() error
}

// Orchestrator drives one booking flow: pick a date, pick a slot, submit,
// interpret the outcome. It guarantees at most one in-flight submission and
// never reports Confirmed for a rejected booking. It is not meant to be
// shared across flows; create one per booking attempt context.
type Orchestrator struct {
	avail   *Availability
	client  ReservationCreator
	session SessionInvalidator
	log     *zap.Logger

	// onConfirmed lets the reservation list refresh after a successful
	// booking.
	onConfirmed func(api.Reservation)

	mu       sync.Mutex
	state    State
	reason   Reason
	selected *api.TimeSlot
	result   *api.Reservation
}

type OrchestratorOption func(*Orchestrator)

func WithSession(s SessionInvalidator) OrchestratorOption {
	return func(o *Orchestrator) { o.session = s }
}

func OnConfirmed(fn func(api.Reservation)) OrchestratorOption {
	return func(o *Orchestrator) { o.onConfirmed = fn }
}

func WithOrchestratorLogger(l *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = l }
}

func NewOrchestrator(avail *Availability, client ReservationCreator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{avail: avail, client: client, log: zap.NewNop(), state: StateIdle}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectDate always resets the flow to Idle, whatever the prior state, and
// reloads availability. Slot ids are not stable across dates, so a date
// change can never keep a selection.
func (o *Orchestrator) SelectDate(ctx context.Context, date time.Time) error {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return ErrSubmitInFlight
	}
	o.state = StateIdle
	o.reason = ReasonNone
	o.selected = nil
	o.result = nil
	o.mu.Unlock()

	_, err := o.avail.Load(ctx, date)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

// SelectSlot moves to SlotSelected if the slot is cached and available.
// Selecting an unavailable or unknown slot is a no-op, which is the guard
// against stale-cache races: the UI may still show a slot another user
// already claimed.
func (o *Orchestrator) SelectSlot(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSubmitting || o.state == StateConfirmed {
		return false
	}
	slot, ok := o.avail.Slot(id)
	if !ok || !slot.IsAvailable {
		return false
	}
	o.selected = &slot
	o.state = StateSlotSelected
	o.reason = ReasonNone
	return true
}

// Submit sends the reservation for the selected slot. Only legal from
// SlotSelected; a Submit while one is already in flight returns
// ErrSubmitInFlight without issuing a second request.
//
// On failure the flow settles back in SlotSelected (date and selection
// preserved) with the reason retrievable via LastReason, except an
// authorization failure, which invalidates the session and resets to Idle.
func (o *Orchestrator) Submit(ctx context.Context) (api.Reservation, error) {
	o.mu.Lock()
	switch o.state {
	case StateSubmitting:
		o.mu.Unlock()
		return api.Reservation{}, ErrSubmitInFlight
	case StateSlotSelected:
		// proceed
	default:
		o.mu.Unlock()
		return api.Reservation{}, ErrNoSlotSelected
	}
	slot := *o.selected
	o.state = StateSubmitting
	o.mu.Unlock()

	res, err := o.client.CreateReservation(ctx, slot.ID)
	if err == nil {
		o.mu.Lock()
		o.state = StateConfirmed
		o.reason = ReasonNone
		o.result = &res
		o.mu.Unlock()
		o.log.Info("reservation confirmed",
			zap.Int64("reservation_id", res.ID), zap.Int64("time_slot", slot.ID))
		if o.onConfirmed != nil {
			o.onConfirmed(res)
		}
		return res, nil
	}

	reason := reasonFor(err)
	o.log.Warn("reservation submit failed",
		zap.Int64("time_slot", slot.ID), zap.Stringer("reason", reason))

	o.mu.Lock()
	o.reason = reason
	if reason == ReasonUnauthorized {
		o.state = StateIdle
		o.selected = nil
	} else {
		o.state = StateSlotSelected
	}
	o.mu.Unlock()

	switch reason {
	case ReasonUnauthorized:
		if o.session != nil {
			if ierr := o.session.Invalidate(); ierr != nil {
				o.log.Warn("session invalidation failed", zap.Error(ierr))
			}
		}
	case ReasonSlotTaken:
		// Refresh so the claimed slot is visibly unavailable.
		if rerr := o.avail.Reload(ctx); rerr != nil {
			o.log.Warn("availability reload after conflict failed", zap.Error(rerr))
		}
	}
	return api.Reservation{}, err
}

func reasonFor(err error) Reason {
	switch api.KindOf(err) {
	case api.KindSlotTaken:
		return ReasonSlotTaken
	case api.KindUserLimit:
		return ReasonUserLimit
	case api.KindDuplicateSlot:
		return ReasonDuplicateSlot
	case api.KindUnauthorized:
		return ReasonUnauthorized
	case api.KindNotFound:
		// The slot vanished between load and submit; to the user this is
		// the same stale-slot conflict.
		return ReasonSlotTaken
	default:
		return ReasonTransient
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) LastReason() Reason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// Selected returns the currently selected slot, if any.
func (o *Orchestrator) Selected() (api.TimeSlot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return api.TimeSlot{}, false
	}
	return *o.selected, true
}

// Result returns the confirmed reservation once state is Confirmed.
func (o *Orchestrator) Result() (api.Reservation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return api.Reservation{}, false
	}
	return *o.result, true
}
