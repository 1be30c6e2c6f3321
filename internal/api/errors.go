package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed failure taxonomy for backend and transport errors.
// The backend reports conflicts as free-text "detail" strings; they are
// classified here, once, and consumed everywhere else as this variant set.
type Kind int

const (
	// KindTransient covers transport failures and 5xx responses; safe to
	// retry immediately.
	KindTransient Kind = iota
	// KindValidation is a rejected request payload (4xx with no more
	// specific classification).
	KindValidation
	// KindSlotTaken means another reservation claimed the slot between
	// load and submit.
	KindSlotTaken
	// KindDuplicateSlot means the caller already holds a reservation for
	// this exact slot.
	KindDuplicateSlot
	// KindUserLimit means the caller is at the active-reservation cap.
	KindUserLimit
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindSlotTaken:
		return "slot_taken"
	case KindDuplicateSlot:
		return "duplicate_slot"
	case KindUserLimit:
		return "user_limit"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// APIError is the typed failure every gateway call returns on error.
type APIError struct {
	Kind   Kind
	Status int    // HTTP status, 0 for transport failures
	Detail string // backend "detail" text or transport error string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %s (status=%d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Detail)
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, k Kind) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == k
}

// KindOf extracts the failure kind, defaulting to transient for anything
// that is not an APIError (nothing else should escape the gateway).
func KindOf(err error) Kind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransient
}

func transportError(err error) *APIError {
	return &APIError{Kind: KindTransient, Detail: err.Error()}
}

// classify maps a non-2xx response to a failure kind. The detail strings
// come from the backend's reservation endpoint.
func classify(status int, detail string) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindTransient
	}

	d := strings.ToLower(detail)
	switch {
	case strings.Contains(d, "already booked"):
		return KindSlotTaken
	case strings.Contains(d, "maximum number of reservations"):
		return KindUserLimit
	case strings.Contains(d, "already have a reservation"):
		return KindDuplicateSlot
	}
	return KindValidation
}
