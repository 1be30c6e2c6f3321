package api

import "time"

// Wire types for the reservation backend. Field names follow the backend's
// serializers; the backend owns all of these, the client only caches them.

type Facility struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	FacilityType string  `json:"facility_type"`
	Image        string  `json:"image,omitempty"`
	Courts       []Court `json:"courts,omitempty"`
}

type Court struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Derived convenience flag; slot-level availability is authoritative.
	IsAvailable bool `json:"is_available"`

	TimeSlots []TimeSlot `json:"time_slots,omitempty"`
}

// TimeSlot is one bookable interval on a date. Date is YYYY-MM-DD, the time
// fields are zero-padded HH:MM:SS as the backend emits them.
type TimeSlot struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// Label renders the slot interval without seconds, e.g. "09:00-10:00".
func (t TimeSlot) Label() string {
	return clipSeconds(t.StartTime) + "-" + clipSeconds(t.EndTime)
}

func clipSeconds(clock string) string {
	if len(clock) == 8 { // HH:MM:SS
		return clock[:5]
	}
	return clock
}

type Reservation struct {
	ID              int64     `json:"id"`
	User            int64     `json:"user,omitempty"`
	TimeSlot        int64     `json:"time_slot"`
	TimeSlotDetails TimeSlot  `json:"time_slot_details"`
	FacilityName    string    `json:"facility_name"`
	CourtName       string    `json:"court_name"`
	CreatedAt       time.Time `json:"created_at"`
	IsCancelled     bool      `json:"is_cancelled"`
}

// RegistrationForm mirrors the backend's registration endpoint payload.
type RegistrationForm struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// DateFormat is the calendar-date wire format.
const DateFormat = "2006-01-02"

// Scope selects which slots a timeslot query covers. Court scoping is
// canonical; facility scoping survives for the older facility-keyed slots.
type Scope struct {
	courtID    int64
	facilityID int64
}

func CourtScope(id int64) Scope    { return Scope{courtID: id} }
func FacilityScope(id int64) Scope { return Scope{facilityID: id} }

func (s Scope) IsZero() bool { return s.courtID == 0 && s.facilityID == 0 }

func (s Scope) String() string {
	if s.courtID != 0 {
		return "court:" + itoa(s.courtID)
	}
	if s.facilityID != 0 {
		return "facility:" + itoa(s.facilityID)
	}
	return "none"
}
