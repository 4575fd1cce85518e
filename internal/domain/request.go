package domain

import "time"

// Urgency ranks how quickly a request must be met.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency validates a raw urgency value.
func ParseUrgency(s string) (Urgency, bool) {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(s), true
	}
	return "", false
}

// Rank orders urgencies for donor-facing feeds; higher is more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// RequestStatus is the lifecycle state of a hospital request.
type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestCancelled
}

// Request is a hospital's ask for a number of units of one blood type.
// Only the acceptance machinery and the allocation service mutate it.
type Request struct {
	ID          string
	HospitalID  string
	BloodType   BloodType
	UnitsNeeded int
	Urgency     Urgency
	Location    Coordinate
	Status      RequestStatus
	CreatedAt   time.Time
}

// ResponseStatus is the state of a single donor's acceptance record.
type ResponseStatus string

const (
	ResponseAccepted  ResponseStatus = "accepted"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseCompleted ResponseStatus = "completed"
)

// Response records one donor committing to one request. The acceptance
// state machine operates on it; Committed is not stored but derived from
// AcceptedAt (see request.Service).
type Response struct {
	ID         string
	RequestID  string
	DonorID    string
	Status     ResponseStatus
	AcceptedAt time.Time
}
