package domain

import "time"

// EventType names a state transition announced to collaborators.
type EventType string

const (
	EventRequestCreated      EventType = "request.created"
	EventRequestCancelled    EventType = "request.cancelled"
	EventRequestFulfilled    EventType = "request.fulfilled"
	EventAcceptanceCreated   EventType = "acceptance.created"
	EventAcceptanceCancelled EventType = "acceptance.cancelled"
	EventDisasterModeChanged EventType = "disaster_mode.changed"
)

// Event is emitted after each committed state transition so the notification
// collaborator can deliver it. Delivery failure never rolls the transition
// back; the emitting side is fire-and-forget.
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	DonorID   string    `json:"donor_id,omitempty"`
	Region    string    `json:"region,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
