package models

import "time"

// SessionState enumerates the verification dialogue states.
type SessionState string

// Dialogue states. Submitted and Cancelled are terminal.
const (
	StateAwaitingPRN          SessionState = "AWAITING_PRN"
	StateAwaitingName         SessionState = "AWAITING_NAME"
	StateAwaitingPhone        SessionState = "AWAITING_PHONE"
	StateAwaitingConfirmation SessionState = "AWAITING_CONFIRMATION"
	StateSubmitted            SessionState = "SUBMITTED"
	StateCancelled            SessionState = "CANCELLED"
)

// Terminal reports whether the state has no outgoing transitions.
func (s SessionState) Terminal() bool {
	return s == StateSubmitted || s == StateCancelled
}

// VerificationSession tracks a single requester's progress through the
// identity verification dialogue. At most one live session exists per actor;
// the session is mutated only by the verification service in response to that
// actor's events. Record holds the student snapshot captured when the PRN was
// accepted and is only populated from StateAwaitingName onwards.
type VerificationSession struct {
	ActorID      string         `json:"actor_id"`
	State        SessionState   `json:"state"`
	PRN          string         `json:"prn,omitempty"`
	Record       *StudentRecord `json:"record,omitempty"`
	Name         string         `json:"name,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
}

// EventType classifies inbound transport events.
type EventType string

// Inbound event types delivered by the messaging transport.
const (
	EventEntry  EventType = "entry"
	EventText   EventType = "text"
	EventButton EventType = "button"
	EventCancel EventType = "cancel"
)

// Button tokens understood by the confirmation step.
const (
	ButtonConfirmYes = "confirm_yes"
	ButtonConfirmNo  = "confirm_no"
)

// Event is a discrete inbound message from the transport, tagged with the
// opaque actor key. Value carries the text for text events and the token for
// button events.
type Event struct {
	ActorID string    `json:"actor_id"`
	Type    EventType `json:"type"`
	Value   string    `json:"value,omitempty"`
}

// Choice is a labeled button offered alongside a prompt.
type Choice struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Prompt is the outbound reply for an event. Prompts are idempotent to
// redisplay, so at-least-once delivery by the transport is acceptable.
type Prompt struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices,omitempty"`
}
