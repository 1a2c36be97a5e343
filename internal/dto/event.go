package dto

import "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"

// EventRequest is the transport adapter's inbound payload. The transport only
// promises per-actor ordered delivery; the engine does not care about message
// formatting beyond this shape.
type EventRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=entry text button cancel"`
	Value   string `json:"value"`
}

// ToModel converts the request into the engine's event type.
func (r EventRequest) ToModel() models.Event {
	return models.Event{
		ActorID: r.ActorID,
		Type:    models.EventType(r.Type),
		Value:   r.Value,
	}
}
