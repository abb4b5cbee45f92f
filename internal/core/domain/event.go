package domain

import "time"

// TransitionEvent is the audit record emitted after a shipment transition has
// been persisted. It is processed asynchronously and stored in the
// shipment_events collection.
type TransitionEvent struct {
	ShipmentLabel string    `json:"shipment_label"`
	Action        string    `json:"action"` // one of the history Action* constants
	Timestamp     time.Time `json:"timestamp"`
	Actor         Actor     `json:"actor"`
	BoxCount      int       `json:"box_count"` // boxes affected by the transition
}
