package domain

import (
	"errors"
	"time"
)

// ShipmentState represents the lifecycle state of a shipment.
type ShipmentState string

const (
	StatePreparing ShipmentState = "preparing"
	StateSent      ShipmentState = "sent"
	StateReceiving ShipmentState = "receiving"
	StateCompleted ShipmentState = "completed"
	StateCanceled  ShipmentState = "canceled"
	StateLost      ShipmentState = "lost"
)

// validTransitions defines the allowed state machine transitions.
// Completed, Canceled and Lost are terminal.
var validTransitions = map[ShipmentState][]ShipmentState{
	StatePreparing: {StateSent, StateCanceled},
	StateSent:      {StateReceiving, StateLost},
	StateReceiving: {StateCompleted},
}

var ErrInvalidTransition = errors.New("invalid shipment state transition")
var ErrShipmentNotFound = errors.New("shipment not found")
var ErrShipmentEmpty = errors.New("shipment has no boxes to send")
var ErrInsufficientPermission = errors.New("insufficient permission")
var ErrUnauthorizedForBase = errors.New("unauthorized for base")
var ErrBaseNotFound = errors.New("base not found")
var ErrAgreementNotActive = errors.New("transfer agreement is not active")
var ErrDetailNotFound = errors.New("shipment detail not found")
var ErrDetailFinalized = errors.New("shipment detail already finalized")

// CanTransitionTo reports whether a transition from the current state to next is valid.
func (s ShipmentState) CanTransitionTo(next ShipmentState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state accepts no further transitions.
func (s ShipmentState) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Organisation is a lightweight reference to the owning organisation of a base.
type Organisation struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Base is a physical warehouse location belonging to an organisation.
type Base struct {
	ID           string       `json:"id" bson:"id"`
	Name         string       `json:"name" bson:"name"`
	Organisation Organisation `json:"organisation" bson:"organisation"`
}

// Actor identifies the user who performed a transition.
type Actor struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Shipment is the core aggregate root: a transfer of boxes from a source base
// to a target base under a transfer agreement. State is authoritative; the
// timestamp/actor pairs form the audit trail and are each written exactly once,
// at the transition they record.
type Shipment struct {
	ID                  string           `json:"id" bson:"_id,omitempty"`
	LabelIdentifier     string           `json:"label_identifier" bson:"label_identifier"`
	State               ShipmentState    `json:"state" bson:"state"`
	SourceBase          Base             `json:"source_base" bson:"source_base"`
	TargetBase          Base             `json:"target_base" bson:"target_base"`
	TransferAgreementID string           `json:"transfer_agreement_id" bson:"transfer_agreement_id"`
	Details             []ShipmentDetail `json:"details" bson:"details"`
	IdempotencyKey      string           `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`

	StartedOn          time.Time  `json:"started_on" bson:"started_on"`
	StartedBy          Actor      `json:"started_by" bson:"started_by"`
	SentOn             *time.Time `json:"sent_on,omitempty" bson:"sent_on,omitempty"`
	SentBy             *Actor     `json:"sent_by,omitempty" bson:"sent_by,omitempty"`
	ReceivingStartedOn *time.Time `json:"receiving_started_on,omitempty" bson:"receiving_started_on,omitempty"`
	ReceivingStartedBy *Actor     `json:"receiving_started_by,omitempty" bson:"receiving_started_by,omitempty"`
	CompletedOn        *time.Time `json:"completed_on,omitempty" bson:"completed_on,omitempty"`
	CompletedBy        *Actor     `json:"completed_by,omitempty" bson:"completed_by,omitempty"`
	CanceledOn         *time.Time `json:"canceled_on,omitempty" bson:"canceled_on,omitempty"`
	CanceledBy         *Actor     `json:"canceled_by,omitempty" bson:"canceled_by,omitempty"`
}

// ActiveDetails returns the details still part of the shipment, i.e. those not
// removed while the shipment was being prepared. Insertion order is kept.
func (s *Shipment) ActiveDetails() []ShipmentDetail {
	active := make([]ShipmentDetail, 0, len(s.Details))
	for _, d := range s.Details {
		if d.RemovedOn == nil {
			active = append(active, d)
		}
	}
	return active
}

// DetailByID returns a pointer into Details for the given detail id, or nil.
func (s *Shipment) DetailByID(id string) *ShipmentDetail {
	for i := range s.Details {
		if s.Details[i].ID == id {
			return &s.Details[i]
		}
	}
	return nil
}

// DetailByBoxLabel returns the active detail carrying the given box, or nil.
func (s *Shipment) DetailByBoxLabel(label string) *ShipmentDetail {
	for i := range s.Details {
		if s.Details[i].Box.LabelIdentifier == label && s.Details[i].RemovedOn == nil {
			return &s.Details[i]
		}
	}
	return nil
}

// FullyReconciled reports whether every non-removed detail carries exactly one
// of receivedOn/lostOn. A shipment may only complete when this holds.
func (s *Shipment) FullyReconciled() bool {
	for _, d := range s.Details {
		if d.RemovedOn != nil {
			continue
		}
		if (d.ReceivedOn == nil) == (d.LostOn == nil) {
			return false
		}
	}
	return true
}
