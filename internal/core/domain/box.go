package domain

import "errors"

// BoxState represents the lifecycle state of a box.
type BoxState string

const (
	BoxInStock           BoxState = "in_stock"
	BoxMarkedForShipment BoxState = "marked_for_shipment"
	BoxInTransit         BoxState = "in_transit"
	BoxReceiving         BoxState = "receiving"
	BoxNotDelivered      BoxState = "not_delivered"
	BoxLost              BoxState = "lost"
	BoxDonated           BoxState = "donated"
	BoxScrap             BoxState = "scrap"
)

var ErrBoxNotFound = errors.New("box not found")
var ErrBoxNotInStock = errors.New("box is not in stock at the source base")
var ErrBoxAlreadyAssigned = errors.New("box is already assigned to the shipment")

// Box is a stock unit identified by its label. The shipment controller reads
// it and moves its state as a side effect of shipment transitions, but the
// box keeps its own life outside shipments.
type Box struct {
	LabelIdentifier string      `json:"label_identifier" bson:"_id"`
	State           BoxState    `json:"state" bson:"state"`
	BaseID          string      `json:"base_id" bson:"base_id"`
	Product         ProductRef  `json:"product" bson:"product"`
	Size            SizeRef     `json:"size" bson:"size"`
	Location        LocationRef `json:"location" bson:"location"`
	Quantity        int         `json:"quantity" bson:"quantity"`
}
