package domain

import "time"

// ProductRef snapshots the product recorded for a box at shipping or receiving time.
type ProductRef struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Gender string `json:"gender" bson:"gender"`
}

// SizeRef snapshots a product size.
type SizeRef struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
}

// LocationRef snapshots a storage location inside a base.
type LocationRef struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// BoxRef is the detail's reference to the box being shipped.
type BoxRef struct {
	LabelIdentifier string `json:"label_identifier" bson:"label_identifier"`
}

// ShipmentDetail records one box's participation in a shipment. The source_*
// fields snapshot the box contents when it was added; the target_* fields are
// written by the receiving base during reconciliation and stay nil until then.
//
// RemovedOn, LostOn and ReceivedOn are mutually exclusive terminal markers:
// at most one of them is ever set, and a detail carrying one is immutable.
type ShipmentDetail struct {
	ID  string `json:"id" bson:"id"`
	Box BoxRef `json:"box" bson:"box"`

	SourceProduct  ProductRef  `json:"source_product" bson:"source_product"`
	SourceSize     SizeRef     `json:"source_size" bson:"source_size"`
	SourceLocation LocationRef `json:"source_location" bson:"source_location"`
	SourceQuantity int         `json:"source_quantity" bson:"source_quantity"`

	TargetProduct  *ProductRef  `json:"target_product,omitempty" bson:"target_product,omitempty"`
	TargetSize     *SizeRef     `json:"target_size,omitempty" bson:"target_size,omitempty"`
	TargetLocation *LocationRef `json:"target_location,omitempty" bson:"target_location,omitempty"`
	TargetQuantity *int         `json:"target_quantity,omitempty" bson:"target_quantity,omitempty"`

	CreatedOn  time.Time  `json:"created_on" bson:"created_on"`
	CreatedBy  Actor      `json:"created_by" bson:"created_by"`
	RemovedOn  *time.Time `json:"removed_on,omitempty" bson:"removed_on,omitempty"`
	RemovedBy  *Actor     `json:"removed_by,omitempty" bson:"removed_by,omitempty"`
	LostOn     *time.Time `json:"lost_on,omitempty" bson:"lost_on,omitempty"`
	LostBy     *Actor     `json:"lost_by,omitempty" bson:"lost_by,omitempty"`
	ReceivedOn *time.Time `json:"received_on,omitempty" bson:"received_on,omitempty"`
	ReceivedBy *Actor     `json:"received_by,omitempty" bson:"received_by,omitempty"`
}

// Finalized reports whether the detail carries any terminal marker.
func (d *ShipmentDetail) Finalized() bool {
	return d.RemovedOn != nil || d.LostOn != nil || d.ReceivedOn != nil
}

// MarkRemoved sets the removed marker. The caller must ensure the shipment is
// still preparing and the detail is not finalized.
func (d *ShipmentDetail) MarkRemoved(at time.Time, by Actor) error {
	if d.Finalized() {
		return ErrDetailFinalized
	}
	d.RemovedOn = &at
	d.RemovedBy = &by
	return nil
}

// MarkLost sets the lost marker.
func (d *ShipmentDetail) MarkLost(at time.Time, by Actor) error {
	if d.Finalized() {
		return ErrDetailFinalized
	}
	d.LostOn = &at
	d.LostBy = &by
	return nil
}

// MarkReceived sets the received marker and resolves the target fields,
// falling back to the source snapshot for anything the receiving operator did
// not override.
func (d *ShipmentDetail) MarkReceived(at time.Time, by Actor, override ReceiveOverride) error {
	if d.Finalized() {
		return ErrDetailFinalized
	}

	product := d.SourceProduct
	if override.Product != nil {
		product = *override.Product
	}
	size := d.SourceSize
	if override.Size != nil {
		size = *override.Size
	}
	quantity := d.SourceQuantity
	if override.Quantity != nil {
		quantity = *override.Quantity
	}

	d.TargetProduct = &product
	d.TargetSize = &size
	d.TargetLocation = &override.Location
	d.TargetQuantity = &quantity
	d.ReceivedOn = &at
	d.ReceivedBy = &by
	return nil
}

// ReceiveOverride carries the operator-supplied corrections for a received
// box. Location is mandatory (the box must land somewhere in the target
// base); the rest defaults to the source snapshot when nil.
type ReceiveOverride struct {
	Product  *ProductRef
	Size     *SizeRef
	Quantity *int
	Location LocationRef
}
