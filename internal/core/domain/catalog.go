package domain

import "errors"

var ErrResourceNotFound = errors.New("resource does not exist")
var ErrLocationNotInBase = errors.New("location does not belong to the target base")

// StockLocation is a storage location as stored in the catalog, including the
// base it belongs to. LocationRef is the base-less snapshot embedded in
// shipment details and boxes.
type StockLocation struct {
	ID     string `json:"id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	BaseID string `json:"base_id" bson:"base_id"`
}
