package handler

import (
	"time"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

type createShipmentRequest struct {
	SourceBaseID        string `json:"source_base_id"        validate:"required"`
	TargetBaseID        string `json:"target_base_id"        validate:"required"`
	TransferAgreementID string `json:"transfer_agreement_id" validate:"required"`
}

type createShipmentResponse struct {
	LabelIdentifier string    `json:"label_identifier"`
	State           string    `json:"state"`
	StartedOn       time.Time `json:"started_on"`
	Links           links     `json:"_links"`
}

type links struct {
	Self string `json:"self"`
}

type updateBoxesRequest struct {
	PreparedBoxLabelIdentifiers []string `json:"prepared_box_label_identifiers"`
	RemovedBoxLabelIdentifiers  []string `json:"removed_box_label_identifiers"`
}

type receivedDetailUpdateRequest struct {
	ID               string  `json:"id"                 validate:"required"`
	TargetProductID  *string `json:"target_product_id"`
	TargetSizeID     *string `json:"target_size_id"`
	TargetQuantity   *int    `json:"target_quantity"    validate:"omitempty,gte=0"`
	TargetLocationID string  `json:"target_location_id" validate:"required"`
}

type reconcileRequest struct {
	ReceivedShipmentDetailUpdateInputs []receivedDetailUpdateRequest `json:"received_shipment_detail_update_inputs" validate:"dive"`
	LostBoxLabelIdentifiers            []string                      `json:"lost_box_label_identifiers"`
}

type shipmentViewResponse struct {
	Shipment *domain.Shipment      `json:"shipment"`
	Contents []domain.ContentGroup `json:"contents"`
	Timeline []domain.HistoryDay   `json:"timeline"`
	Links    links                 `json:"_links"`
}

type shipmentSummaryResponse struct {
	LabelIdentifier string      `json:"label_identifier"`
	State           string      `json:"state"`
	SourceBase      domain.Base `json:"source_base"`
	TargetBase      domain.Base `json:"target_base"`
	BoxCount        int         `json:"box_count"`
	StartedOn       time.Time   `json:"started_on"`
}

type listShipmentsResponse struct {
	Items      []shipmentSummaryResponse `json:"items"`
	Total      int64                     `json:"total"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
	TotalPages int                       `json:"total_pages"`
}
