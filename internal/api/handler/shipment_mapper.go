package handler

import (
	"github.com/boxtrail/transfer-system/internal/core/ports"
)

// --- Request → Service input ---

func toReconcileInput(req reconcileRequest, label string, actor ports.ActorInput) ports.UpdateWhenReceivingInput {
	received := make([]ports.ReceivedDetailUpdate, 0, len(req.ReceivedShipmentDetailUpdateInputs))
	for _, r := range req.ReceivedShipmentDetailUpdateInputs {
		received = append(received, ports.ReceivedDetailUpdate{
			DetailID:         r.ID,
			TargetProductID:  r.TargetProductID,
			TargetSizeID:     r.TargetSizeID,
			TargetQuantity:   r.TargetQuantity,
			TargetLocationID: r.TargetLocationID,
		})
	}
	return ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received:        received,
		LostBoxes:       req.LostBoxLabelIdentifiers,
		Actor:           actor,
	}
}

// --- Service result → HTTP response ---

func toCreateResponse(r *ports.ShipmentResult) createShipmentResponse {
	return createShipmentResponse{
		LabelIdentifier: r.LabelIdentifier,
		State:           r.State,
		StartedOn:       r.StartedOn.UTC(),
		Links:           links{Self: "/v1/shipments/" + r.LabelIdentifier},
	}
}

func toViewResponse(v *ports.ShipmentView) shipmentViewResponse {
	return shipmentViewResponse{
		Shipment: v.Shipment,
		Contents: v.Contents,
		Timeline: v.Timeline,
		Links:    links{Self: "/v1/shipments/" + v.Shipment.LabelIdentifier},
	}
}

func toListResponse(r *ports.ListShipmentsResult) listShipmentsResponse {
	items := make([]shipmentSummaryResponse, 0, len(r.Items))
	for _, s := range r.Items {
		items = append(items, shipmentSummaryResponse{
			LabelIdentifier: s.LabelIdentifier,
			State:           s.State,
			SourceBase:      s.SourceBase,
			TargetBase:      s.TargetBase,
			BoxCount:        s.BoxCount,
			StartedOn:       s.StartedOn.UTC(),
		})
	}
	return listShipmentsResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}
