package ports

import (
	"context"
	"time"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

// ActorInput identifies the authenticated caller on every service operation.
// The service layer enforces base/organisation membership guards from it.
type ActorInput struct {
	UserID         string
	Name           string
	Role           string
	BaseID         string
	OrganisationID string
}

// Actor converts the input to the domain actor stamped on audit pairs.
func (a ActorInput) Actor() domain.Actor {
	return domain.Actor{ID: a.UserID, Name: a.Name}
}

// CreateShipmentInput carries all data needed to open a new shipment.
type CreateShipmentInput struct {
	SourceBaseID        string
	TargetBaseID        string
	TransferAgreementID string
	IdempotencyKey      string
	Actor               ActorInput
}

// UpdateWhenPreparingInput adds and removes boxes while the shipment is
// preparing. Both lists carry box label identifiers.
type UpdateWhenPreparingInput struct {
	LabelIdentifier string
	PreparedBoxes   []string
	RemovedBoxes    []string
	Actor           ActorInput
}

// ReceivedDetailUpdate is one operator-confirmed receipt. Omitted fields
// default to the detail's source snapshot; TargetLocationID is required.
type ReceivedDetailUpdate struct {
	DetailID         string
	TargetProductID  *string
	TargetSizeID     *string
	TargetQuantity   *int
	TargetLocationID string
}

// UpdateWhenReceivingInput reconciles received and lost boxes. The shipment
// completes once every non-removed detail carries a terminal marker; callers
// wanting "complete with remaining not delivered" list every still-receiving
// box in LostBoxes.
type UpdateWhenReceivingInput struct {
	LabelIdentifier string
	Received        []ReceivedDetailUpdate
	LostBoxes       []string
	Actor           ActorInput
}

// ShipmentResult is returned after creating a shipment.
type ShipmentResult struct {
	LabelIdentifier string
	State           string
	StartedOn       time.Time
	// AlreadyExisted is true when the Idempotency-Key matched an existing shipment.
	AlreadyExisted bool
}

// ShipmentView is the full projection returned by GetShipment, including the
// derived content groups and timeline.
type ShipmentView struct {
	Shipment *domain.Shipment
	Contents []domain.ContentGroup
	Timeline []domain.HistoryDay
}

// ListShipmentsInput carries all parameters for the list endpoint.
type ListShipmentsInput struct {
	Actor    ActorInput
	State    string
	Search   string
	DateFrom time.Time
	DateTo   time.Time
	Page     int
	Limit    int
}

// ShipmentSummary is the lightweight view used in list responses (no details).
type ShipmentSummary struct {
	LabelIdentifier string
	State           string
	SourceBase      domain.Base
	TargetBase      domain.Base
	BoxCount        int
	StartedOn       time.Time
}

// ListShipmentsResult is returned by ListShipments.
type ListShipmentsResult struct {
	Items      []ShipmentSummary
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ShipmentService defines the lifecycle operations for shipments.
type ShipmentService interface {
	CreateShipment(ctx context.Context, input CreateShipmentInput) (*ShipmentResult, error)
	GetShipment(ctx context.Context, label string, actor ActorInput) (*ShipmentView, error)
	ListShipments(ctx context.Context, input ListShipmentsInput) (*ListShipmentsResult, error)
	UpdateWhenPreparing(ctx context.Context, input UpdateWhenPreparingInput) (*ShipmentView, error)
	SendShipment(ctx context.Context, label string, actor ActorInput) (*ShipmentView, error)
	CancelShipment(ctx context.Context, label string, actor ActorInput) (*ShipmentView, error)
	MarkShipmentAsLost(ctx context.Context, label string, actor ActorInput) (*ShipmentView, error)
	StartReceivingShipment(ctx context.Context, label string, actor ActorInput) (*ShipmentView, error)
	UpdateWhenReceiving(ctx context.Context, input UpdateWhenReceivingInput) (*ShipmentView, error)
}
