package ports

import (
	"context"
	"time"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

// ListShipmentsFilter carries all query parameters for listing shipments.
// BaseID is enforced by the service layer: members only see shipments that
// touch their own base.
type ListShipmentsFilter struct {
	BaseID   string    // empty = no filter (admin); non-empty = source or target base
	State    string    // optional: filter by shipment state
	Search   string    // optional: partial match on label_identifier
	DateFrom time.Time // optional: started_on >= DateFrom
	DateTo   time.Time // optional: started_on <= DateTo
	Page     int       // 1-based
	Limit    int       // max rows per page (capped at 100 by service)
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	// FindByLabel retrieves a shipment by its label identifier. When baseID is
	// non-empty the query additionally requires the shipment to touch that
	// base (source or target), mirroring member visibility.
	FindByLabel(ctx context.Context, label string, baseID string) (*domain.Shipment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Shipment, error)
	// Update replaces the stored shipment document. Last writer wins; the
	// server-side snapshot is the single source of truth for state and the
	// audit pairs.
	Update(ctx context.Context, s *domain.Shipment) error
	// List returns a page of shipments matching filter and the total count.
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)
}

// BoxRepository defines persistence operations for boxes.
type BoxRepository interface {
	FindByLabel(ctx context.Context, label string) (*domain.Box, error)
	// Update replaces the stored box document.
	Update(ctx context.Context, b *domain.Box) error
	// SetStates bulk-updates the state of every box in labels.
	SetStates(ctx context.Context, labels []string, state domain.BoxState) error
}

// BaseRepository resolves base references at shipment creation.
type BaseRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Base, error)
}

// AgreementRepository resolves transfer agreements at shipment creation.
type AgreementRepository interface {
	FindByID(ctx context.Context, id string) (*domain.TransferAgreement, error)
}
