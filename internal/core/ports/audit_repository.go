package ports

import (
	"context"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

// AuditRepository persists transition events to the shipment_events audit
// collection.
type AuditRepository interface {
	InsertTransitionEvent(ctx context.Context, event *domain.TransitionEvent) error
}
