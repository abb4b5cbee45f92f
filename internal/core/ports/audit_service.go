package ports

import (
	"context"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

// AuditService processes transition events emitted by the shipment service.
type AuditService interface {
	Process(ctx context.Context, event domain.TransitionEvent) error
}
