package ports

import (
	"context"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

// CatalogRepository resolves product, size and location references supplied
// during reconciliation. Missing ids surface domain.ErrResourceNotFound.
type CatalogRepository interface {
	FindProduct(ctx context.Context, id string) (*domain.ProductRef, error)
	FindSize(ctx context.Context, id string) (*domain.SizeRef, error)
	FindLocation(ctx context.Context, id string) (*domain.StockLocation, error)
}
