package ports

import (
	"context"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

// RegisterInput carries the fields needed to create a user account.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	Role           string
	BaseID         string
	OrganisationID string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
