package domain

import (
	"errors"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User models an authenticated actor: a member of one base of one
// organisation, or a cross-base admin.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	BaseID         string    `json:"base_id,omitempty"`
	OrganisationID string    `json:"organisation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
