package identity

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Repository defines the interface for user storage. Email lookups are
// always tenant-scoped; the same address may exist under different tenants.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, tenantID int64, email string) (*User, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]*User, error)
}
