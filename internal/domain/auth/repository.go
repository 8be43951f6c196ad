package auth

import (
	"context"
)

// Repository defines user storage.
type Repository interface {
	// GetByUsername returns an active user or apperror.NewNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create inserts a new user (seed flow).
	Create(ctx context.Context, user *User) error
}
