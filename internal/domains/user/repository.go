package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for users.
type Repository interface {
	// Create inserts u and fills ID and timestamps.
	// Errors: ValidationError on a duplicate email
	Create(ctx context.Context, u *User) error

	// FindByID returns ErrUserNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail expects a normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update persists email and password hash
	Update(ctx context.Context, u *User) error

	// CountMaterials counts materials created by the user
	CountMaterials(ctx context.Context, id uuid.UUID) (int, error)
}
