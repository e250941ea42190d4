package author

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Service is the author registry use-case layer.
type Service interface {
	Create(ctx context.Context, req CreateAuthorRequest) (*Author, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Author, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Author, []MaterialSummary, error)
	List(ctx context.Context, filter AuthorFilter) ([]Author, int64, error)

	// Update applies a partial update. The kind cannot change.
	Update(ctx context.Context, id uuid.UUID, req UpdateAuthorRequest) (*Author, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// FindOrCreatePerson returns the person named name, creating one with a
	// placeholder birth date when none exists.
	FindOrCreatePerson(ctx context.Context, tx pgx.Tx, name string) (*Author, error)

	// Today is the calendar date used for validation and ages.
	Today() time.Time
}
