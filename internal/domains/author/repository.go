package author

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines data access for authors.
type Repository interface {
	Create(ctx context.Context, a *Author) error

	// FindByID returns ErrAuthorNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*Author, error)

	// List returns a page ordered by name and the filtered total
	List(ctx context.Context, filter AuthorFilter) ([]Author, int64, error)

	Update(ctx context.Context, a *Author) error

	// Delete fails with ErrAuthorHasMaterials while materials reference the author
	Delete(ctx context.Context, id uuid.UUID) error

	CountMaterials(ctx context.Context, id uuid.UUID) (int, error)
	ListMaterials(ctx context.Context, id uuid.UUID) ([]MaterialSummary, error)

	// FindOrCreatePerson runs inside tx under a savepoint, so a failure leaves
	// tx usable.
	FindOrCreatePerson(ctx context.Context, tx pgx.Tx, a *Author) (*Author, error)
}
