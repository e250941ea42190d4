package material

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines data access for materials and their detail records.
// Writes run inside the caller's transaction.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, m *Material) error
	Update(ctx context.Context, tx pgx.Tx, m *Material) error

	// Delete removes the material; the detail record cascades
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// CreateDetail and UpdateDetail dispatch on the detail's kind. Natural key
	// collisions surface as validation errors.
	CreateDetail(ctx context.Context, tx pgx.Tx, d Detail) error
	UpdateDetail(ctx context.Context, tx pgx.Tx, d Detail) error

	// SubtypeExists checks, inside tx, that the detail record for kind exists
	SubtypeExists(ctx context.Context, tx pgx.Tx, materialID uuid.UUID, kind Kind) (bool, error)

	// FindByID loads the material with its author, creator email and detail
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)

	// Search returns one page ordered newest first and the filtered total
	Search(ctx context.Context, filter Filter) ([]Material, int64, error)

	FindBookByISBN(ctx context.Context, isbn string) (*Material, error)
	FindArticleByDOI(ctx context.Context, doi string) (*Material, error)

	VideoDurationStats(ctx context.Context) (*VideoStats, error)
	Statistics(ctx context.Context, recent int) (*Statistics, error)
}
