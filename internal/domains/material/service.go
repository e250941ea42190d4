package material

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/infrastructure/openlibrary"
)

// Service orchestrates material writes and exposes the query engine. The acting
// user is always passed explicitly.
type Service interface {
	// Create validates {tipo, titulo, autor_id} and writes the material and its
	// detail record as one unit.
	Create(ctx context.Context, u *user.User, params MaterialParams) (*Material, error)

	// CreateBookFromISBN fills absent book fields from the metadata lookup,
	// resolving the first listed author when no autor_id is given, then
	// creates the book.
	CreateBookFromISBN(ctx context.Context, u *user.User, params MaterialParams) (*Material, error)

	// Update rejects non-owners before touching storage. Absent detail fields
	// are left untouched.
	Update(ctx context.Context, m *Material, u *user.User, params MaterialParams) (*Material, error)

	Delete(ctx context.Context, m *Material, u *user.User) error

	Get(ctx context.Context, id uuid.UUID) (*Material, error)
	Search(ctx context.Context, filter Filter) ([]Material, int64, error)

	FindBookByISBN(ctx context.Context, isbn string) (*Material, error)
	FindArticleByDOI(ctx context.Context, doi string) (*Material, error)

	// LookupISBN queries the external metadata source directly.
	LookupISBN(ctx context.Context, isbn string) (*openlibrary.BookMetadata, error)

	VideoStats(ctx context.Context) (*VideoStats, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// AuthorResolver finds or creates the person credited by external metadata.
// It must leave tx usable when it fails.
type AuthorResolver interface {
	FindOrCreatePerson(ctx context.Context, tx pgx.Tx, name string) (*author.Author, error)
}
