package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/pkg/database"
)

// postgresRepository implements author.Repository
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) author.Repository {
	return &postgresRepository{pool: pool}
}

const selectAuthor = `
	SELECT a.id, a.name, a.kind, a.birth_date, a.city, a.created_at, a.updated_at,
	       (SELECT COUNT(*) FROM materials m WHERE m.author_id = a.id) AS material_count
	FROM authors a
`

func scanAuthor(row pgx.Row) (*author.Author, error) {
	var a author.Author
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Kind,
		&a.BirthDate,
		&a.City,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.MaterialCount,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func insertAuthor(ctx context.Context, db database.DBTX, a *author.Author) error {
	query := `
		INSERT INTO authors (name, kind, birth_date, city)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := db.QueryRow(ctx, query, a.Name, a.Kind, a.BirthDate, a.City).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, a *author.Author) error {
	return insertAuthor(ctx, r.pool, a)
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	a, err := scanAuthor(r.pool.QueryRow(ctx, selectAuthor+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, author.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author by id: %w", err)
	}
	return a, nil
}

// List filters by kind and name substring, ordered by name.
func (r *postgresRepository) List(ctx context.Context, filter author.AuthorFilter) ([]author.Author, int64, error) {
	var where strings.Builder
	where.WriteString(" WHERE 1=1")

	args := []interface{}{}
	argPos := 1

	if filter.Kind != "" {
		where.WriteString(fmt.Sprintf(" AND a.kind = $%d", argPos))
		args = append(args, filter.Kind)
		argPos++
	}
	if filter.Query != "" {
		where.WriteString(fmt.Sprintf(" AND a.name ILIKE $%d", argPos))
		args = append(args, "%"+filter.Query+"%")
		argPos++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM authors a` + where.String()
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	query := selectAuthor + where.String() +
		fmt.Sprintf(" ORDER BY a.name ASC, a.id ASC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query authors: %w", err)
	}
	defer rows.Close()

	authors := []author.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating authors: %w", err)
	}

	return authors, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *author.Author) error {
	query := `
		UPDATE authors
		SET name = $2, birth_date = $3, city = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, a.ID, a.Name, a.BirthDate, a.City).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return author.ErrAuthorNotFound
		}
		return fmt.Errorf("failed to update author: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return author.ErrAuthorHasMaterials
		}
		return fmt.Errorf("failed to delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return author.ErrAuthorNotFound
	}
	return nil
}

func (r *postgresRepository) CountMaterials(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials WHERE author_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count author materials: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) ListMaterials(ctx context.Context, id uuid.UUID) ([]author.MaterialSummary, error) {
	query := `
		SELECT m.id, m.title, m.kind, m.status, u.email, m.created_at
		FROM materials m
		JOIN users u ON u.id = m.creator_user_id
		WHERE m.author_id = $1
		ORDER BY m.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query author materials: %w", err)
	}
	defer rows.Close()

	out := []author.MaterialSummary{}
	for rows.Next() {
		var s author.MaterialSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Kind, &s.Status, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan author material: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindOrCreatePerson looks up a person by exact name inside tx, inserting one
// when absent. Work happens under a savepoint.
func (r *postgresRepository) FindOrCreatePerson(ctx context.Context, tx pgx.Tx, a *author.Author) (*author.Author, error) {
	var result *author.Author
	err := database.WithSavepoint(ctx, tx, func(sp pgx.Tx) error {
		found, err := scanAuthor(sp.QueryRow(ctx,
			selectAuthor+` WHERE a.name = $1 AND a.kind = $2 ORDER BY a.created_at LIMIT 1`,
			a.Name, author.KindPerson))
		if err == nil {
			result = found
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to find author by name: %w", err)
		}

		created := *a
		if err := insertAuthor(ctx, sp, &created); err != nil {
			return err
		}
		result = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
