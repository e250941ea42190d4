package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/pkg/database"
)

const (
	isbnConstraint = "idx_books_isbn"
	doiConstraint  = "idx_articles_doi"

	authorFKConstraint  = "materials_author_id_fkey"
	creatorFKConstraint = "materials_creator_user_id_fkey"
)

// postgresRepository implements material.Repository
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) material.Repository {
	return &postgresRepository{pool: pool}
}

const selectMaterial = `
	SELECT m.id, m.kind, m.title, m.description, m.status, m.author_id, m.creator_user_id,
	       m.created_at, m.updated_at,
	       a.name, a.kind, u.email,
	       b.id, b.isbn, b.page_count,
	       ar.id, ar.doi,
	       v.id, v.duration_minutes
`

const fromMaterial = `
	FROM materials m
	JOIN authors a ON a.id = m.author_id
	JOIN users u ON u.id = m.creator_user_id
	LEFT JOIN books b ON b.material_id = m.id
	LEFT JOIN articles ar ON ar.material_id = m.id
	LEFT JOIN videos v ON v.material_id = m.id
`

func scanMaterial(row pgx.Row) (*material.Material, error) {
	var (
		m          material.Material
		authorName string
		authorKind string

		bookID    *uuid.UUID
		isbn      *string
		pageCount *int

		articleID *uuid.UUID
		doi       *string

		videoID  *uuid.UUID
		duration *int
	)

	err := row.Scan(
		&m.ID, &m.Kind, &m.Title, &m.Description, &m.Status, &m.AuthorID, &m.CreatorUserID,
		&m.CreatedAt, &m.UpdatedAt,
		&authorName, &authorKind, &m.CreatorEmail,
		&bookID, &isbn, &pageCount,
		&articleID, &doi,
		&videoID, &duration,
	)
	if err != nil {
		return nil, err
	}

	m.Author = &author.Author{ID: m.AuthorID, Name: authorName, Kind: author.Kind(authorKind)}

	switch m.Kind {
	case material.KindBook:
		if bookID != nil {
			m.Detail = &material.Book{ID: *bookID, MaterialID: m.ID, ISBN: deref(isbn), PageCount: derefInt(pageCount)}
		}
	case material.KindArticle:
		if articleID != nil {
			m.Detail = &material.Article{ID: *articleID, MaterialID: m.ID, DOI: deref(doi)}
		}
	case material.KindVideo:
		if videoID != nil {
			m.Detail = &material.Video{ID: *videoID, MaterialID: m.ID, DurationMinutes: derefInt(duration)}
		}
	}

	return &m, nil
}

// ========================================
// WRITES
// ========================================

func (r *postgresRepository) Create(ctx context.Context, tx pgx.Tx, m *material.Material) error {
	query := `
		INSERT INTO materials (kind, title, description, status, author_id, creator_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRow(ctx, query, m.Kind, m.Title, m.Description, m.Status, m.AuthorID, m.CreatorUserID).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "failed to create material")
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, tx pgx.Tx, m *material.Material) error {
	query := `
		UPDATE materials
		SET title = $2, description = $3, status = $4, author_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := tx.QueryRow(ctx, query, m.ID, m.Title, m.Description, m.Status, m.AuthorID).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return material.ErrMaterialNotFound
		}
		return mapWriteError(err, "failed to update material")
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return material.ErrMaterialNotFound
	}
	return nil
}

func (r *postgresRepository) CreateDetail(ctx context.Context, tx pgx.Tx, d material.Detail) error {
	var err error
	switch t := d.(type) {
	case *material.Book:
		err = tx.QueryRow(ctx,
			`INSERT INTO books (material_id, isbn, page_count) VALUES ($1, $2, $3) RETURNING id`,
			t.MaterialID, t.ISBN, t.PageCount,
		).Scan(&t.ID)
	case *material.Article:
		err = tx.QueryRow(ctx,
			`INSERT INTO articles (material_id, doi) VALUES ($1, $2) RETURNING id`,
			t.MaterialID, t.DOI,
		).Scan(&t.ID)
	case *material.Video:
		err = tx.QueryRow(ctx,
			`INSERT INTO videos (material_id, duration_minutes) VALUES ($1, $2) RETURNING id`,
			t.MaterialID, t.DurationMinutes,
		).Scan(&t.ID)
	default:
		return fmt.Errorf("unsupported material detail %T", d)
	}
	if err != nil {
		return mapWriteError(err, "failed to create "+strings.ToLower(d.Kind().String()))
	}
	return nil
}

func (r *postgresRepository) UpdateDetail(ctx context.Context, tx pgx.Tx, d material.Detail) error {
	var (
		query string
		args  []interface{}
	)
	switch t := d.(type) {
	case *material.Book:
		query = `UPDATE books SET isbn = $2, page_count = $3, updated_at = NOW() WHERE material_id = $1`
		args = []interface{}{t.MaterialID, t.ISBN, t.PageCount}
	case *material.Article:
		query = `UPDATE articles SET doi = $2, updated_at = NOW() WHERE material_id = $1`
		args = []interface{}{t.MaterialID, t.DOI}
	case *material.Video:
		query = `UPDATE videos SET duration_minutes = $2, updated_at = NOW() WHERE material_id = $1`
		args = []interface{}{t.MaterialID, t.DurationMinutes}
	default:
		return fmt.Errorf("unsupported material detail %T", d)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "failed to update "+strings.ToLower(d.Kind().String()))
	}
	if tag.RowsAffected() == 0 {
		return material.NotFoundFor(d.Kind())
	}
	return nil
}

func (r *postgresRepository) SubtypeExists(ctx context.Context, tx pgx.Tx, materialID uuid.UUID, kind material.Kind) (bool, error) {
	var table string
	switch kind {
	case material.KindBook:
		table = "books"
	case material.KindArticle:
		table = "articles"
	case material.KindVideo:
		table = "videos"
	default:
		return false, nil
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE material_id = $1)`, table)
	if err := tx.QueryRow(ctx, query, materialID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s record: %w", table, err)
	}
	return exists, nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error, msg string) error {
	if name, ok := database.UniqueViolation(err); ok {
		switch name {
		case isbnConstraint:
			return material.ErrDuplicate("isbn")
		case doiConstraint:
			return material.ErrDuplicate("doi")
		}
	}
	if name, ok := database.ForeignKeyViolation(err); ok {
		switch name {
		case authorFKConstraint:
			return material.ErrAuthorMissing
		case creatorFKConstraint:
			return material.ErrCreatorMissing
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// ========================================
// READS
// ========================================

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	return r.findOne(ctx, `WHERE m.id = $1`, id, material.ErrMaterialNotFound)
}

func (r *postgresRepository) FindBookByISBN(ctx context.Context, isbn string) (*material.Material, error) {
	return r.findOne(ctx, `WHERE b.isbn = $1`, material.NormalizeISBN(isbn), material.ErrBookNotFound)
}

func (r *postgresRepository) FindArticleByDOI(ctx context.Context, doi string) (*material.Material, error) {
	return r.findOne(ctx, `WHERE ar.doi = $1`, material.NormalizeDOI(doi), material.ErrArticleNotFound)
}

func (r *postgresRepository) findOne(ctx context.Context, where string, arg any, notFound error) (*material.Material, error) {
	m, err := scanMaterial(r.pool.QueryRow(ctx, selectMaterial+fromMaterial+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return m, nil
}

// Search composes every filter into one WHERE clause shared by the page and
// count queries.
func (r *postgresRepository) Search(ctx context.Context, filter material.Filter) ([]material.Material, int64, error) {
	where, args := buildWhere(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+fromMaterial+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count materials: %w", err)
	}

	argPos := len(args) + 1
	query := selectMaterial + fromMaterial + where +
		fmt.Sprintf(" ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	materials := []material.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating materials: %w", err)
	}

	return materials, total, nil
}

func buildWhere(filter material.Filter) (string, []interface{}) {
	var where strings.Builder
	where.WriteString(" WHERE 1=1")

	args := []interface{}{}
	argPos := 1

	if q := strings.TrimSpace(filter.Query); q != "" {
		where.WriteString(fmt.Sprintf(" AND (m.title ILIKE $%d OR m.description ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+q+"%")
		argPos++
	}
	if filter.Kind != "" {
		where.WriteString(fmt.Sprintf(" AND m.kind = $%d", argPos))
		args = append(args, filter.Kind)
		argPos++
	}
	if filter.Status != "" {
		where.WriteString(fmt.Sprintf(" AND m.status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.AuthorID != nil {
		where.WriteString(fmt.Sprintf(" AND m.author_id = $%d", argPos))
		args = append(args, *filter.AuthorID)
		argPos++
	}

	if filter.Kind == material.KindVideo {
		if filter.MinDuration != nil {
			where.WriteString(fmt.Sprintf(" AND v.duration_minutes >= $%d", argPos))
			args = append(args, *filter.MinDuration)
			argPos++
		}
		if filter.MaxDuration != nil {
			where.WriteString(fmt.Sprintf(" AND v.duration_minutes <= $%d", argPos))
			args = append(args, *filter.MaxDuration)
			argPos++
		}
		switch filter.DurationCategory {
		case material.DurationShort:
			where.WriteString(" AND v.duration_minutes <= 10")
		case material.DurationMedium:
			where.WriteString(" AND v.duration_minutes > 10 AND v.duration_minutes <= 60")
		case material.DurationLong:
			where.WriteString(" AND v.duration_minutes > 60")
		}
	}

	return where.String(), args
}

// ========================================
// AGGREGATES
// ========================================

func (r *postgresRepository) VideoDurationStats(ctx context.Context) (*material.VideoStats, error) {
	query := `
		SELECT COUNT(*), AVG(duration_minutes)::text, MIN(duration_minutes), MAX(duration_minutes),
		       COALESCE(SUM(duration_minutes), 0)
		FROM videos
	`
	var (
		stats material.VideoStats
		avg   *string
	)
	err := r.pool.QueryRow(ctx, query).Scan(&stats.Total, &avg, &stats.Minimum, &stats.Maximum, &stats.Sum)
	if err != nil {
		return nil, fmt.Errorf("failed to compute video stats: %w", err)
	}

	if avg != nil {
		d, err := decimal.NewFromString(*avg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse average duration: %w", err)
		}
		d = d.Round(2)
		stats.Average = &d
	}
	return &stats, nil
}

func (r *postgresRepository) Statistics(ctx context.Context, recent int) (*material.Statistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE kind = 'Livro'),
			COUNT(*) FILTER (WHERE kind = 'Artigo'),
			COUNT(*) FILTER (WHERE kind = 'Video'),
			COUNT(*) FILTER (WHERE status = 'rascunho'),
			COUNT(*) FILTER (WHERE status = 'publicado'),
			COUNT(*) FILTER (WHERE status = 'arquivado'),
			(SELECT COUNT(*) FROM authors),
			(SELECT COUNT(*) FROM users)
		FROM materials
	`
	var s material.Statistics
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalMaterials,
		&s.ByKind.Books, &s.ByKind.Articles, &s.ByKind.Videos,
		&s.ByStatus.Draft, &s.ByStatus.Published, &s.ByStatus.Archived,
		&s.TotalAuthors, &s.TotalUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.title, m.kind, a.name, m.created_at
		FROM materials m
		JOIN authors a ON a.id = m.author_id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $1
	`, recent)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent materials: %w", err)
	}
	defer rows.Close()

	s.Recent = []material.RecentMaterial{}
	for rows.Next() {
		var rm material.RecentMaterial
		if err := rows.Scan(&rm.ID, &rm.Title, &rm.Kind, &rm.Author, &rm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent material: %w", err)
		}
		s.Recent = append(s.Recent, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent materials: %w", err)
	}

	return &s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
