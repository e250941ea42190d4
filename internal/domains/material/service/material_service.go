package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/infrastructure/openlibrary"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/pagination"
	"digital-library-backend/pkg/cache"
	"digital-library-backend/pkg/database"
	"digital-library-backend/pkg/logger"
	"digital-library-backend/pkg/metrics"
)

const (
	statsCacheKey      = "stats:catalog"
	videoStatsCacheKey = "stats:videos"
	statsCachePattern  = "stats:*"

	recentMaterials = 5
)

// materialService implements material.Service
type materialService struct {
	repo     material.Repository
	tx       database.Transactor
	authors  material.AuthorResolver
	lookup   openlibrary.Lookup
	cache    cache.Cache
	statsTTL time.Duration
}

// NewMaterialService wires the orchestration layer. lookup may be nil, which
// disables ISBN enrichment.
func NewMaterialService(
	repo material.Repository,
	tx database.Transactor,
	authors material.AuthorResolver,
	lookup openlibrary.Lookup,
	c cache.Cache,
	statsTTL time.Duration,
) material.Service {
	return &materialService{
		repo:     repo,
		tx:       tx,
		authors:  authors,
		lookup:   lookup,
		cache:    c,
		statsTTL: statsTTL,
	}
}

// ========================================
// WRITES
// ========================================

func (s *materialService) Create(ctx context.Context, u *user.User, params material.MaterialParams) (*material.Material, error) {
	if u == nil {
		return nil, user.ErrTokenMissing
	}
	if missing := params.MissingFields("tipo", "titulo", "autor_id"); len(missing) > 0 {
		return nil, apperror.NewMissingParams(missing...)
	}
	return s.create(ctx, u, params, "")
}

func (s *materialService) CreateBookFromISBN(ctx context.Context, u *user.User, params material.MaterialParams) (*material.Material, error) {
	if u == nil {
		return nil, user.ErrTokenMissing
	}
	params = params.WithKind(material.KindBook)

	var authorName string
	if params.ISBN != nil && s.lookup != nil {
		meta, err := s.lookup.FindByISBN(ctx, *params.ISBN)
		if err != nil {
			logger.Warn("isbn enrichment skipped", map[string]interface{}{"isbn": *params.ISBN, "error": err.Error()})
		} else {
			params.Enrich(meta.Title, meta.PageCount, meta.Description)
			if params.NeedsAuthor() && len(meta.Authors) > 0 {
				authorName = meta.Authors[0]
			}
		}
	}

	return s.create(ctx, u, params, authorName)
}

// create writes the material and its detail record in one transaction. The
// detail record is verified before commit.
func (s *materialService) create(ctx context.Context, u *user.User, params material.MaterialParams, authorName string) (*material.Material, error) {
	m := params.NewMaterial(u.ID)

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		if m.AuthorID == uuid.Nil && authorName != "" {
			m.AuthorID = s.resolveAuthor(ctx, tx, authorName)
		}
		if err := m.Validate(); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, tx, m); err != nil {
			return err
		}

		detail := params.NewDetail(m.Kind, m.ID)
		if detail == nil {
			return &apperror.MissingSubtypeError{Kind: m.Kind.Label()}
		}
		if err := detail.Validate(); err != nil {
			return err
		}
		if err := s.repo.CreateDetail(ctx, tx, detail); err != nil {
			return err
		}

		exists, err := s.repo.SubtypeExists(ctx, tx, m.ID, m.Kind)
		if err != nil {
			return err
		}
		if !exists {
			return &apperror.MissingSubtypeError{Kind: m.Kind.Label()}
		}
		return nil
	})
	metrics.RecordMaterialWrite("create", kindLabel(m.Kind), err)
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	logger.Info("material created", map[string]interface{}{
		"material_id": m.ID,
		"kind":        m.Kind,
		"user_id":     u.ID,
	})
	return s.repo.FindByID(ctx, m.ID)
}

// resolveAuthor is best-effort: a failure leaves the author unset.
func (s *materialService) resolveAuthor(ctx context.Context, tx pgx.Tx, name string) uuid.UUID {
	if s.authors == nil {
		return uuid.Nil
	}
	a, err := s.authors.FindOrCreatePerson(ctx, tx, name)
	if err != nil || a == nil {
		fields := map[string]interface{}{"author": name}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.Warn("could not resolve author from metadata", fields)
		return uuid.Nil
	}
	return a.ID
}

func (s *materialService) Update(ctx context.Context, m *material.Material, u *user.User, params material.MaterialParams) (*material.Material, error) {
	if !m.CanBeEditedBy(u) {
		return nil, material.ErrEditForbidden
	}
	if params.ChangesKind(m.Kind) {
		return nil, material.ErrKindImmutable()
	}
	if m.Detail == nil && params.TouchesDetail(m.Kind) {
		return nil, &apperror.MissingSubtypeError{Kind: m.Kind.Label()}
	}

	updated := *m
	params.ApplyTo(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			return err
		}

		if m.Detail == nil {
			return nil
		}
		detail := material.CloneDetail(m.Detail)
		if !params.PatchDetail(detail) {
			return nil
		}
		if err := detail.Validate(); err != nil {
			return err
		}
		return s.repo.UpdateDetail(ctx, tx, detail)
	})
	metrics.RecordMaterialWrite("update", m.Kind.String(), err)
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	logger.Info("material updated", map[string]interface{}{"material_id": m.ID, "user_id": u.ID})
	return s.repo.FindByID(ctx, m.ID)
}

func (s *materialService) Delete(ctx context.Context, m *material.Material, u *user.User) error {
	if !m.CanBeDeletedBy(u) {
		return material.ErrDeleteForbidden
	}

	err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Delete(ctx, tx, m.ID)
	})
	metrics.RecordMaterialWrite("delete", m.Kind.String(), err)
	if err != nil {
		return err
	}

	s.invalidateStats(ctx)
	logger.Info("material deleted", map[string]interface{}{"material_id": m.ID, "user_id": u.ID})
	return nil
}

// ========================================
// READS
// ========================================

func (s *materialService) Get(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	if id == uuid.Nil {
		return nil, material.ErrMaterialNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *materialService) Search(ctx context.Context, filter material.Filter) ([]material.Material, int64, error) {
	filter.Page = pagination.New(filter.Page.Page, filter.Page.PerPage)
	return s.repo.Search(ctx, filter)
}

func (s *materialService) FindBookByISBN(ctx context.Context, isbn string) (*material.Material, error) {
	if !material.ValidISBN(isbn) {
		return nil, material.ErrBookNotFound
	}
	return s.repo.FindBookByISBN(ctx, isbn)
}

func (s *materialService) FindArticleByDOI(ctx context.Context, doi string) (*material.Material, error) {
	if material.NormalizeDOI(doi) == "" {
		return nil, material.ErrArticleNotFound
	}
	return s.repo.FindArticleByDOI(ctx, doi)
}

func (s *materialService) LookupISBN(ctx context.Context, isbn string) (*openlibrary.BookMetadata, error) {
	if s.lookup == nil {
		return nil, &apperror.ExternalServiceError{Service: "OpenLibrary", Message: "Consulta à OpenLibrary desabilitada"}
	}
	return s.lookup.FindByISBN(ctx, isbn)
}

// ========================================
// AGGREGATES (cached until the next write)
// ========================================

func (s *materialService) VideoStats(ctx context.Context) (*material.VideoStats, error) {
	var cached material.VideoStats
	if s.fromCache(ctx, videoStatsCacheKey, &cached) {
		return &cached, nil
	}

	stats, err := s.repo.VideoDurationStats(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, videoStatsCacheKey, stats)
	return stats, nil
}

func (s *materialService) Statistics(ctx context.Context) (*material.Statistics, error) {
	var cached material.Statistics
	if s.fromCache(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}

	stats, err := s.repo.Statistics(ctx, recentMaterials)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, statsCacheKey, stats)
	return stats, nil
}

func (s *materialService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return found
}

func (s *materialService) toCache(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.statsTTL); err != nil {
		logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// kindLabel bounds the metric label to the known kinds.
func kindLabel(k material.Kind) string {
	if !k.IsValid() {
		return "unknown"
	}
	return k.String()
}

func (s *materialService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, statsCachePattern); err != nil {
		logger.Warn("failed to invalidate statistics cache", map[string]interface{}{"error": err.Error()})
	}
}
