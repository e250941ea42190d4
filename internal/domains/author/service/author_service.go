package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/pkg/cache"
	"digital-library-backend/pkg/logger"
)

// statsCachePattern matches the cached catalog statistics, which embed author totals.
const statsCachePattern = "stats:*"

// placeholderBirthDate is used for people created from external metadata.
var placeholderBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// authorService implements author.Service
type authorService struct {
	repo  author.Repository
	cache cache.Cache
	now   func() time.Time
}

func NewAuthorService(repo author.Repository, c cache.Cache) author.Service {
	return &authorService{
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

func (s *authorService) Today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *authorService) Create(ctx context.Context, req author.CreateAuthorRequest) (*author.Author, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperror.NewMissingParams(missing...)
	}

	a, err := req.ToEntity()
	if err != nil {
		return nil, err
	}
	if err := a.Validate(s.Today()); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	logger.Info("author created", map[string]interface{}{"author_id": a.ID, "kind": a.Kind})
	return a, nil
}

func (s *authorService) GetByID(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	if id == uuid.Nil {
		return nil, author.ErrAuthorNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *authorService) GetDetail(ctx context.Context, id uuid.UUID) (*author.Author, []author.MaterialSummary, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	materials, err := s.repo.ListMaterials(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return a, materials, nil
}

func (s *authorService) List(ctx context.Context, filter author.AuthorFilter) ([]author.Author, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *authorService) Update(ctx context.Context, id uuid.UUID, req author.UpdateAuthorRequest) (*author.Author, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := req.ApplyTo(a); err != nil {
		return nil, err
	}
	if err := a.Validate(s.Today()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *authorService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return author.ErrAuthorNotFound
	}

	count, err := s.repo.CountMaterials(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return author.ErrAuthorHasMaterials
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	logger.Info("author deleted", map[string]interface{}{"author_id": id})
	return nil
}

func (s *authorService) FindOrCreatePerson(ctx context.Context, tx pgx.Tx, name string) (*author.Author, error) {
	birth := placeholderBirthDate
	a := &author.Author{
		Name:      name,
		Kind:      author.KindPerson,
		BirthDate: &birth,
	}
	if err := a.Validate(s.Today()); err != nil {
		return nil, err
	}
	return s.repo.FindOrCreatePerson(ctx, tx, a)
}

func (s *authorService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, statsCachePattern); err != nil {
		logger.Warn("failed to invalidate statistics cache", map[string]interface{}{"error": err.Error()})
	}
}
