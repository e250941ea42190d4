package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"digital-library-backend/internal/domains/author"
	"digital-library-backend/internal/domains/material"
	"digital-library-backend/internal/infrastructure/openlibrary"
	"digital-library-backend/pkg/database"
)

// fakeRepo is an in-memory material.Repository.
type fakeRepo struct {
	mu        sync.Mutex
	materials map[uuid.UUID]material.Material
	details   map[uuid.UUID]material.Detail
	authors   map[uuid.UUID]*author.Author
	emails    map[uuid.UUID]string
	clock     time.Time

	dropDetails bool
	lastFilter  material.Filter
	statsCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		materials: map[uuid.UUID]material.Material{},
		details:   map[uuid.UUID]material.Detail{},
		authors:   map[uuid.UUID]*author.Author{},
		emails:    map[uuid.UUID]string{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) addAuthor(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.authors[id] = &author.Author{ID: id, Name: name, Kind: author.KindPerson}
	return id
}

type snapshot struct {
	materials map[uuid.UUID]material.Material
	details   map[uuid.UUID]material.Detail
	authors   map[uuid.UUID]*author.Author
}

func (f *fakeRepo) snapshot() snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := snapshot{
		materials: map[uuid.UUID]material.Material{},
		details:   map[uuid.UUID]material.Detail{},
		authors:   map[uuid.UUID]*author.Author{},
	}
	for k, v := range f.materials {
		s.materials[k] = v
	}
	for k, v := range f.details {
		s.details[k] = material.CloneDetail(v)
	}
	for k, v := range f.authors {
		s.authors[k] = v
	}
	return s
}

func (f *fakeRepo) restore(s snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.materials, f.details, f.authors = s.materials, s.details, s.authors
}

func (f *fakeRepo) Create(_ context.Context, _ pgx.Tx, m *material.Material) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authors[m.AuthorID]; !ok {
		return material.ErrAuthorMissing
	}
	f.clock = f.clock.Add(time.Minute)
	m.ID = uuid.New()
	m.CreatedAt = f.clock
	m.UpdatedAt = f.clock
	stored := *m
	stored.Detail, stored.Author = nil, nil
	f.materials[m.ID] = stored
	return nil
}

func (f *fakeRepo) Update(_ context.Context, _ pgx.Tx, m *material.Material) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.materials[m.ID]; !ok {
		return material.ErrMaterialNotFound
	}
	stored := *m
	stored.Detail, stored.Author = nil, nil
	f.materials[m.ID] = stored
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.materials[id]; !ok {
		return material.ErrMaterialNotFound
	}
	delete(f.materials, id)
	delete(f.details, id)
	return nil
}

func (f *fakeRepo) CreateDetail(_ context.Context, _ pgx.Tx, d material.Detail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkUnique(d); err != nil {
		return err
	}
	if f.dropDetails {
		return nil
	}
	f.details[d.MaterialRef()] = material.CloneDetail(d)
	return nil
}

func (f *fakeRepo) UpdateDetail(_ context.Context, _ pgx.Tx, d material.Detail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.details[d.MaterialRef()]; !ok {
		return material.NotFoundFor(d.Kind())
	}
	if err := f.checkUnique(d); err != nil {
		return err
	}
	f.details[d.MaterialRef()] = material.CloneDetail(d)
	return nil
}

func (f *fakeRepo) checkUnique(d material.Detail) error {
	for id, existing := range f.details {
		if id == d.MaterialRef() {
			continue
		}
		switch t := d.(type) {
		case *material.Book:
			if b, ok := existing.(*material.Book); ok && b.ISBN == t.ISBN {
				return material.ErrDuplicate("isbn")
			}
		case *material.Article:
			if a, ok := existing.(*material.Article); ok && a.DOI == t.DOI {
				return material.ErrDuplicate("doi")
			}
		}
	}
	return nil
}

func (f *fakeRepo) SubtypeExists(_ context.Context, _ pgx.Tx, id uuid.UUID, kind material.Kind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	return ok && d.Kind() == kind, nil
}

func (f *fakeRepo) load(id uuid.UUID) *material.Material {
	m := f.materials[id]
	m.Author = f.authors[m.AuthorID]
	m.CreatorEmail = f.emails[m.CreatorUserID]
	if d, ok := f.details[id]; ok {
		m.Detail = material.CloneDetail(d)
	}
	return &m
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*material.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.materials[id]; !ok {
		return nil, material.ErrMaterialNotFound
	}
	return f.load(id), nil
}

func (f *fakeRepo) Search(_ context.Context, filter material.Filter) ([]material.Material, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	var out []material.Material
	for id, m := range f.materials {
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.AuthorID != nil && m.AuthorID != *filter.AuthorID {
			continue
		}
		if q := strings.ToLower(filter.Query); q != "" {
			desc := ""
			if m.Description != nil {
				desc = strings.ToLower(*m.Description)
			}
			if !strings.Contains(strings.ToLower(m.Title), q) && !strings.Contains(desc, q) {
				continue
			}
		}
		out = append(out, *f.load(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	start := filter.Page.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Page.Limit()
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *fakeRepo) FindBookByISBN(_ context.Context, isbn string) (*material.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	isbn = material.NormalizeISBN(isbn)
	for id, d := range f.details {
		if b, ok := d.(*material.Book); ok && b.ISBN == isbn {
			return f.load(id), nil
		}
	}
	return nil, material.ErrBookNotFound
}

func (f *fakeRepo) FindArticleByDOI(_ context.Context, doi string) (*material.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doi = material.NormalizeDOI(doi)
	for id, d := range f.details {
		if a, ok := d.(*material.Article); ok && a.DOI == doi {
			return f.load(id), nil
		}
	}
	return nil, material.ErrArticleNotFound
}

func (f *fakeRepo) VideoDurationStats(context.Context) (*material.VideoStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	stats := &material.VideoStats{}
	for _, d := range f.details {
		if v, ok := d.(*material.Video); ok {
			stats.Total++
			stats.Sum += int64(v.DurationMinutes)
		}
	}
	return stats, nil
}

func (f *fakeRepo) Statistics(_ context.Context, _ int) (*material.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	return &material.Statistics{
		TotalMaterials: int64(len(f.materials)),
		TotalAuthors:   int64(len(f.authors)),
		Recent:         []material.RecentMaterial{},
	}, nil
}

// fakeTransactor serializes units of work and restores the repository when
// one fails.
type fakeTransactor struct {
	mu        sync.Mutex
	repo      *fakeRepo
	calls     int
	rollbacks int
}

func (t *fakeTransactor) WithTransaction(_ context.Context, fn database.TxFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++

	snap := t.repo.snapshot()
	if err := fn(nil); err != nil {
		t.repo.restore(snap)
		t.rollbacks++
		return err
	}
	return nil
}

// fakeAuthors resolves people by name inside the fake repository.
type fakeAuthors struct {
	repo *fakeRepo
	err  error
}

func (a *fakeAuthors) FindOrCreatePerson(_ context.Context, _ pgx.Tx, name string) (*author.Author, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.repo.mu.Lock()
	for _, existing := range a.repo.authors {
		if existing.Name == name {
			a.repo.mu.Unlock()
			return existing, nil
		}
	}
	a.repo.mu.Unlock()
	id := a.repo.addAuthor(name)
	return a.repo.authors[id], nil
}

type fakeLookup struct {
	meta  *openlibrary.BookMetadata
	err   error
	calls int
}

func (l *fakeLookup) FindByISBN(_ context.Context, isbn string) (*openlibrary.BookMetadata, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if l.meta == nil {
		return nil, errors.New("no metadata")
	}
	meta := *l.meta
	meta.ISBN = isbn
	return &meta, nil
}
