//go:build integration

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"digital-library-backend/internal/domains/author"
	authorRepo "digital-library-backend/internal/domains/author/repository"
	authorService "digital-library-backend/internal/domains/author/service"
	"digital-library-backend/internal/domains/material"
	materialRepo "digital-library-backend/internal/domains/material/repository"
	"digital-library-backend/internal/domains/material/service"
	"digital-library-backend/internal/domains/user"
	userRepo "digital-library-backend/internal/domains/user/repository"
	"digital-library-backend/internal/infrastructure/database"
	"digital-library-backend/internal/infrastructure/openlibrary"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/internal/shared/pagination"
	"digital-library-backend/migrations"
	"digital-library-backend/pkg/cache"
	pkgdb "digital-library-backend/pkg/database"
)

type staticLookup struct {
	meta *openlibrary.BookMetadata
}

func (l staticLookup) FindByISBN(context.Context, string) (*openlibrary.BookMetadata, error) {
	return l.meta, nil
}

type env struct {
	pool    *pgxpool.Pool
	svc     material.Service
	authors author.Service
	owner   *user.User
	machado *author.Author
	dsn     string
}

func setup(t *testing.T, lookup openlibrary.Lookup) *env {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("biblioteca_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := database.OpenMigrator(dsn, migrations.FS)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	mem := cache.NewMemoryCache()
	owner := &user.User{Email: "dono@example.com", PasswordHash: "x"}
	require.NoError(t, userRepo.NewPostgresRepository(pool, mem).Create(ctx, owner))

	aRepo := authorRepo.NewPostgresRepository(pool)
	birth := time.Date(1839, 6, 21, 0, 0, 0, 0, time.UTC)
	machado := &author.Author{Name: "Machado de Assis", Kind: author.KindPerson, BirthDate: &birth}
	require.NoError(t, aRepo.Create(ctx, machado))

	authors := authorService.NewAuthorService(aRepo, mem)
	svc := service.NewMaterialService(
		materialRepo.NewPostgresRepository(pool),
		pkgdb.NewTransactor(pool),
		authors,
		lookup,
		mem,
		time.Minute,
	)

	return &env{pool: pool, svc: svc, authors: authors, owner: owner, machado: machado, dsn: dsn}
}

func (e *env) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func (e *env) article(title, doi string) material.MaterialParams {
	return material.MaterialParams{
		Kind: str("Artigo"), Title: str(title), AuthorID: str(e.machado.ID.String()), DOI: str(doi),
	}
}

func TestConcurrentDuplicateDOI(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Create(ctx, e.owner, e.article("Redes neurais", "10.1000/Duplicado"))
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		var ve *apperror.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"já está em uso"}, ve.Fields["doi"])
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, e.count(t, "materials"))
	assert.Equal(t, 1, e.count(t, "articles"))
}

func TestInvalidDetailRollsBackMaterial(t *testing.T) {
	e := setup(t, nil)

	_, err := e.svc.Create(context.Background(), e.owner, material.MaterialParams{
		Kind: str("Video"), Title: str("Maratona"), AuthorID: str(e.machado.ID.String()), DurationMinutes: num(2000),
	})

	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, e.count(t, "materials"))
	assert.Zero(t, e.count(t, "videos"))
}

func TestUnknownAuthorIsReferenceError(t *testing.T) {
	e := setup(t, nil)

	params := e.article("Órfão", "10.1000/orfao")
	params.AuthorID = str("00000000-0000-0000-0000-000000000001")
	_, err := e.svc.Create(context.Background(), e.owner, params)

	var ref *apperror.ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Zero(t, e.count(t, "materials"))
}

func TestSearchCountsFilteredSet(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	for _, doi := range []string{"10.1000/a1", "10.1000/a2", "10.1000/a3"} {
		_, err := e.svc.Create(ctx, e.owner, e.article("Artigo "+doi, doi))
		require.NoError(t, err)
	}
	for _, minutes := range []int{15, 95} {
		_, err := e.svc.Create(ctx, e.owner, material.MaterialParams{
			Kind: str("Video"), Title: str("Aula"), AuthorID: str(e.machado.ID.String()), DurationMinutes: num(minutes),
		})
		require.NoError(t, err)
	}

	items, total, err := e.svc.Search(ctx, material.Filter{Kind: material.KindArticle, Page: pagination.New(1, 2)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 2)

	long, total, err := e.svc.Search(ctx, material.Filter{Kind: material.KindVideo, DurationCategory: material.DurationLong})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, long, 1)
	assert.Equal(t, 95, long[0].Video().DurationMinutes)

	stats, err := e.svc.VideoStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.Equal(t, "55", stats.Average.String())
}

func TestDeleteCascadesDetailAndUnblocksAuthor(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	m, err := e.svc.Create(ctx, e.owner, e.article("Efêmero", "10.1000/efemero"))
	require.NoError(t, err)

	err = e.authors.Delete(ctx, e.machado.ID)
	assert.ErrorIs(t, err, author.ErrAuthorHasMaterials)

	require.NoError(t, e.svc.Delete(ctx, m, e.owner))
	assert.Zero(t, e.count(t, "articles"))
	assert.NoError(t, e.authors.Delete(ctx, e.machado.ID))
}

func TestCreateBookFromISBNCreatesAuthor(t *testing.T) {
	e := setup(t, staticLookup{meta: &openlibrary.BookMetadata{
		ISBN: "9788535910663", Title: "Memórias Póstumas", PageCount: num(368), Authors: []string{"Brás Cubas"},
	}})

	m, err := e.svc.CreateBookFromISBN(context.Background(), e.owner, material.MaterialParams{ISBN: str("978-85-35910-66-3")})
	require.NoError(t, err)

	assert.Equal(t, "Memórias Póstumas", m.Title)
	assert.Equal(t, 368, m.Book().PageCount)
	require.NotNil(t, m.Author)
	assert.Equal(t, "Brás Cubas", m.Author.Name)
	assert.Equal(t, 2, e.count(t, "authors"))

	found, err := e.svc.FindBookByISBN(context.Background(), "978 85 35910 66 3")
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)
}

func TestMigratorConcurrentUp(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	m, err := database.OpenMigrator(e.dsn, migrations.FS)
	require.NoError(t, err)
	reverted, err := m.Down(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, reverted)
	require.NoError(t, m.Close())

	var wg sync.WaitGroup
	applied := make([]int, 2)
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mig, err := database.OpenMigrator(e.dsn, migrations.FS)
			if err != nil {
				errs[i] = err
				return
			}
			defer mig.Close()
			applied[i], errs[i] = mig.Up(ctx)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 3, applied[0]+applied[1])

	m, err = database.OpenMigrator(e.dsn, migrations.FS)
	require.NoError(t, err)
	defer m.Close()
	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.True(t, st.Applied, st.Name)
		assert.False(t, st.Dirty, st.Name)
	}
	assert.Equal(t, 0, e.count(t, "materials"))
}
