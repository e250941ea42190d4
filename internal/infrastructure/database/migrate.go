package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const migrationsTable = "schema_migrations"

// Migration is one versioned schema step found in the embedded SQL files.
type Migration struct {
	Version uint
	Name    string
}

// MigrationStatus reports whether a migration is applied. Dirty marks the
// current version when its last run failed halfway.
type MigrationStatus struct {
	Version uint
	Name    string
	Applied bool
	Dirty   bool
}

// Migrator runs the embedded migrations through golang-migrate. The postgres
// driver holds an advisory lock for the duration of each run.
type Migrator struct {
	m          *migrate.Migrate
	migrations []Migration
}

// OpenMigrator opens a lib/pq connection for the given DSN.
func OpenMigrator(dsn string, files fs.FS) (*Migrator, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	m, err := NewMigrator(db, files)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func NewMigrator(db *sql.DB, files fs.FS) (*Migrator, error) {
	migrations, err := LoadMigrations(files)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	m.Log = migrateLogger{}

	return &Migrator{m: m, migrations: migrations}, nil
}

// Close releases the source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// LoadMigrations lists NNNNNN_name.(up|down).sql files sorted by version.
// Every version must have an up file.
func LoadMigrations(files fs.FS) ([]Migration, error) {
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	defer src.Close()

	var result []Migration
	version, err := src.First()
	for err == nil {
		r, name, readErr := src.ReadUp(version)
		if readErr != nil {
			return nil, fmt.Errorf("migration %d has no up file: %w", version, readErr)
		}
		r.Close()

		result = append(result, Migration{Version: version, Name: name})
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	return result, nil
}

// Up applies every pending migration and returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	before, err := m.appliedCount()
	if err != nil {
		return 0, err
	}

	err = m.run(ctx, m.m.Up)
	if errors.Is(err, migrate.ErrNoChange) {
		return 0, nil
	}
	after, countErr := m.appliedCount()
	if err != nil {
		return max(after-before, 0), fmt.Errorf("migrate up: %w", err)
	}
	if countErr != nil {
		return 0, countErr
	}
	return after - before, nil
}

// Down reverts at most steps applied migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if steps < 1 {
		return 0, fmt.Errorf("steps must be positive")
	}
	before, err := m.appliedCount()
	if err != nil {
		return 0, err
	}
	steps = min(steps, before)
	if steps == 0 {
		return 0, nil
	}

	err = m.run(ctx, func() error { return m.m.Steps(-steps) })
	after, countErr := m.appliedCount()
	if err != nil {
		return max(before-after, 0), fmt.Errorf("migrate down: %w", err)
	}
	if countErr != nil {
		return 0, countErr
	}
	return before - after, nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	version, dirty, err := m.version()
	if err != nil {
		return nil, err
	}
	return buildStatus(m.migrations, version, dirty), nil
}

// run stops the migration between steps once ctx is cancelled.
func (m *Migrator) run(ctx context.Context, fn func() error) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			select {
			case m.m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()
	return fn()
}

// version returns 0 when nothing has been applied.
func (m *Migrator) version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) appliedCount() (int, error) {
	version, _, err := m.version()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, mig := range m.migrations {
		if mig.Version <= version {
			n++
		}
	}
	return n, nil
}

// buildStatus marks every migration up to current as applied.
func buildStatus(migrations []Migration, current uint, dirty bool) []MigrationStatus {
	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, mig := range migrations {
		statuses = append(statuses, MigrationStatus{
			Version: mig.Version,
			Name:    mig.Name,
			Applied: current > 0 && mig.Version <= current,
			Dirty:   dirty && mig.Version == current,
		})
	}
	return statuses
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	log.Info().Str("component", "migrate").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrateLogger) Verbose() bool { return false }
