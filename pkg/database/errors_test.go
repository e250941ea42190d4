package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_books_isbn"})

	name, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "idx_books_isbn", name)

	_, ok = ForeignKeyViolation(err)
	assert.False(t, ok)
}

func TestForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "materials_author_id_fkey"}

	name, ok := ForeignKeyViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "materials_author_id_fkey", name)
}

func TestNonPgError(t *testing.T) {
	_, ok := UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}
