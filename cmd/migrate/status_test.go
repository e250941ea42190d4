package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-library-backend/internal/infrastructure/database"
)

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	err := printStatus(&buf, []database.MigrationStatus{
		{Version: 1, Name: "create_users", Applied: true},
		{Version: 2, Name: "create_authors", Applied: true, Dirty: true},
		{Version: 3, Name: "create_materials"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "000001")
	assert.Contains(t, out, "create_users      applied")
	assert.Contains(t, out, "create_authors    dirty")
	assert.Contains(t, out, "create_materials  pending")
	assert.Contains(t, out, "3 migration(s), 1 pending")
}
