// Package migrations holds the versioned SQL schema of the catalog.
// Files follow the NNNNNN_name.(up|down).sql convention.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
