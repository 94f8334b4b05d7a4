// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
)

// Patch is a single DDL change to a schema.
type Patch string

// Schema is an ordered set of patches. Patches are applied once each, in
// order, and tracked in the schema table.
type Schema struct {
	patches []Patch
}

// NewSchema returns a schema made of the given patches.
func NewSchema(patches ...Patch) *Schema {
	return &Schema{patches: patches}
}

// Add appends patches to the schema.
func (s *Schema) Add(patches ...Patch) {
	s.patches = append(s.patches, patches...)
}

// Len returns the number of patches in the schema.
func (s *Schema) Len() int {
	return len(s.patches)
}

// Ensure applies the patches that have not yet been applied to the
// database and returns the number of patches applied.
func (s *Schema) Ensure(ctx context.Context, runner TxnRunner) (int, error) {
	var applied int
	err := runner.StdTxn(ctx, func(ctx context.Context, tx *sql.Tx) error {
		applied = 0

		if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema (
    version    INT PRIMARY KEY,
    updated_at DATETIME NOT NULL DEFAULT(STRFTIME('%Y-%m-%d %H:%M:%f', 'NOW', 'utc'))
)`); err != nil {
			return errors.Annotate(err, "creating schema table")
		}

		var current int
		row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema`)
		if err := row.Scan(&current); err != nil {
			return errors.Annotate(err, "reading schema version")
		}

		for i := current; i < len(s.patches); i++ {
			if _, err := tx.ExecContext(ctx, string(s.patches[i])); err != nil {
				return errors.Annotatef(err, "applying patch %d", i+1)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema (version) VALUES (?)`, i+1); err != nil {
				return errors.Annotatef(err, "recording patch %d", i+1)
			}
			applied++
		}
		return nil
	})
	return applied, errors.Trace(err)
}
