// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database_test

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/changeset/internal/database"
	databasetesting "github.com/juju/changeset/internal/database/testing"
)

type databaseSuite struct {
	databasetesting.DBSuite
}

var _ = gc.Suite(&databaseSuite{})

var testSchema = database.NewSchema(
	`CREATE TABLE foo (id INT PRIMARY KEY, name TEXT NOT NULL)`,
	`CREATE INDEX idx_foo_name ON foo (name)`,
)

type foo struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

func (s *databaseSuite) TestOpenEmptyPath(c *gc.C) {
	_, err := database.Open(context.Background(), "")
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

func (s *databaseSuite) TestOpenReopen(c *gc.C) {
	path := filepath.Join(c.MkDir(), "test.db")

	db, err := database.Open(context.Background(), path)
	c.Assert(err, jc.ErrorIsNil)
	applied, err := testSchema.Ensure(context.Background(), db)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(applied, gc.Equals, 2)
	c.Assert(db.Close(), jc.ErrorIsNil)

	db, err = database.Open(context.Background(), path)
	c.Assert(err, jc.ErrorIsNil)
	defer db.Close()
	applied, err = testSchema.Ensure(context.Background(), db)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(applied, gc.Equals, 0)
}

func (s *databaseSuite) TestSchemaAddPatch(c *gc.C) {
	schema := database.NewSchema(`CREATE TABLE bar (id INT PRIMARY KEY)`)
	s.ApplySchema(c, schema)

	schema.Add(`ALTER TABLE bar ADD COLUMN name TEXT`)
	c.Check(schema.Len(), gc.Equals, 2)

	applied, err := schema.Ensure(context.Background(), s.DB())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(applied, gc.Equals, 1)
}

func (s *databaseSuite) TestSchemaBadPatch(c *gc.C) {
	schema := database.NewSchema(`CREATE TABLE baz (id INT PRIMARY KEY)`, `NOT SQL`)
	_, err := schema.Ensure(context.Background(), s.DB())
	c.Assert(err, gc.ErrorMatches, `applying patch 2: .*`)

	// The whole run is rolled back.
	var count int
	err = s.DB().Raw().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'baz'`).Scan(&count)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(count, gc.Equals, 0)
}

func (s *databaseSuite) TestTxn(c *gc.C) {
	s.ApplySchema(c, testSchema)

	insert, err := sqlair.Prepare(`INSERT INTO foo (id, name) VALUES ($foo.id, $foo.name)`, foo{})
	c.Assert(err, jc.ErrorIsNil)
	query, err := sqlair.Prepare(`SELECT &foo.* FROM foo WHERE id = $foo.id`, foo{})
	c.Assert(err, jc.ErrorIsNil)

	err = s.DB().Txn(context.Background(), func(ctx context.Context, tx *sqlair.TX) error {
		return tx.Query(ctx, insert, foo{ID: 1, Name: "one"}).Run()
	})
	c.Assert(err, jc.ErrorIsNil)

	var got foo
	err = s.DB().Txn(context.Background(), func(ctx context.Context, tx *sqlair.TX) error {
		return tx.Query(ctx, query, foo{ID: 1}).Get(&got)
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(got, gc.Equals, foo{ID: 1, Name: "one"})
}

func (s *databaseSuite) TestTxnRollback(c *gc.C) {
	s.ApplySchema(c, testSchema)

	err := s.DB().StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO foo (id, name) VALUES (1, 'one')`); err != nil {
			return err
		}
		return errors.New("boom")
	})
	c.Assert(err, gc.ErrorMatches, "boom")

	var count int
	err = s.DB().Raw().QueryRow(`SELECT COUNT(*) FROM foo`).Scan(&count)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(count, gc.Equals, 0)
}

func (s *databaseSuite) TestFactory(c *gc.C) {
	runner, err := s.TxnRunnerFactory()()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(runner, gc.Equals, database.TxnRunner(s.DB()))
}

func (s *databaseSuite) TestVersion(c *gc.C) {
	c.Check(database.Version(), gc.Not(gc.Equals), "")
}
