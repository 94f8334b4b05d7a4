// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/changeset/internal/database"
)

// DBSuite provides a fresh SQLite database for each test.
type DBSuite struct {
	testing.IsolationSuite

	db *database.DB
}

// SetUpTest opens a database in a temporary directory.
func (s *DBSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	db, err := database.Open(context.Background(), filepath.Join(c.MkDir(), "changes.db"))
	c.Assert(err, jc.ErrorIsNil)
	s.db = db

	s.AddCleanup(func(c *gc.C) {
		c.Check(db.Close(), jc.ErrorIsNil)
	})
}

// DB returns the database for the current test.
func (s *DBSuite) DB() *database.DB {
	return s.db
}

// TxnRunnerFactory returns a factory for the database of the current test.
func (s *DBSuite) TxnRunnerFactory() database.TxnRunnerFactory {
	return s.db.Factory()
}

// ApplySchema ensures the given schema on the database of the current test.
func (s *DBSuite) ApplySchema(c *gc.C, schema *database.Schema) {
	_, err := schema.Ensure(context.Background(), s.db)
	c.Assert(err, jc.ErrorIsNil)
}

// DumpTable dumps the contents of the given tables to stdout. It is meant
// for debugging tests.
func (s *DBSuite) DumpTable(c *gc.C, table string, extraTables ...string) {
	for _, t := range append([]string{table}, extraTables...) {
		s.dumpTable(c, t)
	}
}

func (s *DBSuite) dumpTable(c *gc.C, table string) {
	rows, err := s.db.Raw().Query(fmt.Sprintf("SELECT * FROM %q", table))
	c.Assert(err, jc.ErrorIsNil)
	defer rows.Close()

	cols, err := rows.Columns()
	c.Assert(err, jc.ErrorIsNil)

	buffer := new(bytes.Buffer)
	writer := tabwriter.NewWriter(buffer, 0, 8, 4, ' ', 0)
	for _, col := range cols {
		fmt.Fprintf(writer, "%s\t", col)
	}
	fmt.Fprintln(writer)

	vals := make([]any, len(cols))
	for i := range vals {
		vals[i] = new(any)
	}
	for rows.Next() {
		c.Assert(rows.Scan(vals...), jc.ErrorIsNil)
		for _, val := range vals {
			fmt.Fprintf(writer, "%v\t", *val.(*any))
		}
		fmt.Fprintln(writer)
	}
	c.Assert(rows.Err(), jc.ErrorIsNil)
	writer.Flush()

	var width int
	scanner := bufio.NewScanner(bytes.NewBuffer(buffer.Bytes()))
	for scanner.Scan() {
		if num := len(scanner.Text()); num > width {
			width = num
		}
	}

	fmt.Fprintf(os.Stdout, "Table - %s:\n", table)
	fmt.Fprintln(os.Stdout, strings.Repeat("-", width))
	fmt.Fprintln(os.Stdout, buffer.String())
	fmt.Fprintln(os.Stdout, strings.Repeat("-", width))
	fmt.Fprintln(os.Stdout)
}
