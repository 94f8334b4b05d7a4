// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package database opens the SQLite database that backs the change log and
// runs transactions against it.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"
	"github.com/mattn/go-sqlite3"

	"github.com/juju/changeset/internal/database/txn"
)

// DriverName is the name of the registered SQLite driver.
const DriverName = "sqlite3"

// TxnRunner runs transactions against a database.
type TxnRunner interface {
	// Txn runs fn in a sqlair transaction. Transient failures are
	// retried.
	Txn(context.Context, func(context.Context, *sqlair.TX) error) error

	// StdTxn runs fn in a database/sql transaction. Transient failures
	// are retried.
	StdTxn(context.Context, func(context.Context, *sql.Tx) error) error
}

// TxnRunnerFactory returns a TxnRunner, or an error if the database is not
// available.
type TxnRunnerFactory func() (TxnRunner, error)

// DB is an open SQLite database.
type DB struct {
	raw    *sql.DB
	db     *sqlair.DB
	runner *txn.RetryingTxnRunner
}

var _ TxnRunner = (*DB)(nil)

// Open opens the SQLite database at path, creating it if necessary.
func Open(ctx context.Context, path string, opts ...txn.Option) (*DB, error) {
	if path == "" {
		return nil, errors.NotValidf("empty database path")
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000&_txlock=immediate", path)
	raw, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "opening database %q", path)
	}
	// SQLite serialises writers, a single connection avoids lock
	// contention between our own transactions.
	raw.SetMaxOpenConns(1)

	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, errors.Annotatef(err, "opening database %q", path)
	}

	return &DB{
		raw:    raw,
		db:     sqlair.NewDB(raw),
		runner: txn.NewRetryingTxnRunner(opts...),
	}, nil
}

// Txn is part of the TxnRunner interface.
func (d *DB) Txn(ctx context.Context, fn func(context.Context, *sqlair.TX) error) error {
	return errors.Trace(d.runner.Txn(ctx, d.db, fn))
}

// StdTxn is part of the TxnRunner interface.
func (d *DB) StdTxn(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return errors.Trace(d.runner.StdTxn(ctx, d.raw, fn))
}

// Factory returns a TxnRunnerFactory for the database.
func (d *DB) Factory() TxnRunnerFactory {
	return func() (TxnRunner, error) {
		return d, nil
	}
}

// Raw returns the underlying database/sql handle.
func (d *DB) Raw() *sql.DB {
	return d.raw
}

// Close closes the database.
func (d *DB) Close() error {
	return errors.Trace(d.raw.Close())
}

// Version returns the version of the SQLite library in use.
func Version() string {
	v, _, _ := sqlite3.Version()
	return v
}
