// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/juju/changeset/cmd"
	"github.com/juju/changeset/domain/changelog/service"
	"github.com/juju/changeset/domain/changelog/state"
	"github.com/juju/changeset/internal/database"
	"github.com/juju/changeset/internal/database/txn"
)

const (
	// dbEnvKey names the environment variable holding the default change
	// log path.
	dbEnvKey = "CHANGESET_DB"

	defaultDBPath = "changes.db"
)

// dbCommand is the base of the commands using the change log.
type dbCommand struct {
	cmd.CommandBase

	dbPath string
	clock  clock.Clock
}

// SetFlags adds the --db flag.
func (c *dbCommand) SetFlags(f *gnuflag.FlagSet) {
	path := os.Getenv(dbEnvKey)
	if path == "" {
		path = defaultDBPath
	}
	f.StringVar(&c.dbPath, "db", path, "Path to the change log database")
}

func (c *dbCommand) getClock() clock.Clock {
	if c.clock == nil {
		return clock.WallClock
	}
	return c.clock
}

// changeLog is an open change log.
type changeLog struct {
	db      *database.DB
	service *service.Service
}

// Close closes the underlying database.
func (l *changeLog) Close() error {
	return errors.Trace(l.db.Close())
}

// openChangeLog opens, creating it if needed, the change log database
// and brings its schema up to date.
func (c *dbCommand) openChangeLog(ctx *cmd.Context) (*changeLog, error) {
	return openChangeLog(ctx, ctx.AbsPath(c.dbPath), c.getClock())
}

func openChangeLog(ctx context.Context, path string, clk clock.Clock) (*changeLog, error) {
	dbLogger := loggo.GetLogger("changeset.database")
	db, err := database.Open(ctx, path,
		txn.WithLogger(dbLogger),
		txn.WithRetryStrategy(txn.DefaultRetryStrategy(clk, dbLogger)),
	)
	if err != nil {
		return nil, errors.Annotatef(err, "opening change log %q", path)
	}

	applied, err := state.Schema().Ensure(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "ensuring change log schema")
	}
	if applied > 0 {
		logger.Debugf("applied %d change log schema patches to %q", applied, path)
	}

	st := state.NewState(db.Factory(), loggo.GetLogger("changeset.changelog.state"))
	return &changeLog{
		db:      db,
		service: service.NewService(st, clk, loggo.GetLogger("changeset.changelog")),
	}, nil
}
