// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"time"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4"

	"github.com/juju/changeset/cmd"
	"github.com/juju/changeset/internal/worker/changelogpruner"
)

const pruneDoc = `
Prune removes the transactions committed more than --older-than ago from
the change log.

With --every, prune keeps running after the first prune, pruning again at
least that often until interrupted. The interval grows while there is
nothing to prune.

Examples:

    changesetctl prune --older-than 720h
    changesetctl prune --older-than 24h --every 10m
`

type pruneCommand struct {
	dbCommand

	olderThan time.Duration
	every     time.Duration
}

func newPruneCommand() *pruneCommand {
	return &pruneCommand{}
}

// Info implements cmd.Command.
func (c *pruneCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "prune",
		Purpose: "Remove old transactions from the change log.",
		Doc:     pruneDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *pruneCommand) SetFlags(f *gnuflag.FlagSet) {
	c.dbCommand.SetFlags(f)
	f.DurationVar(&c.olderThan, "older-than", 0, "Remove transactions committed longer ago than this")
	f.DurationVar(&c.every, "every", 0, "Keep pruning at least this often")
}

// Init implements cmd.Command.
func (c *pruneCommand) Init(args []string) error {
	if c.olderThan <= 0 {
		return errors.New("--older-than must be a positive duration")
	}
	if c.every < 0 {
		return errors.New("--every must not be negative")
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *pruneCommand) Run(ctx *cmd.Context) error {
	changeLog, err := c.openChangeLog(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := changeLog.Close(); err != nil {
			logger.Warningf("closing change log: %v", err)
		}
	}()

	pruned, err := changeLog.service.Prune(ctx, c.olderThan)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("Pruned %d transactions.", pruned)
	if c.every == 0 {
		return nil
	}

	w, err := changelogpruner.NewWorker(changelogpruner.Config{
		ChangeLogService: changeLog.service,
		MaxAge:           c.olderThan,
		MinInterval:      c.every,
		Clock:            c.getClock(),
		Logger:           loggo.GetLogger("changeset.worker.changelogpruner"),
	})
	if err != nil {
		return errors.Trace(err)
	}

	died := make(chan error, 1)
	go func() {
		died <- w.Wait()
	}()
	select {
	case <-ctx.Done():
		return errors.Trace(worker.Stop(w))
	case err := <-died:
		return errors.Annotate(err, "change log pruner stopped")
	}
}
