// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/loggo/v2"

	"github.com/juju/changeset/cmd"
)

var logger = loggo.GetLogger("changeset.cmd.changesetctl")

// Version is the version of changesetctl, set at build time.
var Version = "0.1.0"

const changesetDoc = `
changesetctl runs scripted transactions against structured values and
keeps a change log of everything they commit.

The change log is a SQLite database, selected with --db or the
CHANGESET_DB environment variable.
`

// NewChangesetCommand returns the top level command with every sub
// command registered.
func NewChangesetCommand() *cmd.SuperCommand {
	changesetctl := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "changesetctl",
		Purpose: "Run transactions and inspect the change log.",
		Doc:     changesetDoc,
		Version: Version,
	})
	changesetctl.Register(newRunCommand())
	changesetctl.Register(newHistoryCommand())
	changesetctl.Register(newPruneCommand())
	return changesetctl
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmdCtx, err := cmd.DefaultContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(2)
	}
	code := cmd.Main(NewChangesetCommand(), cmdCtx, os.Args[1:])
	cancel()
	os.Exit(code)
}
