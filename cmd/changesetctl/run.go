// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/juju/ansiterm"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/changeset/cmd"
	"github.com/juju/changeset/core/transaction"
	"github.com/juju/changeset/internal/metrics"
)

const runDoc = `
Run reads a script of types, objects and transactions, runs every
transaction in order and prints how each one ended together with the
final state of the objects. Committed transactions are recorded in the
change log.

A script looks like:

    types:
    - name: person
      key: name
      properties:
      - {name: name, type: string}
      - {name: nicknames, type: list}
    objects:
    - id: alice
      type: person
      value: {name: alice}
    transactions:
    - name: nickname
      steps:
      - {op: add, object: alice, property: nicknames, value: [ali]}

Objects are referred to from values with {$ref: <id>}. A transaction
with "rollback: true" is rolled back instead of committed; a transaction
with a failing step is rolled back and the failure reported.

Examples:

    changesetctl run script.yaml
    changesetctl run --format json --metrics-file run.prom script.yaml
    cat script.yaml | changesetctl run -
`

type runCommand struct {
	dbCommand

	out         cmd.Output
	script      cmd.FileVar
	color       bool
	metricsFile string
}

func newRunCommand() *runCommand {
	return &runCommand{}
}

// Info implements cmd.Command.
func (c *runCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "run",
		Args:    "<script.yaml>",
		Purpose: "Run the transactions of a script.",
		Doc:     runDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *runCommand) SetFlags(f *gnuflag.FlagSet) {
	c.dbCommand.SetFlags(f)
	c.out.AddFlags(f, "yaml", map[string]cmd.Formatter{
		"yaml":    cmd.FormatYaml,
		"json":    cmd.FormatJson,
		"tabular": c.formatTabular,
	})
	f.BoolVar(&c.color, "color", false, "Force use of ANSI color codes in tabular output")
	f.StringVar(&c.metricsFile, "metrics-file", "", "Write transaction metrics to this file")
}

// Init implements cmd.Command.
func (c *runCommand) Init(args []string) error {
	switch len(args) {
	case 0:
		return errors.New("no script specified")
	case 1:
		if err := c.script.Set(args[0]); err != nil {
			return errors.Trace(err)
		}
		return nil
	}
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *runCommand) Run(ctx *cmd.Context) error {
	data, err := c.script.Read(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	script, err := ParseScript(bytes.NewReader(data))
	if err != nil {
		return errors.Trace(err)
	}
	w, err := newWorld(script)
	if err != nil {
		return errors.Trace(err)
	}

	changeLog, err := c.openChangeLog(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := changeLog.Close(); err != nil {
			logger.Warningf("closing change log: %v", err)
		}
	}()

	collector := metrics.NewMetricsCollector()
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return errors.Annotate(err, "registering metrics")
	}

	manager, err := transaction.NewManager(transaction.Config{
		Clock:     c.getClock(),
		Logger:    loggo.GetLogger("changeset.transaction"),
		Metrics:   collector,
		Observers: []transaction.Observer{changeLog.service},
	})
	if err != nil {
		return errors.Trace(err)
	}

	var result RunResult
	for _, spec := range script.Transactions {
		r, err := w.runTransaction(ctx, manager, spec)
		if err != nil {
			return errors.Annotatef(err, "running transaction %q", spec.Name)
		}
		result.Transactions = append(result.Transactions, r)
	}
	result.Objects = w.snapshot()

	if c.metricsFile != "" {
		path := ctx.AbsPath(c.metricsFile)
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			return errors.Annotatef(err, "writing metrics to %q", path)
		}
	}
	return c.out.Write(ctx, result)
}

var outcomeColor = map[string]*ansiterm.Context{
	OutcomeCommitted:  ansiterm.Foreground(ansiterm.Green),
	OutcomeRolledBack: ansiterm.Foreground(ansiterm.Yellow),
	OutcomeFailed:     ansiterm.Foreground(ansiterm.BrightRed),
}

func (c *runCommand) formatTabular(writer io.Writer, value any) error {
	result, ok := value.(RunResult)
	if !ok {
		return errors.Errorf("expected value of type %T, got %T", result, value)
	}

	w := ansiterm.NewWriter(writer)
	if c.color {
		w.SetColorCapable(true)
	}
	for _, r := range result.Transactions {
		name := r.Name
		if name == "" {
			name = r.UUID
		}
		fmt.Fprintf(w, "%-24s %4d  ", name, r.Version)
		outcomeColor[r.Outcome].Fprintf(w, "%-12s", r.Outcome)
		if r.Error != "" {
			fmt.Fprintf(w, " %s", r.Error)
		}
		fmt.Fprintln(w)
		for _, change := range r.Changes {
			fmt.Fprintf(w, "    %s: %v -> %v\n", changeLabel(change), change.Old, change.New)
		}
	}
	return nil
}

func changeLabel(change ChangeResult) string {
	if change.Property == "" {
		return change.Owner
	}
	return change.Owner + "." + change.Property
}
