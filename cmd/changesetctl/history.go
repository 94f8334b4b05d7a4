// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/changeset/cmd"
	"github.com/juju/changeset/domain/changelog"
)

const historyDoc = `
History lists the transactions recorded in the change log, most recently
committed first. Given a transaction UUID it shows that transaction only.

Examples:

    changesetctl history
    changesetctl history --owner alice --limit 5
    changesetctl history --format yaml 9f3c54e2-1f5b-4b4e-8a53-8f2b1d0a6c11
`

type historyCommand struct {
	dbCommand

	out   cmd.Output
	owner string
	limit int
	uuid  string
}

func newHistoryCommand() *historyCommand {
	return &historyCommand{}
}

// Info implements cmd.Command.
func (c *historyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "history",
		Args:    "[<transaction uuid>]",
		Purpose: "Show the recorded transactions.",
		Doc:     historyDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *historyCommand) SetFlags(f *gnuflag.FlagSet) {
	c.dbCommand.SetFlags(f)
	c.out.AddFlags(f, "tabular", map[string]cmd.Formatter{
		"yaml":    cmd.FormatYaml,
		"json":    cmd.FormatJson,
		"tabular": c.formatTabular,
	})
	f.StringVar(&c.owner, "owner", "", "Only show transactions changing this value")
	f.IntVar(&c.limit, "limit", 0, "Show at most this many transactions (0 for all)")
}

// Init implements cmd.Command.
func (c *historyCommand) Init(args []string) error {
	if len(args) > 0 {
		c.uuid, args = args[0], args[1:]
		if c.owner != "" || c.limit != 0 {
			return errors.New("--owner and --limit cannot be used with a transaction uuid")
		}
	}
	if c.limit < 0 {
		return errors.Errorf("negative --limit %d", c.limit)
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *historyCommand) Run(ctx *cmd.Context) error {
	changeLog, err := c.openChangeLog(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := changeLog.Close(); err != nil {
			logger.Warningf("closing change log: %v", err)
		}
	}()

	var transactions []changelog.Transaction
	if c.uuid != "" {
		t, err := changeLog.service.Transaction(ctx, c.uuid)
		if err != nil {
			return errors.Trace(err)
		}
		transactions = append(transactions, t)
	} else {
		transactions, err = changeLog.service.History(ctx, changelog.Filter{
			Owner: c.owner,
			Limit: c.limit,
		})
		if err != nil {
			return errors.Trace(err)
		}
	}

	if len(transactions) == 0 && c.out.Name() == "tabular" {
		ctx.Infof("No transactions recorded.")
		return nil
	}
	return c.out.Write(ctx, toTransactionDetails(transactions))
}

// TransactionDetails is the printed form of a recorded transaction.
type TransactionDetails struct {
	UUID      string          `yaml:"uuid" json:"uuid"`
	Version   int64           `yaml:"version" json:"version"`
	Started   time.Time       `yaml:"started" json:"started"`
	Committed time.Time       `yaml:"committed" json:"committed"`
	Changes   []ChangeDetails `yaml:"changes" json:"changes"`
}

// ChangeDetails is the printed form of a change log entry. Values are in
// their recorded YAML form.
type ChangeDetails struct {
	Owner    string `yaml:"owner" json:"owner"`
	Property string `yaml:"property,omitempty" json:"property,omitempty"`
	Kind     string `yaml:"kind" json:"kind"`
	Old      string `yaml:"old" json:"old"`
	New      string `yaml:"new" json:"new"`
}

func toTransactionDetails(transactions []changelog.Transaction) []TransactionDetails {
	result := make([]TransactionDetails, len(transactions))
	for i, t := range transactions {
		details := TransactionDetails{
			UUID:      t.UUID,
			Version:   t.Version,
			Started:   t.Started.UTC(),
			Committed: t.Committed.UTC(),
			Changes:   make([]ChangeDetails, len(t.Entries)),
		}
		for j, e := range t.Entries {
			details.Changes[j] = ChangeDetails{
				Owner:    e.Owner,
				Property: e.Property,
				Kind:     e.Kind,
				Old:      e.Old,
				New:      e.New,
			}
		}
		result[i] = details
	}
	return result
}

func (c *historyCommand) formatTabular(writer io.Writer, value any) error {
	transactions, ok := value.([]TransactionDetails)
	if !ok {
		return errors.Errorf("expected value of type %T, got %T", transactions, value)
	}

	now := c.getClock().Now()
	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true

	table.AddRow("Transaction", "Version", "Committed", "Owner", "Property", "Old", "New")
	for _, t := range transactions {
		committed := humanize.RelTime(t.Committed, now, "ago", "from now")
		if len(t.Changes) == 0 {
			table.AddRow(t.UUID, t.Version, committed, "", "", "", "")
			continue
		}
		for i, change := range t.Changes {
			if i == 0 {
				table.AddRow(t.UUID, t.Version, committed, change.Owner, change.Property, change.Old, change.New)
				continue
			}
			table.AddRow("", "", "", change.Owner, change.Property, change.Old, change.New)
		}
	}
	fmt.Fprintln(writer, table)
	return nil
}
