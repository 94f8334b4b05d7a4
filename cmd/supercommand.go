// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("changeset.cmd")

// SuperCommandParams provides a way to have default parameter to the
// NewSuperCommand call.
type SuperCommandParams struct {
	Name    string
	Purpose string
	Doc     string
	Version string
}

// SuperCommand is a Command that selects a subcommand and assumes its
// properties; any command line arguments that were not used in selecting
// the subcommand are passed down to it, and to Run a SuperCommand is to
// run its selected subcommand. It owns the logging flags.
type SuperCommand struct {
	CommandBase

	params        SuperCommandParams
	subcmds       map[string]Command
	loggingConfig string
	debug         bool

	subcmd Command
	help   bool
}

// NewSuperCommand creates and initializes a new SuperCommand.
// A version command is registered if params.Version is set.
func NewSuperCommand(params SuperCommandParams) *SuperCommand {
	c := &SuperCommand{
		params:  params,
		subcmds: make(map[string]Command),
	}
	if params.Version != "" {
		c.Register(newVersionCommand(params.Version))
	}
	return c
}

// Register makes a subcommand available for use on the command line. The
// command will be available via its own name.
func (c *SuperCommand) Register(subcmd Command) {
	name := subcmd.Info().Name
	if _, found := c.subcmds[name]; found || name == "help" {
		panic(fmt.Sprintf("command already registered: %q", name))
	}
	c.subcmds[name] = subcmd
}

// Info returns a description of the currently selected subcommand, or of
// the SuperCommand itself if no subcommand has been specified.
func (c *SuperCommand) Info() *Info {
	if c.subcmd != nil && !c.help {
		info := *c.subcmd.Info()
		info.Name = fmt.Sprintf("%s %s", c.params.Name, info.Name)
		return &info
	}
	docParts := []string{}
	if doc := strings.TrimSpace(c.params.Doc); doc != "" {
		docParts = append(docParts, doc)
	}
	if cmds := c.describeCommands(); cmds != "" {
		docParts = append(docParts, "commands:\n"+cmds)
	}
	return &Info{
		Name:    c.params.Name,
		Args:    "<command> ...",
		Purpose: c.params.Purpose,
		Doc:     strings.Join(docParts, "\n\n"),
	}
}

func (c *SuperCommand) describeCommands() string {
	names := make([]string, 0, len(c.subcmds))
	longest := 0
	for name := range c.subcmds {
		names = append(names, name)
		longest = max(longest, len(name))
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("    %-*s - %s", longest, name, c.subcmds[name].Info().Purpose)
	}
	return strings.Join(lines, "\n")
}

// SetFlags adds the options that apply to all commands.
func (c *SuperCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.loggingConfig, "logging-config", "", "specify log levels for modules")
	f.BoolVar(&c.debug, "debug", false, "equivalent to --logging-config=<root>=DEBUG")
}

// AllowInterspersedFlags returns false: flags after the subcommand name
// belong to the subcommand.
func (c *SuperCommand) AllowInterspersedFlags() bool {
	return false
}

// Init initializes the command for running.
func (c *SuperCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no command specified")
	}
	if args[0] == "help" {
		return c.initHelp(args[1:])
	}

	subcmd, found := c.subcmds[args[0]]
	if !found {
		return errors.Errorf("unrecognized command: %s %s", c.params.Name, args[0])
	}
	c.subcmd = subcmd

	f := NewFlagSet(subcmd)
	if err := ParseArgs(subcmd, f, args[1:]); err == gnuflag.ErrHelp {
		c.help = true
		return nil
	} else if err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (c *SuperCommand) initHelp(args []string) error {
	c.help = true
	switch len(args) {
	case 0:
		return nil
	case 1:
		subcmd, found := c.subcmds[args[0]]
		if !found {
			return errors.Errorf("unknown command or topic for %s", args[0])
		}
		c.subcmd = subcmd
		return nil
	}
	return CheckEmpty(args[1:])
}

// Run executes the subcommand that was selected in Init.
func (c *SuperCommand) Run(ctx *Context) error {
	if c.help {
		return c.writeHelp(ctx)
	}
	if c.subcmd == nil {
		return errors.New("no command specified")
	}

	if err := c.configureLogging(); err != nil {
		return errors.Trace(err)
	}
	logger.Infof("running %s %s [%s %s %s]",
		c.params.Name, c.subcmd.Info().Name, c.params.Version, runtime.Compiler, runtime.Version())

	err := c.subcmd.Run(ctx)
	if err != nil && err != ErrSilent {
		logger.Debugf("error stack: \n%v", errors.ErrorStack(err))
	}
	return err
}

func (c *SuperCommand) configureLogging() error {
	if c.debug {
		if err := loggo.ConfigureLoggers("<root>=DEBUG"); err != nil {
			return errors.Trace(err)
		}
	}
	if c.loggingConfig != "" {
		if err := loggo.ConfigureLoggers(c.loggingConfig); err != nil {
			return errors.Annotate(err, "configuring loggers")
		}
	}
	return nil
}

func (c *SuperCommand) writeHelp(ctx *Context) error {
	if c.subcmd == nil {
		_, err := ctx.Stdout.Write(c.Info().Help(NewFlagSet(c)))
		return errors.Trace(err)
	}
	info := *c.subcmd.Info()
	info.Name = fmt.Sprintf("%s %s", c.params.Name, info.Name)
	_, err := ctx.Stdout.Write(info.Help(NewFlagSet(c.subcmd)))
	return errors.Trace(err)
}
