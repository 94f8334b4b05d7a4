// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd_test

import (
	"io"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/changeset/cmd"
	cmdtesting "github.com/juju/changeset/cmd/testing"
)

// TestCommand is used by several different tests.
type TestCommand struct {
	cmd.CommandBase
	Name    string
	Option  string
	Minimal bool
}

func (c *TestCommand) Info() *cmd.Info {
	if c.Minimal {
		return &cmd.Info{Name: c.Name}
	}
	return &cmd.Info{
		Name:    c.Name,
		Args:    "<something>",
		Purpose: c.Name + " the value",
		Doc:     c.Name + "-doc",
	}
}

func (c *TestCommand) SetFlags(f *gnuflag.FlagSet) {
	if !c.Minimal {
		f.StringVar(&c.Option, "option", "", "option-doc")
	}
}

func (c *TestCommand) Run(ctx *cmd.Context) error {
	switch c.Option {
	case "error":
		return errors.New("BAM!")
	case "silent-error":
		return cmd.ErrSilent
	case "echo":
		_, err := io.Copy(ctx.Stdout, ctx.Stdin)
		return err
	default:
		ctx.Infof("%s", c.Option)
	}
	return nil
}

type cmdSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&cmdSuite{})

func (s *cmdSuite) TestHelp(c *gc.C) {
	com := &TestCommand{Name: "verb"}
	help := string(com.Info().Help(cmd.NewFlagSet(com)))
	c.Check(help, gc.Equals, `usage: verb [options] <something>
purpose: verb the value

options:
--option (= "")
    option-doc

verb-doc
`)
}

func (s *cmdSuite) TestMinimalHelp(c *gc.C) {
	com := &TestCommand{Name: "verb", Minimal: true}
	help := string(com.Info().Help(cmd.NewFlagSet(com)))
	c.Check(help, gc.Equals, "usage: verb\n")
}

func (s *cmdSuite) TestMainSuccess(c *gc.C) {
	ctx := cmdtesting.Context(c)
	result := cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"--option", "success!"})
	c.Check(result, gc.Equals, 0)
	c.Check(cmdtesting.Stderr(ctx), gc.Equals, "success!\n")
}

func (s *cmdSuite) TestMainRunError(c *gc.C) {
	ctx := cmdtesting.Context(c)
	result := cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"--option", "error"})
	c.Check(result, gc.Equals, 1)
	c.Check(cmdtesting.Stderr(ctx), gc.Equals, "ERROR BAM!\n")
}

func (s *cmdSuite) TestMainRunSilentError(c *gc.C) {
	ctx := cmdtesting.Context(c)
	result := cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"--option", "silent-error"})
	c.Check(result, gc.Equals, 1)
	c.Check(cmdtesting.Stderr(ctx), gc.Equals, "")
}

func (s *cmdSuite) TestMainInitError(c *gc.C) {
	ctx := cmdtesting.Context(c)
	result := cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"--unknown"})
	c.Check(result, gc.Equals, 2)
	c.Check(cmdtesting.Stderr(ctx), gc.Matches, "ERROR flag provided but not defined: .*unknown\n")

	ctx = cmdtesting.Context(c)
	result = cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"extra"})
	c.Check(result, gc.Equals, 2)
	c.Check(cmdtesting.Stderr(ctx), gc.Equals, "ERROR unrecognized args: [\"extra\"]\n")
}

func (s *cmdSuite) TestMainHelp(c *gc.C) {
	ctx := cmdtesting.Context(c)
	result := cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"--help"})
	c.Check(result, gc.Equals, 0)
	c.Check(cmdtesting.Stdout(ctx), gc.Matches, "(?s)usage: verb .*")
}

func (s *cmdSuite) TestStdin(c *gc.C) {
	ctx := cmdtesting.Context(c)
	cmdtesting.SetStdin(ctx, "hello world")
	result := cmd.Main(&TestCommand{Name: "verb"}, ctx, []string{"--option", "echo"})
	c.Check(result, gc.Equals, 0)
	c.Check(cmdtesting.Stdout(ctx), gc.Equals, "hello world")
}

func (s *cmdSuite) TestAbsPath(c *gc.C) {
	ctx := cmdtesting.Context(c)
	c.Check(ctx.AbsPath("foo"), gc.Equals, filepath.Join(ctx.Dir, "foo"))
	c.Check(ctx.AbsPath("/bar"), gc.Equals, "/bar")
}

func (s *cmdSuite) TestFileVar(c *gc.C) {
	ctx := cmdtesting.Context(c)
	err := os.WriteFile(filepath.Join(ctx.Dir, "script.yaml"), []byte("content"), 0644)
	c.Assert(err, jc.ErrorIsNil)

	var f cmd.FileVar
	_, err = f.Read(ctx)
	c.Check(err, gc.ErrorMatches, "path not set")

	c.Assert(f.Set("script.yaml"), jc.ErrorIsNil)
	c.Check(f.String(), gc.Equals, "script.yaml")
	data, err := f.Read(ctx)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "content")

	cmdtesting.SetStdin(ctx, "from stdin")
	c.Assert(f.Set("-"), jc.ErrorIsNil)
	c.Check(f.IsStdin(), jc.IsTrue)
	data, err = f.Read(ctx)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "from stdin")
}
