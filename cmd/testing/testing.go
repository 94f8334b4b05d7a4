// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"bytes"
	"context"

	gc "gopkg.in/check.v1"

	"github.com/juju/changeset/cmd"
)

// Context returns a cmd.Context rooted in a temporary directory, with
// buffers for its streams.
func Context(c *gc.C) *cmd.Context {
	return &cmd.Context{
		Context: context.Background(),
		Dir:     c.MkDir(),
		Stdin:   &bytes.Buffer{},
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}
}

// InitCommand parses args and initializes com.
func InitCommand(com cmd.Command, args []string) error {
	return cmd.ParseArgs(com, cmd.NewFlagSet(com), args)
}

// RunCommand runs a command with the specified args in a fresh context.
// The returned context holds the command's output.
func RunCommand(c *gc.C, com cmd.Command, args ...string) (*cmd.Context, error) {
	ctx := Context(c)
	return ctx, RunCommandInContext(ctx, com, args...)
}

// RunCommandInContext runs a command with the specified args in ctx.
func RunCommandInContext(ctx *cmd.Context, com cmd.Command, args ...string) error {
	if err := InitCommand(com, args); err != nil {
		return err
	}
	return com.Run(ctx)
}

// Stdout returns the stdout of ctx as a string.
func Stdout(ctx *cmd.Context) string {
	return ctx.Stdout.(*bytes.Buffer).String()
}

// Stderr returns the stderr of ctx as a string.
func Stderr(ctx *cmd.Context) string {
	return ctx.Stderr.(*bytes.Buffer).String()
}

// SetStdin replaces the stdin of ctx with the given content.
func SetStdin(ctx *cmd.Context, content string) {
	ctx.Stdin = bytes.NewBufferString(content)
}
