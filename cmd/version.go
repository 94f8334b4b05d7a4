// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"runtime"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/version/v2"
)

const versionDoc = `
Print only the version number unless --all is given.
`

// versionDetail is the printed form of version --all.
type versionDetail struct {
	Version   string `yaml:"version" json:"version"`
	Major     int    `yaml:"major" json:"major"`
	Minor     int    `yaml:"minor" json:"minor"`
	Patch     int    `yaml:"patch" json:"patch"`
	Tag       string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Compiler  string `yaml:"compiler" json:"compiler"`
	GoVersion string `yaml:"go-version" json:"go-version"`
}

// versionCommand is a cmd.Command that prints the current version.
type versionCommand struct {
	CommandBase

	out     Output
	version string
	showAll bool
}

func newVersionCommand(version string) *versionCommand {
	return &versionCommand{version: version}
}

// Info implements Command.
func (v *versionCommand) Info() *Info {
	return &Info{
		Name:    "version",
		Purpose: "Print the current version.",
		Doc:     versionDoc,
	}
}

// SetFlags implements Command.
func (v *versionCommand) SetFlags(f *gnuflag.FlagSet) {
	v.out.AddFlags(f, "smart", DefaultFormatters)
	f.BoolVar(&v.showAll, "all", false, "Prints all version information")
}

// Init implements Command.
func (v *versionCommand) Init(args []string) error {
	return CheckEmpty(args)
}

// Run implements Command.
func (v *versionCommand) Run(ctxt *Context) error {
	num, err := version.Parse(v.version)
	if err != nil {
		return errors.Annotatef(err, "invalid version %q", v.version)
	}
	if !v.showAll {
		return v.out.Write(ctxt, num.String())
	}
	return v.out.Write(ctxt, versionDetail{
		Version:   num.String(),
		Major:     num.Major,
		Minor:     num.Minor,
		Patch:     num.Patch,
		Tag:       num.Tag,
		Compiler:  runtime.Compiler,
		GoVersion: runtime.Version(),
	})
}
