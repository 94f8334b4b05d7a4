// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"gopkg.in/yaml.v3"
)

// Formatter writes an arbitrary object to a writer.
type Formatter func(writer io.Writer, value any) error

// FormatYaml writes out value as yaml to the writer, unless value is nil.
func FormatYaml(writer io.Writer, value any) error {
	if value == nil {
		return nil
	}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoder.Close())
}

// FormatJson writes out value as json.
func FormatJson(writer io.Writer, value any) error {
	result, err := json.Marshal(value)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := writer.Write(append(result, '\n')); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// FormatSmart writes value according to the following rules:
//   - string:        untouched
//   - bool:          converted to `True` or `False`
//   - int or float:  converted to sensible strings
//   - []string:      joined by `\n`s into a single string
//   - anything else: delegate to FormatYaml
func FormatSmart(writer io.Writer, value any) error {
	var text string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		text = v
	case bool:
		text = "False"
		if v {
			text = "True"
		}
	case int, int64, float64:
		text = fmt.Sprint(v)
	case []string:
		text = strings.Join(v, "\n")
	default:
		return FormatYaml(writer, value)
	}
	_, err := fmt.Fprintln(writer, text)
	return errors.Trace(err)
}

// DefaultFormatters holds the formatters that can be specified with the
// --format flag.
var DefaultFormatters = map[string]Formatter{
	"smart": FormatSmart,
	"yaml":  FormatYaml,
	"json":  FormatJson,
}

// formatterValue implements gnuflag.Value for the --format flag.
type formatterValue struct {
	name       string
	formatters map[string]Formatter
}

// newFormatterValue returns a new formatterValue. The initial Formatter
// name must be present in formatters.
func newFormatterValue(initial string, formatters map[string]Formatter) *formatterValue {
	v := &formatterValue{formatters: formatters}
	if err := v.Set(initial); err != nil {
		panic(err)
	}
	return v
}

// Set stores the chosen formatter name in v.name.
func (v *formatterValue) Set(value string) error {
	if v.formatters[value] == nil {
		return errors.Errorf("unknown format %q", value)
	}
	v.name = value
	return nil
}

// String returns the chosen formatter name.
func (v *formatterValue) String() string {
	return v.name
}

// doc returns documentation for the --format flag.
func (v *formatterValue) doc() string {
	choices := make([]string, 0, len(v.formatters))
	for name := range v.formatters {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return "Specify output format (" + strings.Join(choices, "|") + ")"
}

// Output is responsible for interpreting output-related command line flags
// and writing a value to a file or to stdout as directed.
type Output struct {
	formatter *formatterValue
	outPath   string
}

// AddFlags injects the --format and --output command line flags into f.
func (c *Output) AddFlags(f *gnuflag.FlagSet, defaultFormatter string, formatters map[string]Formatter) {
	c.formatter = newFormatterValue(defaultFormatter, formatters)
	f.Var(c.formatter, "format", c.formatter.doc())
	f.StringVar(&c.outPath, "o", "", "Specify an output file")
	f.StringVar(&c.outPath, "output", "", "")
}

// Name returns the name of the selected formatter.
func (c *Output) Name() string {
	return c.formatter.name
}

// Write formats and outputs the value as directed by the --format and
// --output command line flags.
func (c *Output) Write(ctx *Context, value any) (err error) {
	formatter := c.formatter.formatters[c.formatter.name]
	if c.outPath == "" {
		return errors.Trace(formatter(ctx.Stdout, value))
	}

	target, err := os.Create(ctx.AbsPath(c.outPath))
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if cErr := target.Close(); err == nil {
			err = errors.Trace(cErr)
		}
	}()
	return errors.Trace(formatter(target, value))
}
