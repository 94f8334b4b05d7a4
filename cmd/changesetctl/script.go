// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/transaction"
	"github.com/juju/changeset/core/value"
)

// Script describes the values to build and the transactions to run
// against them.
type Script struct {
	Types        []TypeSpec        `yaml:"types"`
	Objects      []ObjectSpec      `yaml:"objects"`
	Transactions []TransactionSpec `yaml:"transactions"`
}

// TypeSpec declares a complex type. Types may only refer to types declared
// before them.
type TypeSpec struct {
	Name       string         `yaml:"name"`
	Key        string         `yaml:"key,omitempty"`
	Properties []PropertySpec `yaml:"properties"`
}

// PropertySpec declares a property of a type. Type is one of string, int,
// float, bool, ref or list. Ref names the referred type of ref properties;
// Elements names the element type of list properties, text if empty.
type PropertySpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Ref      string `yaml:"ref,omitempty"`
	Elements string `yaml:"elements,omitempty"`
}

// ObjectSpec declares a named value of a type.
type ObjectSpec struct {
	ID    string         `yaml:"id"`
	Type  string         `yaml:"type"`
	Value map[string]any `yaml:"value"`
}

// TransactionSpec lists the steps of one transaction. The transaction is
// committed unless Rollback is set or a step fails.
type TransactionSpec struct {
	Name     string     `yaml:"name"`
	Steps    []StepSpec `yaml:"steps"`
	Rollback bool       `yaml:"rollback,omitempty"`
}

// StepSpec is a single change. Op is one of set, add, insert, remove,
// remove-at, clear or sort; all but set act on a list property.
type StepSpec struct {
	Op       string `yaml:"op"`
	Object   string `yaml:"object"`
	Property string `yaml:"property"`
	Value    any    `yaml:"value,omitempty"`
	Index    int    `yaml:"index,omitempty"`
	Count    int    `yaml:"count,omitempty"`
}

// refKey marks a mapping that stands for a previously declared object.
const refKey = "$ref"

// scriptSchema constrains the shape of a script beyond its fields: the
// required keys, the property types and the step operations.
const scriptSchema = `
type: object
properties:
  types:
    type: array
    items:
      type: object
      required: [name]
      properties:
        name: {type: string, minLength: 1}
        key: {type: string}
        properties:
          type: array
          items:
            type: object
            required: [name]
            properties:
              name: {type: string, minLength: 1}
              type: {enum: ["", string, int, float, bool, ref, list]}
              ref: {type: string}
              elements: {type: string}
  objects:
    type: array
    items:
      type: object
      required: [id, type]
      properties:
        id: {type: string, minLength: 1}
        type: {type: string}
        value: {type: object}
  transactions:
    type: array
    items:
      type: object
      properties:
        name: {type: string}
        rollback: {type: boolean}
        steps:
          type: array
          items:
            type: object
            required: [op, object, property]
            properties:
              op: {enum: [set, add, insert, remove, remove-at, clear, sort]}
              object: {type: string}
              property: {type: string}
              index: {type: integer}
              count: {type: integer, minimum: 0}
`

var scriptSchemaDoc = func() map[string]any {
	var schema map[string]any
	if err := yaml.Unmarshal([]byte(scriptSchema), &schema); err != nil {
		panic(err)
	}
	return schema
}()

// ParseScript reads a script, rejecting unknown fields and scripts that do
// not match the script schema.
func ParseScript(r io.Reader) (Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Script{}, errors.Annotate(err, "reading script")
	}

	var script Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, errors.NotValidf("empty script")
		}
		return Script{}, errors.Annotate(err, "parsing script")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Script{}, errors.Annotate(err, "parsing script")
	}
	if err := validateScript(doc); err != nil {
		return Script{}, errors.Trace(err)
	}
	return script, nil
}

func validateScript(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(scriptSchemaDoc),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return errors.Annotate(err, "validating script")
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		problems = append(problems, resultErr.String())
	}
	return errors.NotValidf("script (%s)", strings.Join(problems, "; "))
}

// world holds the types and objects a script declares.
type world struct {
	types   map[string]*value.Type
	objects map[string]*value.Complex
	order   []string
}

func newWorld(script Script) (*world, error) {
	w := &world{
		types:   make(map[string]*value.Type),
		objects: make(map[string]*value.Complex),
	}
	for _, spec := range script.Types {
		if err := w.addType(spec); err != nil {
			return nil, errors.Annotatef(err, "type %q", spec.Name)
		}
	}
	for _, spec := range script.Objects {
		if err := w.addObject(spec); err != nil {
			return nil, errors.Annotatef(err, "object %q", spec.ID)
		}
	}
	return w, nil
}

func (w *world) addType(spec TypeSpec) error {
	if _, ok := w.types[spec.Name]; ok {
		return errors.AlreadyExistsf("type %q", spec.Name)
	}
	props := make([]changeset.PropertyType, 0, len(spec.Properties))
	for _, p := range spec.Properties {
		prop, err := w.property(p)
		if err != nil {
			return errors.Trace(err)
		}
		props = append(props, prop)
	}
	t, err := value.NewType(spec.Name, spec.Key, props...)
	if err != nil {
		return errors.Trace(err)
	}
	w.types[spec.Name] = t
	return nil
}

func (w *world) property(spec PropertySpec) (changeset.PropertyType, error) {
	switch spec.Type {
	case "string", "":
		return value.String(spec.Name), nil
	case "int":
		return value.Int(spec.Name), nil
	case "float":
		return value.Float(spec.Name), nil
	case "bool":
		return value.Bool(spec.Name), nil
	case "ref":
		t, err := w.lookupType(spec.Ref)
		if err != nil {
			return nil, errors.Annotatef(err, "property %q", spec.Name)
		}
		return value.Ref(spec.Name, t), nil
	case "list":
		if spec.Elements == "" || spec.Elements == "text" {
			return value.ListOf(spec.Name, value.TextElements()), nil
		}
		t, err := w.lookupType(spec.Elements)
		if err != nil {
			return nil, errors.Annotatef(err, "property %q", spec.Name)
		}
		return value.ListOf(spec.Name, value.ComplexElements(t)), nil
	}
	return nil, errors.NotValidf("property %q of type %q", spec.Name, spec.Type)
}

func (w *world) lookupType(name string) (*value.Type, error) {
	t, ok := w.types[name]
	if !ok {
		return nil, errors.NotFoundf("type %q", name)
	}
	return t, nil
}

func (w *world) addObject(spec ObjectSpec) error {
	if _, ok := w.objects[spec.ID]; ok {
		return errors.AlreadyExistsf("object %q", spec.ID)
	}
	t, err := w.lookupType(spec.Type)
	if err != nil {
		return errors.Trace(err)
	}
	resolved, err := w.resolve(spec.Value)
	if err != nil {
		return errors.Trace(err)
	}
	values, _ := resolved.(map[string]any)
	obj, err := value.NewComplexWithID(spec.ID, t, values)
	if err != nil {
		return errors.Trace(err)
	}
	w.objects[spec.ID] = obj
	w.order = append(w.order, spec.ID)
	return nil
}

func (w *world) lookupObject(id string) (*value.Complex, error) {
	obj, ok := w.objects[id]
	if !ok {
		return nil, errors.NotFoundf("object %q", id)
	}
	return obj, nil
}

// resolve replaces every {$ref: id} mapping in v with the object it names.
func (w *world) resolve(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		if id, ok := v[refKey]; ok {
			if len(v) != 1 {
				return nil, errors.NotValidf("%s mapping with other keys", refKey)
			}
			name, ok := id.(string)
			if !ok {
				return nil, errors.NotValidf("%s %v", refKey, id)
			}
			obj, err := w.lookupObject(name)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return obj, nil
		}
		result := make(map[string]any, len(v))
		for k, e := range v {
			r, err := w.resolve(e)
			if err != nil {
				return nil, errors.Trace(err)
			}
			result[k] = r
		}
		return result, nil
	case []any:
		result := make([]any, len(v))
		for i, e := range v {
			r, err := w.resolve(e)
			if err != nil {
				return nil, errors.Trace(err)
			}
			result[i] = r
		}
		return result, nil
	}
	return v, nil
}

// apply records step under txn.
func (w *world) apply(txn *transaction.Transaction, step StepSpec) error {
	obj, err := w.lookupObject(step.Object)
	if err != nil {
		return errors.Trace(err)
	}
	v, err := w.resolve(step.Value)
	if err != nil {
		return errors.Trace(err)
	}
	if step.Op == "set" {
		return errors.Trace(obj.Set(txn, step.Property, v))
	}

	list, err := obj.List(step.Property)
	if err != nil {
		return errors.Trace(err)
	}
	switch step.Op {
	case "add":
		return errors.Trace(list.Add(txn, v))
	case "insert":
		return errors.Trace(list.Insert(txn, v, step.Index))
	case "remove":
		return errors.Trace(list.Remove(txn, v))
	case "remove-at":
		count := step.Count
		if count == 0 {
			count = 1
		}
		return errors.Trace(list.RemoveAt(txn, step.Index, count))
	case "clear":
		return errors.Trace(list.Clear(txn))
	case "sort":
		return errors.Trace(list.Sort(txn, value.CompareKeys))
	}
	return errors.NotValidf("operation %q", step.Op)
}

// Outcome values of a script transaction.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled-back"
	OutcomeFailed     = "failed"
)

// TransactionResult describes how a script transaction ended.
type TransactionResult struct {
	Name    string         `yaml:"name,omitempty" json:"name,omitempty"`
	UUID    string         `yaml:"uuid" json:"uuid"`
	Version int64          `yaml:"version" json:"version"`
	Outcome string         `yaml:"outcome" json:"outcome"`
	Error   string         `yaml:"error,omitempty" json:"error,omitempty"`
	Changes []ChangeResult `yaml:"changes,omitempty" json:"changes,omitempty"`
}

// ChangeResult is a single committed change.
type ChangeResult struct {
	Owner    string `yaml:"owner" json:"owner"`
	Property string `yaml:"property,omitempty" json:"property,omitempty"`
	Kind     string `yaml:"kind" json:"kind"`
	Old      any    `yaml:"old" json:"old"`
	New      any    `yaml:"new" json:"new"`
}

// RunResult is the outcome of a whole script.
type RunResult struct {
	Transactions []TransactionResult `yaml:"transactions" json:"transactions"`
	Objects      map[string]any      `yaml:"objects" json:"objects"`
}

// runTransaction runs the steps of spec within a single scope. A failing
// step rejects the scope; the error is reported in the result, not
// returned. Only an error from the commit itself is returned.
func (w *world) runTransaction(ctx context.Context, manager *transaction.Manager, spec TransactionSpec) (TransactionResult, error) {
	txn := manager.Begin()
	result := TransactionResult{
		Name:    spec.Name,
		UUID:    txn.UUID(),
		Version: txn.Version(),
	}

	scope, err := txn.Enter()
	if err != nil {
		return result, errors.Trace(err)
	}
	defer func() { _ = scope.Exit() }()

	for i, step := range spec.Steps {
		if err := w.apply(txn, step); err != nil {
			result.Outcome = OutcomeFailed
			result.Error = errors.Annotatef(err, "step %d (%s)", i+1, step.Op).Error()
			return result, errors.Trace(scope.Reject())
		}
	}
	if spec.Rollback {
		result.Outcome = OutcomeRolledBack
		return result, errors.Trace(scope.Reject())
	}

	record, err := scope.Accept(ctx)
	if err != nil && record.UUID == "" {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result, nil
	}
	result.Outcome = OutcomeCommitted
	for _, diff := range record.Diffs {
		result.Changes = append(result.Changes, ChangeResult{
			Owner:    diff.Owner,
			Property: diff.Property,
			Kind:     diff.Kind.String(),
			Old:      diff.Old,
			New:      diff.New,
		})
	}
	return result, errors.Trace(err)
}

// snapshot returns the live specification of every object.
func (w *world) snapshot() map[string]any {
	result := make(map[string]any, len(w.order))
	for _, id := range w.order {
		result[id] = w.objects[id].ToSpec()
	}
	return result
}
