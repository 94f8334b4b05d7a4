// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package value

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/reference"
)

// Complex is a value with named, typed properties. Its live state is only
// written by applying a changeset.
type Complex struct {
	id      string
	typ     *Type
	values  map[string]any
	version int64
	refs    *reference.List

	// links are the back references owed to values that already existed
	// when this value was built from a specification under a transaction.
	links []changeset.Link
}

var (
	_ changeset.ComplexOwner = (*Complex)(nil)
	_ changeset.Referent     = (*Complex)(nil)
	_ changeset.Element      = (*Complex)(nil)
	_ changeset.Identified   = (*Complex)(nil)
	_ changeset.Specifier    = (*Complex)(nil)
	_ changeset.Linker       = (*Complex)(nil)
)

// NewComplex builds a value of type t from spec, a map of property name to
// property specification. List properties always hold a list, empty if the
// spec does not name them.
func NewComplex(t *Type, spec map[string]any) (*Complex, error) {
	return NewComplexWithID(uuid.NewString(), t, spec)
}

// NewComplexWithID is like NewComplex but gives the value the identifier id
// instead of a generated one.
func NewComplexWithID(id string, t *Type, spec map[string]any) (*Complex, error) {
	b := &builder{}
	return b.complex(id, t, spec)
}

func specList(spec any) []any {
	switch v := spec.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		result := make([]any, len(v))
		for i, s := range v {
			result[i] = s
		}
		return result
	}
	return []any{spec}
}

// ID is part of the changeset.Identified interface.
func (c *Complex) ID() string {
	return c.id
}

// Type is part of the changeset.ComplexOwner interface.
func (c *Complex) Type() changeset.ComplexType {
	return c.typ
}

// ValueType returns the type of the value.
func (c *Complex) ValueType() *Type {
	return c.typ
}

// Version is part of the changeset.Versioned interface.
func (c *Complex) Version() int64 {
	return c.version
}

// SetVersion is part of the changeset.Versioned interface.
func (c *Complex) SetVersion(version int64) {
	c.version = version
}

// Value is part of the changeset.ComplexOwner interface.
func (c *Complex) Value(name string) any {
	return c.values[name]
}

// SetValue is part of the changeset.ComplexOwner interface.
func (c *Complex) SetValue(name string, value any) error {
	prop, err := c.typ.Property(name)
	if err != nil {
		return errors.Trace(err)
	}
	if prop.IsList() {
		return errors.Annotatef(changeset.InvalidOperation, "replacing list property %q", name)
	}
	if value == nil {
		delete(c.values, name)
		return nil
	}
	c.values[name] = value
	return nil
}

// References is part of the changeset.Referent interface.
func (c *Complex) References() *reference.List {
	return c.refs
}

// SetReferences is part of the changeset.Referent interface.
func (c *Complex) SetReferences(refs *reference.List) {
	c.refs = refs
}

// PendingLinks is part of the changeset.Linker interface. Links already
// held live by their target are not returned.
func (c *Complex) PendingLinks() []changeset.Link {
	var result []changeset.Link
	for _, link := range c.links {
		if !link.Target.References().Contains(link.Container, link.Property) {
			result = append(result, link)
		}
	}
	return result
}

// Key is part of the changeset.Element interface.
func (c *Complex) Key() string {
	if c.typ.key != "" {
		if v, ok := c.values[c.typ.key]; ok {
			return fmt.Sprint(v)
		}
	}
	return c.id
}

// Get returns the live value of the named property. List properties return
// their *List.
func (c *Complex) Get(name string) (any, error) {
	if _, err := c.typ.Property(name); err != nil {
		return nil, errors.Trace(err)
	}
	return c.values[name], nil
}

// List returns the list held by the named list property.
func (c *Complex) List(name string) (*List, error) {
	prop, err := c.typ.Property(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !prop.IsList() {
		return nil, errors.Annotatef(changeset.TypeMismatch, "property %q is not a list", name)
	}
	return c.values[name].(*List), nil
}

// Set records, under txn, a change of the named property to the value
// described by spec. The live value is untouched until txn is committed.
func (c *Complex) Set(txn Transaction, name string, spec any) error {
	cs, err := txn.Changeset(c)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(cs.Set(name, spec))
}

// ToSpec returns the live value as a map of property specifications.
// Referenced complex values are described by their key.
func (c *Complex) ToSpec() any {
	spec := make(map[string]any, len(c.values))
	for _, prop := range c.typ.props {
		name := prop.Name()
		v, ok := c.values[name]
		if !ok {
			continue
		}
		switch v := v.(type) {
		case *List:
			spec[name] = v.ToSpec()
		case *Complex:
			spec[name] = v.Key()
		default:
			spec[name] = v
		}
	}
	return spec
}

// String implements fmt.Stringer.
func (c *Complex) String() string {
	return fmt.Sprintf("%s(%s)", c.typ.name, c.Key())
}
