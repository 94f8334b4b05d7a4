// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package value provides concrete complex and list values whose changes are
// tracked by changesets.
package value

import (
	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
)

// Transaction is the transaction handle values are mutated through.
type Transaction interface {
	changeset.Transaction

	// Changeset returns the changeset of the complex owner, creating it if
	// necessary.
	Changeset(owner changeset.ComplexOwner) (*changeset.ComplexChangeset, error)
}

// Type describes the properties of complex values.
type Type struct {
	name   string
	key    string
	props  []changeset.PropertyType
	byName map[string]changeset.PropertyType
}

var _ changeset.ComplexType = (*Type)(nil)

// NewType returns a type with the given ordered properties. key names the
// property that identifies values of the type within a list; it may be
// empty.
func NewType(name, key string, props ...changeset.PropertyType) (*Type, error) {
	if name == "" {
		return nil, errors.NotValidf("empty type name")
	}
	t := &Type{
		name:   name,
		key:    key,
		byName: make(map[string]changeset.PropertyType, len(props)),
	}
	for _, prop := range props {
		if prop == nil || prop.Name() == "" {
			return nil, errors.NotValidf("unnamed property of type %q", name)
		}
		if _, ok := t.byName[prop.Name()]; ok {
			return nil, errors.NotValidf("duplicate property %q of type %q", prop.Name(), name)
		}
		t.byName[prop.Name()] = prop
		t.props = append(t.props, prop)
	}
	if key != "" {
		prop, ok := t.byName[key]
		if !ok {
			return nil, errors.NotValidf("key %q of type %q", key, name)
		}
		if prop.IsList() {
			return nil, errors.NotValidf("list key %q of type %q", key, name)
		}
	}
	return t, nil
}

// Name returns the name of the type.
func (t *Type) Name() string {
	return t.name
}

// Key returns the name of the key property, or "".
func (t *Type) Key() string {
	return t.key
}

// Properties returns the properties of the type in declaration order.
func (t *Type) Properties() []changeset.PropertyType {
	result := make([]changeset.PropertyType, len(t.props))
	copy(result, t.props)
	return result
}

// Property is part of the changeset.ComplexType interface.
func (t *Type) Property(name string) (changeset.PropertyType, error) {
	prop, ok := t.byName[name]
	if !ok {
		return nil, errors.Annotatef(changeset.PropertyNotFound, "%q of type %q", name, t.name)
	}
	return prop, nil
}
