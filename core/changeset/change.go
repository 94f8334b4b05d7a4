// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import (
	"fmt"

	"github.com/juju/errors"
)

// ChangeKind identifies the kind of a property change.
type ChangeKind int

const (
	// ValueKind is the kind of a scalar property change.
	ValueKind ChangeKind = iota

	// ListKind is the kind of a list property change.
	ListKind
)

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch k {
	case ValueKind:
		return "value"
	case ListKind:
		return "list"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Change is a change recorded against one property of a complex value.
// It is either a *ValueChange or a *ListChangeset.
type Change interface {
	// Kind returns the kind of the change.
	Kind() ChangeKind

	// IsReadOnly returns true once the change has been frozen.
	IsReadOnly() bool

	// Freeze makes the change immutable.
	Freeze()

	// isChange seals the interface.
	isChange()
}

// ValueChange records the old and new value of a scalar property.
// The old value is frozen when the change is first recorded; the new
// value can be updated until the change is frozen.
type ValueChange struct {
	name     string
	oldValue any
	newValue any
	readOnly bool
}

// NewValueChange returns a change of the named property.
func NewValueChange(name string, oldValue, newValue any) (*ValueChange, error) {
	if name == "" {
		return nil, errors.Annotate(ArgumentRequired, "property name")
	}
	return &ValueChange{
		name:     name,
		oldValue: oldValue,
		newValue: newValue,
	}, nil
}

// Kind is part of the Change interface.
func (c *ValueChange) Kind() ChangeKind {
	return ValueKind
}

// Name returns the name of the changed property.
func (c *ValueChange) Name() string {
	return c.name
}

// OldValue returns the value of the property before the change.
func (c *ValueChange) OldValue() any {
	return c.oldValue
}

// NewValue returns the value of the property after the change.
func (c *ValueChange) NewValue() any {
	return c.newValue
}

// SetNewValue replaces the new value of the change. An error satisfying
// InvalidOperation is returned if the change is frozen.
func (c *ValueChange) SetNewValue(value any) error {
	if c.readOnly {
		return errors.Annotatef(InvalidOperation, "change of %q is read-only", c.name)
	}
	c.newValue = value
	return nil
}

// IsReadOnly is part of the Change interface.
func (c *ValueChange) IsReadOnly() bool {
	return c.readOnly
}

// Freeze is part of the Change interface.
func (c *ValueChange) Freeze() {
	c.readOnly = true
}

// String implements fmt.Stringer.
func (c *ValueChange) String() string {
	return fmt.Sprintf("%s: %v -> %v", c.name, c.oldValue, c.newValue)
}

func (*ValueChange) isChange() {}
