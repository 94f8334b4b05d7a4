// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import (
	"slices"

	"github.com/juju/errors"
)

// ComplexChangeset records pending changes of the properties of a complex
// value. A property is present in the changeset iff it has been touched.
type ComplexChangeset struct {
	changesetBase

	owner   ComplexOwner
	changes map[string]Change
	names   []string

	// written and appliedLists record what Apply wrote so that Revert, or
	// a failing Apply, can restore it.
	written         []writtenValue
	appliedLists    []*ListChangeset
	previousVersion int64
	bumped          bool
}

type writtenValue struct {
	name     string
	previous any
}

// NewComplexChangeset returns a changeset of the complex owner under the
// given transaction.
func NewComplexChangeset(txn Transaction, owner ComplexOwner) (*ComplexChangeset, error) {
	if txn == nil {
		return nil, errors.Annotate(ArgumentRequired, "transaction")
	}
	if owner == nil {
		return nil, errors.Annotate(ArgumentRequired, "owner")
	}
	return &ComplexChangeset{
		changesetBase: newChangesetBase(txn),
		owner:         owner,
		changes:       make(map[string]Change),
	}, nil
}

// Owner is part of the Changeset interface.
func (cs *ComplexChangeset) Owner() any {
	return cs.owner
}

// Complex returns the complex value the changeset tracks.
func (cs *ComplexChangeset) Complex() ComplexOwner {
	return cs.owner
}

// Has returns true if the named property exists and has a recorded change.
func (cs *ComplexChangeset) Has(name string) bool {
	if _, err := cs.owner.Type().Property(name); err != nil {
		return false
	}
	_, ok := cs.changes[name]
	return ok
}

// Change returns the change recorded for the named property, or nil.
func (cs *ComplexChangeset) Change(name string) Change {
	return cs.changes[name]
}

// Changes returns the recorded changes in PropertyNames order.
func (cs *ComplexChangeset) Changes() []Change {
	result := make([]Change, 0, len(cs.names))
	for _, name := range cs.names {
		result = append(result, cs.changes[name])
	}
	return result
}

// Get returns the new value of the named property: the new value of a
// scalar change, or the new elements of a list change. It returns nil for
// untouched properties.
func (cs *ComplexChangeset) Get(name string) any {
	switch change := cs.changes[name].(type) {
	case *ValueChange:
		return change.NewValue()
	case *ListChangeset:
		return change.NewValue()
	}
	return nil
}

// PropertyNames returns the names of the touched properties in the order
// they were first touched.
func (cs *ComplexChangeset) PropertyNames() []string {
	return slices.Clone(cs.names)
}

// HasChanges is part of the Changeset interface.
func (cs *ComplexChangeset) HasChanges() bool {
	for _, change := range cs.changes {
		switch change := change.(type) {
		case *ValueChange:
			return true
		case *ListChangeset:
			if change.HasChanges() {
				return true
			}
		}
	}
	return false
}

// Set records a change of the named property to the value described by
// spec. List properties delegate to the changeset of the list value.
// Scalar properties record a change only if the converted value differs
// from the current pending or live value.
func (cs *ComplexChangeset) Set(name string, spec any) error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	if name == "" {
		return errors.Annotate(ArgumentRequired, "property name")
	}
	prop, err := cs.owner.Type().Property(name)
	if err != nil {
		return errors.Trace(err)
	}
	if prop.IsList() {
		return errors.Trace(cs.setListChange(name, spec))
	}
	return errors.Trace(cs.setValueChange(prop, name, spec))
}

func (cs *ComplexChangeset) setValueChange(prop PropertyType, name string, spec any) error {
	value, err := prop.ToValue(spec)
	if err != nil {
		return errors.Trace(err)
	}

	if change, ok := cs.changes[name].(*ValueChange); ok {
		current := change.NewValue()
		if prop.AreEqual(current, value) {
			return nil
		}
		if err := change.SetNewValue(value); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(cs.moveReference(name, current, value))
	}

	current := cs.owner.Value(name)
	if prop.AreEqual(current, value) {
		return nil
	}
	change, err := NewValueChange(name, current, value)
	if err != nil {
		return errors.Trace(err)
	}
	if err := cs.moveReference(name, current, value); err != nil {
		return errors.Trace(err)
	}
	cs.record(name, change)
	return nil
}

func (cs *ComplexChangeset) setListChange(name string, spec any) error {
	list, ok := cs.owner.Value(name).(ListOwner)
	if !ok {
		return errors.Annotatef(TypeMismatch, "property %q does not hold a list", name)
	}
	lcs, err := cs.txn.ListChangeset(list)
	if err != nil {
		return errors.Trace(err)
	}
	if err := lcs.Set(spec, SetOptions{}); err != nil {
		return errors.Trace(err)
	}
	if _, ok := cs.changes[name]; !ok && lcs.HasChanges() {
		cs.record(name, lcs)
	}
	return nil
}

// moveReference moves the back reference held through the named property
// from the old value to the new one, for values that are referents. The
// pending links of a value built from a specification follow it.
func (cs *ComplexChangeset) moveReference(name string, oldValue, newValue any) error {
	if r, ok := oldValue.(Referent); ok {
		ref, err := cs.txn.ChangeRef(r)
		if err != nil {
			return errors.Trace(err)
		}
		if err := ref.RemoveReference(cs.owner, name); err != nil {
			return errors.Trace(err)
		}
		if err := unlinkValue(cs.txn, oldValue); err != nil {
			return errors.Trace(err)
		}
	}
	if r, ok := newValue.(Referent); ok {
		ref, err := cs.txn.ChangeRef(r)
		if err != nil {
			return errors.Trace(err)
		}
		if err := ref.AddReference(cs.owner, name); err != nil {
			return errors.Trace(err)
		}
		if err := linkValue(cs.txn, newValue); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (cs *ComplexChangeset) record(name string, change Change) {
	cs.changes[name] = change
	cs.names = append(cs.names, name)
}

// Freeze makes the changeset and every recorded change immutable.
func (cs *ComplexChangeset) Freeze() {
	cs.readOnly = true
	for _, change := range cs.changes {
		change.Freeze()
	}
}

// ClearChanges is part of the Changeset interface. Back references moved by
// scalar changes are moved back, and list changes are cleared.
func (cs *ComplexChangeset) ClearChanges() error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	for i := len(cs.names) - 1; i >= 0; i-- {
		name := cs.names[i]
		switch change := cs.changes[name].(type) {
		case *ValueChange:
			if err := cs.moveReference(name, change.NewValue(), change.OldValue()); err != nil {
				return errors.Trace(err)
			}
		case *ListChangeset:
			if err := change.ClearChanges(); err != nil {
				return errors.Trace(err)
			}
		}
	}
	cs.changes = make(map[string]Change)
	cs.names = nil
	return nil
}

// Apply writes the new values of the touched properties to the owner in
// PropertyNames order, applies the nested list changesets, and bumps the
// owner's version. If a write fails, the properties already written are
// restored and the error is returned.
func (cs *ComplexChangeset) Apply() error {
	if err := cs.assertNotApplied(); err != nil {
		return errors.Trace(err)
	}

	staged := make(map[string]any, len(cs.names))
	for _, name := range cs.names {
		if change, ok := cs.changes[name].(*ValueChange); ok {
			staged[name] = change.NewValue()
		}
	}

	cs.written = nil
	cs.appliedLists = nil
	for _, name := range cs.names {
		switch change := cs.changes[name].(type) {
		case *ValueChange:
			previous := cs.owner.Value(name)
			if err := cs.owner.SetValue(name, staged[name]); err != nil {
				return cs.applyFailed(name, err)
			}
			cs.written = append(cs.written, writtenValue{name: name, previous: previous})
		case *ListChangeset:
			if change.Applied() {
				continue
			}
			if err := change.Apply(); err != nil {
				return cs.applyFailed(name, err)
			}
			cs.appliedLists = append(cs.appliedLists, change)
		}
	}

	cs.bumped = cs.HasChanges()
	if cs.bumped {
		cs.previousVersion = cs.owner.Version()
		cs.owner.SetVersion(cs.previousVersion + 1)
	}
	cs.applied = true
	return nil
}

// Revert restores the property values, list elements and version the owner
// had before Apply.
func (cs *ComplexChangeset) Revert() error {
	if err := cs.assertApplied(); err != nil {
		return errors.Trace(err)
	}
	if err := cs.restore(); err != nil {
		return errors.Trace(err)
	}
	if cs.bumped {
		cs.owner.SetVersion(cs.previousVersion)
		cs.bumped = false
	}
	cs.applied = false
	return nil
}

// restore undoes the writes recorded by Apply, most recent first. Every
// write is attempted; the first error is returned.
// applyFailed restores what Apply wrote before the named property failed
// with err. A failure to restore is reported along with err.
func (cs *ComplexChangeset) applyFailed(name string, err error) error {
	err = errors.Annotatef(err, "applying property %q", name)
	if rErr := cs.restore(); rErr != nil {
		return errors.Annotatef(err, "cannot restore after failed apply (%v)", rErr)
	}
	return err
}

func (cs *ComplexChangeset) restore() error {
	var firstErr error
	for i := len(cs.appliedLists) - 1; i >= 0; i-- {
		if err := cs.appliedLists[i].Revert(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := len(cs.written) - 1; i >= 0; i-- {
		w := cs.written[i]
		if err := cs.owner.SetValue(w.name, w.previous); err != nil && firstErr == nil {
			firstErr = errors.Annotatef(err, "restoring property %q", w.name)
		}
	}
	cs.written = nil
	cs.appliedLists = nil
	return firstErr
}
