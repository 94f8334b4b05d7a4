// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package value

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/reference"
)

// List is an ordered collection of elements with unique keys. Its live
// elements are only written by applying a changeset.
type List struct {
	id          string
	elementType changeset.ElementType
	elements    []changeset.Element
	version     int64
	refs        *reference.List
}

var (
	_ changeset.ListOwner  = (*List)(nil)
	_ changeset.Referent   = (*List)(nil)
	_ changeset.Identified = (*List)(nil)
	_ changeset.Specifier  = (*List)(nil)
)

// NewList returns a list of the given element type holding the elements
// described by specs. Elements with a key already in the list are dropped.
func NewList(elementType changeset.ElementType, specs ...any) (*List, error) {
	b := &builder{}
	return b.list(elementType, specs)
}

// ID is part of the changeset.Identified interface.
func (l *List) ID() string {
	return l.id
}

// ElementType is part of the changeset.ListOwner interface.
func (l *List) ElementType() changeset.ElementType {
	return l.elementType
}

// Elements is part of the changeset.ListOwner interface.
func (l *List) Elements() []changeset.Element {
	return l.elements
}

// SetElements is part of the changeset.ListOwner interface.
func (l *List) SetElements(elements []changeset.Element) error {
	l.elements = elements
	return nil
}

// Version is part of the changeset.Versioned interface.
func (l *List) Version() int64 {
	return l.version
}

// SetVersion is part of the changeset.Versioned interface.
func (l *List) SetVersion(version int64) {
	l.version = version
}

// References is part of the changeset.Referent interface.
func (l *List) References() *reference.List {
	return l.refs
}

// SetReferences is part of the changeset.Referent interface.
func (l *List) SetReferences(refs *reference.List) {
	l.refs = refs
}

// Len returns the number of live elements.
func (l *List) Len() int {
	return len(l.elements)
}

// At returns the live element at index i.
func (l *List) At(i int) changeset.Element {
	return l.elements[i]
}

// Set records, under txn, the reconciliation of the list with spec.
func (l *List) Set(txn changeset.Transaction, spec any) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.Set(spec, changeset.SetOptions{})
	})
}

// Add records, under txn, the addition of the elements of spec that are not
// in the list.
func (l *List) Add(txn changeset.Transaction, spec any) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.Add(spec)
	})
}

// Insert records, under txn, the insertion of the elements of spec at
// index.
func (l *List) Insert(txn changeset.Transaction, spec any, index int) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.Insert(spec, index)
	})
}

// Remove records, under txn, the removal of the elements of spec.
func (l *List) Remove(txn changeset.Transaction, spec any) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.Remove(spec)
	})
}

// RemoveAt records, under txn, the removal of count elements from start.
func (l *List) RemoveAt(txn changeset.Transaction, start, count int) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.RemoveAt(start, count)
	})
}

// Sort records, under txn, a sort of the list.
func (l *List) Sort(txn changeset.Transaction, compare func(a, b changeset.Element) int) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.Sort(compare)
	})
}

// Clear records, under txn, the removal of every element.
func (l *List) Clear(txn changeset.Transaction) error {
	return l.change(txn, func(cs *changeset.ListChangeset) error {
		return cs.Clear()
	})
}

func (l *List) change(txn changeset.Transaction, f func(*changeset.ListChangeset) error) error {
	cs, err := txn.ListChangeset(l)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(f(cs))
}

// ToSpec returns the specifications of the live elements.
func (l *List) ToSpec() any {
	result := make([]any, len(l.elements))
	for i, element := range l.elements {
		result[i] = changeset.ToSpec(element)
	}
	return result
}

// String implements fmt.Stringer.
func (l *List) String() string {
	return fmt.Sprintf("list(%s)", l.id)
}
