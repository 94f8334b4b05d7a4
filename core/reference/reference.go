// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package reference holds the back references of a value: the containers
// that point at it and the property through which they do so.
package reference

import "fmt"

// Unspecified is the property of a reference whose container property is
// not known.
const Unspecified = ""

// Reference records that Container holds the owner of the reference list
// through Property.
type Reference struct {
	// Container is the value holding the reference. Containers are compared
	// by identity, so they must be comparable (usually pointers).
	Container any

	// Property is the name of the container property holding the
	// reference, or Unspecified.
	Property string
}

// Matches returns true if the reference is the exact (container, property)
// pair.
func (r Reference) Matches(container any, property string) bool {
	return r.Container == container && r.Property == property
}

// String implements fmt.Stringer.
func (r Reference) String() string {
	if r.Property == Unspecified {
		return fmt.Sprintf("%v", r.Container)
	}
	return fmt.Sprintf("%v.%s", r.Container, r.Property)
}

// List is an ordered collection of references, scoped to one owner.
// A (container, property) pair appears at most once.
type List struct {
	refs []Reference
}

// NewList returns a list holding the given references. Duplicated pairs are
// dropped.
func NewList(refs ...Reference) *List {
	l := &List{}
	for _, ref := range refs {
		l.Add(ref.Container, ref.Property)
	}
	return l
}

// Add appends the reference unless the exact pair is already present.
// It returns true if the list changed.
func (l *List) Add(container any, property string) bool {
	if l.indexOf(container, property) >= 0 {
		return false
	}
	l.refs = append(l.refs, Reference{
		Container: container,
		Property:  property,
	})
	return true
}

// Remove removes the last reference matching the exact pair. It returns
// true if a reference was removed. Removing from an empty list is a no-op.
func (l *List) Remove(container any, property string) bool {
	i := l.indexOf(container, property)
	if i < 0 {
		return false
	}
	l.refs = append(l.refs[:i], l.refs[i+1:]...)
	return true
}

// Contains returns true if the exact pair is present.
func (l *List) Contains(container any, property string) bool {
	return l.indexOf(container, property) >= 0
}

// Len returns the number of references.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.refs)
}

// At returns the reference at index i.
func (l *List) At(i int) Reference {
	return l.refs[i]
}

// References returns a copy of the references in order.
func (l *List) References() []Reference {
	if l == nil {
		return nil
	}
	result := make([]Reference, len(l.refs))
	copy(result, l.refs)
	return result
}

// Clone returns an independent copy of the list. Cloning a nil list returns
// an empty list.
func (l *List) Clone() *List {
	return &List{refs: l.References()}
}

// indexOf scans from the end, so the most recently added match wins.
func (l *List) indexOf(container any, property string) int {
	if l == nil {
		return -1
	}
	for i := len(l.refs) - 1; i >= 0; i-- {
		if l.refs[i].Matches(container, property) {
			return i
		}
	}
	return -1
}
