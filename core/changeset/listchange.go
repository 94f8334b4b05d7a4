// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import (
	"fmt"
	"slices"
)

// ListChangeKind identifies the kind of a structural list edit.
type ListChangeKind int

const (
	// AddKind inserts an element at an index.
	AddKind ListChangeKind = iota

	// RemoveKind removes elements.
	RemoveKind

	// UpdateKind replaces an element by another with the same key.
	UpdateKind

	// SortKind sorts the list with a comparator.
	SortKind

	// ClearKind removes every element.
	ClearKind
)

// String implements fmt.Stringer.
func (k ListChangeKind) String() string {
	switch k {
	case AddKind:
		return "add"
	case RemoveKind:
		return "remove"
	case UpdateKind:
		return "update"
	case SortKind:
		return "sort"
	case ClearKind:
		return "clear"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ListChange is one recorded structural edit of a list. Replaying a change
// never modifies elements in place; it returns the edited slice.
type ListChange interface {
	// Kind returns the kind of the edit.
	Kind() ListChangeKind

	// replay applies the edit to a working copy of the list.
	replay(elements []Element) []Element
}

// AddChange inserts Element at Index. The index is clamped into the bounds
// of the list it is replayed against.
type AddChange struct {
	Element Element
	Index   int
}

// Kind is part of the ListChange interface.
func (AddChange) Kind() ListChangeKind {
	return AddKind
}

func (c AddChange) replay(elements []Element) []Element {
	index := min(max(c.Index, 0), len(elements))
	return slices.Insert(elements, index, c.Element)
}

// RemoveChange removes Elements, located by key. Index is the position of
// the first element when the change was recorded.
type RemoveChange struct {
	Elements []Element
	Index    int
}

// Kind is part of the ListChange interface.
func (RemoveChange) Kind() ListChangeKind {
	return RemoveKind
}

func (c RemoveChange) replay(elements []Element) []Element {
	for _, removed := range c.Elements {
		if i := indexOfKey(elements, removed.Key()); i >= 0 {
			elements = slices.Delete(elements, i, i+1)
		}
	}
	return elements
}

// UpdateChange replaces Existing by Incoming, keeping its position.
type UpdateChange struct {
	Existing Element
	Incoming Element
}

// Kind is part of the ListChange interface.
func (UpdateChange) Kind() ListChangeKind {
	return UpdateKind
}

func (c UpdateChange) replay(elements []Element) []Element {
	if i := indexOfKey(elements, c.Existing.Key()); i >= 0 {
		elements[i] = c.Incoming
	}
	return elements
}

// SortChange sorts the list with Compare, which follows the cmp.Compare
// convention. Sorting is stable.
type SortChange struct {
	Compare func(a, b Element) int
}

// Kind is part of the ListChange interface.
func (SortChange) Kind() ListChangeKind {
	return SortKind
}

func (c SortChange) replay(elements []Element) []Element {
	slices.SortStableFunc(elements, c.Compare)
	return elements
}

// ClearChange removes every element.
type ClearChange struct{}

// Kind is part of the ListChange interface.
func (ClearChange) Kind() ListChangeKind {
	return ClearKind
}

func (ClearChange) replay(elements []Element) []Element {
	return elements[:0]
}

func indexOfKey(elements []Element, key string) int {
	return slices.IndexFunc(elements, func(e Element) bool {
		return e.Key() == key
	})
}
