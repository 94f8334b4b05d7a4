// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import "fmt"

// Diff is a read-only description of one recorded property change, with
// the old and new values converted to plain specifications.
type Diff struct {
	// Owner is the identifier of the changed value, if it has one.
	Owner string

	// Property is the name of the changed property.
	Property string

	// Kind is the kind of the change.
	Kind ChangeKind

	// Old and New are the specifications of the property before and after
	// the change.
	Old any
	New any
}

// String implements fmt.Stringer.
func (d Diff) String() string {
	if d.Owner == "" {
		return fmt.Sprintf("%s: %v -> %v", d.Property, d.Old, d.New)
	}
	return fmt.Sprintf("%s.%s: %v -> %v", d.Owner, d.Property, d.Old, d.New)
}

// Diffs returns a description of every recorded change, in PropertyNames
// order.
func (cs *ComplexChangeset) Diffs() []Diff {
	var owner string
	if id, ok := cs.owner.(Identified); ok {
		owner = id.ID()
	}

	result := make([]Diff, 0, len(cs.names))
	for _, name := range cs.names {
		diff := Diff{
			Owner:    owner,
			Property: name,
		}
		switch change := cs.changes[name].(type) {
		case *ValueChange:
			diff.Kind = ValueKind
			diff.Old = ToSpec(change.OldValue())
			diff.New = ToSpec(change.NewValue())
		case *ListChangeset:
			diff.Kind = ListKind
			diff.Old = elementSpecs(change.OldValue())
			diff.New = elementSpecs(change.NewValue())
		}
		result = append(result, diff)
	}
	return result
}

// ToSpec converts a value to its plain specification. Values that are not
// Specifiers are returned unchanged.
func ToSpec(value any) any {
	if s, ok := value.(Specifier); ok {
		return s.ToSpec()
	}
	return value
}

func elementSpecs(elements []Element) []any {
	result := make([]any, len(elements))
	for i, element := range elements {
		result[i] = ToSpec(element)
	}
	return result
}
