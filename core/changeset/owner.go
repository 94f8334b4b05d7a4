// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import "github.com/juju/changeset/core/reference"

// Versioned is implemented by owners carrying a version counter. The
// version is only ever bumped when a changeset is applied.
type Versioned interface {
	// Version returns the current version of the owner.
	Version() int64

	// SetVersion sets the version of the owner.
	SetVersion(version int64)
}

// Referent is implemented by values whose back references are tracked.
type Referent interface {
	// References returns the live reference list of the value.
	References() *reference.List

	// SetReferences replaces the live reference list of the value.
	SetReferences(refs *reference.List)
}

// Link is a back reference owed to Target: Container refers to it through
// Property.
type Link struct {
	Target    Referent
	Container any
	Property  string
}

// Linker is implemented by values built from a specification that refer
// to values which already existed. Those values only get their back
// references once the built value is recorded in a changeset, and then
// through the transaction.
type Linker interface {
	// PendingLinks returns the back references not yet held live by their
	// targets.
	PendingLinks() []Link
}

// PropertyType describes one property of a complex type.
type PropertyType interface {
	// Name returns the name of the property.
	Name() string

	// IsList returns true if the property holds a list value.
	IsList() bool

	// ToValue converts a value specification to a value of the property
	// type. An error satisfying TypeMismatch is returned if the
	// specification cannot be converted.
	ToValue(spec any) (any, error)

	// AreEqual returns true if the two values are equal for the property
	// type.
	AreEqual(a, b any) bool
}

// ComplexType resolves the properties of a complex value.
type ComplexType interface {
	// Property returns the property with the given name. An error
	// satisfying PropertyNotFound is returned if there is no such property.
	Property(name string) (PropertyType, error)
}

// ComplexOwner is a structured value with named, typed properties.
type ComplexOwner interface {
	Versioned

	// Type returns the type of the value.
	Type() ComplexType

	// Value returns the live value of the named property.
	Value(name string) any

	// SetValue writes the live value of the named property.
	SetValue(name string, value any) error
}

// Element is a list element. Elements of a list are identified by key.
type Element interface {
	Key() string
}

// ElementType describes the elements of a list value.
type ElementType interface {
	// ToElement converts an element specification to an element. An error
	// satisfying TypeMismatch is returned if the specification cannot be
	// converted.
	ToElement(spec any) (Element, error)

	// AreEqual returns true if the two elements are equal.
	AreEqual(a, b Element) bool
}

// ListOwner is an ordered collection of keyed elements.
type ListOwner interface {
	Versioned

	// ElementType returns the type of the list elements.
	ElementType() ElementType

	// Elements returns the live elements of the list. Callers must not
	// modify the returned slice.
	Elements() []Element

	// SetElements replaces the live elements of the list.
	SetElements(elements []Element) error
}

// Identified is implemented by owners that carry a stable identifier.
type Identified interface {
	ID() string
}

// Specifier is implemented by values that can describe themselves as a
// plain specification (maps, slices and scalars).
type Specifier interface {
	ToSpec() any
}

// Transaction is the explicit handle every changeset is created under.
type Transaction interface {
	// Version returns the version stamped into changesets created under
	// the transaction.
	Version() int64

	// ChangeRef returns the reference changeset of the owner, creating it
	// if necessary.
	ChangeRef(owner Referent) (*ChangeRef, error)

	// ListChangeset returns the changeset of the list owner, creating it
	// if necessary.
	ListChangeset(owner ListOwner) (*ListChangeset, error)
}

// Changeset is the surface shared by every changeset kind.
type Changeset interface {
	// Owner returns the value the changeset tracks.
	Owner() any

	// TransactionVersion returns the version of the transaction the
	// changeset was created under.
	TransactionVersion() int64

	// HasChanges returns true if anything has been recorded.
	HasChanges() bool

	// IsReadOnly returns true once the changeset has been frozen.
	IsReadOnly() bool

	// Freeze makes the changeset and its recorded changes immutable.
	Freeze()

	// ClearChanges discards everything recorded so far.
	ClearChanges() error

	// Applied returns true if the changeset has been applied to its owner.
	Applied() bool

	// Apply writes the recorded changes to the owner.
	Apply() error

	// Revert undoes a previous Apply.
	Revert() error
}
