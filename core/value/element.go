// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package value

import (
	"reflect"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
)

// Text is a list element keyed by itself.
type Text string

// Key is part of the changeset.Element interface.
func (t Text) Key() string {
	return string(t)
}

// ToSpec is part of the changeset.Specifier interface.
func (t Text) ToSpec() any {
	return string(t)
}

type textElements struct{}

// TextElements returns the element type of lists of Text.
func TextElements() changeset.ElementType {
	return textElements{}
}

func (textElements) ToElement(spec any) (changeset.Element, error) {
	switch v := spec.(type) {
	case Text:
		return v, nil
	case string:
		return Text(v), nil
	}
	return nil, errors.Annotatef(changeset.TypeMismatch, "%T is not text", spec)
}

func (textElements) AreEqual(a, b changeset.Element) bool {
	return a == b
}

type complexElements struct {
	typ *Type
}

// ComplexElements returns the element type of lists of complex values of
// type t. Elements are keyed by the key property of t, or by id if t has
// no key.
func ComplexElements(t *Type) changeset.ElementType {
	return complexElements{typ: t}
}

// ToElement accepts a *Complex of the element type, or a map specification
// from which a new complex value is built. A built value leaves the values
// it refers to untouched; see Complex.PendingLinks.
func (e complexElements) ToElement(spec any) (changeset.Element, error) {
	b := &builder{detached: true}
	element, fresh, err := b.element(e, spec)
	if err != nil {
		return nil, errors.Trace(err)
	}
	b.detach(element, fresh)
	return element, nil
}

// AreEqual compares the specifications of the two values.
func (e complexElements) AreEqual(a, b changeset.Element) bool {
	if a == b {
		return true
	}
	return reflect.DeepEqual(changeset.ToSpec(a), changeset.ToSpec(b))
}

// CompareKeys orders elements by key.
func CompareKeys(a, b changeset.Element) int {
	return strings.Compare(a.Key(), b.Key())
}
