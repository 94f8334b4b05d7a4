// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package value

import (
	"math"

	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
)

type scalarKind int

const (
	stringKind scalarKind = iota
	intKind
	floatKind
	boolKind
)

func (k scalarKind) String() string {
	switch k {
	case stringKind:
		return "string"
	case intKind:
		return "int"
	case floatKind:
		return "float"
	}
	return "bool"
}

// scalarProperty holds string, int64, float64 or bool values. A nil
// specification unsets the property.
type scalarProperty struct {
	name string
	kind scalarKind
}

// String returns a property holding string values.
func String(name string) changeset.PropertyType {
	return scalarProperty{name: name, kind: stringKind}
}

// Int returns a property holding int64 values.
func Int(name string) changeset.PropertyType {
	return scalarProperty{name: name, kind: intKind}
}

// Float returns a property holding float64 values.
func Float(name string) changeset.PropertyType {
	return scalarProperty{name: name, kind: floatKind}
}

// Bool returns a property holding bool values.
func Bool(name string) changeset.PropertyType {
	return scalarProperty{name: name, kind: boolKind}
}

func (p scalarProperty) Name() string {
	return p.name
}

func (p scalarProperty) IsList() bool {
	return false
}

func (p scalarProperty) ToValue(spec any) (any, error) {
	if spec == nil {
		return nil, nil
	}
	var (
		value any
		ok    bool
	)
	switch p.kind {
	case stringKind:
		value, ok = spec.(string)
	case intKind:
		value, ok = toInt(spec)
	case floatKind:
		value, ok = toFloat(spec)
	case boolKind:
		value, ok = spec.(bool)
	}
	if !ok {
		return nil, errors.Annotatef(changeset.TypeMismatch, "property %q: %T is not a %s", p.name, spec, p.kind)
	}
	return value, nil
}

func (p scalarProperty) AreEqual(a, b any) bool {
	return a == b
}

func toInt(spec any) (int64, bool) {
	switch v := spec.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		// -2^63 is exact as a float64; 2^63 is the first value out of range.
		if v == math.Trunc(v) && v >= math.MinInt64 && v < -math.MinInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

func toFloat(spec any) (float64, bool) {
	switch v := spec.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// refProperty holds a reference to a complex value of a given type.
type refProperty struct {
	name string
	typ  *Type
}

// Ref returns a property referring to complex values of type t. The
// referred value gets a back reference to the holder through the property.
func Ref(name string, t *Type) changeset.PropertyType {
	return refProperty{name: name, typ: t}
}

func (p refProperty) Name() string {
	return p.name
}

func (p refProperty) IsList() bool {
	return false
}

// ToValue accepts nil, a *Complex of the property type, or a map
// specification from which a new complex value is built. A built value
// leaves the values it refers to untouched; see Complex.PendingLinks.
func (p refProperty) ToValue(spec any) (any, error) {
	b := &builder{detached: true}
	v, fresh, err := b.value(p, spec)
	if err != nil {
		return nil, errors.Trace(err)
	}
	b.detach(v, fresh)
	return v, nil
}

// AreEqual compares references by identity.
func (p refProperty) AreEqual(a, b any) bool {
	return a == b
}

// listProperty holds a list value. The list itself is never replaced;
// setting the property reconciles its elements.
type listProperty struct {
	name        string
	elementType changeset.ElementType
}

// ListOf returns a property holding a list of elements of the given type.
func ListOf(name string, elementType changeset.ElementType) changeset.PropertyType {
	return listProperty{name: name, elementType: elementType}
}

func (p listProperty) Name() string {
	return p.name
}

func (p listProperty) IsList() bool {
	return true
}

func (p listProperty) ToValue(spec any) (any, error) {
	return spec, nil
}

func (p listProperty) AreEqual(a, b any) bool {
	return false
}
