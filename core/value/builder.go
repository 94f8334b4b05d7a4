// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package value

import (
	"slices"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/reference"
)

// builder builds values from specifications. Values it builds itself get
// their back references directly. A detached builder leaves the reference
// lists of values that already existed untouched and collects the back
// references they are owed as links instead.
type builder struct {
	detached bool
	links    []changeset.Link
}

func (b *builder) refer(target changeset.Referent, fresh bool, container any, property string) {
	if b.detached && !fresh {
		b.links = append(b.links, changeset.Link{
			Target:    target,
			Container: container,
			Property:  property,
		})
		return
	}
	target.References().Add(container, property)
}

func (b *builder) complex(id string, t *Type, spec map[string]any) (*Complex, error) {
	if id == "" {
		return nil, errors.Annotate(changeset.ArgumentRequired, "id")
	}
	if t == nil {
		return nil, errors.Annotate(changeset.ArgumentRequired, "type")
	}
	for name := range spec {
		if _, err := t.Property(name); err != nil {
			return nil, errors.Trace(err)
		}
	}

	c := &Complex{
		id:     id,
		typ:    t,
		values: make(map[string]any, len(t.props)),
		refs:   reference.NewList(),
	}
	for _, prop := range t.props {
		name := prop.Name()
		if lp, ok := prop.(listProperty); ok {
			list, err := b.list(lp.elementType, specList(spec[name]))
			if err != nil {
				return nil, errors.Annotatef(err, "property %q", name)
			}
			list.refs.Add(c, name)
			c.values[name] = list
			continue
		}

		v, fresh, err := b.value(prop, spec[name])
		if err != nil {
			return nil, errors.Trace(err)
		}
		if v == nil {
			continue
		}
		if r, ok := v.(changeset.Referent); ok {
			b.refer(r, fresh, c, name)
		}
		c.values[name] = v
	}
	return c, nil
}

func (b *builder) list(elementType changeset.ElementType, specs []any) (*List, error) {
	if elementType == nil {
		return nil, errors.Annotate(changeset.ArgumentRequired, "element type")
	}
	l := &List{
		id:          uuid.NewString(),
		elementType: elementType,
		refs:        reference.NewList(),
	}
	for _, spec := range specs {
		element, fresh, err := b.element(elementType, spec)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if slices.ContainsFunc(l.elements, func(e changeset.Element) bool {
			return e.Key() == element.Key()
		}) {
			continue
		}
		if r, ok := element.(changeset.Referent); ok {
			b.refer(r, fresh, l, reference.Unspecified)
		}
		l.elements = append(l.elements, element)
	}
	return l, nil
}

// value converts spec for prop. fresh reports whether the value was built
// from spec rather than given by it.
func (b *builder) value(prop changeset.PropertyType, spec any) (any, bool, error) {
	p, ok := prop.(refProperty)
	if !ok {
		v, err := prop.ToValue(spec)
		return v, false, errors.Trace(err)
	}
	switch v := spec.(type) {
	case nil:
		return nil, false, nil
	case *Complex:
		if v == nil {
			return nil, false, nil
		}
		if v.typ != p.typ {
			return nil, false, errors.Annotatef(changeset.TypeMismatch,
				"property %q: %q is not a %q", p.name, v.typ.name, p.typ.name)
		}
		return v, false, nil
	case map[string]any:
		c, err := b.complex(uuid.NewString(), p.typ, v)
		if err != nil {
			return nil, false, errors.Annotatef(err, "property %q", p.name)
		}
		return c, true, nil
	}
	return nil, false, errors.Annotatef(changeset.TypeMismatch, "property %q: %T is not a %q", p.name, spec, p.typ.name)
}

// element converts spec to an element of elementType. fresh reports whether
// the element was built from spec rather than given by it.
func (b *builder) element(elementType changeset.ElementType, spec any) (changeset.Element, bool, error) {
	e, ok := elementType.(complexElements)
	if !ok {
		element, err := elementType.ToElement(spec)
		return element, false, errors.Trace(err)
	}
	switch v := spec.(type) {
	case *Complex:
		if v != nil && v.typ == e.typ {
			return v, false, nil
		}
	case map[string]any:
		c, err := b.complex(uuid.NewString(), e.typ, v)
		if err != nil {
			return nil, false, errors.Trace(err)
		}
		return c, true, nil
	}
	return nil, false, errors.Annotatef(changeset.TypeMismatch, "%T is not a %q", spec, e.typ.name)
}

// detach hands the links collected while building v to v, if v was built
// by b.
func (b *builder) detach(v any, fresh bool) {
	if c, ok := v.(*Complex); ok && fresh {
		c.links = b.links
	}
}
