// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import (
	"github.com/juju/errors"

	"github.com/juju/changeset/core/reference"
)

// ChangeRef records pending additions and removals of back references to
// an owner. An addition cancels a matching pending removal and vice versa,
// so adding and removing the same pair within one changeset is a no-op.
type ChangeRef struct {
	changesetBase

	owner   Referent
	refsAdd *reference.List
	refsRem *reference.List

	// projected is the lazily computed reference list the owner would
	// have once the changeset is applied. nil means not computed.
	projected *reference.List

	// previous holds the live references replaced by Apply.
	previous *reference.List
}

// NewChangeRef returns a reference changeset of the owner under the given
// transaction.
func NewChangeRef(txn Transaction, owner Referent) (*ChangeRef, error) {
	if txn == nil {
		return nil, errors.Annotate(ArgumentRequired, "transaction")
	}
	if owner == nil {
		return nil, errors.Annotate(ArgumentRequired, "owner")
	}
	return &ChangeRef{
		changesetBase: newChangesetBase(txn),
		owner:         owner,
		refsAdd:       reference.NewList(),
		refsRem:       reference.NewList(),
	}, nil
}

// Owner is part of the Changeset interface.
func (c *ChangeRef) Owner() any {
	return c.owner
}

// AddReference records that container now refers to the owner through
// property. A matching pending removal is cancelled instead.
func (c *ChangeRef) AddReference(container any, property string) error {
	if err := c.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	if !c.refsRem.Remove(container, property) {
		c.refsAdd.Add(container, property)
	}
	c.touch()
	return nil
}

// RemoveReference records that container no longer refers to the owner
// through property. A matching pending addition is cancelled instead.
func (c *ChangeRef) RemoveReference(container any, property string) error {
	if err := c.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	if !c.refsAdd.Remove(container, property) {
		c.refsRem.Add(container, property)
	}
	c.touch()
	return nil
}

// PendingAdditions returns the references waiting to be added.
func (c *ChangeRef) PendingAdditions() []reference.Reference {
	return c.refsAdd.References()
}

// PendingRemovals returns the references waiting to be removed.
func (c *ChangeRef) PendingRemovals() []reference.Reference {
	return c.refsRem.References()
}

// ProjectedReferences returns the references the owner would have if the
// changeset were applied now. The owner's live list is not modified.
func (c *ChangeRef) ProjectedReferences() *reference.List {
	if c.projected == nil {
		projected := c.owner.References().Clone()
		for _, ref := range c.refsRem.References() {
			projected.Remove(ref.Container, ref.Property)
		}
		for _, ref := range c.refsAdd.References() {
			projected.Add(ref.Container, ref.Property)
		}
		c.projected = projected
	}
	return c.projected.Clone()
}

// HasChanges is part of the Changeset interface.
func (c *ChangeRef) HasChanges() bool {
	return c.refsAdd.Len() > 0 || c.refsRem.Len() > 0
}

// Freeze is part of the Changeset interface.
func (c *ChangeRef) Freeze() {
	c.readOnly = true
}

// ClearChanges is part of the Changeset interface.
func (c *ChangeRef) ClearChanges() error {
	if err := c.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	c.refsAdd = reference.NewList()
	c.refsRem = reference.NewList()
	c.touch()
	return nil
}

// Apply makes the projected references the owner's live references.
func (c *ChangeRef) Apply() error {
	if err := c.assertNotApplied(); err != nil {
		return errors.Trace(err)
	}
	projected := c.ProjectedReferences()
	c.previous = c.owner.References()
	c.owner.SetReferences(projected)
	c.applied = true
	return nil
}

// Revert restores the references the owner had before Apply.
func (c *ChangeRef) Revert() error {
	if err := c.assertApplied(); err != nil {
		return errors.Trace(err)
	}
	c.owner.SetReferences(c.previous)
	c.previous = nil
	c.applied = false
	c.touch()
	return nil
}

func (c *ChangeRef) touch() {
	c.projected = nil
}

// linkValue records, under txn, the pending links of value, if any.
func linkValue(txn Transaction, value any) error {
	return errors.Trace(forEachLink(txn, value, (*ChangeRef).AddReference))
}

// unlinkValue undoes linkValue.
func unlinkValue(txn Transaction, value any) error {
	return errors.Trace(forEachLink(txn, value, (*ChangeRef).RemoveReference))
}

func forEachLink(txn Transaction, value any, f func(*ChangeRef, any, string) error) error {
	linker, ok := value.(Linker)
	if !ok {
		return nil
	}
	for _, link := range linker.PendingLinks() {
		ref, err := txn.ChangeRef(link.Target)
		if err != nil {
			return errors.Trace(err)
		}
		if err := f(ref, link.Container, link.Property); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
