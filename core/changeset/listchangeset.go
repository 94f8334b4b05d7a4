// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import (
	"slices"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/changeset/core/reference"
)

// SetOptions controls the reconciliation performed by ListChangeset.Set.
type SetOptions struct {
	// NoAdd prevents input elements that are not in the list from being
	// added.
	NoAdd bool

	// NoUpdate prevents list elements from being replaced by input elements
	// with the same key.
	NoUpdate bool

	// NoRemove prevents list elements that are not in the input from being
	// removed.
	NoRemove bool

	// Index is the insertion position of added elements. nil means the end
	// of the list; negative values count from the end.
	Index *int
}

// ListChangeset records structural edits of a list value. The edits are
// replayed on a copy of the list to compute its new value; the list itself
// is only written by Apply.
type ListChangeset struct {
	changesetBase

	owner    ListOwner
	oldValue []Element
	changes  []ListChange

	// newValue caches the replayed list. It is only valid while cached is
	// true; touch invalidates it.
	newValue []Element
	cached   bool

	previous        []Element
	previousVersion int64
}

// NewListChangeset returns a changeset of the list owner under the given
// transaction. The owner's current elements are snapshotted as the old
// value.
func NewListChangeset(txn Transaction, owner ListOwner) (*ListChangeset, error) {
	if txn == nil {
		return nil, errors.Annotate(ArgumentRequired, "transaction")
	}
	if owner == nil {
		return nil, errors.Annotate(ArgumentRequired, "owner")
	}
	return &ListChangeset{
		changesetBase: newChangesetBase(txn),
		owner:         owner,
		oldValue:      slices.Clone(owner.Elements()),
	}, nil
}

// Kind is part of the Change interface.
func (cs *ListChangeset) Kind() ChangeKind {
	return ListKind
}

// Owner is part of the Changeset interface.
func (cs *ListChangeset) Owner() any {
	return cs.owner
}

// List returns the list the changeset tracks.
func (cs *ListChangeset) List() ListOwner {
	return cs.owner
}

// OldValue returns a copy of the elements the list had when the changeset
// was created.
func (cs *ListChangeset) OldValue() []Element {
	return slices.Clone(cs.oldValue)
}

// NewValue returns a copy of the elements the list will have once the
// changeset is applied.
func (cs *ListChangeset) NewValue() []Element {
	return slices.Clone(cs.projected())
}

// Changes returns the recorded edits in order.
func (cs *ListChangeset) Changes() []ListChange {
	return slices.Clone(cs.changes)
}

// HasChanges is part of the Changeset interface.
func (cs *ListChangeset) HasChanges() bool {
	return len(cs.changes) > 0
}

// Simulate replays the recorded edits on a copy of target and returns the
// result. Edits recorded before the last Clear are ignored. target is not
// modified.
func (cs *ListChangeset) Simulate(target []Element) []Element {
	return simulate(target, cs.changes)
}

func simulate(target []Element, changes []ListChange) []Element {
	start := 0
	for i := len(changes) - 1; i >= 0; i-- {
		if changes[i].Kind() == ClearKind {
			start = i + 1
			target = nil
			break
		}
	}

	working := slices.Clone(target)
	if working == nil {
		working = []Element{}
	}
	for _, change := range changes[start:] {
		working = change.replay(working)
	}
	return working
}

// Set reconciles the list with fragment, which is a single element
// specification or a slice of them. Input elements whose key is in the list
// are recorded as updates, the others as additions; list elements whose
// key is not in the input are recorded as removals. SetOptions can disable
// each phase and set the insertion index.
func (cs *ListChangeset) Set(fragment any, opts SetOptions) error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	elements, err := cs.toElements(fragment)
	if err != nil {
		return errors.Trace(err)
	}

	current := cs.projected()
	existing := make(map[string]Element, len(current))
	for _, element := range current {
		existing[element.Key()] = element
	}

	elementType := cs.owner.ElementType()
	index := insertionIndex(opts.Index, len(current))
	inputKeys := set.NewStrings()

	var changes []ListChange
	for _, element := range elements {
		key := element.Key()
		if inputKeys.Contains(key) {
			continue
		}
		inputKeys.Add(key)

		if prior, ok := existing[key]; ok {
			if !opts.NoUpdate && !elementType.AreEqual(prior, element) {
				changes = append(changes, UpdateChange{
					Existing: prior,
					Incoming: element,
				})
			}
			continue
		}
		if !opts.NoAdd {
			changes = append(changes, AddChange{
				Element: element,
				Index:   index,
			})
			index++
		}
	}

	if !opts.NoRemove {
		for i, element := range current {
			if inputKeys.Contains(element.Key()) {
				continue
			}
			changes = append(changes, RemoveChange{
				Elements: []Element{element},
				Index:    i,
			})
		}
	}

	return errors.Trace(cs.record(changes...))
}

// Add appends the elements of fragment that are not yet in the list.
func (cs *ListChangeset) Add(fragment any) error {
	return cs.Set(fragment, SetOptions{
		NoUpdate: true,
		NoRemove: true,
	})
}

// Insert inserts the elements of fragment that are not yet in the list at
// index, and updates the ones that are.
func (cs *ListChangeset) Insert(fragment any, index int) error {
	return cs.Set(fragment, SetOptions{
		NoRemove: true,
		Index:    &index,
	})
}

// Remove removes the list elements whose keys match the elements of
// fragment. Unknown keys are ignored.
func (cs *ListChangeset) Remove(fragment any) error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	elements, err := cs.toElements(fragment)
	if err != nil {
		return errors.Trace(err)
	}

	current := cs.projected()
	removed := set.NewStrings()
	var changes []ListChange
	for _, element := range elements {
		key := element.Key()
		i := indexOfKey(current, key)
		if i < 0 || removed.Contains(key) {
			continue
		}
		removed.Add(key)
		changes = append(changes, RemoveChange{
			Elements: []Element{current[i]},
			Index:    i,
		})
	}
	return errors.Trace(cs.record(changes...))
}

// RemoveAt removes count elements starting at start. A negative start
// counts from the end of the list and is clamped to zero. Nothing is
// recorded if count is not positive or start is past the end of the list.
func (cs *ListChangeset) RemoveAt(start, count int) error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	if count <= 0 {
		return nil
	}

	current := cs.projected()
	size := len(current)
	if start < 0 {
		start = max(size+start, 0)
	}
	if start >= size {
		return nil
	}
	end := min(start+count, size)

	return errors.Trace(cs.record(RemoveChange{
		Elements: slices.Clone(current[start:end]),
		Index:    start,
	}))
}

// RemoveOneAt removes the element at index.
func (cs *ListChangeset) RemoveOneAt(index int) error {
	return cs.RemoveAt(index, 1)
}

// Sort records a sort of the list with compare. The sort is performed when
// the new value is computed, not now.
func (cs *ListChangeset) Sort(compare func(a, b Element) int) error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	if compare == nil {
		return errors.Annotate(ArgumentRequired, "comparator")
	}
	return errors.Trace(cs.record(SortChange{Compare: compare}))
}

// Clear records the removal of every element.
func (cs *ListChangeset) Clear() error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(cs.record(ClearChange{}))
}

// Freeze is part of the Change interface.
func (cs *ListChangeset) Freeze() {
	cs.readOnly = true
}

// ClearChanges is part of the Changeset interface.
func (cs *ListChangeset) ClearChanges() error {
	if err := cs.assertWritable(); err != nil {
		return errors.Trace(err)
	}
	if err := cs.syncReferences(cs.projected(), cs.oldValue); err != nil {
		return errors.Trace(err)
	}
	cs.changes = nil
	cs.touch()
	return nil
}

// Apply writes the new value to the list and bumps its version.
func (cs *ListChangeset) Apply() error {
	if err := cs.assertNotApplied(); err != nil {
		return errors.Trace(err)
	}
	if !cs.HasChanges() {
		cs.applied = true
		return nil
	}

	previous := slices.Clone(cs.owner.Elements())
	previousVersion := cs.owner.Version()
	if err := cs.owner.SetElements(cs.NewValue()); err != nil {
		return errors.Annotate(err, "applying list changes")
	}
	cs.owner.SetVersion(previousVersion + 1)

	cs.previous = previous
	cs.previousVersion = previousVersion
	cs.applied = true
	return nil
}

// Revert restores the elements and version the list had before Apply.
func (cs *ListChangeset) Revert() error {
	if err := cs.assertApplied(); err != nil {
		return errors.Trace(err)
	}
	if cs.HasChanges() {
		if err := cs.owner.SetElements(cs.previous); err != nil {
			return errors.Annotate(err, "reverting list changes")
		}
		cs.owner.SetVersion(cs.previousVersion)
	}
	cs.previous = nil
	cs.applied = false
	return nil
}

func (*ListChangeset) isChange() {}

// record appends changes, moving the back references of referent elements
// that enter or leave the list.
func (cs *ListChangeset) record(changes ...ListChange) error {
	if len(changes) == 0 {
		return nil
	}
	before := cs.projected()
	after := simulate(cs.oldValue, append(slices.Clone(cs.changes), changes...))
	if err := cs.syncReferences(before, after); err != nil {
		return errors.Trace(err)
	}
	cs.changes = append(cs.changes, changes...)
	cs.touch()
	return nil
}

// syncReferences records, for every referent element, the reference of the
// list to it that is gained or lost between the two element lists.
func (cs *ListChangeset) syncReferences(before, after []Element) error {
	inBefore := referents(before)
	inAfter := referents(after)

	for _, r := range inBefore {
		if slices.Contains(inAfter, r) {
			continue
		}
		ref, err := cs.txn.ChangeRef(r)
		if err != nil {
			return errors.Trace(err)
		}
		if err := ref.RemoveReference(cs.owner, reference.Unspecified); err != nil {
			return errors.Trace(err)
		}
		if err := unlinkValue(cs.txn, r); err != nil {
			return errors.Trace(err)
		}
	}
	for _, r := range inAfter {
		if slices.Contains(inBefore, r) {
			continue
		}
		ref, err := cs.txn.ChangeRef(r)
		if err != nil {
			return errors.Trace(err)
		}
		if err := ref.AddReference(cs.owner, reference.Unspecified); err != nil {
			return errors.Trace(err)
		}
		if err := linkValue(cs.txn, r); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (cs *ListChangeset) projected() []Element {
	if !cs.cached {
		cs.newValue = simulate(cs.oldValue, cs.changes)
		cs.cached = true
	}
	return cs.newValue
}

func (cs *ListChangeset) touch() {
	cs.newValue = nil
	cs.cached = false
}

func (cs *ListChangeset) toElements(fragment any) ([]Element, error) {
	var specs []any
	switch f := fragment.(type) {
	case nil:
	case []any:
		specs = f
	case []Element:
		for _, element := range f {
			specs = append(specs, element)
		}
	case []string:
		for _, s := range f {
			specs = append(specs, s)
		}
	default:
		specs = []any{f}
	}

	elementType := cs.owner.ElementType()
	elements := make([]Element, 0, len(specs))
	for _, spec := range specs {
		element, err := elementType.ToElement(spec)
		if err != nil {
			return nil, errors.Trace(err)
		}
		elements = append(elements, element)
	}
	return elements, nil
}

func referents(elements []Element) []Referent {
	var result []Referent
	for _, element := range elements {
		if r, ok := element.(Referent); ok {
			result = append(result, r)
		}
	}
	return result
}

func insertionIndex(index *int, size int) int {
	if index == nil {
		return size
	}
	i := *index
	if i < 0 {
		i += size
	}
	return min(max(i, 0), size)
}
