// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/reference"
)

// State is the lifecycle state of a transaction.
type State int

const (
	// Active transactions accept changes.
	Active State = iota

	// Committed transactions have written their changes to the owners.
	Committed

	// RolledBack transactions have dropped their changes.
	RolledBack
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Transaction holds at most one changeset per owner. Nothing is written to
// the owners until Commit. A Transaction is not safe for concurrent use.
type Transaction struct {
	manager *Manager
	uuid    string
	version int64
	started time.Time
	state   State

	complexes      []*changeset.ComplexChangeset
	complexByOwner map[changeset.ComplexOwner]*changeset.ComplexChangeset
	lists          []*changeset.ListChangeset
	listByOwner    map[changeset.ListOwner]*changeset.ListChangeset
	refs           []*changeset.ChangeRef
	refByOwner     map[changeset.Referent]*changeset.ChangeRef

	depth    int
	poisoned bool
}

var _ changeset.Transaction = (*Transaction)(nil)

func newTransaction(manager *Manager, id string, version int64, started time.Time) *Transaction {
	return &Transaction{
		manager:        manager,
		uuid:           id,
		version:        version,
		started:        started,
		complexByOwner: make(map[changeset.ComplexOwner]*changeset.ComplexChangeset),
		listByOwner:    make(map[changeset.ListOwner]*changeset.ListChangeset),
		refByOwner:     make(map[changeset.Referent]*changeset.ChangeRef),
	}
}

// UUID returns the unique identifier of the transaction.
func (t *Transaction) UUID() string {
	return t.uuid
}

// Version is part of the changeset.Transaction interface.
func (t *Transaction) Version() int64 {
	return t.version
}

// State returns the lifecycle state of the transaction.
func (t *Transaction) State() State {
	return t.state
}

// Poisoned returns true if a scope of the transaction has been rejected.
func (t *Transaction) Poisoned() bool {
	return t.poisoned
}

// Changeset returns the changeset of the complex owner, creating it if
// necessary.
func (t *Transaction) Changeset(owner changeset.ComplexOwner) (*changeset.ComplexChangeset, error) {
	if err := t.assertActive(); err != nil {
		return nil, errors.Trace(err)
	}
	if cs, ok := t.complexByOwner[owner]; ok {
		return cs, nil
	}
	cs, err := changeset.NewComplexChangeset(t, owner)
	if err != nil {
		return nil, errors.Trace(err)
	}
	t.complexByOwner[owner] = cs
	t.complexes = append(t.complexes, cs)
	return cs, nil
}

// ListChangeset is part of the changeset.Transaction interface.
func (t *Transaction) ListChangeset(owner changeset.ListOwner) (*changeset.ListChangeset, error) {
	if err := t.assertActive(); err != nil {
		return nil, errors.Trace(err)
	}
	if cs, ok := t.listByOwner[owner]; ok {
		return cs, nil
	}
	cs, err := changeset.NewListChangeset(t, owner)
	if err != nil {
		return nil, errors.Trace(err)
	}
	t.listByOwner[owner] = cs
	t.lists = append(t.lists, cs)
	return cs, nil
}

// ChangeRef is part of the changeset.Transaction interface.
func (t *Transaction) ChangeRef(owner changeset.Referent) (*changeset.ChangeRef, error) {
	if err := t.assertActive(); err != nil {
		return nil, errors.Trace(err)
	}
	if ref, ok := t.refByOwner[owner]; ok {
		return ref, nil
	}
	ref, err := changeset.NewChangeRef(t, owner)
	if err != nil {
		return nil, errors.Trace(err)
	}
	t.refByOwner[owner] = ref
	t.refs = append(t.refs, ref)
	return ref, nil
}

// Changesets returns every changeset of the transaction: complex
// changesets, then list changesets, then reference changesets, each in
// creation order.
func (t *Transaction) Changesets() []changeset.Changeset {
	result := make([]changeset.Changeset, 0, len(t.complexes)+len(t.lists)+len(t.refs))
	for _, cs := range t.complexes {
		result = append(result, cs)
	}
	for _, cs := range t.lists {
		result = append(result, cs)
	}
	for _, ref := range t.refs {
		result = append(result, ref)
	}
	return result
}

// HasChanges returns true if any changeset of the transaction has recorded
// changes.
func (t *Transaction) HasChanges() bool {
	for _, cs := range t.Changesets() {
		if cs.HasChanges() {
			return true
		}
	}
	return false
}

// Diffs describes the pending changes of the transaction. List changesets
// that are not recorded against a complex property are described with an
// empty property name.
func (t *Transaction) Diffs() []changeset.Diff {
	var result []changeset.Diff
	nested := make(map[*changeset.ListChangeset]bool)
	for _, cs := range t.complexes {
		result = append(result, cs.Diffs()...)
		for _, change := range cs.Changes() {
			if lcs, ok := change.(*changeset.ListChangeset); ok {
				nested[lcs] = true
			}
		}
	}
	for _, lcs := range t.lists {
		if nested[lcs] || !lcs.HasChanges() {
			continue
		}
		result = append(result, listDiff(lcs))
	}
	return result
}

func listDiff(lcs *changeset.ListChangeset) changeset.Diff {
	diff := changeset.Diff{
		Kind: changeset.ListKind,
		Old:  specs(lcs.OldValue()),
		New:  specs(lcs.NewValue()),
	}
	// A list held by a property is described through its container.
	if r, ok := lcs.Owner().(changeset.Referent); ok {
		for _, ref := range r.References().References() {
			if ref.Property == reference.Unspecified {
				continue
			}
			if id, ok := ref.Container.(changeset.Identified); ok {
				diff.Owner = id.ID()
				diff.Property = ref.Property
				return diff
			}
		}
	}
	if id, ok := lcs.Owner().(changeset.Identified); ok {
		diff.Owner = id.ID()
	}
	return diff
}

func specs(elements []changeset.Element) []any {
	result := make([]any, len(elements))
	for i, element := range elements {
		result[i] = changeset.ToSpec(element)
	}
	return result
}

// Commit applies every changeset to its owner: complex changesets first,
// then list changesets not applied through a complex property, then
// reference changesets. If any apply fails, everything applied so far is
// reverted and the transaction is rolled back. On success the changesets
// are frozen and the observers are notified; an observer error is returned
// but the commit stands.
func (t *Transaction) Commit(ctx context.Context) (Record, error) {
	if err := t.assertActive(); err != nil {
		return Record{}, errors.Trace(err)
	}
	if t.depth > 0 {
		return Record{}, errors.Annotatef(changeset.InvalidOperation,
			"transaction %s has %d open scopes", t.uuid, t.depth)
	}
	if t.poisoned {
		t.rollback()
		return Record{}, errors.Annotatef(TransactionPoisoned, "committing transaction %s", t.uuid)
	}
	if err := ctx.Err(); err != nil {
		return Record{}, errors.Trace(err)
	}

	diffs := t.Diffs()
	if err := t.apply(); err != nil {
		t.manager.failed(t, err)
		t.drop()
		t.state = RolledBack
		return Record{}, errors.Annotatef(err, "committing transaction %s", t.uuid)
	}

	for _, cs := range t.Changesets() {
		cs.Freeze()
	}
	t.state = Committed

	record := Record{
		UUID:      t.uuid,
		Version:   t.version,
		Started:   t.started,
		Committed: t.manager.config.Clock.Now(),
		Diffs:     diffs,
	}
	if err := t.manager.committed(ctx, t, record); err != nil {
		return record, errors.Trace(err)
	}
	return record, nil
}

func (t *Transaction) apply() error {
	var applied []changeset.Changeset
	for _, cs := range t.Changesets() {
		if cs.Applied() {
			continue
		}
		if err := cs.Apply(); err != nil {
			t.revert(applied)
			return errors.Trace(err)
		}
		applied = append(applied, cs)
	}
	return nil
}

func (t *Transaction) revert(applied []changeset.Changeset) {
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].Revert(); err != nil {
			t.manager.config.Logger.Warningf("reverting changeset of transaction %s: %v", t.uuid, err)
		}
	}
}

// Rollback drops every changeset of the transaction. The owners are left
// untouched.
func (t *Transaction) Rollback() error {
	if err := t.assertActive(); err != nil {
		return errors.Trace(err)
	}
	t.rollback()
	return nil
}

func (t *Transaction) rollback() {
	t.drop()
	t.state = RolledBack
	t.manager.rolledBack(t)
}

func (t *Transaction) drop() {
	t.complexes = nil
	t.lists = nil
	t.refs = nil
	clear(t.complexByOwner)
	clear(t.listByOwner)
	clear(t.refByOwner)
}

func (t *Transaction) assertActive() error {
	if t.state != Active {
		return errors.Annotatef(TransactionNotActive, "transaction %s is %s", t.uuid, t.state)
	}
	return nil
}
