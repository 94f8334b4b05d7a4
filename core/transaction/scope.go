// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transaction

import (
	"context"

	"github.com/juju/errors"

	"github.com/juju/changeset/core/changeset"
)

// Scope is one level of nesting within a transaction. Only the outermost
// scope commits; rejecting any scope poisons the transaction so that the
// outermost accept fails.
//
//	scope, err := txn.Enter()
//	if err != nil {
//		return errors.Trace(err)
//	}
//	defer scope.Exit()
//	...
//	_, err = scope.Accept(ctx)
type Scope struct {
	txn  *Transaction
	done bool
}

// Enter opens a new scope on the transaction.
func (t *Transaction) Enter() (*Scope, error) {
	if err := t.assertActive(); err != nil {
		return nil, errors.Trace(err)
	}
	t.depth++
	return &Scope{txn: t}, nil
}

// Transaction returns the transaction the scope belongs to.
func (s *Scope) Transaction() *Transaction {
	return s.txn
}

// Accept closes the scope. Closing the outermost scope commits the
// transaction, or rolls it back and returns an error satisfying
// TransactionPoisoned if an inner scope was rejected. Inner scopes return
// an empty record.
func (s *Scope) Accept(ctx context.Context) (Record, error) {
	if err := s.close(); err != nil {
		return Record{}, errors.Trace(err)
	}
	if s.txn.depth > 0 {
		return Record{}, nil
	}
	record, err := s.txn.Commit(ctx)
	return record, errors.Trace(err)
}

// Reject closes the scope and poisons the transaction. Rejecting the
// outermost scope rolls the transaction back.
func (s *Scope) Reject() error {
	if err := s.close(); err != nil {
		return errors.Trace(err)
	}
	s.txn.poisoned = true
	if s.txn.depth > 0 {
		return nil
	}
	return errors.Trace(s.txn.Rollback())
}

// Exit rejects the scope unless it has already been closed.
func (s *Scope) Exit() error {
	if s.done {
		return nil
	}
	return errors.Trace(s.Reject())
}

func (s *Scope) close() error {
	if s.done {
		return errors.Annotate(changeset.InvalidOperation, "scope already closed")
	}
	if err := s.txn.assertActive(); err != nil {
		return errors.Trace(err)
	}
	s.done = true
	s.txn.depth--
	return nil
}
