// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import "github.com/juju/errors"

type changesetBase struct {
	txn      Transaction
	version  int64
	readOnly bool
	applied  bool
}

func newChangesetBase(txn Transaction) changesetBase {
	return changesetBase{
		txn:     txn,
		version: txn.Version(),
	}
}

// TransactionVersion returns the version of the transaction the changeset
// was created under.
func (b *changesetBase) TransactionVersion() int64 {
	return b.version
}

// IsReadOnly returns true once the changeset has been frozen.
func (b *changesetBase) IsReadOnly() bool {
	return b.readOnly
}

// Applied returns true if the changeset has been applied to its owner.
func (b *changesetBase) Applied() bool {
	return b.applied
}

func (b *changesetBase) assertWritable() error {
	if b.readOnly {
		return errors.Annotate(InvalidOperation, "changeset is read-only")
	}
	return nil
}

func (b *changesetBase) assertNotApplied() error {
	if b.applied {
		return errors.Annotate(InvalidOperation, "changeset already applied")
	}
	return nil
}

func (b *changesetBase) assertApplied() error {
	if !b.applied {
		return errors.Annotate(InvalidOperation, "changeset not applied")
	}
	return nil
}
