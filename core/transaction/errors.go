// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transaction

import "github.com/juju/errors"

const (
	// TransactionNotActive describes an error that occurs when a
	// transaction that has been committed or rolled back is used.
	TransactionNotActive = errors.ConstError("transaction not active")

	// TransactionPoisoned describes an error that occurs when the outermost
	// scope of a transaction is accepted after an inner scope was rejected.
	TransactionPoisoned = errors.ConstError("transaction poisoned")
)
