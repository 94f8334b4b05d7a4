// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transaction

import (
	"time"

	"github.com/juju/changeset/core/changeset"
)

// Record describes a committed transaction.
type Record struct {
	// UUID identifies the transaction.
	UUID string

	// Version is the version number of the transaction.
	Version int64

	// Started and Committed are the times the transaction was begun and
	// committed.
	Started   time.Time
	Committed time.Time

	// Diffs describe every change the transaction applied.
	Diffs []changeset.Diff
}
