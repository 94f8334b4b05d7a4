// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package changelog keeps a persistent history of committed transactions.
package changelog

import "time"

// Transaction is a committed transaction as recorded in the change log.
type Transaction struct {
	UUID      string
	Version   int64
	Started   time.Time
	Committed time.Time
	Entries   []Entry
}

// Entry is a single property change of a recorded transaction. Old and New
// hold the YAML encoding of the property specifications.
type Entry struct {
	Owner    string
	Property string
	Kind     string
	Old      string
	New      string
}

// Filter selects transactions from the change log.
type Filter struct {
	// Owner, if set, selects the transactions that changed the value with
	// this identifier.
	Owner string

	// Limit, if positive, caps the number of transactions returned.
	Limit int
}
