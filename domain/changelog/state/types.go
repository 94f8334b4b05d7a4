// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import "time"

type dbTransaction struct {
	UUID        string    `db:"uuid"`
	Version     int64     `db:"version"`
	StartedAt   time.Time `db:"started_at"`
	CommittedAt time.Time `db:"committed_at"`
}

type dbEntry struct {
	TransactionUUID string `db:"transaction_uuid"`
	Seq             int    `db:"seq"`
	Owner           string `db:"owner"`
	Property        string `db:"property"`
	Kind            string `db:"kind"`
	OldValue        string `db:"old_value"`
	NewValue        string `db:"new_value"`
}

type dbFilter struct {
	Owner string `db:"owner"`
	Limit int    `db:"limit"`
}

type dbCutoff struct {
	CommittedAt time.Time `db:"committed_at"`
}
