// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"github.com/juju/changeset/internal/database"
)

// Schema returns the DDL of the change log.
func Schema() *database.Schema {
	return database.NewSchema(`
CREATE TABLE change_log_kind (
    id   INT PRIMARY KEY,
    kind TEXT NOT NULL
);

CREATE UNIQUE INDEX idx_change_log_kind_kind
ON change_log_kind (kind);

INSERT INTO change_log_kind VALUES
    (0, 'value'),
    (1, 'list');

CREATE TABLE change_log_transaction (
    uuid         TEXT PRIMARY KEY,
    version      INT NOT NULL,
    started_at   DATETIME NOT NULL,
    committed_at DATETIME NOT NULL
);

CREATE INDEX idx_change_log_transaction_committed_at
ON change_log_transaction (committed_at);

CREATE TABLE change_log_entry (
    transaction_uuid TEXT NOT NULL,
    seq              INT NOT NULL,
    owner            TEXT NOT NULL,
    property         TEXT NOT NULL,
    kind_id          INT NOT NULL,
    old_value        TEXT NOT NULL,
    new_value        TEXT NOT NULL,
    PRIMARY KEY (transaction_uuid, seq),
    CONSTRAINT       fk_change_log_entry_transaction
        FOREIGN KEY  (transaction_uuid)
        REFERENCES   change_log_transaction(uuid),
    CONSTRAINT       fk_change_log_entry_kind
        FOREIGN KEY  (kind_id)
        REFERENCES   change_log_kind(id)
);

CREATE INDEX idx_change_log_entry_owner
ON change_log_entry (owner);`)
}
