// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"
	"time"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"

	"github.com/juju/changeset/domain"
	"github.com/juju/changeset/domain/changelog"
	changelogerrors "github.com/juju/changeset/domain/changelog/errors"
	"github.com/juju/changeset/internal/database"
	"github.com/juju/changeset/internal/database/txn"
)

// Logger is the logging interface used by the state.
type Logger interface {
	Debugf(message string, args ...any)
}

// State describes retrieval and persistence methods for the change log.
type State struct {
	*domain.StateBase
	logger Logger
}

// NewState returns a new state reference.
func NewState(factory database.TxnRunnerFactory, logger Logger) *State {
	return &State{
		StateBase: domain.NewStateBase(factory),
		logger:    logger,
	}
}

// InsertTransaction records a committed transaction and its entries.
// It returns AlreadyRecorded if a transaction with the same UUID is in the
// change log.
func (s *State) InsertTransaction(ctx context.Context, t changelog.Transaction) error {
	db, err := s.DB()
	if err != nil {
		return errors.Trace(err)
	}

	insertTxnStmt, err := s.Prepare(`
INSERT INTO change_log_transaction (uuid, version, started_at, committed_at)
VALUES ($dbTransaction.uuid, $dbTransaction.version, $dbTransaction.started_at, $dbTransaction.committed_at)`, dbTransaction{})
	if err != nil {
		return errors.Annotate(err, "preparing insert transaction statement")
	}

	insertEntryStmt, err := s.Prepare(`
INSERT INTO change_log_entry (transaction_uuid, seq, owner, property, kind_id, old_value, new_value)
SELECT $dbEntry.transaction_uuid, $dbEntry.seq, $dbEntry.owner, $dbEntry.property, k.id, $dbEntry.old_value, $dbEntry.new_value
FROM   change_log_kind k
WHERE  k.kind = $dbEntry.kind`, dbEntry{})
	if err != nil {
		return errors.Annotate(err, "preparing insert entry statement")
	}

	row := dbTransaction{
		UUID:        t.UUID,
		Version:     t.Version,
		StartedAt:   t.Started.UTC(),
		CommittedAt: t.Committed.UTC(),
	}

	return db.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		if err := tx.Query(ctx, insertTxnStmt, row).Run(); txn.IsErrConstraintUnique(err) {
			return errors.Annotatef(changelogerrors.AlreadyRecorded, "transaction %s", t.UUID)
		} else if err != nil {
			return errors.Annotatef(err, "inserting transaction %s", t.UUID)
		}

		for i, entry := range t.Entries {
			var outcome sqlair.Outcome
			err := tx.Query(ctx, insertEntryStmt, dbEntry{
				TransactionUUID: t.UUID,
				Seq:             i,
				Owner:           entry.Owner,
				Property:        entry.Property,
				Kind:            entry.Kind,
				OldValue:        entry.Old,
				NewValue:        entry.New,
			}).Get(&outcome)
			if err != nil {
				return errors.Annotatef(err, "inserting entry %d of transaction %s", i, t.UUID)
			}
			if n, err := outcome.Result().RowsAffected(); err != nil {
				return errors.Trace(err)
			} else if n != 1 {
				return errors.NotValidf("entry %d of transaction %s with kind %q", i, t.UUID, entry.Kind)
			}
		}
		return nil
	})
}

// Transactions returns the recorded transactions selected by filter, most
// recently committed first.
func (s *State) Transactions(ctx context.Context, filter changelog.Filter) ([]changelog.Transaction, error) {
	db, err := s.DB()
	if err != nil {
		return nil, errors.Trace(err)
	}

	q := `
SELECT &dbTransaction.*
FROM   change_log_transaction`
	if filter.Owner != "" {
		q += `
WHERE  uuid IN (
    SELECT transaction_uuid
    FROM   change_log_entry
    WHERE  owner = $dbFilter.owner
)`
	}
	q += `
ORDER BY committed_at DESC, version DESC
LIMIT $dbFilter.limit`

	stmt, err := s.Prepare(q, dbTransaction{}, dbFilter{})
	if err != nil {
		return nil, errors.Annotate(err, "preparing select transactions statement")
	}
	entriesStmt, err := s.prepareSelectEntries()
	if err != nil {
		return nil, errors.Trace(err)
	}

	// A negative limit is no limit in SQLite.
	args := dbFilter{Owner: filter.Owner, Limit: -1}
	if filter.Limit > 0 {
		args.Limit = filter.Limit
	}

	var result []changelog.Transaction
	err = db.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		result = nil

		var rows []dbTransaction
		err := tx.Query(ctx, stmt, args).GetAll(&rows)
		if errors.Is(err, sqlair.ErrNoRows) {
			return nil
		} else if err != nil {
			return errors.Trace(err)
		}

		for _, row := range rows {
			t, err := s.readEntries(ctx, tx, entriesStmt, row)
			if err != nil {
				return errors.Trace(err)
			}
			result = append(result, t)
		}
		return nil
	})
	return result, errors.Annotate(err, "reading change log")
}

// Transaction returns the recorded transaction with the given UUID. It
// returns NotFound if there is none.
func (s *State) Transaction(ctx context.Context, uuid string) (changelog.Transaction, error) {
	db, err := s.DB()
	if err != nil {
		return changelog.Transaction{}, errors.Trace(err)
	}

	stmt, err := s.Prepare(`
SELECT &dbTransaction.*
FROM   change_log_transaction
WHERE  uuid = $dbTransaction.uuid`, dbTransaction{})
	if err != nil {
		return changelog.Transaction{}, errors.Annotate(err, "preparing select transaction statement")
	}
	entriesStmt, err := s.prepareSelectEntries()
	if err != nil {
		return changelog.Transaction{}, errors.Trace(err)
	}

	var result changelog.Transaction
	err = db.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		row := dbTransaction{UUID: uuid}
		err := tx.Query(ctx, stmt, row).Get(&row)
		if errors.Is(err, sqlair.ErrNoRows) {
			return errors.Annotatef(changelogerrors.NotFound, "transaction %s", uuid)
		} else if err != nil {
			return errors.Trace(err)
		}

		result, err = s.readEntries(ctx, tx, entriesStmt, row)
		return errors.Trace(err)
	})
	return result, errors.Trace(err)
}

// DeleteCommittedBefore removes the transactions committed before cutoff,
// with their entries, and returns how many transactions were removed.
func (s *State) DeleteCommittedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := s.DB()
	if err != nil {
		return 0, errors.Trace(err)
	}

	deleteEntriesStmt, err := s.Prepare(`
DELETE FROM change_log_entry
WHERE  transaction_uuid IN (
    SELECT uuid
    FROM   change_log_transaction
    WHERE  committed_at < $dbCutoff.committed_at
)`, dbCutoff{})
	if err != nil {
		return 0, errors.Annotate(err, "preparing delete entries statement")
	}

	deleteTxnStmt, err := s.Prepare(`
DELETE FROM change_log_transaction
WHERE  committed_at < $dbCutoff.committed_at`, dbCutoff{})
	if err != nil {
		return 0, errors.Annotate(err, "preparing delete transactions statement")
	}

	arg := dbCutoff{CommittedAt: cutoff.UTC()}

	var deleted int64
	err = db.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		if err := tx.Query(ctx, deleteEntriesStmt, arg).Run(); err != nil {
			return errors.Annotate(err, "deleting entries")
		}

		var outcome sqlair.Outcome
		if err := tx.Query(ctx, deleteTxnStmt, arg).Get(&outcome); err != nil {
			return errors.Annotate(err, "deleting transactions")
		}
		n, err := outcome.Result().RowsAffected()
		if err != nil {
			return errors.Trace(err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, errors.Trace(err)
	}

	s.logger.Debugf("deleted %d transactions committed before %s", deleted, arg.CommittedAt)
	return deleted, nil
}

func (s *State) prepareSelectEntries() (*sqlair.Statement, error) {
	stmt, err := s.Prepare(`
SELECT (e.transaction_uuid, e.seq, e.owner, e.property, k.kind, e.old_value, e.new_value) AS (&dbEntry.*)
FROM   change_log_entry e
JOIN   change_log_kind k ON e.kind_id = k.id
WHERE  e.transaction_uuid = $dbTransaction.uuid
ORDER BY e.seq`, dbEntry{}, dbTransaction{})
	return stmt, errors.Annotate(err, "preparing select entries statement")
}

func (s *State) readEntries(
	ctx context.Context, tx *sqlair.TX, stmt *sqlair.Statement, row dbTransaction,
) (changelog.Transaction, error) {
	var entries []dbEntry
	err := tx.Query(ctx, stmt, row).GetAll(&entries)
	if err != nil && !errors.Is(err, sqlair.ErrNoRows) {
		return changelog.Transaction{}, errors.Annotatef(err, "reading entries of transaction %s", row.UUID)
	}

	result := changelog.Transaction{
		UUID:      row.UUID,
		Version:   row.Version,
		Started:   row.StartedAt,
		Committed: row.CommittedAt,
	}
	for _, e := range entries {
		result.Entries = append(result.Entries, changelog.Entry{
			Owner:    e.Owner,
			Property: e.Property,
			Kind:     e.Kind,
			Old:      e.OldValue,
			New:      e.NewValue,
		})
	}
	return result, nil
}
