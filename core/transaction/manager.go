// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package transaction groups changesets of many values so that they can be
// committed, or rolled back, together.
package transaction

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
	Infof(message string, args ...any)
	Warningf(message string, args ...any)
}

// Metrics receives the outcome of every finished transaction.
type Metrics interface {
	// Committed is called once a transaction has been committed, with the
	// time it was open for and the number of changes it recorded.
	Committed(duration time.Duration, changes int)

	// RolledBack is called once a transaction has been rolled back.
	RolledBack()

	// Failed is called when applying a transaction failed and its changes
	// were reverted.
	Failed()
}

// Observer is told about every committed transaction.
type Observer interface {
	// Committed is called with the record of a committed transaction.
	// An error does not undo the commit.
	Committed(ctx context.Context, record Record) error
}

// Config holds the dependencies of a Manager.
type Config struct {
	// Clock stamps transactions.
	Clock clock.Clock

	// Logger logs transaction outcomes.
	Logger Logger

	// Metrics is optional.
	Metrics Metrics

	// Observers are notified, in order, of committed transactions.
	Observers []Observer
}

// Validate returns an error if the config cannot be used to create a
// Manager.
func (config Config) Validate() error {
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	for i, observer := range config.Observers {
		if observer == nil {
			return errors.NotValidf("nil Observer at index %d", i)
		}
	}
	return nil
}

// Manager begins transactions. Each transaction gets the next version
// number; versions are unique per manager.
type Manager struct {
	config  Config
	version atomic.Int64
}

// NewManager returns a manager with the given config.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Manager{config: config}, nil
}

// Begin starts a new active transaction.
func (m *Manager) Begin() *Transaction {
	txn := newTransaction(m, uuid.NewString(), m.version.Add(1), m.config.Clock.Now())
	m.config.Logger.Debugf("began transaction %s (version %d)", txn.uuid, txn.version)
	return txn
}

// LastVersion returns the version of the most recently begun transaction.
func (m *Manager) LastVersion() int64 {
	return m.version.Load()
}

func (m *Manager) committed(ctx context.Context, txn *Transaction, record Record) error {
	if m.config.Metrics != nil {
		m.config.Metrics.Committed(record.Committed.Sub(record.Started), len(record.Diffs))
	}
	m.config.Logger.Infof("committed transaction %s (version %d) with %d changes",
		record.UUID, record.Version, len(record.Diffs))

	for _, observer := range m.config.Observers {
		if err := observer.Committed(ctx, record); err != nil {
			return errors.Annotatef(err, "notifying observer of transaction %s", txn.uuid)
		}
	}
	return nil
}

func (m *Manager) rolledBack(txn *Transaction) {
	if m.config.Metrics != nil {
		m.config.Metrics.RolledBack()
	}
	m.config.Logger.Debugf("rolled back transaction %s", txn.uuid)
}

func (m *Manager) failed(txn *Transaction, err error) {
	if m.config.Metrics != nil {
		m.config.Metrics.Failed()
	}
	m.config.Logger.Warningf("transaction %s failed: %v", txn.uuid, err)
}
