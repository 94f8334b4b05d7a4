// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package domain holds the pieces shared by every domain's state layer.
package domain

import (
	"sync"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"

	"github.com/juju/changeset/internal/database"
)

// StateBase defines a base struct for requesting a database. It caches
// prepared statements, keyed by query.
type StateBase struct {
	getDB database.TxnRunnerFactory

	stmtMutex  sync.RWMutex
	statements map[string]*sqlair.Statement
}

// NewStateBase returns a new StateBase.
func NewStateBase(getDB database.TxnRunnerFactory) *StateBase {
	return &StateBase{
		getDB:      getDB,
		statements: make(map[string]*sqlair.Statement),
	}
}

// DB returns the database for a given namespace.
func (st *StateBase) DB() (database.TxnRunner, error) {
	if st.getDB == nil {
		return nil, errors.New("nil getDB")
	}
	db, err := st.getDB()
	return db, errors.Trace(err)
}

// Prepare prepares a sqlair query. If the query has been prepared
// previously it is retrieved from the statement cache.
//
// Note that because the type samples are not considered when retrieving
// a query from the cache, it is an error to prepare two identical queries
// with different type samples in a single state struct.
func (st *StateBase) Prepare(query string, typeSamples ...any) (*sqlair.Statement, error) {
	st.stmtMutex.RLock()
	if s, ok := st.statements[query]; ok {
		st.stmtMutex.RUnlock()
		return s, nil
	}
	st.stmtMutex.RUnlock()

	st.stmtMutex.Lock()
	defer st.stmtMutex.Unlock()

	if s, ok := st.statements[query]; ok {
		return s, nil
	}

	s, err := sqlair.Prepare(query, typeSamples...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	st.statements[query] = s
	return s, nil
}
