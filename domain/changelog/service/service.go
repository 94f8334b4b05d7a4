// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/juju/changeset/core/transaction"
	"github.com/juju/changeset/domain/changelog"
)

// State describes retrieval and persistence methods for the change log.
type State interface {
	// InsertTransaction records a committed transaction and its entries.
	InsertTransaction(context.Context, changelog.Transaction) error

	// Transactions returns the recorded transactions selected by the
	// filter, most recently committed first.
	Transactions(context.Context, changelog.Filter) ([]changelog.Transaction, error)

	// Transaction returns the recorded transaction with the given UUID.
	Transaction(context.Context, string) (changelog.Transaction, error)

	// DeleteCommittedBefore removes the transactions committed before the
	// given time and returns how many were removed.
	DeleteCommittedBefore(context.Context, time.Time) (int64, error)
}

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
	Infof(message string, args ...any)
}

// Service provides the API for working with the change log.
type Service struct {
	st     State
	clock  clock.Clock
	logger Logger
}

var _ transaction.Observer = (*Service)(nil)

// NewService returns a new Service.
func NewService(st State, clock clock.Clock, logger Logger) *Service {
	return &Service{
		st:     st,
		clock:  clock,
		logger: logger,
	}
}

// Committed records a committed transaction in the change log. It is part
// of the transaction.Observer interface. Transactions without changes are
// not recorded.
func (s *Service) Committed(ctx context.Context, record transaction.Record) error {
	if len(record.Diffs) == 0 {
		s.logger.Debugf("transaction %s has no changes, not recording", record.UUID)
		return nil
	}

	t := changelog.Transaction{
		UUID:      record.UUID,
		Version:   record.Version,
		Started:   record.Started,
		Committed: record.Committed,
		Entries:   make([]changelog.Entry, len(record.Diffs)),
	}
	for i, diff := range record.Diffs {
		oldValue, err := EncodeValue(diff.Old)
		if err != nil {
			return errors.Annotatef(err, "encoding old value of %q", diff.Property)
		}
		newValue, err := EncodeValue(diff.New)
		if err != nil {
			return errors.Annotatef(err, "encoding new value of %q", diff.Property)
		}
		t.Entries[i] = changelog.Entry{
			Owner:    diff.Owner,
			Property: diff.Property,
			Kind:     diff.Kind.String(),
			Old:      oldValue,
			New:      newValue,
		}
	}

	if err := s.st.InsertTransaction(ctx, t); err != nil {
		return errors.Annotatef(err, "recording transaction %s", record.UUID)
	}
	return nil
}

// History returns the recorded transactions selected by filter, most
// recently committed first.
func (s *Service) History(ctx context.Context, filter changelog.Filter) ([]changelog.Transaction, error) {
	if filter.Limit < 0 {
		return nil, errors.NotValidf("negative limit %d", filter.Limit)
	}
	result, err := s.st.Transactions(ctx, filter)
	return result, errors.Trace(err)
}

// Transaction returns the recorded transaction with the given UUID.
func (s *Service) Transaction(ctx context.Context, id string) (changelog.Transaction, error) {
	if err := uuid.Validate(id); err != nil {
		return changelog.Transaction{}, errors.NotValidf("transaction UUID %q", id)
	}
	result, err := s.st.Transaction(ctx, id)
	return result, errors.Trace(err)
}

// Prune removes the transactions committed more than maxAge ago and
// returns how many were removed.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, errors.NotValidf("max age %v", maxAge)
	}

	cutoff := s.clock.Now().Add(-maxAge)
	deleted, err := s.st.DeleteCommittedBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Annotate(err, "pruning change log")
	}
	if deleted > 0 {
		s.logger.Infof("pruned %d transactions committed before %s", deleted, cutoff)
	}
	return deleted, nil
}

// EncodeValue returns the single line YAML encoding of a property
// specification.
func EncodeValue(v any) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", errors.Trace(err)
	}
	flow(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return "", errors.Trace(err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

func flow(node *yaml.Node) {
	node.Style |= yaml.FlowStyle
	for _, child := range node.Content {
		flow(child)
	}
}
