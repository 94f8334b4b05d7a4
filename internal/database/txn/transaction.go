// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package txn runs database transactions, retrying the ones that fail with
// transient SQLite errors.
package txn

import (
	"context"
	"database/sql"
	"time"

	"github.com/canonical/sqlair"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
)

const (
	// DefaultTimeout is the default timeout for a single transaction
	// attempt.
	DefaultTimeout = time.Second * 30

	defaultRetryAttempts = 250
	defaultMinDelay      = time.Millisecond
	defaultMaxDelay      = time.Millisecond * 100
)

// Logger is the logging interface used by the runner.
type Logger interface {
	Tracef(message string, args ...any)
	Warningf(message string, args ...any)
}

// RetryStrategy calls fn until it succeeds, fails with a fatal error or the
// strategy gives up.
type RetryStrategy func(ctx context.Context, fn func() error) error

// Option configures a RetryingTxnRunner.
type Option func(*option)

type option struct {
	timeout       time.Duration
	logger        Logger
	retryStrategy RetryStrategy
}

func newOptions() *option {
	logger := noopLogger{}
	return &option{
		timeout:       DefaultTimeout,
		logger:        logger,
		retryStrategy: DefaultRetryStrategy(clock.WallClock, logger),
	}
}

// WithTimeout sets the timeout applied to each transaction attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(o *option) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger used by the runner.
func WithLogger(logger Logger) Option {
	return func(o *option) {
		o.logger = logger
	}
}

// WithRetryStrategy sets the strategy used to retry transactions.
func WithRetryStrategy(strategy RetryStrategy) Option {
	return func(o *option) {
		o.retryStrategy = strategy
	}
}

// RetryingTxnRunner runs transactions against a database, retrying
// transient failures.
type RetryingTxnRunner struct {
	timeout       time.Duration
	logger        Logger
	retryStrategy RetryStrategy
}

// NewRetryingTxnRunner returns a new RetryingTxnRunner.
func NewRetryingTxnRunner(opts ...Option) *RetryingTxnRunner {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &RetryingTxnRunner{
		timeout:       o.timeout,
		logger:        o.logger,
		retryStrategy: o.retryStrategy,
	}
}

// Txn runs fn in a sqlair transaction against db. The transaction is
// committed if fn returns no error and rolled back otherwise.
func (t *RetryingTxnRunner) Txn(ctx context.Context, db *sqlair.DB, fn func(context.Context, *sqlair.TX) error) error {
	return t.Retry(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}

		ctx, cancel := t.context(ctx)
		defer cancel()

		tx, err := db.Begin(ctx, nil)
		if err != nil {
			return errors.Trace(err)
		}

		if err := fn(ctx, tx); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				t.logger.Warningf("failed to rollback transaction: %v", rErr)
			}
			return errors.Trace(err)
		}

		return errors.Trace(tx.Commit())
	})
}

// StdTxn runs fn in a database/sql transaction against db. The transaction
// is committed if fn returns no error and rolled back otherwise.
func (t *RetryingTxnRunner) StdTxn(ctx context.Context, db *sql.DB, fn func(context.Context, *sql.Tx) error) error {
	return t.Retry(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}

		ctx, cancel := t.context(ctx)
		defer cancel()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Trace(err)
		}

		if err := fn(ctx, tx); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				t.logger.Warningf("failed to rollback transaction: %v", rErr)
			}
			return errors.Trace(err)
		}

		return errors.Trace(tx.Commit())
	})
}

// Retry calls fn using the runner's retry strategy.
func (t *RetryingTxnRunner) Retry(ctx context.Context, fn func() error) error {
	return t.retryStrategy(ctx, fn)
}

func (t *RetryingTxnRunner) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}

// DefaultRetryStrategy returns a strategy that retries errors for which
// IsErrRetryable is true, backing off exponentially between attempts.
func DefaultRetryStrategy(clock clock.Clock, logger Logger) RetryStrategy {
	return func(ctx context.Context, fn func() error) error {
		err := retry.Call(retry.CallArgs{
			Func: fn,
			IsFatalError: func(err error) bool {
				return !IsErrRetryable(err)
			},
			NotifyFunc: func(err error, attempt int) {
				logger.Tracef("retrying transaction, attempt %d: %v", attempt, err)
			},
			Attempts:    defaultRetryAttempts,
			Delay:       defaultMinDelay,
			BackoffFunc: retry.ExpBackoff(defaultMinDelay, defaultMaxDelay, 1.5, true),
			Clock:       clock,
			Stop:        ctx.Done(),
		})
		if retry.IsRetryStopped(err) {
			return retry.LastError(err)
		}
		return err
	}
}

type noopLogger struct{}

func (noopLogger) Tracef(string, ...any)   {}
func (noopLogger) Warningf(string, ...any) {}
