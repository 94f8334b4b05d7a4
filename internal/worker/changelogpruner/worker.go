// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package changelogpruner provides a worker that periodically removes old
// transactions from the change log.
package changelogpruner

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"
)

const (
	// DefaultMinInterval is the default minimum interval at which the
	// pruner runs.
	DefaultMinInterval = time.Minute

	// DefaultMaxInterval is the default maximum interval at which the
	// pruner runs.
	DefaultMaxInterval = time.Minute * 30
)

// ChangeLogService removes old transactions from the change log.
type ChangeLogService interface {
	// Prune removes the transactions committed more than maxAge ago and
	// returns how many were removed.
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
	Infof(message string, args ...any)
}

// Config holds configuration required to run the pruner worker.
type Config struct {
	// ChangeLogService prunes the change log.
	ChangeLogService ChangeLogService

	// MaxAge is the age after which a transaction is pruned.
	MaxAge time.Duration

	// MinInterval and MaxInterval bound the time between two prunes. The
	// interval grows from MinInterval while there is nothing to prune.
	// Zero values are replaced with the defaults.
	MinInterval time.Duration
	MaxInterval time.Duration

	// Clock is used by the worker to create timers.
	Clock clock.Clock

	// Logger logs stuff.
	Logger Logger
}

// Validate ensures that the configuration is correctly populated for
// worker operation.
func (config Config) Validate() error {
	if config.ChangeLogService == nil {
		return errors.NotValidf("nil ChangeLogService")
	}
	if config.MaxAge <= 0 {
		return errors.NotValidf("non-positive MaxAge")
	}
	if config.MinInterval < 0 {
		return errors.NotValidf("negative MinInterval")
	}
	if config.MaxInterval < 0 {
		return errors.NotValidf("negative MaxInterval")
	}
	if config.MinInterval > 0 && config.MaxInterval > 0 && config.MinInterval > config.MaxInterval {
		return errors.NotValidf("MinInterval greater than MaxInterval")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

type pruner struct {
	catacomb catacomb.Catacomb

	cfg     Config
	backOff func(time.Duration, int) time.Duration
}

// NewWorker starts a new pruner worker based on the input configuration and
// returns it.
func NewWorker(cfg Config) (worker.Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = max(DefaultMaxInterval, cfg.MinInterval)
	}

	w := &pruner{
		cfg:     cfg,
		backOff: retry.ExpBackoff(cfg.MinInterval, cfg.MaxInterval, 1.5, false),
	}

	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}

	return w, nil
}

// Kill (worker.Worker) tells the worker to stop and return from its loop.
func (w *pruner) Kill() {
	w.catacomb.Kill(nil)
}

// Wait (worker.Worker) waits for the worker to stop, and returns the error
// with which it exited.
func (w *pruner) Wait() error {
	return w.catacomb.Wait()
}

func (w *pruner) loop() error {
	ctx := w.catacomb.Context(context.Background())

	timer := w.cfg.Clock.NewTimer(w.cfg.MinInterval)
	defer timer.Stop()

	var attempts int
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()

		case <-timer.Chan():
			// Any error kills the worker, which forces a restart.
			pruned, err := w.cfg.ChangeLogService.Prune(ctx, w.cfg.MaxAge)
			if err != nil {
				return errors.Trace(err)
			}

			// Back off while there is nothing to prune.
			if pruned == 0 {
				attempts++
			} else {
				attempts = 0
			}

			next := w.backOff(0, attempts)
			w.cfg.Logger.Debugf("pruned %d transactions, next prune in %v", pruned, next)
			timer.Reset(next)
		}
	}
}
