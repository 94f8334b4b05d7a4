// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package metrics exposes the outcome of transactions to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/changeset/core/transaction"
)

const metricsNamespace = "changeset_transaction"

const (
	outcomeLabel = "outcome"

	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
	outcomeFailed     = "failed"
)

// Collector is a prometheus.Collector that collects metrics about
// transactions. It implements transaction.Metrics.
type Collector struct {
	finished *prometheus.CounterVec
	duration prometheus.Histogram
	changes  prometheus.Histogram
}

var (
	_ prometheus.Collector = (*Collector)(nil)
	_ transaction.Metrics  = (*Collector)(nil)
)

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "finished_total",
				Help:      "The number of finished transactions, by outcome.",
			}, []string{outcomeLabel},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "duration_seconds",
				Help:      "The time committed transactions were open for.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		changes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "changes",
				Help:      "The number of changes applied by committed transactions.",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
		),
	}
}

// Committed is part of the transaction.Metrics interface.
func (c *Collector) Committed(duration time.Duration, changes int) {
	c.finished.WithLabelValues(outcomeCommitted).Inc()
	c.duration.Observe(duration.Seconds())
	c.changes.Observe(float64(changes))
}

// RolledBack is part of the transaction.Metrics interface.
func (c *Collector) RolledBack() {
	c.finished.WithLabelValues(outcomeRolledBack).Inc()
}

// Failed is part of the transaction.Metrics interface.
func (c *Collector) Failed() {
	c.finished.WithLabelValues(outcomeFailed).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.finished.Describe(ch)
	c.duration.Describe(ch)
	c.changes.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.finished.Collect(ch)
	c.duration.Collect(ch)
	c.changes.Collect(ch)
}
