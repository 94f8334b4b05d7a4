// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package metrics

import (
	"strings"
	"time"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	gc "gopkg.in/check.v1"
)

type metricsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&metricsSuite{})

func (s *metricsSuite) TestRegister(c *gc.C) {
	registry := prometheus.NewPedanticRegistry()
	err := registry.Register(NewMetricsCollector())
	c.Assert(err, jc.ErrorIsNil)
}

func (s *metricsSuite) TestOutcomes(c *gc.C) {
	collector := NewMetricsCollector()

	collector.Committed(time.Millisecond, 3)
	collector.Committed(time.Second, 1)
	collector.RolledBack()
	collector.Failed()

	c.Check(testutil.ToFloat64(collector.finished.WithLabelValues(outcomeCommitted)), gc.Equals, float64(2))
	c.Check(testutil.ToFloat64(collector.finished.WithLabelValues(outcomeRolledBack)), gc.Equals, float64(1))
	c.Check(testutil.ToFloat64(collector.finished.WithLabelValues(outcomeFailed)), gc.Equals, float64(1))
	c.Check(testutil.CollectAndCount(collector, "changeset_transaction_changes"), gc.Equals, 1)
}

func (s *metricsSuite) TestFinishedExposition(c *gc.C) {
	collector := NewMetricsCollector()
	collector.RolledBack()
	collector.RolledBack()

	err := testutil.CollectAndCompare(collector, strings.NewReader(`
# HELP changeset_transaction_finished_total The number of finished transactions, by outcome.
# TYPE changeset_transaction_finished_total counter
changeset_transaction_finished_total{outcome="rolled_back"} 2
`), "changeset_transaction_finished_total")
	c.Assert(err, jc.ErrorIsNil)
}
