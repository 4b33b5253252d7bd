// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts supply activity. A nil *Metrics records nothing, so
// suppliers built without WithMetrics pay no cost.
type Metrics struct {
	casesEmitted       prometheus.Counter
	casesStarved       prometheus.Counter
	casesRejected      prometheus.Counter
	shrinkAttempts     prometheus.Counter
	shrinkImprovements prometheus.Counter
	failures           prometheus.Counter
	shrinkDuration     prometheus.Histogram
}

// NewMetrics creates the supply metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		casesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trials_cases_emitted_total",
			Help: "Cases handed to a consumer during discovery",
		}),
		casesStarved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trials_cases_starved_total",
			Help: "Generation attempts that yielded no case: filtered, impossible, too complex or duplicate",
		}),
		casesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trials_cases_rejected_total",
			Help: "Emitted cases the consumer filtered out inline",
		}),
		shrinkAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trials_shrink_attempts_total",
			Help: "Consumer invocations spent on shrinkage candidates",
		}),
		shrinkImprovements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trials_shrink_improvements_total",
			Help: "Shrinkage candidates that still failed and became the current best",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trials_failures_total",
			Help: "Supply calls that ended in a trial failure",
		}),
		shrinkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trials_shrink_duration_seconds",
			Help:    "Wall-clock time of complete shrinkage searches",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
		}),
	}
	for _, c := range []prometheus.Collector{
		m.casesEmitted, m.casesStarved, m.casesRejected,
		m.shrinkAttempts, m.shrinkImprovements, m.failures, m.shrinkDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) emitted() {
	if m != nil {
		m.casesEmitted.Inc()
	}
}

func (m *Metrics) starved() {
	if m != nil {
		m.casesStarved.Inc()
	}
}

func (m *Metrics) rejected() {
	if m != nil {
		m.casesRejected.Inc()
	}
}

func (m *Metrics) shrinkAttempted() {
	if m != nil {
		m.shrinkAttempts.Inc()
	}
}

func (m *Metrics) shrinkImproved() {
	if m != nil {
		m.shrinkImprovements.Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) shrinkTook(d time.Duration) {
	if m != nil {
		m.shrinkDuration.Observe(d.Seconds())
	}
}
