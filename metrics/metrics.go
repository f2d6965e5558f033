// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schmidtw/sdlogger/record"
)

// Metrics are the collectors updated by the sampling driver.  A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	records        *prometheus.CounterVec
	bytes          prometheus.Counter
	sensorFailures *prometheus.CounterVec
	faults         prometheus.Counter
	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	offset         prometheus.Gauge
}

// New creates the collectors.  They are not registered.
func New(namespace string) *Metrics {
	return &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "log",
			Name:      "records_total",
			Help:      "Records appended to the log file by sensor kind.",
		}, []string{"kind"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "log",
			Name:      "bytes_total",
			Help:      "Bytes appended to the log file.",
		}),
		sensorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "read_failures_total",
			Help:      "Sensor reads that failed and were skipped by sensor kind.",
		}, []string{"kind"}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "log",
			Name:      "session_faults_total",
			Help:      "Appends that faulted the log session.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "ticks_total",
			Help:      "Sampling ticks completed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "tick_duration_seconds",
			Help:      "Time spent sampling, encoding and appending during a tick.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		offset: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "log",
			Name:      "offset_bytes",
			Help:      "Current size of the log file in bytes.",
		}),
	}
}

// Register adds every collector to the registerer.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.records, m.bytes, m.sensorFailures, m.faults, m.ticks, m.tickDuration, m.offset,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Appended records a successful append of n bytes.
func (m *Metrics) Appended(k record.Kind, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(k.Label()).Inc()
	m.bytes.Add(float64(n))
}

// SensorFailed records a skipped sensor read.
func (m *Metrics) SensorFailed(k record.Kind) {
	if m == nil {
		return
	}
	m.sensorFailures.WithLabelValues(k.Label()).Inc()
}

// Faulted records a failed append.
func (m *Metrics) Faulted() {
	if m == nil {
		return
	}
	m.faults.Inc()
}

// Ticked records a completed tick.
func (m *Metrics) Ticked(seconds float64, offset int64) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(seconds)
	m.offset.Set(float64(offset))
}
