// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/schmidtw/sdlogger/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := New("testing")
	reg := prometheus.NewRegistry()
	require.NoError(m.Register(reg))

	// Registering twice is an error.
	assert.Error(m.Register(reg))

	m.Appended(record.Temperature, 9)
	m.Appended(record.Temperature, 9)
	m.Appended(record.Gyro, 17)
	m.SensorFailed(record.UVLight)
	m.Faulted()
	m.Ticked(0.25, 35)

	assert.Equal(2.0, testutil.ToFloat64(m.records.WithLabelValues("temp")))
	assert.Equal(1.0, testutil.ToFloat64(m.records.WithLabelValues("gyroscope")))
	assert.Equal(35.0, testutil.ToFloat64(m.bytes))
	assert.Equal(1.0, testutil.ToFloat64(m.sensorFailures.WithLabelValues("uv")))
	assert.Equal(1.0, testutil.ToFloat64(m.faults))
	assert.Equal(1.0, testutil.ToFloat64(m.ticks))
	assert.Equal(35.0, testutil.ToFloat64(m.offset))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Appended(record.Temperature, 9)
		m.SensorFailed(record.Temperature)
		m.Faulted()
		m.Ticked(1, 1)
	})
}
