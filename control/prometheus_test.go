package control_test

import (
	"strings"
	"testing"

	"github.com/momentics/jobnotify/control"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm, err := control.NewPrometheusMetrics(reg, prometheus.Labels{"job": "workers"})
	require.NoError(t, err)

	pm.Add("notifications.received", 2)
	pm.Add("notifications.received", 1)
	pm.Set("pump.state", "running")
	pm.Set("pump.state", "terminated")
	pm.Set("pump.registries", 4)

	assert.Equal(t, int64(3), pm.Counter("notifications.received"))
	assert.Equal(t, "terminated", pm.GetSnapshot()["pump.state"])

	expected := `
# HELP jobnotify_counter_total Pump counters by name.
# TYPE jobnotify_counter_total counter
jobnotify_counter_total{job="workers",name="notifications.received"} 3
# HELP jobnotify_gauge Numeric pump gauges by name.
# TYPE jobnotify_gauge gauge
jobnotify_gauge{job="workers",name="pump.registries"} 4
# HELP jobnotify_info Current value of string-valued pump metrics.
# TYPE jobnotify_info gauge
jobnotify_info{job="workers",name="pump.state",value="terminated"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"jobnotify_counter_total", "jobnotify_gauge", "jobnotify_info"))
}

func TestPrometheusMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := control.NewPrometheusMetrics(reg, nil)
	require.NoError(t, err)
	_, err = control.NewPrometheusMetrics(reg, nil)
	assert.Error(t, err)
}
