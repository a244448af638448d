// control/prometheus.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus export of pump metrics.

package control

import (
	"fmt"

	"github.com/momentics/jobnotify/api"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics mirrors every write into a MetricsRegistry and a set of
// Prometheus collectors. Integer counters become jobnotify_counter_total,
// numeric gauges jobnotify_gauge and string values jobnotify_info.
type PrometheusMetrics struct {
	*MetricsRegistry

	counters *prometheus.CounterVec
	gauges   *prometheus.GaugeVec
	info     *prometheus.GaugeVec
}

var _ api.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the collectors with reg. constLabels are attached
// to every series, typically the job name.
func NewPrometheusMetrics(reg prometheus.Registerer, constLabels prometheus.Labels) (*PrometheusMetrics, error) {
	pm := &PrometheusMetrics{
		MetricsRegistry: NewMetricsRegistry(),
		counters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "jobnotify",
			Name:        "counter_total",
			Help:        "Pump counters by name.",
			ConstLabels: constLabels,
		}, []string{"name"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "jobnotify",
			Name:        "gauge",
			Help:        "Numeric pump gauges by name.",
			ConstLabels: constLabels,
		}, []string{"name"}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "jobnotify",
			Name:        "info",
			Help:        "Current value of string-valued pump metrics.",
			ConstLabels: constLabels,
		}, []string{"name", "value"}),
	}
	for _, c := range []prometheus.Collector{pm.counters, pm.gauges, pm.info} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register pump metrics: %w", err)
		}
	}
	return pm, nil
}

// Add increments a counter.
func (pm *PrometheusMetrics) Add(key string, delta int64) {
	pm.MetricsRegistry.Add(key, delta)
	if delta > 0 {
		pm.counters.WithLabelValues(key).Add(float64(delta))
	}
}

// Set records a gauge or, for strings, the current info value.
func (pm *PrometheusMetrics) Set(key string, value any) {
	pm.MetricsRegistry.Set(key, value)
	switch v := value.(type) {
	case int:
		pm.gauges.WithLabelValues(key).Set(float64(v))
	case int64:
		pm.gauges.WithLabelValues(key).Set(float64(v))
	case float64:
		pm.gauges.WithLabelValues(key).Set(v)
	case bool:
		g := 0.0
		if v {
			g = 1
		}
		pm.gauges.WithLabelValues(key).Set(g)
	case string:
		pm.info.DeletePartialMatch(prometheus.Labels{"name": key})
		pm.info.WithLabelValues(key, v).Set(1)
	case fmt.Stringer:
		pm.info.DeletePartialMatch(prometheus.Labels{"name": key})
		pm.info.WithLabelValues(key, v.String()).Set(1)
	}
}
