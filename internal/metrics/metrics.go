// Package metrics holds the Prometheus instruments shared by the resource
// engine and the HTTP entry point.  All collectors are registered with the
// global registry, so mounting promhttp.Handler() on /metrics exposes them.
//
// The `resource` label is the resource's create path (“/{bundle}/article”),
// so two resources sharing a singular name under different prefixes stay
// apart.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts handled requests per resource, verb, and status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutshell",
			Name:      "resource_requests_total",
			Help:      "Requests answered by generated resource handlers.",
		}, []string{"resource", "verb", "code"})

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nutshell",
			Name:      "resource_request_duration_seconds",
			Help:      "Latency of generated resource handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "verb"})

	// Routes tracks registered routes per resource, split into enabled and
	// forbidden slots.
	Routes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nutshell",
			Name:      "resource_routes",
			Help:      "Routes registered per resource.",
		}, []string{"resource", "state"})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		Routes,
	)
}
