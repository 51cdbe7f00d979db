package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propgraph_import_rows_total",
			Help: "Total number of imported spreadsheet rows by outcome",
		},
		[]string{"collection", "outcome"},
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propgraph_import_duration_seconds",
			Help:    "Spreadsheet import duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"collection"},
	)

	CascadeDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propgraph_cascade_deletes_total",
			Help: "Total number of cascading deletes by root kind and result",
		},
		[]string{"root", "result"},
	)

	CascadeRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propgraph_cascade_removed_records_total",
			Help: "Total number of records removed by cascading deletes",
		},
		[]string{"collection"},
	)

	AssignmentChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propgraph_assignment_changes_total",
			Help: "Total number of customer assignment operations",
		},
		[]string{"kind", "operation"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propgraph_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result labels a success or failure outcome.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
