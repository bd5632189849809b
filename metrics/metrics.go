// Package metrics registers the Prometheus collectors shared by the pipeline
// commands and the read API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "path", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"method", "path"},
)

var HTTPRequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
)

// Cache

var CacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recommendation_cache_hits_total",
		Help: "Total number of recommendation cache hits",
	},
	[]string{"key_prefix"},
)

var CacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recommendation_cache_misses_total",
		Help: "Total number of recommendation cache misses",
	},
	[]string{"key_prefix"},
)

// Pipeline

// RowsRead counts CSV rows read per source file.
var RowsRead = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_rows_read_total",
		Help: "Total number of CSV rows read",
	},
	[]string{"source"},
)

// RecordsFlagged counts records kept with an "N/A" name or price.
var RecordsFlagged = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "pipeline_records_flagged_total",
		Help: "Total number of records kept with a not-available name or price",
	},
)

var RowsLoaded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_rows_loaded_total",
		Help: "Total number of rows inserted by table",
	},
	[]string{"table"},
)

var RecommendationsWritten = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "pipeline_recommendations_written_total",
		Help: "Total number of price recommendations inserted",
	},
)

var ListingsScraped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scraper_listings_total",
		Help: "Total number of listings scraped",
	},
	[]string{"source"},
)

// RunDuration observes pipeline stage durations.
// Labels: stage (ingest, recommend, scrape), status (success, failed)
var RunDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Duration of pipeline runs in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	},
	[]string{"stage", "status"},
)
