package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reelstream",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	WorkerInFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "reelstream",
		Name:      "worker_in_flight",
		Help:      "Streaming requests currently held by each worker slot.",
	}, []string{"slot"})

	StreamBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "stream_bytes_total",
		Help:      "Total media bytes written to HTTP response bodies.",
	})

	StreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "stream_requests_total",
		Help:      "Streaming requests by outcome.",
	}, []string{"outcome"})

	ChunkRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "chunk_retries_total",
		Help:      "Total upstream GetFile retries.",
	})

	MediaSessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reelstream",
		Name:      "media_sessions_open",
		Help:      "Currently open per-data-center media sessions.",
	})

	IngestQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reelstream",
		Name:      "ingest_queue_depth",
		Help:      "Items waiting in the ingestion queue.",
	})

	IngestItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "ingest_items_total",
		Help:      "Ingestion items by terminal outcome.",
	}, []string{"outcome"})

	FloodWaitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "flood_waits_total",
		Help:      "Upstream rate-limit signals honored.",
	})

	CacheRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reelstream",
		Name:      "cache_refresh_duration_seconds",
		Help:      "Duration of catalog cache refreshes in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	CacheRefreshFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "cache_refresh_failures_total",
		Help:      "Catalog cache refreshes that failed or timed out.",
	})

	EnrichLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelstream",
		Name:      "enrich_lookups_total",
		Help:      "Metadata provider lookups by cache state.",
	}, []string{"cache"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		WorkerInFlight,
		StreamBytesTotal,
		StreamRequestsTotal,
		ChunkRetriesTotal,
		MediaSessionsOpen,
		IngestQueueDepth,
		IngestItemsTotal,
		FloodWaitsTotal,
		CacheRefreshDuration,
		CacheRefreshFailures,
		EnrichLookupsTotal,
	)
}
