package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_prediction_runs_total",
		Help: "Prediction generation runs by result status.",
	}, []string{"status"})

	PredictionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traffic_predictions_generated_total",
		Help: "Hourly predictions written by generation runs.",
	})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_prediction_generation_duration_seconds",
		Help:    "Duration of prediction generation runs.",
		Buckets: prometheus.DefBuckets,
	})

	PredictionsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traffic_prediction_events_published_total",
		Help: "Regeneration events published to redis.",
	})

	GroupingOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_grouping_outcomes_total",
		Help: "Video grouping outcomes by status.",
	}, []string{"status"})

	AnalysesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_analyses_ingested_total",
		Help: "Detection results ingested by source and result.",
	}, []string{"source", "result"})

	InsightsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_insights_cache_total",
		Help: "Insights cache lookups by result.",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traffic_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
