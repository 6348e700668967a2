// Package metrics registers and exposes Prometheus instrumentation for
// the camp coordination API: HTTP traffic, heatmap assembly, inference
// calls to the hosted language models, websocket chat sessions and
// report exports.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "medcamp_"

	resultSuccess = "success"
	resultError   = "error"
	resultEmpty   = "empty"

	modelTranslation = "translation"
	modelChatbot     = "chatbot"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	heatmapRequests *prometheus.CounterVec
	heatmapLatency  *prometheus.HistogramVec

	inferenceCalls   *prometheus.CounterVec
	inferenceLatency *prometheus.HistogramVec

	wsSessions prometheus.Gauge
	wsMessages prometheus.Counter

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
)

// Init registers all collectors. Passing a non-nil pool also registers
// live connection pool gauges. Safe to call more than once.
func Init(pool *pgxpool.Pool) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		heatmapRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "heatmap_requests_total",
				Help: "Total heatmap assemblies by indicator source and result",
			},
			[]string{"source", "result"},
		)
		heatmapLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "heatmap_assembly_duration_seconds",
				Help:    "Heatmap assembly latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		inferenceCalls = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "inference_calls_total",
				Help: "Total hosted model calls by model and result",
			},
			[]string{"model", "result"},
		)
		inferenceLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "inference_duration_seconds",
				Help:    "Hosted model call latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"model", "result"},
		)

		wsSessions = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "ws_sessions",
				Help: "Currently open websocket chat sessions",
			},
		)
		wsMessages = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ws_messages_total",
				Help: "Total chat messages relayed over websockets",
			},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total camp report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_duration_seconds",
				Help:    "Camp report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			heatmapRequests,
			heatmapLatency,
			inferenceCalls,
			inferenceLatency,
			wsSessions,
			wsMessages,
			reportExportTotal,
			reportExportLatency,
		)

		if pool != nil {
			registerPoolMetrics(pool)
		}
	})
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveHeatmap records one heatmap assembly by indicator source and result.
func ObserveHeatmap(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if heatmapRequests != nil {
		heatmapRequests.WithLabelValues(source, result).Inc()
	}
	if heatmapLatency != nil {
		heatmapLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveInference records one hosted model call.
func ObserveInference(model, result string, duration time.Duration) {
	if model == "" {
		model = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if inferenceCalls != nil {
		inferenceCalls.WithLabelValues(model, result).Inc()
	}
	if inferenceLatency != nil {
		inferenceLatency.WithLabelValues(model, result).Observe(duration.Seconds())
	}
}

// IncWSSession increments the open websocket session gauge.
func IncWSSession() {
	if wsSessions != nil {
		wsSessions.Inc()
	}
}

// DecWSSession decrements the open websocket session gauge.
func DecWSSession() {
	if wsSessions != nil {
		wsSessions.Dec()
	}
}

// IncWSMessage counts one relayed chat message.
func IncWSMessage() {
	if wsMessages != nil {
		wsMessages.Inc()
	}
}

// ObserveReportExport records one camp report export.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultEmpty   = resultEmpty

	ModelTranslation = modelTranslation
	ModelChatbot     = modelChatbot
)
