package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "poise_sessions_active",
			Help: "Current number of active analysis sessions",
		},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_sessions_started_total",
			Help: "Total number of sessions started",
		},
		[]string{"status"}, // status: success|rejected
	)

	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poise_session_duration_seconds",
			Help:    "Completed session length in seconds",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		},
	)

	// Analysis pass metrics
	AnalysisPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_analysis_passes_total",
			Help: "Total number of analysis passes",
		},
		[]string{"status"}, // status: success|partial|error
	)

	AnalysisPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poise_analysis_pass_duration_seconds",
			Help:    "Wall-clock duration of a full four-modality pass",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	ModalityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poise_modality_duration_seconds",
			Help:    "Per-modality scoring duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"modality"},
	)

	ModalityResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_modality_results_total",
			Help: "Per-modality result counts by variant",
		},
		[]string{"modality", "status"}, // status: success|not_detected|calibrating|error
	)

	// Provider metrics
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_provider_calls_total",
			Help: "Total perception provider calls",
		},
		[]string{"provider", "status"}, // status: success|not_detected|error|timeout
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poise_provider_latency_seconds",
			Help:    "Perception provider call latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	// Event metrics
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_events_published_total",
			Help: "Total session events published to Kafka",
		},
		[]string{"topic", "status"}, // status: success|error|throttled
	)

	// Sink metrics
	SinkWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_sink_writes_total",
			Help: "Total writes to report and frame sinks",
		},
		[]string{"sink", "status"}, // sink: redis|clickhouse
	)

	SinkWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poise_sink_write_duration_seconds",
			Help:    "Sink write duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"sink"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poise_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poise_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poise_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Transport metrics
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "poise_websocket_connections",
			Help: "Current number of client WebSocket connections",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Session metrics
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionDuration)

	// Analysis pass metrics
	prometheus.MustRegister(AnalysisPasses)
	prometheus.MustRegister(AnalysisPassDuration)
	prometheus.MustRegister(ModalityDuration)
	prometheus.MustRegister(ModalityResults)

	// Provider metrics
	prometheus.MustRegister(ProviderCalls)
	prometheus.MustRegister(ProviderLatency)

	// Event metrics
	prometheus.MustRegister(EventsPublished)

	// Sink metrics
	prometheus.MustRegister(SinkWrites)
	prometheus.MustRegister(SinkWriteDuration)

	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Transport metrics
	prometheus.MustRegister(WebSocketConnections)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAnalysisPass records one completed four-modality pass
func RecordAnalysisPass(duration time.Duration, modalityErrors int) {
	status := "success"
	switch {
	case modalityErrors >= 4:
		status = "error"
	case modalityErrors > 0:
		status = "partial"
	}

	AnalysisPasses.WithLabelValues(status).Inc()
	AnalysisPassDuration.Observe(duration.Seconds())
}

// RecordModalityResult records one modality's outcome within a pass
func RecordModalityResult(modality, status string, duration time.Duration) {
	ModalityResults.WithLabelValues(modality, status).Inc()
	ModalityDuration.WithLabelValues(modality).Observe(duration.Seconds())
}

// RecordProviderCall records a perception provider call
func RecordProviderCall(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ProviderCalls.WithLabelValues(provider, status).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordSinkWrite records a write to a downstream sink
func RecordSinkWrite(sink string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	SinkWrites.WithLabelValues(sink, status).Inc()
	SinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}
