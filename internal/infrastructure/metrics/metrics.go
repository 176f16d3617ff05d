package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "energysensors"

// Ingestion sources.
const (
	SourceHTTP = "http"
	SourceJSON = "json"
	SourceMQTT = "mqtt"
)

// Ingestion results.
const (
	ResultStored       = "stored"
	ResultParseError   = "parse_error"
	ResultMappingError = "mapping_error"
	ResultStorageError = "storage_error"
)

// Clustering run results.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Registry owns a private Prometheus registry and the collectors the
// service reports through.
//
// All observe methods tolerate a nil *Registry so components can run
// without metrics in tests.
type Registry struct {
	reg *prometheus.Registry

	parses          *prometheus.CounterVec
	ingested        *prometheus.CounterVec
	ingestDuration  *prometheus.HistogramVec
	clusterRuns     *prometheus.CounterVec
	clusterDuration prometheus.Histogram
	clusters        prometheus.Gauge
	orphans         prometheus.Gauge
	wsClients       prometheus.Gauge
	mqttConnected   prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New builds a Registry with the service collectors plus the Go runtime
// and process collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "parses_total",
			Help:      "Telegrams parsed, by outcome (ok, error).",
		}, []string{"outcome"}),

		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Ingestion attempts by source and result.",
		}, []string{"source", "result"}),

		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Time from raw input to stored event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		clusterRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "runs_total",
			Help:      "Clustering runs by result.",
		}, []string{"result"}),

		clusterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "duration_seconds",
			Help:      "Duration of clustering runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),

		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "clusters",
			Help:      "Clusters found by the last successful run.",
		}),

		orphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "orphans",
			Help:      "Events left unassigned by the last successful run.",
		}),

		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Connected live-feed clients.",
		}),

		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mqtt",
			Name:      "connected",
			Help:      "MQTT connection state (0=disconnected, 1=connected).",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.reg.MustRegister(
		r.parses,
		r.ingested,
		r.ingestDuration,
		r.clusterRuns,
		r.clusterDuration,
		r.clusters,
		r.orphans,
		r.wsClients,
		r.mqttConnected,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveParse counts one parse attempt.
func (r *Registry) ObserveParse(err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.parses.WithLabelValues(outcome).Inc()
}

// ObserveIngest counts one ingestion attempt and, when it stored an
// event, records how long it took.
func (r *Registry) ObserveIngest(source, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ingested.WithLabelValues(source, result).Inc()
	if result == ResultStored {
		r.ingestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	}
}

// ObserveClusterRun records a finished clustering run. clusters and
// orphans are only applied on success.
func (r *Registry) ObserveClusterRun(err error, elapsed time.Duration, clusters, orphans int) {
	if r == nil {
		return
	}
	if err != nil {
		r.clusterRuns.WithLabelValues(RunFailed).Inc()
		return
	}
	r.clusterRuns.WithLabelValues(RunSucceeded).Inc()
	r.clusterDuration.Observe(elapsed.Seconds())
	r.clusters.Set(float64(clusters))
	r.orphans.Set(float64(orphans))
}

// SetWebSocketClients reports the live-feed client count.
func (r *Registry) SetWebSocketClients(n int) {
	if r == nil {
		return
	}
	r.wsClients.Set(float64(n))
}

// SetMQTTConnected reports the broker connection state.
func (r *Registry) SetMQTTConnected(connected bool) {
	if r == nil {
		return
	}
	if connected {
		r.mqttConnected.Set(1)
		return
	}
	r.mqttConnected.Set(0)
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}
