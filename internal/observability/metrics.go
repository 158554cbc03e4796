package observability

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	orchestrator "github.com/yungbote/uniprot-graph/internal/jobs/orchestrator"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

const namespace = "uniprot_graph"

// Metrics implements neo4jdb.WriteObserver and orchestrator.StageObserver.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	writes       *prometheus.CounterVec
	writeLatency *prometheus.HistogramVec
	stages       *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	nodesCreated prometheus.Counter
	relsCreated  prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when
// METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized", "namespace", namespace)
		}
	})
	return instance
}

// NewMetrics registers a fresh set of collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_writes_total",
			Help:      "Graph write transactions by statement and status.",
		}, []string{"statement", "status"}),
		writeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_write_duration_seconds",
			Help:      "Graph write transaction latency by statement.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"statement"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_total",
			Help:      "Ingestion stages by name and final status.",
		}, []string{"stage", "status"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Ingestion stage latency by name.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome.",
		}, []string{"status"}),
		nodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Nodes created by ingestion runs.",
		}),
		relsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_created_total",
			Help:      "Relationships created by ingestion runs.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Ops HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Ops HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.reg.MustRegister(
		m.writes, m.writeLatency,
		m.stages, m.stageLatency,
		m.runs, m.nodesCreated, m.relsCreated,
		m.httpRequests, m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveWrite(statement, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(statement, status).Inc()
	m.writeLatency.WithLabelValues(statement).Observe(dur.Seconds())
}

func (m *Metrics) ObserveStage(name string, status orchestrator.StageStatus, dur time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(name, string(status)).Inc()
	if status != orchestrator.StageSkipped {
		m.stageLatency.WithLabelValues(name).Observe(dur.Seconds())
	}
}

// ObserveRun records one finished run; status is "succeeded" or "failed".
func (m *Metrics) ObserveRun(status string, nodesCreated, relationshipsCreated int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.nodesCreated.Add(float64(nodesCreated))
	m.relsCreated.Add(float64(relationshipsCreated))
}

func (m *Metrics) ObserveHTTP(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(route).Observe(dur.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}
