// Package metrics exposes Prometheus metrics for the enclave service on a
// dedicated listener, separate from the API server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the Prometheus registry over HTTP.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	// RequestsTotal counts verification requests by API call kind.
	RequestsTotal *prometheus.CounterVec

	// FailuresTotal counts verification failures by external status tag.
	FailuresTotal *prometheus.CounterVec

	// ChainQueryDuration observes chain oracle round-trip latency.
	ChainQueryDuration prometheus.Histogram
}

// New creates a metrics server for the given service name listening on addr.
func New(name string, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: name,
		Name:      "requests_total",
		Help:      "Number of key-share verification requests by call kind.",
	}, []string{"call"})

	failuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: name,
		Name:      "verification_failures_total",
		Help:      "Number of failed verifications by external status tag.",
	}, []string{"status"})

	chainQueryDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: name,
		Name:      "chain_query_duration_seconds",
		Help:      "Latency of chain oracle queries.",
		Buckets:   prometheus.DefBuckets,
	})

	registry.MustRegister(requestsTotal, failuresTotal, chainQueryDuration)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		registry: registry,
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		RequestsTotal:      requestsTotal,
		FailuresTotal:      failuresTotal,
		ChainQueryDuration: chainQueryDuration,
	}, nil
}

// Start serves the metrics endpoint until Shutdown is called.
func (m *MetricsServer) Start() error {
	if err := m.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
