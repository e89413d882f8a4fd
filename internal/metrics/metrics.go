// Package metrics provides Prometheus metrics for the NSILI bridge
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nainya/nsilibridge/pkg/catalog"
)

// Metrics holds all Prometheus metrics for the bridge
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Catalog metrics
	CatalogQueriesTotal  *prometheus.CounterVec
	CatalogQueryDuration prometheus.Histogram

	// Conversion metrics
	DagsConvertedTotal      prometheus.Counter
	ConversionFailuresTotal prometheus.Counter

	// Standing query metrics
	StandingQueriesActive      prometheus.Gauge
	StandingQueryPollsTotal    *prometheus.CounterVec
	CallbackNotificationsTotal *prometheus.CounterVec

	ServerStartTime time.Time
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsilibridge_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nsilibridge_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsilibridge_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	m.CatalogQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsilibridge_catalog_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"status"},
	)

	m.CatalogQueryDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nsilibridge_catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	m.DagsConvertedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "nsilibridge_dags_converted_total",
			Help: "Total number of records converted to DAGs",
		},
	)

	m.ConversionFailuresTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "nsilibridge_conversion_failures_total",
			Help: "Total number of records dropped during conversion",
		},
	)

	m.StandingQueriesActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsilibridge_standing_queries_active",
			Help: "Number of standing queries with a running poll loop",
		},
	)

	m.StandingQueryPollsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsilibridge_standing_query_polls_total",
			Help: "Total number of standing query polls",
		},
		[]string{"mode", "status"},
	)

	m.CallbackNotificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsilibridge_callback_notifications_total",
			Help: "Total number of callback notifications by outcome",
		},
		[]string{"status"},
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "nsilibridge_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.ServerStartTime).Seconds() },
	)

	return m
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCatalogQuery records one catalog round trip
func (m *Metrics) RecordCatalogQuery(duration time.Duration, err error) {
	m.CatalogQueriesTotal.WithLabelValues(statusLabel(err)).Inc()
	m.CatalogQueryDuration.Observe(duration.Seconds())
}

// QueryStarted implements standingquery.Observer
func (m *Metrics) QueryStarted() { m.StandingQueriesActive.Inc() }

// QueryFinished implements standingquery.Observer
func (m *Metrics) QueryFinished() { m.StandingQueriesActive.Dec() }

// Polled implements standingquery.Observer
func (m *Metrics) Polled(mode string, err error) {
	m.StandingQueryPollsTotal.WithLabelValues(mode, statusLabel(err)).Inc()
}

// Converted implements standingquery.Observer
func (m *Metrics) Converted(ok, failed int) {
	m.DagsConvertedTotal.Add(float64(ok))
	m.ConversionFailuresTotal.Add(float64(failed))
}

// Notified implements standingquery.Observer
func (m *Metrics) Notified(outcome string) {
	m.CallbackNotificationsTotal.WithLabelValues(outcome).Inc()
}

// InstrumentSource times every query sent to source
func (m *Metrics) InstrumentSource(source catalog.Source) catalog.Source {
	return catalog.SourceFunc(func(ctx context.Context, req catalog.Request) (catalog.Response, error) {
		start := time.Now()
		resp, err := source.Query(ctx, req)
		m.RecordCatalogQuery(time.Since(start), err)
		return resp, err
	})
}
