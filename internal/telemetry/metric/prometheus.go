package metric

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "fintrack"

// Operation results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultBusy    = "busy"
	ResultStale   = "stale"
)

// Rotation sources.
const (
	RotationLogin   = "login"
	RotationRefresh = "refresh"
	RotationProfile = "profile"
)

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	// Session metrics
	Operations *prometheus.CounterVec
	LoggedIn   prometheus.Gauge
	Rotations  *prometheus.CounterVec

	// Gateway metrics
	GatewayDuration *prometheus.HistogramVec
}

// NewRegistry creates a new metrics registry with every metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Session manager operations by outcome",
		}, []string{"operation", "result"}),

		LoggedIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logged_in",
			Help:      "1 while a session is held, 0 otherwise",
		}),

		Rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "rotations_total",
			Help:      "Token pairs replaced, by the operation that rotated them",
		}, []string{"source"}),

		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Auth gateway request latency",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"operation", "outcome"}),
	}

	r.registry.MustRegister(r.Operations, r.LoggedIn, r.Rotations, r.GatewayDuration)
	return r
}

// Registerer returns the underlying registerer for collectors owned by
// other packages.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// RecordOperation counts one session manager operation.
func (r *Registry) RecordOperation(operation, result string) {
	r.Operations.WithLabelValues(operation, result).Inc()
}

// SetLoggedIn sets the logged-in gauge.
func (r *Registry) SetLoggedIn(loggedIn bool) {
	if loggedIn {
		r.LoggedIn.Set(1)
		return
	}
	r.LoggedIn.Set(0)
}

// RecordRotation counts one token pair replacement.
func (r *Registry) RecordRotation(source string) {
	r.Rotations.WithLabelValues(source).Inc()
}

// ObserveGateway records the latency of one gateway call.
func (r *Registry) ObserveGateway(operation, outcome string, d time.Duration) {
	r.GatewayDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// Snapshot gathers the current value of every registered metric.
func (r *Registry) Snapshot() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// WriteText renders the registry in Prometheus text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.Snapshot()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
