package metric

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.Operations == nil {
		t.Error("Operations is nil")
	}
	if r.LoggedIn == nil {
		t.Error("LoggedIn is nil")
	}
	if r.Rotations == nil {
		t.Error("Rotations is nil")
	}
	if r.GatewayDuration == nil {
		t.Error("GatewayDuration is nil")
	}
}

func TestRegistry_Independent(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.RecordOperation("login", ResultSuccess)

	if got := testutil.ToFloat64(r2.Operations.WithLabelValues("login", ResultSuccess)); got != 0 {
		t.Errorf("second registry saw %v operations, want 0", got)
	}
}

func TestSessionMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordOperation("login", ResultSuccess)
	r.RecordOperation("login", ResultError)
	r.RecordOperation("refresh", ResultSuccess)
	r.RecordOperation("refresh", ResultSuccess)
	r.RecordOperation("update_profile", ResultBusy)

	r.SetLoggedIn(true)
	r.RecordRotation(RotationRefresh)
	r.RecordRotation(RotationProfile)
	r.RecordRotation(RotationRefresh)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"login success", testutil.ToFloat64(r.Operations.WithLabelValues("login", ResultSuccess)), 1},
		{"login error", testutil.ToFloat64(r.Operations.WithLabelValues("login", ResultError)), 1},
		{"refresh success", testutil.ToFloat64(r.Operations.WithLabelValues("refresh", ResultSuccess)), 2},
		{"update busy", testutil.ToFloat64(r.Operations.WithLabelValues("update_profile", ResultBusy)), 1},
		{"logged in", testutil.ToFloat64(r.LoggedIn), 1},
		{"refresh rotations", testutil.ToFloat64(r.Rotations.WithLabelValues(RotationRefresh)), 2},
		{"profile rotations", testutil.ToFloat64(r.Rotations.WithLabelValues(RotationProfile)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	r.SetLoggedIn(false)
	if got := testutil.ToFloat64(r.LoggedIn); got != 0 {
		t.Errorf("LoggedIn after SetLoggedIn(false) = %v, want 0", got)
	}
}

func TestGatewayMetrics(t *testing.T) {
	r := NewRegistry()

	r.ObserveGateway("login", "ok", 20*time.Millisecond)
	r.ObserveGateway("login", "ok", 40*time.Millisecond)
	r.ObserveGateway("refresh", "network", 2*time.Second)

	if n := testutil.CollectAndCount(r.GatewayDuration); n != 2 {
		t.Errorf("GatewayDuration series = %d, want 2", n)
	}

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `fintrack_gateway_request_duration_seconds_count{operation="login",outcome="ok"} 2`) {
		t.Errorf("expected login histogram count 2, got:\n%s", out)
	}
	if !strings.Contains(out, `fintrack_gateway_request_duration_seconds_bucket{operation="refresh",outcome="network",le="2.5"} 1`) {
		t.Errorf("expected refresh observation in 2.5s bucket, got:\n%s", out)
	}
}

func TestRegisterer(t *testing.T) {
	r := NewRegistry()

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fintrack_test_external"})
	r.Registerer().MustRegister(g)
	g.Set(7)

	families, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "fintrack_test_external" {
			found = true
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 7 {
				t.Errorf("external gauge = %v, want 7", v)
			}
		}
	}
	if !found {
		t.Error("externally registered collector missing from Snapshot()")
	}
}
