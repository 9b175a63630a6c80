package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestTriggerMetricsCountPerType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriggerMetrics(reg)
	m.IncEvaluated("HIGH_TEMPERATURE")
	m.IncEvaluated("HIGH_TEMPERATURE")
	m.IncTriggered("HIGH_TEMPERATURE")
	m.IncFault("BAD_AIR_QUALITY")
	m.IncSuppressed("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	cases := []struct {
		name  string
		label string
		want  float64
	}{
		{"trigger_evaluations_total", "HIGH_TEMPERATURE", 2},
		{"trigger_matches_total", "HIGH_TEMPERATURE", 1},
		{"trigger_strategy_faults_total", "BAD_AIR_QUALITY", 1},
		{"trigger_cooldown_suppressed_total", "unknown", 1},
	}
	for _, tc := range cases {
		got, err := fetchCounterValue(mfs, tc.name, "trigger_type", tc.label)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s expected %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestDispatchMetricsDepthAndDrops(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)
	m.IncQueued()
	m.IncDropped()
	m.IncProcessed("sent")
	m.SetDepth(4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	depth := findMetricFamily(mfs, "dispatch_queue_depth")
	if depth == nil || depth.GetMetric()[0].GetGauge().GetValue() != 4 {
		t.Fatalf("expected depth gauge 4")
	}
	if got, err := fetchCounterValue(mfs, "dispatch_processed_total", "outcome", "sent"); err != nil || got != 1 {
		t.Fatalf("expected processed sent=1, got %v (%v)", got, err)
	}
	dropped := findMetricFamily(mfs, "dispatch_dropped_total")
	if dropped == nil || dropped.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one dropped event")
	}
	var _ *dto.MetricFamily = dropped
}
