package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TriggerMetrics counts evaluation outcomes per trigger type.
type TriggerMetrics struct {
	evaluated  *prometheus.CounterVec
	triggered  *prometheus.CounterVec
	faults     *prometheus.CounterVec
	suppressed *prometheus.CounterVec
}

// NewTriggerMetrics registers the evaluation counters on the provided registerer.
func NewTriggerMetrics(reg prometheus.Registerer) *TriggerMetrics {
	if reg == nil {
		return &TriggerMetrics{}
	}
	evaluated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_evaluations_total",
		Help: "Strategy evaluations executed.",
	}, []string{"trigger_type"})
	triggered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_matches_total",
		Help: "Strategy evaluations that produced a triggered result.",
	}, []string{"trigger_type"})
	faults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_strategy_faults_total",
		Help: "Strategy evaluations that panicked or returned an error.",
	}, []string{"trigger_type"})
	suppressed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_cooldown_suppressed_total",
		Help: "Triggered results dropped because the cooldown window was still open.",
	}, []string{"trigger_type"})
	reg.MustRegister(evaluated, triggered, faults, suppressed)
	return &TriggerMetrics{
		evaluated:  evaluated,
		triggered:  triggered,
		faults:     faults,
		suppressed: suppressed,
	}
}

func (m *TriggerMetrics) IncEvaluated(triggerType string) {
	if m == nil || m.evaluated == nil {
		return
	}
	m.evaluated.WithLabelValues(normalizeLabel(triggerType)).Inc()
}

func (m *TriggerMetrics) IncTriggered(triggerType string) {
	if m == nil || m.triggered == nil {
		return
	}
	m.triggered.WithLabelValues(normalizeLabel(triggerType)).Inc()
}

func (m *TriggerMetrics) IncFault(triggerType string) {
	if m == nil || m.faults == nil {
		return
	}
	m.faults.WithLabelValues(normalizeLabel(triggerType)).Inc()
}

func (m *TriggerMetrics) IncSuppressed(triggerType string) {
	if m == nil || m.suppressed == nil {
		return
	}
	m.suppressed.WithLabelValues(normalizeLabel(triggerType)).Inc()
}

// DispatchMetrics tracks the notification hand-off queue.
type DispatchMetrics struct {
	queued    prometheus.Counter
	dropped   prometheus.Counter
	delivered *prometheus.CounterVec
	depth     prometheus.Gauge
}

// NewDispatchMetrics registers the dispatch queue metrics.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	queued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_queued_total",
		Help: "Notification events accepted by the dispatch queue.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_dropped_total",
		Help: "Notification events evicted because the dispatch queue was full.",
	})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_processed_total",
		Help: "Notification events processed by the dispatcher, by outcome.",
	}, []string{"outcome"})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_queue_depth",
		Help: "Events currently waiting in the dispatch queue.",
	})
	reg.MustRegister(queued, dropped, delivered, depth)
	return &DispatchMetrics{queued: queued, dropped: dropped, delivered: delivered, depth: depth}
}

func (m *DispatchMetrics) IncQueued() {
	if m == nil || m.queued == nil {
		return
	}
	m.queued.Inc()
}

func (m *DispatchMetrics) IncDropped() {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Inc()
}

func (m *DispatchMetrics) IncProcessed(outcome string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *DispatchMetrics) SetDepth(n int) {
	if m == nil || m.depth == nil {
		return
	}
	m.depth.Set(float64(n))
}
