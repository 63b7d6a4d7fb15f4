package runner

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// runMetrics collects per-run model latency and outcome counters.
type runMetrics struct {
	registry    *prometheus.Registry
	stepLatency *prometheus.HistogramVec
	steps       *prometheus.CounterVec
	inputs      *prometheus.CounterVec
}

func newRunMetrics(configName string) *runMetrics {
	labels := prometheus.Labels{"config": configName}
	m := &runMetrics{
		registry: prometheus.NewRegistry(),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "chainbench",
			Name:        "step_latency_seconds",
			Help:        "Model call latency per step.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"step", "model"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "chainbench",
			Name:        "steps_total",
			Help:        "Steps executed by outcome.",
			ConstLabels: labels,
		}, []string{"step", "outcome"}),
		inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "chainbench",
			Name:        "inputs_total",
			Help:        "Inputs processed by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.stepLatency, m.steps, m.inputs)
	return m
}

func (m *runMetrics) observeStep(event StepEvent) {
	outcome := "ok"
	if event.Error != "" {
		outcome = "error"
	} else {
		m.stepLatency.WithLabelValues(event.StepName, event.Model).Observe(event.Latency.Seconds())
	}
	m.steps.WithLabelValues(event.StepName, outcome).Inc()
}

func (m *runMetrics) observeInput(failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.inputs.WithLabelValues(outcome).Inc()
}

// writeTextfile writes the metrics in the node-exporter textfile format.
func (m *runMetrics) writeTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
