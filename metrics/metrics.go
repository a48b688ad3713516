// Package metrics exposes Prometheus instrumentation for larmerge runs.
//
// A Collector owns a private registry, so several collectors (one per test, one per CLI
// invocation) never collide on registration. It implements merge.Recorder.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/larreco/larmerge/merge"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeAbandoned = "abandoned"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var _ merge.Recorder = (*Collector)(nil)

// Collector holds the Prometheus metrics of larmerge.
type Collector struct {
	registry *prometheus.Registry

	Passes       *prometheus.CounterVec
	Merges       *prometheus.CounterVec
	EdgesBuilt   *prometheus.CounterVec
	EdgesVetoed  *prometheus.CounterVec
	EdgesSkipped *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunPasses    *prometheus.HistogramVec
	StageChanges *prometheus.CounterVec
	Events       *prometheus.CounterVec
}

// NewCollector creates a Collector registering every metric under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	variant := []string{"variant"}

	c := &Collector{
		registry: registry,
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_passes_total",
			Help:      "Outer merge passes started.",
		}, variant),
		Merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Merge-and-delete instructions issued.",
		}, variant),
		EdgesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "association_edges_total",
			Help:      "Association edges produced by the builders.",
		}, variant),
		EdgesVetoed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_vetoed_edges_total",
			Help:      "Association edges removed by the volume filter.",
		}, variant),
		EdgesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_skipped_edges_total",
			Help:      "Association edges kept because no volume verdict was possible.",
		}, variant),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_runs_total",
			Help:      "Driver runs by outcome.",
		}, []string{"variant", "outcome"}),
		RunPasses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_run_passes",
			Help:      "Passes needed per driver run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, variant),
		StageChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_changes_total",
			Help:      "Objects changed by the supplementary stages (hits moved, PFOs merged).",
		}, []string{"stage"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events processed by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		c.Passes,
		c.Merges,
		c.EdgesBuilt,
		c.EdgesVetoed,
		c.EdgesSkipped,
		c.Runs,
		c.RunPasses,
		c.StageChanges,
		c.Events,
	)

	return c
}

// Registry returns the private registry, usable as a prometheus.Gatherer.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObservePass implements merge.Recorder.
func (c *Collector) ObservePass(v merge.Variant, s merge.PassSummary) {
	label := v.String()
	c.Passes.WithLabelValues(label).Inc()
	c.Merges.WithLabelValues(label).Add(float64(s.Merges))
	c.EdgesBuilt.WithLabelValues(label).Add(float64(s.Build.Edges))
	c.EdgesVetoed.WithLabelValues(label).Add(float64(s.Filter.EdgesRemoved))
	c.EdgesSkipped.WithLabelValues(label).Add(float64(s.Filter.EdgesSkipped))
}

// ObserveRun implements merge.Recorder.
func (c *Collector) ObserveRun(r *merge.Report, err error) {
	if r == nil {
		return
	}
	label := r.Variant.String()
	c.Runs.WithLabelValues(label, Outcome(r, err)).Inc()
	if r.Passes > 0 {
		c.RunPasses.WithLabelValues(label).Observe(float64(r.Passes))
	}
}

// ObserveStage counts objects changed by a named stage.
func (c *Collector) ObserveStage(stage string, changes int) {
	c.StageChanges.WithLabelValues(stage).Add(float64(changes))
}

// ObserveEvent counts one processed event.
func (c *Collector) ObserveEvent(err error) {
	c.Events.WithLabelValues(Outcome(nil, err)).Inc()
}

// Outcome classifies a run result for labelling.
func Outcome(r *merge.Report, err error) string {
	switch {
	case err != nil && !merge.IsFatal(err):
		return OutcomeCancelled
	case err != nil:
		return OutcomeFailed
	case r != nil && r.Abandoned:
		return OutcomeAbandoned
	default:
		return OutcomeOK
	}
}

// WriteTextfile writes the current metric values to path in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics: empty path")
	}

	return prometheus.WriteToTextfile(path, c.registry)
}
