// Package pipeline runs the configured reconstruction stages over one event.
//
// Stages run in the order given. An abandoned merge stage ends the event early with an
// empty cluster list; a failing stage ends it with the error recorded in the result.
// Either way the other events of a batch are unaffected.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/consolidate"
	"github.com/larreco/larmerge/eventio"
	"github.com/larreco/larmerge/merge"
	"github.com/larreco/larmerge/metrics"
	"github.com/larreco/larmerge/neargap"
)

// Stage names.
const (
	StageConsolidation = "consolidation"
	StageMerging       = "merging"
	StageGrowing       = "growing"
	StageExtension     = "extension"
	StageNearGaps      = "near-gaps"
)

// ErrUnknownStage indicates a stage name outside the defined set.
var ErrUnknownStage = errors.New("pipeline: unknown stage")

// DefaultStages is the stage list used when none is given.
var DefaultStages = []string{StageMerging}

// ParseStages validates a stage list.
func ParseStages(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case StageConsolidation, StageMerging, StageGrowing, StageExtension, StageNearGaps:
			out = append(out, n)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, n)
		}
	}

	return out, nil
}

// Option configures a Runner.
type Option func(r *Runner)

// WithLogger sets the logger (default zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics reports driver passes, stage changes and event outcomes to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithStages replaces DefaultStages.
func WithStages(stages ...string) Option {
	return func(r *Runner) { r.stages = stages }
}

// Runner processes events. It holds configuration only and may serve concurrent events.
type Runner struct {
	cfg     config.Config
	stages  []string
	log     *zap.Logger
	metrics *metrics.Collector
}

// New validates cfg and the stage list and returns a Runner.
func New(cfg config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{cfg: cfg, stages: DefaultStages, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stages, err := ParseStages(r.stages)
	if err != nil {
		return nil, err
	}
	r.stages = stages

	return r, nil
}

// Process runs every stage over ev and returns its result document.
func (r *Runner) Process(ctx context.Context, ev *eventio.Event) eventio.Result {
	log := r.log.With(zap.String("event", ev.ID))
	stages := make(map[string]string, len(r.stages))

	abandoned, err := r.run(ctx, log, ev, stages)
	if r.metrics != nil {
		r.metrics.ObserveEvent(err)
	}

	res := ev.Snapshot()
	res.Stages = stages
	res.Abandoned = abandoned
	if err != nil {
		res.Error = err.Error()
		log.Error("event failed", zap.Error(err))
	}

	return res
}

// run executes the stages, stopping at the first error or abandoned merge.
func (r *Runner) run(ctx context.Context, log *zap.Logger, ev *eventio.Event, out map[string]string) (bool, error) {
	for _, stage := range r.stages {
		switch stage {
		case StageConsolidation:
			c, err := consolidate.NewFromConfig(r.cfg, consolidate.WithLogger(log))
			if err != nil {
				return false, err
			}
			s, err := c.Run(ctx, ev.Clusters)
			if err != nil {
				return false, fmt.Errorf("%s: %w", stage, err)
			}
			out[stage] = fmt.Sprintf("tracks=%d hits_moved=%d deleted=%d vetoed=%d", s.Tracks, s.HitsMoved, s.ClustersDeleted, s.Vetoed)
			r.observeStage(stage, s.HitsMoved)

		case StageNearGaps:
			st, err := neargap.NewFromConfig(r.cfg, neargap.WithLogger(log))
			if err != nil {
				return false, err
			}
			s, err := st.Run(ctx, ev.Pfos)
			if err != nil {
				return false, fmt.Errorf("%s: %w", stage, err)
			}
			out[stage] = fmt.Sprintf("seeds=%d matches=%d merges=%d malformed=%d", s.Seeds, s.Matches, s.Merges, s.Malformed)
			r.observeStage(stage, s.Merges)

		default:
			rep, err := r.merge(ctx, log, stage, ev)
			if rep != nil {
				out[stage] = fmt.Sprintf("passes=%d merges=%d", rep.Passes, rep.Merges)
			}
			if err != nil {
				return false, fmt.Errorf("%s: %w", stage, err)
			}
			if rep.Abandoned {
				out[stage] = "abandoned"
				return true, nil
			}
		}
	}

	return false, nil
}

func (r *Runner) merge(ctx context.Context, log *zap.Logger, stage string, ev *eventio.Event) (*merge.Report, error) {
	variant, err := merge.ParseVariant(stage)
	if err != nil {
		return nil, err
	}
	opts := []merge.Option{merge.WithLogger(log)}
	if r.metrics != nil {
		opts = append(opts, merge.WithRecorder(r.metrics))
	}
	d, minHits, err := merge.NewDriverFromConfig(variant, r.cfg, opts...)
	if err != nil {
		return nil, err
	}

	return d.Run(ctx, merge.StoreSource{Store: ev.Clusters, MinHits: minHits})
}

func (r *Runner) observeStage(stage string, n int) {
	if r.metrics != nil {
		r.metrics.ObserveStage(stage, n)
	}
}
