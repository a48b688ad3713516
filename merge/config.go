package merge

import (
	"fmt"

	"github.com/larreco/larmerge/association"
	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/geometry"
	"github.com/larreco/larmerge/volume"
)

// NewDriverFromConfig builds a Driver for variant from cfg. Extra options are applied last.
// The returned int is the minimum hit count a clean cluster needs for this variant,
// to be used as StoreSource.MinHits.
func NewDriverFromConfig(variant Variant, cfg config.Config, extra ...Option) (*Driver, int, error) {
	policy, err := volume.ParsePolicy(cfg.Volume.Policy)
	if err != nil {
		return nil, 0, fmt.Errorf("merge: volume section: %w", err)
	}
	volumeFilter := volume.NewFilter(
		volume.WithPolicy(policy),
		volume.WithPadding(cfg.Volume.Padding),
		volume.WithSymmetric(cfg.Volume.Symmetric),
	)

	opts := []Option{
		WithVariant(variant),
		WithMaxClusters(cfg.Limits.MaxClusters),
		WithMaxHits(cfg.Limits.MaxHits),
		WithMaxPasses(cfg.Limits.MaxPasses),
		WithMaxMembers(cfg.Limits.MaxGroupMembers),
	}

	var minHits int
	switch variant {
	case VariantMerging:
		minHits = cfg.Merging.MinClusterHits
		opts = append(opts, WithBuilder(association.NewBuilder(
			association.WithMode(association.ModeThreshold),
			association.WithMaxSeparation(cfg.Merging.MaxSeparation),
			association.WithPredicate(targetAvailable),
		)))
		opts = append(opts, WithFilter(filterIf(cfg.Merging.CheckVolumes, volumeFilter)))

	case VariantGrowing:
		minHits = cfg.Growing.MinClusterHits
		opts = append(opts,
			WithMinSeedHits(cfg.Growing.MinSeedHits),
			WithBuilder(association.NewBuilder(
				association.WithMode(association.ModeBestSeed),
				association.WithMaxSeparation(cfg.Growing.MaxSeparation),
				association.WithPredicate(targetAvailable),
			)),
			WithFilter(filterIf(cfg.Growing.CheckVolumes, volumeFilter)),
		)

	case VariantExtension:
		minHits = cfg.Extension.MinClusterHits
		opts = append(opts,
			WithMinAxisCos(cfg.Extension.MinAxisCos),
			WithBuilder(association.NewBuilder(
				association.WithMode(association.ModeBestSeed),
				association.WithMaxSeparation(cfg.Extension.MaxSeparation),
				association.WithMetric(geometry.EndpointDistance),
				association.WithPredicateFactory(alignedTargets(cfg.Extension.MinAxisCos)),
			)),
		)
		// Extension checks volumes strictly when enabled.
		var f *volume.Filter
		if cfg.Extension.CheckVolumes {
			f = volume.NewFilter(
				volume.WithPolicy(volume.PolicyVetoAll),
				volume.WithSymmetric(cfg.Volume.Symmetric),
			)
		}
		opts = append(opts, WithFilter(f))

	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownVariant, variant)
	}

	return NewDriver(append(opts, extra...)...), minHits, nil
}

func filterIf(enabled bool, f *volume.Filter) *volume.Filter {
	if !enabled {
		return nil
	}

	return f
}
