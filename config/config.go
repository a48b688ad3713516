package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// ErrRead indicates the configuration file could not be read.
	ErrRead = errors.New("config: cannot read file")

	// ErrParse indicates malformed YAML or an unknown key.
	ErrParse = errors.New("config: cannot parse YAML")

	// ErrInvalid indicates a field failed validation.
	ErrInvalid = errors.New("config: invalid configuration")
)

// Policy names accepted by the volume sections.
const (
	PolicyOverlap = "overlap"
	PolicyVetoAll = "veto-all"
)

// Config is the full parameter set of one invocation.
type Config struct {
	Merging       MergingConfig       `yaml:"merging"`
	Growing       GrowingConfig       `yaml:"growing"`
	Extension     ExtensionConfig     `yaml:"extension"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	NearGaps      NearGapConfig       `yaml:"near_gaps"`
	Volume        VolumeConfig        `yaml:"volume"`
	Limits        LimitsConfig        `yaml:"limits"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// MergingConfig configures the threshold merging variant.
type MergingConfig struct {
	MaxSeparation  float64 `yaml:"max_separation" validate:"gt=0"`
	MinClusterHits int     `yaml:"min_cluster_hits" validate:"gte=0"`
	CheckVolumes   bool    `yaml:"check_volumes"`
}

// GrowingConfig configures the seeded growing variant.
type GrowingConfig struct {
	MaxSeparation  float64 `yaml:"max_separation" validate:"gt=0"`
	MinClusterHits int     `yaml:"min_cluster_hits" validate:"gte=0"`
	MinSeedHits    int     `yaml:"min_seed_hits" validate:"gte=1"`
	CheckVolumes   bool    `yaml:"check_volumes"`
}

// ExtensionConfig configures the endpoint extension variant.
type ExtensionConfig struct {
	MaxSeparation  float64 `yaml:"max_separation" validate:"gt=0"`
	MinClusterHits int     `yaml:"min_cluster_hits" validate:"gte=0"`
	MinAxisCos     float64 `yaml:"min_axis_cos" validate:"gte=0,lte=1"`
	CheckVolumes   bool    `yaml:"check_volumes"`
}

// ConsolidationConfig configures track consolidation.
type ConsolidationConfig struct {
	MinTrackLength            float64 `yaml:"min_track_length" validate:"gt=0"`
	MaxTransverseDisplacement float64 `yaml:"max_transverse_displacement" validate:"gt=0"`
	MinAssociatedSpan         float64 `yaml:"min_associated_span" validate:"gte=0"`
	MinAssociatedFraction     float64 `yaml:"min_associated_fraction" validate:"gte=0,lte=1"`
	Policy                    string  `yaml:"policy" validate:"oneof=overlap veto-all"`
}

// NearGapConfig configures near-gap particle-flow stitching.
type NearGapConfig struct {
	MinClusterHits        int     `yaml:"min_cluster_hits" validate:"gte=1"`
	GapHalfLength         float64 `yaml:"gap_half_length" validate:"gt=0"`
	LookoutRange          float64 `yaml:"lookout_range" validate:"gtfield=GapHalfLength"`
	MinAbsCosAxis         float64 `yaml:"min_abs_cos_axis" validate:"gte=0,lte=1"`
	MinAbsCosDisplacement float64 `yaml:"min_abs_cos_displacement" validate:"gte=0,lte=1"`
	MinGapPoints          int     `yaml:"min_gap_points" validate:"gte=1"`
	MaxSpanningPoints     int     `yaml:"max_spanning_points" validate:"gte=0"`
	NearGapPoints         int     `yaml:"near_gap_points" validate:"gte=2"`
	CheckVolumes          bool    `yaml:"check_volumes"`
}

// VolumeConfig configures the cross-volume veto shared by the merge variants.
type VolumeConfig struct {
	Policy    string  `yaml:"policy" validate:"oneof=overlap veto-all"`
	Padding   float64 `yaml:"padding" validate:"gte=0"`
	Symmetric bool    `yaml:"symmetric"`
}

// LimitsConfig carries the excessive-size guard and loop bounds. Zero disables a limit.
type LimitsConfig struct {
	MaxClusters     int `yaml:"max_clusters" validate:"gte=0"`
	MaxHits         int `yaml:"max_hits" validate:"gte=0"`
	MaxPasses       int `yaml:"max_passes" validate:"gte=0"`
	MaxGroupMembers int `yaml:"max_group_members" validate:"gte=0"`
}

// LoggingConfig selects the zap logger flavour.
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" validate:"oneof=json console"`
	Development bool   `yaml:"development"`
}

// Default returns the shipped parameter set.
func Default() Config {
	return Config{
		Merging: MergingConfig{
			MaxSeparation:  2.5,
			MinClusterHits: 1,
			CheckVolumes:   true,
		},
		Growing: GrowingConfig{
			MaxSeparation:  2.5,
			MinClusterHits: 1,
			MinSeedHits:    10,
			CheckVolumes:   true,
		},
		Extension: ExtensionConfig{
			MaxSeparation:  5,
			MinClusterHits: 5,
			MinAxisCos:     0.9,
		},
		Consolidation: ConsolidationConfig{
			MinTrackLength:            10,
			MaxTransverseDisplacement: 1,
			MinAssociatedSpan:         1,
			MinAssociatedFraction:     0.5,
			Policy:                    PolicyVetoAll,
		},
		NearGaps: NearGapConfig{
			MinClusterHits:        40,
			GapHalfLength:         4.1,
			LookoutRange:          100,
			MinAbsCosAxis:         0.7,
			MinAbsCosDisplacement: 0.85,
			MinGapPoints:          6,
			MaxSpanningPoints:     2,
			NearGapPoints:         20,
		},
		Volume: VolumeConfig{
			Policy:  PolicyOverlap,
			Padding: 0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path, overlays it on Default() and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrRead, err)
	}

	return Parse(data)
}

// Parse overlays a YAML document on Default() and validates the result.
// An empty document yields Default().
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var validate = validator.New()

// Validate checks every section, reporting all failing fields at once.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}

			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}

		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return nil
}

// formatFieldError turns one validator failure into a readable message.
func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
