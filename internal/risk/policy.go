package risk

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable weights of the scoring heuristic. The defaults
// are illustrative, not a physical impact model.
type Policy struct {
	HazardousWeight float64 `yaml:"hazardous_weight"`

	DiameterFactor float64 `yaml:"diameter_factor"` // points per km
	DiameterCap    float64 `yaml:"diameter_cap"`

	ProximityNumerator float64 `yaml:"proximity_numerator"` // points = numerator / miss km
	ProximityCap       float64 `yaml:"proximity_cap"`

	VelocityFactor float64 `yaml:"velocity_factor"` // points per km/s
	VelocityCap    float64 `yaml:"velocity_cap"`

	MaxScore   int        `yaml:"max_score"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// Thresholds are inclusive lower bounds of each tier above LOW.
type Thresholds struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Moderate int `yaml:"moderate"`
}

// LogValue renders the weights as a log group.
func (p Policy) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("hazardous_weight", p.HazardousWeight),
		slog.Float64("diameter_factor", p.DiameterFactor),
		slog.Float64("diameter_cap", p.DiameterCap),
		slog.Float64("proximity_numerator", p.ProximityNumerator),
		slog.Float64("proximity_cap", p.ProximityCap),
		slog.Float64("velocity_factor", p.VelocityFactor),
		slog.Float64("velocity_cap", p.VelocityCap),
		slog.Int("max_score", p.MaxScore),
		slog.String("thresholds", fmt.Sprintf("%d/%d/%d", p.Thresholds.Moderate, p.Thresholds.High, p.Thresholds.Critical)),
	)
}

// DefaultPolicy returns the built-in weights.
func DefaultPolicy() Policy {
	return Policy{
		HazardousWeight:    30,
		DiameterFactor:     15,
		DiameterCap:        25,
		ProximityNumerator: 1_000_000,
		ProximityCap:       25,
		VelocityFactor:     2,
		VelocityCap:        20,
		MaxScore:           100,
		Thresholds: Thresholds{
			Critical: 75,
			High:     50,
			Moderate: 25,
		},
	}
}

// LoadPolicy reads YAML overrides on top of DefaultPolicy. Fields missing
// from the file keep their defaults. An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read risk policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse risk policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("risk policy %s: %w", path, err)
	}
	return p, nil
}

// Validate rejects weights that would break the 0..MaxScore contract or the
// tier ordering.
func (p Policy) Validate() error {
	for name, v := range map[string]float64{
		"hazardous_weight":    p.HazardousWeight,
		"diameter_factor":     p.DiameterFactor,
		"diameter_cap":        p.DiameterCap,
		"proximity_numerator": p.ProximityNumerator,
		"proximity_cap":       p.ProximityCap,
		"velocity_factor":     p.VelocityFactor,
		"velocity_cap":        p.VelocityCap,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if p.MaxScore <= 0 {
		return errors.New("max_score must be positive")
	}
	t := p.Thresholds
	if !(0 < t.Moderate && t.Moderate < t.High && t.High < t.Critical && t.Critical <= p.MaxScore) {
		return errors.New("thresholds must satisfy 0 < moderate < high < critical <= max_score")
	}
	return nil
}
