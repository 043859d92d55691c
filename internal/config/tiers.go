package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// TiersConfig selects activation thresholds by tier name, in the same
// profile-plus-active-selector shape as the teacher's GuardsConfig
// (internal/config/guards.go): a named set of profiles, one of them active.
type TiersConfig struct {
	Active   string                 `yaml:"active_tier"`
	Profiles map[string]TierProfile `yaml:"profiles"`
}

// TierProfile is the caps/thresholds ACTIVATION_TIER selects (spec.md §6:
// "ACTIVATION_TIER | same vocabulary, selects caps & thresholds").
type TierProfile struct {
	MinConfidence       float64 `yaml:"min_confidence"`
	MaxMatchesPerBatch  int     `yaml:"max_matches_per_batch"`
	DailyMaxActivations int     `yaml:"daily_max_activations"`
}

// LoadTiersConfig loads a TiersConfig from a YAML file.
func LoadTiersConfig(path string) (*TiersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers config: %w", err)
	}

	var cfg TiersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse tiers YAML: %w", err)
	}
	return &cfg, nil
}

// ActiveProfile returns the profile selected by either TiersConfig.Active or
// an explicit override (ACTIVATION_TIER from the environment), mirroring
// GuardsConfig.GetActiveProfile's not-found error shape.
func (c *TiersConfig) ActiveProfile(override string) (*TierProfile, error) {
	name := c.Active
	if override != "" {
		name = override
	}
	if name == "" {
		return nil, fmt.Errorf("no active tier set")
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("tier %q not found", name)
	}
	return &profile, nil
}

// DefaultTiersConfig returns the spec.md-documented default thresholds for
// each activation mode, usable without a tiers file present.
func DefaultTiersConfig() *TiersConfig {
	return &TiersConfig{
		Active: "limited",
		Profiles: map[string]TierProfile{
			"limited": {
				MinConfidence:       0.75,
				MaxMatchesPerBatch:  10,
				DailyMaxActivations: 0,
			},
			"burn_in": {
				MinConfidence:       0.85,
				MaxMatchesPerBatch:  3,
				DailyMaxActivations: 0,
			},
			"expanded": {
				MinConfidence:       0.70,
				MaxMatchesPerBatch:  10,
				DailyMaxActivations: 0,
			},
		},
	}
}
