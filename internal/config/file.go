package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the slower-moving, file-based half of this module's
// configuration: connector fixture locations, database DSN, and the ops
// switch defaults, loaded once at startup the way the teacher loads
// internal/config/providers.go's ProvidersConfig.
type FileConfig struct {
	Connectors ConnectorsConfig `yaml:"connectors"`
	Database   DatabaseConfig   `yaml:"database"`
	Switches   SwitchesConfig   `yaml:"switches"`
}

// ConnectorsConfig names the recorded-fixture directory and the live
// connector's base URL/host, per spec.md §6.
type ConnectorsConfig struct {
	RecordedFixtureDir string `yaml:"recorded_fixture_dir"`
	LiveBaseURL        string `yaml:"live_base_url"`
	LiveHost           string `yaml:"live_host"`
}

// DatabaseConfig is the Postgres DSN and per-query timeout for
// internal/repository/postgres.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	QueryTimeoutMS int    `yaml:"query_timeout_ms"`
}

// SwitchesConfig seeds internal/ops.SwitchConfig's initial values; runtime
// toggles happen through SwitchManager's setters afterward.
type SwitchesConfig struct {
	ActivationKillSwitch bool `yaml:"activation_kill_switch"`
	LiveIODisabled       bool `yaml:"live_io_disabled"`
	ReadOnlyMode         bool `yaml:"read_only_mode"`
}

// LoadFileConfig loads FileConfig from a YAML file at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate applies the same fail-fast checks the teacher's
// ProvidersConfig.Validate uses: required fields must be non-empty, numeric
// fields must not be negative.
func (c *FileConfig) Validate() error {
	if c.Connectors.RecordedFixtureDir == "" {
		return fmt.Errorf("connectors.recorded_fixture_dir cannot be empty")
	}
	if c.Database.QueryTimeoutMS < 0 {
		return fmt.Errorf("database.query_timeout_ms cannot be negative, got %d", c.Database.QueryTimeoutMS)
	}
	return nil
}

// DefaultFileConfig returns a safe default configuration, usable without a
// config file present (dry-run / test entrypoints).
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Connectors: ConnectorsConfig{
			RecordedFixtureDir: "fixtures/matches",
		},
		Database: DatabaseConfig{
			QueryTimeoutMS: 5000,
		},
	}
}
