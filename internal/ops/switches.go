// Package ops carries the process-wide operational state that sits outside
// the deterministic pipeline: the kill-switch, live-I/O KPI counters, and
// guardrail event emission for denied approvals and divergent stability
// hashes.
package ops

import (
	"sync"
	"time"
)

// SwitchConfig is the emergency-toggle configuration, loaded once at
// startup (internal/config) and mutated only through SwitchManager.
type SwitchConfig struct {
	ActivationKillSwitch bool `yaml:"activation_kill_switch"`
	LiveIODisabled       bool `yaml:"live_io_disabled"`
	ReadOnlyMode         bool `yaml:"read_only_mode"`
}

// SwitchStatus is the point-in-time snapshot exposed by the ops status mux.
type SwitchStatus struct {
	ActivationKillSwitch bool      `json:"activation_kill_switch"`
	LiveIODisabled       bool      `json:"live_io_disabled"`
	ReadOnlyMode         bool      `json:"read_only_mode"`
	AnyEmergencyActive   bool      `json:"any_emergency_active"`
	LastCheck            time.Time `json:"last_check"`
}

// SwitchManager guards emergency toggles behind a mutex so the activation
// gate and the live-shadow connectors can read them concurrently.
type SwitchManager struct {
	mu     sync.RWMutex
	config SwitchConfig
}

// NewSwitchManager constructs a SwitchManager from its initial config.
func NewSwitchManager(config SwitchConfig) *SwitchManager {
	return &SwitchManager{config: config}
}

// Status returns a point-in-time snapshot of every switch.
func (s *SwitchManager) Status() SwitchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SwitchStatus{
		ActivationKillSwitch: s.config.ActivationKillSwitch,
		LiveIODisabled:       s.config.LiveIODisabled,
		ReadOnlyMode:         s.config.ReadOnlyMode,
		AnyEmergencyActive:   s.config.ActivationKillSwitch || s.config.LiveIODisabled || s.config.ReadOnlyMode,
		LastCheck:            time.Now().UTC(),
	}
}

// IsKillSwitchActive reports the activation kill-switch's current value.
// internal/activation.Config.KillSwitch is set from the environment, not
// from this method.
func (s *SwitchManager) IsKillSwitchActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.ActivationKillSwitch
}

// IsLiveIOAllowed feeds the internal/connector.LiveIOAllowed and shadow
// pipeline checks that cmd/matchdecide wires, ANDed with LIVE_IO_ALLOWED.
func (s *SwitchManager) IsLiveIOAllowed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.config.LiveIODisabled
}

// SetKillSwitch toggles the activation kill-switch at runtime.
func (s *SwitchManager) SetKillSwitch(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.ActivationKillSwitch = active
}

// SetLiveIODisabled toggles live I/O at runtime.
func (s *SwitchManager) SetLiveIODisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.LiveIODisabled = disabled
}
