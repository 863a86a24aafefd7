package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/windfield/internal/units"
)

// TuningConfig holds run-time processing parameters. Fields are pointers
// so that partial JSON files are safe: omitted fields keep their defaults
// via the Get* accessors.
type TuningConfig struct {
	// MotionCompensation enables translation and inertial-frame velocity
	// correction per beam. Requires the motion columns in the telemetry.
	MotionCompensation *bool `json:"motion_compensation,omitempty"`

	// Workers caps the goroutines used for window processing. 0 = one
	// per CPU.
	Workers *int `json:"workers,omitempty"`

	// Units selects the output speed unit for reports and the API.
	Units *string `json:"units,omitempty"`

	// HubExtrapolation switches the batch output from per-plane
	// descriptors to hub-height extrapolated rows.
	HubExtrapolation *bool `json:"hub_extrapolation,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}

// Validate checks that the tuning values are usable.
func (c *TuningConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("unknown units %q, valid: %s", *c.Units, units.GetValidUnitsString())
	}
	return nil
}

// GetMotionCompensation returns the motion_compensation value or the default.
func (c *TuningConfig) GetMotionCompensation() bool {
	if c == nil || c.MotionCompensation == nil {
		return false
	}
	return *c.MotionCompensation
}

// GetWorkers returns the workers value or the default.
func (c *TuningConfig) GetWorkers() int {
	if c == nil || c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetUnits returns the units value or the default.
func (c *TuningConfig) GetUnits() string {
	if c == nil || c.Units == nil {
		return units.MPS
	}
	return *c.Units
}

// GetHubExtrapolation returns the hub_extrapolation value or the default.
func (c *TuningConfig) GetHubExtrapolation() bool {
	if c == nil || c.HubExtrapolation == nil {
		return false
	}
	return *c.HubExtrapolation
}
