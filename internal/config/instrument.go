// Package config loads the instrument description and processing tuning
// for wind-field reconstruction runs.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/windfield/internal/wind"
)

// InstrumentConfig describes the mounted LIDAR unit: beam pattern angles,
// mounting heights and pose calibration offsets. It is loaded from a YAML
// file shipped with the installation. Angles are in degrees in the file
// and converted to radians on use.
type InstrumentConfig struct {
	Name string `yaml:"name"`

	// LidarHeightM is the mounting height of the LIDAR above the
	// platform reference, in meters.
	LidarHeightM float64 `yaml:"lidarHeight"`

	// HubHeightM is the hub (reference) height wind properties are
	// extrapolated to, in meters.
	HubHeightM float64 `yaml:"hubHeight"`

	// PitchOffsetDeg and RollOffsetDeg are calibration offsets added to
	// every sample's pose.
	PitchOffsetDeg float64 `yaml:"pitchOffset"`
	RollOffsetDeg  float64 `yaml:"rollOffset"`

	// ElevationDeg and TelescopeDeg are the per-beam pattern angles the
	// line-of-sight azimuths and zeniths are derived from.
	ElevationDeg [wind.NumBeams]float64 `yaml:"elevation"`
	TelescopeDeg [wind.NumBeams]float64 `yaml:"telescope"`

	// DistancesM lists the measurement range gates the instrument is
	// programmed for.
	DistancesM []float64 `yaml:"distances"`
}

// DefaultInstrumentConfig returns the standard Wind Iris setup.
func DefaultInstrumentConfig() InstrumentConfig {
	return InstrumentConfig{
		Name:           "wind-iris",
		LidarHeightM:   4.5,
		HubHeightM:     98.6,
		PitchOffsetDeg: -2.0,
		RollOffsetDeg:  0.4,
		ElevationDeg:   [wind.NumBeams]float64{5, 5, -5, -5},
		TelescopeDeg:   [wind.NumBeams]float64{-15, 15, -15, 15},
		DistancesM:     []float64{50, 80, 120, 160, 200, 240, 280, 320, 360, 400},
	}
}

// LoadInstrumentConfig reads and validates an instrument YAML file.
func LoadInstrumentConfig(path string) (InstrumentConfig, error) {
	cfg := DefaultInstrumentConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return cfg, fmt.Errorf("instrument file must have .yaml or .yml extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read instrument file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse instrument YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid instrument config: %w", err)
	}
	return cfg, nil
}

// Validate checks the instrument description for unusable values.
func (c InstrumentConfig) Validate() error {
	if c.HubHeightM < 0 {
		return fmt.Errorf("hub height must be non-negative, got %v", c.HubHeightM)
	}
	for i, d := range c.DistancesM {
		if d <= 0 {
			return fmt.Errorf("distance %d must be positive, got %v", i, d)
		}
	}
	for i, e := range c.ElevationDeg {
		if e < -90 || e > 90 {
			return fmt.Errorf("elevation %d out of range: %v", i, e)
		}
	}
	return nil
}

// HasDistance reports whether dist is one of the instrument's range gates.
func (c InstrumentConfig) HasDistance(dist float64) bool {
	for _, d := range c.DistancesM {
		if d == dist {
			return true
		}
	}
	return false
}

// BeamGeometry derives the line-of-sight azimuths and zeniths from the
// configured elevation and telescope angles.
func (c InstrumentConfig) BeamGeometry() wind.BeamGeometry {
	var elev, tele [wind.NumBeams]float64
	for i := 0; i < wind.NumBeams; i++ {
		elev[i] = c.ElevationDeg[i] * math.Pi / 180
		tele[i] = c.TelescopeDeg[i] * math.Pi / 180
	}
	return wind.NewBeamGeometry(elev, tele)
}

// WindConfig assembles the reconstruction config for one measurement
// distance, combining the instrument description with the tuning values.
func (c InstrumentConfig) WindConfig(distance float64, tuning *TuningConfig) wind.Config {
	return wind.Config{
		Distance:           distance,
		LidarHeight:        c.LidarHeightM,
		HubHeight:          c.HubHeightM,
		PitchOffset:        c.PitchOffsetDeg * math.Pi / 180,
		RollOffset:         c.RollOffsetDeg * math.Pi / 180,
		Geometry:           c.BeamGeometry(),
		MotionCompensation: tuning.GetMotionCompensation(),
		Workers:            tuning.GetWorkers(),
	}
}
