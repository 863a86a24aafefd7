package wind

import (
	"fmt"
	"math"
	"runtime"
)

// BeamGeometry holds the fixed line-of-sight angles of the four beams,
// indexed by LOS id.
type BeamGeometry struct {
	Azimuths [NumBeams]float64
	Zeniths  [NumBeams]float64
}

// NewBeamGeometry derives the beam azimuths and zeniths from the
// instrument's elevation and telescope angles (radians):
//
//	zenith  = acos(cos(elevation)·cos(telescope))
//	azimuth = atan2(sin(elevation), tan(telescope))
func NewBeamGeometry(elevation, telescope [NumBeams]float64) BeamGeometry {
	var g BeamGeometry
	for i := 0; i < NumBeams; i++ {
		g.Zeniths[i] = math.Acos(math.Cos(elevation[i]) * math.Cos(telescope[i]))
		g.Azimuths[i] = math.Atan2(math.Sin(elevation[i]), math.Tan(telescope[i]))
	}
	return g
}

// DefaultBeamGeometry returns the Wind Iris four-beam pattern:
// elevations +5°/+5°/−5°/−5° and telescope angles −15°/+15°/−15°/+15°.
func DefaultBeamGeometry() BeamGeometry {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	return NewBeamGeometry(
		[NumBeams]float64{rad(5), rad(5), rad(-5), rad(-5)},
		[NumBeams]float64{rad(-15), rad(15), rad(-15), rad(15)},
	)
}

// Config holds the fixed scalar configuration of one reconstruction run.
// All per-window computation is a pure function of four samples plus this
// configuration.
type Config struct {
	// Distance is the measurement slant range in meters. All samples of
	// one run share a distance.
	Distance float64

	// LidarHeight is the mounting height of the LIDAR.
	LidarHeight float64

	// HubHeight is the reference altitude wind properties are
	// extrapolated to.
	HubHeight float64

	// PitchOffset and RollOffset are calibration offsets added to every
	// sample's pose before processing, in radians.
	PitchOffset float64
	RollOffset  float64

	// Geometry is the fixed four-beam line-of-sight pattern.
	Geometry BeamGeometry

	// MotionCompensation selects the full-fidelity path: translation and
	// inertial-frame velocity corrections per beam. When false only
	// pitch/roll correction is applied.
	MotionCompensation bool

	// Workers caps the number of goroutines processing window offsets in
	// parallel. Zero means one per CPU.
	Workers int
}

// DefaultConfig returns the instrument defaults used by the original Wind
// Iris processing chain.
func DefaultConfig(distance float64) Config {
	return Config{
		Distance:    distance,
		LidarHeight: 4.5,
		HubHeight:   98.6,
		PitchOffset: -2.0 * math.Pi / 180,
		RollOffset:  0.4 * math.Pi / 180,
		Geometry:    DefaultBeamGeometry(),
	}
}

// Validate checks the configuration for values the pipeline cannot work
// with.
func (c Config) Validate() error {
	if c.Distance <= 0 {
		return fmt.Errorf("measurement distance must be positive, got %v", c.Distance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// workers resolves the effective worker count.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
