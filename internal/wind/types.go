// Package wind reconstructs horizontal wind vectors, vertical shear and
// directional veer from raw four-beam Doppler LIDAR telemetry measured on
// a moving platform.
//
// Each physical ping yields one radial wind speed (RWS) along one of four
// fixed line-of-sight beams. Samples arrive interleaved over time; a
// sliding four-sample window is assembled into one measurement, each beam
// is corrected for platform motion, beam pairs are solved for a planar
// wind vector, and shear/veer are derived from the two planes.
//
// The coordinate system throughout is left-handed, X-forward, Y-right,
// Z-up.
package wind

import "math"

// Line-of-sight beam identifiers. Beams 0 and 1 form the upper measurement
// plane, beams 2 and 3 the lower plane. Within a plane the even beam is the
// right one and the odd beam the left one, as seen from behind the LIDAR.
const (
	LOSUpperRight = 0
	LOSUpperLeft  = 1
	LOSLowerRight = 2
	LOSLowerLeft  = 3

	// NumBeams is the number of fixed beams in the scan pattern.
	NumBeams = 4
)

// Vec3 is a 3-component vector in the platform/world frame.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// EulerAngles describes an orientation or angular rate of the platform.
// Yaw is fixed at zero for this instrument.
type EulerAngles struct {
	Pitch float64
	Roll  float64
	Yaw   float64
}

// Sample is one beam measurement as delivered by the RTD telemetry stream.
// Samples are immutable once read; they have no identity beyond their
// position in the stream.
type Sample struct {
	// Time is a monotonic timestamp in nanoseconds.
	Time int64

	// LOS identifies which of the four beams produced this sample.
	LOS int

	// RWS is the measured radial wind speed, signed, in m/s.
	RWS float64

	// Translation holds the platform surge (X) and heave (Z) at sample
	// time. Sway (Y) is not measured and stays zero.
	Translation Vec3

	// Rotation holds the platform pitch and roll at sample time.
	Rotation EulerAngles

	// Velocity is the translational platform velocity (surge, sway, heave).
	Velocity Vec3

	// AngularVelocity is the angular platform velocity (pitch, roll, yaw).
	AngularVelocity EulerAngles

	// Status is the instrument validity flag: zero means invalid.
	Status int
}

// Valid reports whether the instrument flagged this sample as usable.
func (s Sample) Valid() bool { return s.Status != 0 }

// Window is a canonical measurement window: exactly one sample per beam,
// indexed by LOS id. Use AssembleWindow to build one from raw samples.
type Window [NumBeams]Sample

// PlanarDescriptor is the reconstructed wind in one horizontal plane
// (upper = beams 0&1, lower = beams 2&3). When Status is zero all numeric
// fields are NaN.
type PlanarDescriptor struct {
	// Status is 1 when both contributing beams were valid, 0 otherwise.
	Status int

	// Speed is the magnitude of the horizontal wind vector in m/s.
	Speed float64

	// Direction is atan2(Y, X) of the recovered vector, in radians.
	Direction float64

	// X and Y are the plane-frame wind vector components.
	X float64
	Y float64

	// Height is the mean beam-intersection altitude of the plane.
	Height float64
}

// invalidPlane is the NaN-filled descriptor emitted for a plane whose
// beams were not both valid.
func invalidPlane() PlanarDescriptor {
	nan := math.NaN()
	return PlanarDescriptor{Status: 0, Speed: nan, Direction: nan, X: nan, Y: nan, Height: nan}
}

// WindfieldDescriptor is one fully processed measurement window.
// Shear and Veer are NaN unless both planes are valid.
type WindfieldDescriptor struct {
	// Time is the timestamp of the first raw sample in the window.
	Time int64

	Shear float64
	Veer  float64

	Upper PlanarDescriptor
	Lower PlanarDescriptor
}

// HubWind is one hub-height extrapolated measurement, produced by
// ReconstructHubWind. Rows for rejected windows have Valid=false and all
// numeric fields NaN so that output stays aligned one row per input row.
type HubWind struct {
	// Time is the timestamp of the first raw sample in the window.
	Time int64

	// Valid reports whether the window passed the strict predicate.
	Valid bool

	// Speed and Direction are the wind speed and direction extrapolated
	// to hub height.
	Speed     float64
	Direction float64

	Shear float64
	Veer  float64

	// SpeedUpper and SpeedLower are the planar wind speeds the
	// extrapolation was derived from.
	SpeedUpper float64
	SpeedLower float64
}

// invalidHubWind returns the NaN row emitted for a rejected window.
func invalidHubWind(time int64) HubWind {
	nan := math.NaN()
	return HubWind{
		Time:       time,
		Valid:      false,
		Speed:      nan,
		Direction:  nan,
		Shear:      nan,
		Veer:       nan,
		SpeedUpper: nan,
		SpeedLower: nan,
	}
}
