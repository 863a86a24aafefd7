package wind

import "math"

// SamplePosition projects the measurement point of one beam into the world
// frame. The point sits at slant range dist along a line of sight with
// azimuth azm and zenith zn, in a frame rotated by pitch/roll and offset
// by the platform translation (heave, surge). The true range along the
// tilted beam is dist/cos(zn).
func SamplePosition(lidarHgt, dist, heave, surge, pitch, roll, azm, zn float64) (x, y, z float64) {
	d := dist / math.Cos(zn)

	x = math.Cos(pitch)*d*math.Cos(zn) +
		math.Sin(pitch)*math.Sin(zn)*d*(math.Sin(roll)*math.Cos(azm)-math.Cos(roll)*math.Sin(azm)) -
		math.Sin(pitch)*math.Cos(roll)*lidarHgt + surge

	y = math.Sin(zn)*d*(math.Cos(roll)*math.Cos(azm)+math.Sin(roll)*math.Sin(azm)) +
		math.Sin(roll)*lidarHgt

	z = math.Sin(pitch)*d*math.Cos(zn) +
		math.Cos(pitch)*math.Sin(zn)*d*(math.Cos(roll)*math.Sin(azm)-math.Sin(roll)*math.Cos(azm)) +
		math.Cos(pitch)*math.Cos(roll)*lidarHgt + heave

	return x, y, z
}

// InertialReferenceFrame returns the linear velocity of a measurement
// point due to rigid-body platform motion: the translational velocity
// plus the small-angle rotational velocity composition at the point's
// position.
func InertialReferenceFrame(velocity Vec3, angularVelocity EulerAngles, position Vec3) Vec3 {
	return Vec3{
		X: velocity.X + (angularVelocity.Yaw*position.Y - angularVelocity.Pitch*position.Z),
		Y: velocity.Y + (angularVelocity.Roll*position.Z - angularVelocity.Yaw*position.X),
		Z: velocity.Z + (angularVelocity.Pitch*position.X - angularVelocity.Roll*position.Y),
	}
}

// SampleHeight is the reduced form of the beam altitude used when only
// pitch/roll correction is required. Translation is folded into the fixed
// hub height + LIDAR height offset term. It is the z component of
// SamplePosition with the trigonometric scale collapsed:
//
//	scale = sin(zn)·cos(pitch)·sin(azm−roll) + cos(zn)·sin(pitch)
func SampleHeight(hubHgt, lidarHgt, dist, pitch, roll, azm, zn float64) float64 {
	scale := math.Sin(zn)*math.Cos(pitch)*math.Sin(azm-roll) + math.Cos(zn)*math.Sin(pitch)
	return hubHgt + lidarHgt + (dist/math.Cos(zn))*scale
}
