package wind

import "math"

// MinDeterminant is the smallest 2x2 system determinant the planar solver
// accepts. When the two beams of a plane are nearly coplanar the system
// degenerates and the recovered vector explodes; below this threshold the
// solver returns NaN instead of an arbitrarily large result.
const MinDeterminant = 1e-12

// losCoefficients returns the horizontal projection coefficients of one
// beam's unit line-of-sight vector in the pitch/roll rotated frame.
//
// The beam vector is RL = Ry(pitch)·Rx(roll)·L with
//
//	L = (cos zn, sin zn·cos azm, sin zn·sin azm)
//
// cx, cy and cz are the X, Y and Z components of RL. Projecting the wind
// vector onto RL and assuming zero vertical wind yields one linear
// equation per beam in the horizontal unknowns (Vx, Vy).
func losCoefficients(pitch, roll, azm, zn float64) (cx, cy, cz float64) {
	cx = math.Cos(pitch)*math.Cos(zn) +
		math.Cos(azm)*math.Sin(pitch)*math.Sin(roll)*math.Sin(zn) -
		math.Cos(roll)*math.Sin(pitch)*math.Sin(zn)*math.Sin(azm)

	cy = math.Cos(roll)*math.Cos(azm)*math.Sin(zn) +
		math.Sin(roll)*math.Sin(zn)*math.Sin(azm)

	cz = math.Cos(zn)*math.Sin(pitch) -
		math.Cos(pitch)*math.Cos(azm)*math.Sin(roll)*math.Sin(zn) +
		math.Cos(pitch)*math.Cos(roll)*math.Sin(zn)*math.Sin(azm)

	return cx, cy, cz
}

// PlanarWindspeed reconstructs the horizontal wind vector for one plane
// from the radial wind speeds of its two beams, without motion
// compensation. Beam a is the left one as seen from behind the LIDAR,
// beam b the right one. Solving
//
//	RWSa = a·Vx + b·Vy
//	RWSb = c·Vx + d·Vy
//
// by Cramer's rule gives
//
//	Vx = (b·RWSb − d·RWSa) / (b·c − d·a)
//	Vy = (RWSa − a·Vx) / b
//
// Returns the speed (vector norm) and the X/Y components. A near-zero
// determinant yields NaN for all three.
func PlanarWindspeed(rwsA, rwsB, pitch, roll, azmA, azmB, znA, znB float64) (spd, x, y float64) {
	a, b, _ := losCoefficients(pitch, roll, azmA, znA)
	c, d, _ := losCoefficients(pitch, roll, azmB, znB)

	det := b*c - d*a
	if math.Abs(det) < MinDeterminant {
		nan := math.NaN()
		return nan, nan, nan
	}

	x = (b*rwsB - d*rwsA) / det
	y = (rwsA - a*x) / b
	return math.Hypot(x, y), x, y
}

// PlanarWindspeedMotion reconstructs the horizontal wind vector for one
// plane with full motion compensation. ia and ib are the inertial
// reference frame velocities of the two measurement points (see
// InertialReferenceFrame); the measured RWS is the projection of the wind
// relative to the moving beam:
//
//	RWS = a0·(Vx−Ix) + a1·(Vy−Iy) − a2·Iz
//
// Yaw of the rotation is assumed zero. A near-zero determinant yields NaN
// components.
func PlanarWindspeedMotion(rwsA, rwsB float64, rotation EulerAngles, azmA, azmB, znA, znB float64, ia, ib Vec3) (x, y float64) {
	a0, a1, a2 := losCoefficients(rotation.Pitch, rotation.Roll, azmA, znA)
	b0, b1, b2 := losCoefficients(rotation.Pitch, rotation.Roll, azmB, znB)

	det := a0*b1 - a1*b0
	if math.Abs(det) < MinDeterminant {
		nan := math.NaN()
		return nan, nan
	}

	x = (a0*b1*ia.X - a1*b0*ib.X + a1*b1*(ia.Y-ib.Y) -
		a1*b2*ib.Z + a2*b1*ia.Z - a1*rwsB + b1*rwsA) / det

	y = (rwsA-a0*(x-ia.X)+a2*ia.Z)/a1 + ia.Y

	return x, y
}
