package wind

import (
	"math"
	"testing"
)

// project computes the RWS a beam would measure for a horizontal wind
// vector, i.e. the forward projection the solver inverts.
func project(vx, vy, pitch, roll, azm, zn float64) float64 {
	cx, cy, _ := losCoefficients(pitch, roll, azm, zn)
	return cx*vx + cy*vy
}

func TestPlanarWindspeedRoundTrip(t *testing.T) {
	g := DefaultBeamGeometry()
	cases := []struct {
		name        string
		vx, vy      float64
		pitch, roll float64
	}{
		{"head wind level", 12, 0, 0, 0},
		{"cross wind level", 3, 7, 0, 0},
		{"tilted platform", 9, -2.5, 0.04, -0.02},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			azmA, azmB := g.Azimuths[0], g.Azimuths[1]
			znA, znB := g.Zeniths[0], g.Zeniths[1]

			rwsA := project(tc.vx, tc.vy, tc.pitch, tc.roll, azmA, znA)
			rwsB := project(tc.vx, tc.vy, tc.pitch, tc.roll, azmB, znB)

			spd, x, y := PlanarWindspeed(rwsA, rwsB, tc.pitch, tc.roll, azmA, azmB, znA, znB)

			if math.Abs(x-tc.vx) > 1e-9 || math.Abs(y-tc.vy) > 1e-9 {
				t.Errorf("recovered (%v, %v), want (%v, %v)", x, y, tc.vx, tc.vy)
			}
			if want := math.Hypot(tc.vx, tc.vy); math.Abs(spd-want) > 1e-9 {
				t.Errorf("speed = %v, want %v", spd, want)
			}

			// Round-trip: the recovered vector must satisfy both original
			// projection equations.
			if back := project(x, y, tc.pitch, tc.roll, azmA, znA); math.Abs(back-rwsA) > 1e-9 {
				t.Errorf("beam a projection = %v, want %v", back, rwsA)
			}
			if back := project(x, y, tc.pitch, tc.roll, azmB, znB); math.Abs(back-rwsB) > 1e-9 {
				t.Errorf("beam b projection = %v, want %v", back, rwsB)
			}
		})
	}
}

func TestPlanarWindspeedMotionZeroInertialMatchesReduced(t *testing.T) {
	g := DefaultBeamGeometry()
	rot := EulerAngles{Pitch: 0.03, Roll: -0.01}

	rwsA, rwsB := 6.2, 4.9
	_, xr, yr := PlanarWindspeed(rwsA, rwsB, rot.Pitch, rot.Roll,
		g.Azimuths[0], g.Azimuths[1], g.Zeniths[0], g.Zeniths[1])
	xm, ym := PlanarWindspeedMotion(rwsA, rwsB, rot,
		g.Azimuths[0], g.Azimuths[1], g.Zeniths[0], g.Zeniths[1], Vec3{}, Vec3{})

	if math.Abs(xr-xm) > 1e-12 || math.Abs(yr-ym) > 1e-12 {
		t.Errorf("motion solve with zero inertial frames (%v, %v) != reduced solve (%v, %v)",
			xm, ym, xr, yr)
	}
}

func TestPlanarWindspeedMotionRoundTrip(t *testing.T) {
	g := DefaultBeamGeometry()
	rot := EulerAngles{Pitch: 0.02, Roll: 0.01}
	vx, vy := 10.5, -3.2
	ia := Vec3{X: 0.4, Y: -0.2, Z: 0.9}
	ib := Vec3{X: -0.1, Y: 0.3, Z: 0.7}

	// RWS = a0·(Vx−Ix) + a1·(Vy−Iy) − a2·Iz with Vz assumed zero.
	rws := func(azm, zn float64, i Vec3) float64 {
		c0, c1, c2 := losCoefficients(rot.Pitch, rot.Roll, azm, zn)
		return c0*(vx-i.X) + c1*(vy-i.Y) - c2*i.Z
	}
	rwsA := rws(g.Azimuths[0], g.Zeniths[0], ia)
	rwsB := rws(g.Azimuths[1], g.Zeniths[1], ib)

	x, y := PlanarWindspeedMotion(rwsA, rwsB, rot,
		g.Azimuths[0], g.Azimuths[1], g.Zeniths[0], g.Zeniths[1], ia, ib)

	if math.Abs(x-vx) > 1e-9 || math.Abs(y-vy) > 1e-9 {
		t.Errorf("recovered (%v, %v), want (%v, %v)", x, y, vx, vy)
	}
}

func TestPlanarWindspeedDegenerateBeams(t *testing.T) {
	// Identical beams make the 2x2 system singular; the solver must
	// return NaN rather than an unbounded vector.
	spd, x, y := PlanarWindspeed(5, 5, 0, 0, 0.3, 0.3, 0.27, 0.27)
	if !math.IsNaN(spd) || !math.IsNaN(x) || !math.IsNaN(y) {
		t.Errorf("degenerate pair produced (%v, %v, %v), want NaN", spd, x, y)
	}

	xm, ym := PlanarWindspeedMotion(5, 5, EulerAngles{}, 0.3, 0.3, 0.27, 0.27, Vec3{}, Vec3{})
	if !math.IsNaN(xm) || !math.IsNaN(ym) {
		t.Errorf("degenerate motion pair produced (%v, %v), want NaN", xm, ym)
	}
}
