package wind

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrBeamBelowGround is returned by ReconstructHubWind when a reconstructed
// beam height is negative: the beam points below ground or sea level given
// the platform pose, and hub-height extrapolation is meaningless for the
// run. The whole batch call fails rather than skipping the window.
var ErrBeamBelowGround = errors.New("one or more beams point below ground/sea level")

// ReconstructWindfield runs the sliding-window reconstruction over a
// time-ordered sample stream and returns one WindfieldDescriptor per
// retained window, preserving input time order.
//
// The window advances one sample at a time; windows whose four samples do
// not cover all four beams are skipped entirely, and windows where neither
// plane is valid produce no descriptor. Output length is therefore at most
// len(samples)−3.
//
// Per-window work is a pure function of its four samples plus cfg, so
// offsets are processed in parallel on cfg.Workers goroutines writing to
// disjoint output slots.
func ReconstructWindfield(samples []Sample, cfg Config) ([]WindfieldDescriptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(samples) < NumBeams {
		return nil, nil
	}

	adjusted := applyPoseOffsets(samples, cfg)
	n := len(adjusted) - (NumBeams - 1)
	results := make([]*WindfieldDescriptor, n)

	runOffsets(n, cfg.workers(), func(i int) {
		var raw [NumBeams]Sample
		copy(raw[:], adjusted[i:i+NumBeams])

		win, ok := AssembleWindow(raw)
		if !ok {
			return
		}

		d := cfg.windowDescriptor(raw[0].Time, win)
		if d.Upper.Status == 1 || d.Lower.Status == 1 {
			results[i] = &d
		}
	})

	out := make([]WindfieldDescriptor, 0, n)
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ReconstructHubWind runs the strict, index-aligned variant: one HubWind
// row per input sample. Windows failing the strict predicate (fixed
// 0,1,2,3 beam order, all samples valid, time span under MaxWindowSpan)
// produce a NaN row instead of being skipped, so output rows stay aligned
// with input rows. The trailing len(samples) < 4 offsets are always NaN.
//
// Hub extrapolation only applies pitch/roll correction; translation and
// velocity fields of the samples are ignored.
func ReconstructHubWind(samples []Sample, cfg Config) ([]HubWind, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	adjusted := applyPoseOffsets(samples, cfg)
	out := make([]HubWind, len(adjusted))

	var (
		errMu    sync.Mutex
		fatalErr error
		fatalIdx int
	)

	runOffsets(len(adjusted), cfg.workers(), func(i int) {
		rest := adjusted[i:]
		if len(rest) < NumBeams || !strictWindowOK(rest) {
			out[i] = invalidHubWind(adjusted[i].Time)
			return
		}

		hw, err := cfg.hubWindow(rest[:NumBeams])
		if err != nil {
			// Keep the earliest offending window so the reported
			// error is stable regardless of goroutine scheduling.
			errMu.Lock()
			if fatalErr == nil || i < fatalIdx {
				fatalErr, fatalIdx = err, i
			}
			errMu.Unlock()
			out[i] = invalidHubWind(adjusted[i].Time)
			return
		}
		out[i] = hw
	})

	if fatalErr != nil {
		return nil, fatalErr
	}
	return out, nil
}

// windowDescriptor computes the full descriptor for one canonical window.
func (c Config) windowDescriptor(time int64, win Window) WindfieldDescriptor {
	g := c.Geometry
	upper := c.planeDescriptor(win[LOSUpperRight], win[LOSUpperLeft],
		g.Azimuths[LOSUpperRight], g.Azimuths[LOSUpperLeft],
		g.Zeniths[LOSUpperRight], g.Zeniths[LOSUpperLeft])
	lower := c.planeDescriptor(win[LOSLowerRight], win[LOSLowerLeft],
		g.Azimuths[LOSLowerRight], g.Azimuths[LOSLowerLeft],
		g.Zeniths[LOSLowerRight], g.Zeniths[LOSLowerLeft])

	d := WindfieldDescriptor{
		Time:  time,
		Shear: math.NaN(),
		Veer:  math.NaN(),
		Upper: upper,
		Lower: lower,
	}
	if upper.Status == 1 && lower.Status == 1 {
		d.Shear = Shear(upper.Speed, lower.Speed, upper.Height, lower.Height)
		d.Veer = Veer(upper.Direction, lower.Direction, upper.Height, lower.Height)
	}
	return d
}

// planeDescriptor reconstructs the wind in one horizontal plane from its
// two beams. Pitch and roll are averaged between the beams for the solver;
// beam positions use each beam's own pose. When motion compensation is
// disabled, translation and inertial terms are zero and the solve reduces
// to the plain two-equation form.
func (c Config) planeDescriptor(a, b Sample, azmA, azmB, znA, znB float64) PlanarDescriptor {
	if !a.Valid() || !b.Valid() {
		return invalidPlane()
	}

	rotation := EulerAngles{
		Pitch: (a.Rotation.Pitch + b.Rotation.Pitch) / 2,
		Roll:  (a.Rotation.Roll + b.Rotation.Roll) / 2,
	}

	// Plane altitude is measured from the hub reference, with the LIDAR
	// mount offset folded in.
	mountHgt := c.HubHeight + c.LidarHeight

	var heaveA, surgeA, heaveB, surgeB float64
	if c.MotionCompensation {
		heaveA, surgeA = a.Translation.Z, a.Translation.X
		heaveB, surgeB = b.Translation.Z, b.Translation.X
	}

	xA, yA, zA := SamplePosition(mountHgt, c.Distance, heaveA, surgeA,
		a.Rotation.Pitch, a.Rotation.Roll, azmA, znA)
	xB, yB, zB := SamplePosition(mountHgt, c.Distance, heaveB, surgeB,
		b.Rotation.Pitch, b.Rotation.Roll, azmB, znB)

	var ia, ib Vec3
	if c.MotionCompensation {
		ia = InertialReferenceFrame(a.Velocity, a.AngularVelocity, Vec3{X: xA, Y: yA, Z: zA})
		ib = InertialReferenceFrame(b.Velocity, b.AngularVelocity, Vec3{X: xB, Y: yB, Z: zB})
	}

	x, y := PlanarWindspeedMotion(a.RWS, b.RWS, rotation, azmA, azmB, znA, znB, ia, ib)

	return PlanarDescriptor{
		Status:    1,
		Speed:     math.Hypot(x, y),
		Direction: math.Atan2(y, x),
		X:         x,
		Y:         y,
		Height:    (zA + zB) / 2,
	}
}

// hubWindow computes the hub-height extrapolation for one strict window.
// The window is already in canonical beam order.
func (c Config) hubWindow(win []Sample) (HubWind, error) {
	g := c.Geometry

	var hgts [NumBeams]float64
	for i := 0; i < NumBeams; i++ {
		hgts[i] = SampleHeight(c.HubHeight, c.LidarHeight, c.Distance,
			win[i].Rotation.Pitch, win[i].Rotation.Roll, g.Azimuths[i], g.Zeniths[i])
		if hgts[i] < 0 {
			return HubWind{}, fmt.Errorf("beam %d at t=%d: height %.2fm: %w",
				i, win[i].Time, hgts[i], ErrBeamBelowGround)
		}
	}

	pitchUpr := (win[0].Rotation.Pitch + win[1].Rotation.Pitch) / 2
	pitchLwr := (win[2].Rotation.Pitch + win[3].Rotation.Pitch) / 2
	rollUpr := (win[0].Rotation.Roll + win[1].Rotation.Roll) / 2
	rollLwr := (win[2].Rotation.Roll + win[3].Rotation.Roll) / 2

	hgtUpr := (hgts[0] + hgts[1]) / 2
	hgtLwr := (hgts[2] + hgts[3]) / 2

	wsUpr, xUpr, yUpr := PlanarWindspeed(win[0].RWS, win[1].RWS, pitchUpr, rollUpr,
		g.Azimuths[0], g.Azimuths[1], g.Zeniths[0], g.Zeniths[1])
	wsLwr, xLwr, yLwr := PlanarWindspeed(win[2].RWS, win[3].RWS, pitchLwr, rollLwr,
		g.Azimuths[2], g.Azimuths[3], g.Zeniths[2], g.Zeniths[3])

	dirUpr := math.Atan2(yUpr, xUpr)
	dirLwr := math.Atan2(yLwr, xLwr)

	shr := Shear(wsUpr, wsLwr, hgtUpr, hgtLwr)
	vr := Veer(dirUpr, dirLwr, hgtUpr, hgtLwr)

	return HubWind{
		Time:       win[0].Time,
		Valid:      true,
		Speed:      ExtrapolateWindspeed(c.HubHeight, shr, wsLwr, hgtLwr),
		Direction:  ExtrapolateWindDirection(c.HubHeight, vr, dirLwr, hgtLwr),
		Shear:      shr,
		Veer:       vr,
		SpeedUpper: wsUpr,
		SpeedLower: wsLwr,
	}, nil
}

// applyPoseOffsets returns the sample stream with the calibration offsets
// added to every sample's pitch and roll. The input slice is not modified.
func applyPoseOffsets(samples []Sample, cfg Config) []Sample {
	if cfg.PitchOffset == 0 && cfg.RollOffset == 0 {
		return samples
	}
	out := make([]Sample, len(samples))
	copy(out, samples)
	for i := range out {
		out[i].Rotation.Pitch += cfg.PitchOffset
		out[i].Rotation.Roll += cfg.RollOffset
	}
	return out
}

// parallelThreshold is the smallest offset count worth fanning out over
// multiple goroutines.
const parallelThreshold = 256

// runOffsets calls fn(i) for every offset in [0, n), partitioning the
// index range across at most `workers` goroutines. Each fn call writes
// only to its own output slot, so no synchronization beyond the final
// join is required.
func runOffsets(n, workers int, fn func(int)) {
	if workers <= 1 || n < parallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
