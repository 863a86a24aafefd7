package wind

import "time"

// MaxWindowSpan is the largest time span, in nanoseconds, a strict window
// may cover. Four beam samples further apart than this no longer describe
// one coherent measurement.
const MaxWindowSpan = int64(5 * time.Second)

// AssembleWindow validates four consecutive raw samples and scatters them
// into canonical beam slots. It requires every LOS id to be in range and
// the four ids to collectively cover {0,1,2,3} exactly once, in any order.
// Windows violating either check are rejected: ok is false and the
// returned Window must not be used.
func AssembleWindow(raw [NumBeams]Sample) (win Window, ok bool) {
	var found [NumBeams]bool
	for _, s := range raw {
		if s.LOS < 0 || s.LOS >= NumBeams {
			return win, false
		}
		found[s.LOS] = true
	}
	if !found[0] || !found[1] || !found[2] || !found[3] {
		return win, false
	}

	for _, s := range raw {
		win[s.LOS] = s
	}
	return win, true
}

// strictWindowOK is the predicate for the index-aligned hub variant. It
// additionally requires the LOS ids to appear in fixed (0,1,2,3) order,
// every sample to carry a valid status, and the window's time span to be
// below MaxWindowSpan. Raw samples passing this predicate are already in
// canonical beam order.
func strictWindowOK(raw []Sample) bool {
	for i, s := range raw[:NumBeams] {
		if s.LOS != i || !s.Valid() {
			return false
		}
	}

	minT, maxT := raw[0].Time, raw[0].Time
	for _, s := range raw[1:NumBeams] {
		if s.Time < minT {
			minT = s.Time
		}
		if s.Time > maxT {
			maxT = s.Time
		}
	}
	return maxT-minT < MaxWindowSpan
}
