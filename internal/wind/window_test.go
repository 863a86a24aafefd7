package wind

import (
	"testing"
	"time"
)

func beamSample(losID int, ts int64) Sample {
	return Sample{Time: ts, LOS: losID, RWS: float64(losID), Status: 1}
}

func TestAssembleWindowScattersByLOS(t *testing.T) {
	raw := [NumBeams]Sample{
		beamSample(2, 100),
		beamSample(0, 200),
		beamSample(3, 300),
		beamSample(1, 400),
	}

	win, ok := AssembleWindow(raw)
	if !ok {
		t.Fatal("scrambled but complete window was rejected")
	}
	for i := 0; i < NumBeams; i++ {
		if win[i].LOS != i {
			t.Errorf("slot %d holds beam %d", i, win[i].LOS)
		}
	}
	// Slot 0 must hold the sample that arrived second.
	if win[0].Time != 200 {
		t.Errorf("slot 0 time = %d, want 200", win[0].Time)
	}
}

func TestAssembleWindowRejections(t *testing.T) {
	cases := []struct {
		name string
		ids  [NumBeams]int
	}{
		{"duplicate beam", [NumBeams]int{0, 1, 1, 3}},
		{"missing beam", [NumBeams]int{0, 1, 2, 2}},
		{"out of range high", [NumBeams]int{0, 1, 2, 4}},
		{"out of range negative", [NumBeams]int{-1, 1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var raw [NumBeams]Sample
			for i, id := range tc.ids {
				raw[i] = beamSample(id, int64(i))
			}
			if _, ok := AssembleWindow(raw); ok {
				t.Errorf("window with ids %v was not rejected", tc.ids)
			}
		})
	}
}

func TestStrictWindowOK(t *testing.T) {
	ordered := func() []Sample {
		return []Sample{
			beamSample(0, 0),
			beamSample(1, 1e9),
			beamSample(2, 2e9),
			beamSample(3, 3e9),
		}
	}

	if !strictWindowOK(ordered()) {
		t.Error("well-formed ordered window rejected")
	}

	outOfOrder := ordered()
	outOfOrder[0], outOfOrder[1] = outOfOrder[1], outOfOrder[0]
	if strictWindowOK(outOfOrder) {
		t.Error("out-of-order beams accepted")
	}

	invalid := ordered()
	invalid[2].Status = 0
	if strictWindowOK(invalid) {
		t.Error("window with invalid sample accepted")
	}

	slow := ordered()
	slow[3].Time = slow[0].Time + int64(5*time.Second)
	if strictWindowOK(slow) {
		t.Error("window spanning exactly the limit accepted; bound is exclusive")
	}

	fast := ordered()
	fast[3].Time = fast[0].Time + int64(5*time.Second) - 1
	if !strictWindowOK(fast) {
		t.Error("window just inside the span limit rejected")
	}
}
