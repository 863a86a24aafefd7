package wind

import (
	"math"
	"testing"
)

func TestDefaultBeamGeometrySymmetry(t *testing.T) {
	g := DefaultBeamGeometry()

	// All four beams share the same cone half-angle.
	for i := 1; i < NumBeams; i++ {
		if math.Abs(g.Zeniths[i]-g.Zeniths[0]) > 1e-12 {
			t.Errorf("zenith %d = %v, want %v", i, g.Zeniths[i], g.Zeniths[0])
		}
	}

	want := math.Acos(math.Cos(5*math.Pi/180) * math.Cos(15*math.Pi/180))
	if math.Abs(g.Zeniths[0]-want) > 1e-12 {
		t.Errorf("zenith = %v, want %v", g.Zeniths[0], want)
	}

	// Beam pattern symmetry: within a plane the azimuths mirror about
	// the forward axis, and the lower beams are the upper ones reflected
	// below the horizontal.
	a := math.Atan2(math.Sin(5*math.Pi/180), math.Tan(15*math.Pi/180))
	checks := []struct {
		losID int
		want  float64
	}{
		{LOSUpperRight, math.Pi - a},
		{LOSUpperLeft, a},
		{LOSLowerRight, a - math.Pi},
		{LOSLowerLeft, -a},
	}
	for _, c := range checks {
		if math.Abs(g.Azimuths[c.losID]-c.want) > 1e-12 {
			t.Errorf("azimuth[%d] = %v, want %v", c.losID, g.Azimuths[c.losID], c.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig(120)
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Distance = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero distance accepted")
	}

	cfg = DefaultConfig(120)
	cfg.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative worker count accepted")
	}
}

func TestDefaultConfigOffsets(t *testing.T) {
	cfg := DefaultConfig(80)
	if math.Abs(cfg.PitchOffset-(-2*math.Pi/180)) > 1e-12 {
		t.Errorf("pitch offset = %v", cfg.PitchOffset)
	}
	if math.Abs(cfg.RollOffset-0.4*math.Pi/180) > 1e-12 {
		t.Errorf("roll offset = %v", cfg.RollOffset)
	}
	if cfg.HubHeight != 98.6 || cfg.LidarHeight != 4.5 {
		t.Errorf("heights = (%v, %v), want (98.6, 4.5)", cfg.HubHeight, cfg.LidarHeight)
	}
}
