package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultInstrumentConfig(t *testing.T) {
	cfg := DefaultInstrumentConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default instrument invalid: %v", err)
	}
	if !cfg.HasDistance(120) {
		t.Error("default distances should include 120m")
	}
	if cfg.HasDistance(99) {
		t.Error("99m is not a configured range gate")
	}

	g := cfg.BeamGeometry()
	want := math.Acos(math.Cos(5*math.Pi/180) * math.Cos(15*math.Pi/180))
	if math.Abs(g.Zeniths[0]-want) > 1e-12 {
		t.Errorf("derived zenith = %v, want %v", g.Zeniths[0], want)
	}
}

func TestLoadInstrumentConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instrument.yaml")
	data := `name: inst1
lidarHeight: 3.2
hubHeight: 90
pitchOffset: -1.5
rollOffset: 0.2
elevation: [5, 5, -5, -5]
telescope: [-15, 15, -15, 15]
distances: [80, 160]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadInstrumentConfig(path)
	if err != nil {
		t.Fatalf("LoadInstrumentConfig: %v", err)
	}
	if cfg.Name != "inst1" || cfg.LidarHeightM != 3.2 || cfg.HubHeightM != 90 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.DistancesM) != 2 {
		t.Errorf("distances = %v", cfg.DistancesM)
	}

	wc := cfg.WindConfig(80, EmptyTuningConfig())
	if wc.Distance != 80 || wc.HubHeight != 90 {
		t.Errorf("wind config = %+v", wc)
	}
	if math.Abs(wc.PitchOffset-(-1.5*math.Pi/180)) > 1e-12 {
		t.Errorf("pitch offset = %v", wc.PitchOffset)
	}
}

func TestLoadInstrumentConfigRejectsBadExtension(t *testing.T) {
	if _, err := LoadInstrumentConfig("instrument.toml"); err == nil {
		t.Error("non-YAML extension accepted")
	}
}

func TestLoadTuningConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	data := `{"motion_compensation": true, "workers": 2, "units": "kt"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if !cfg.GetMotionCompensation() || cfg.GetWorkers() != 2 || cfg.GetUnits() != "kt" {
		t.Errorf("unexpected tuning: %+v", cfg)
	}
	// Unset fields fall back to defaults.
	if cfg.GetHubExtrapolation() {
		t.Error("hub_extrapolation default should be false")
	}
}

func TestLoadTuningConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"units": "furlongs"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("unknown units accepted")
	}
}
