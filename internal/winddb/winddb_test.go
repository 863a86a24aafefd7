package winddb

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/windfield/internal/wind"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "wind_test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsApply(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("fresh database is dirty")
	}

	latest, err := LatestMigrationVersion()
	if err != nil {
		t.Fatalf("LatestMigrationVersion failed: %v", err)
	}
	if version != latest {
		t.Errorf("version = %d, want %d", version, latest)
	}
}

func TestSampleRoundTrip(t *testing.T) {
	db := openTestDB(t)

	samples := []wind.Sample{
		{
			Time: 1000, LOS: 0, RWS: 8.5, Status: 1,
			Translation:     wind.Vec3{X: 0.1, Y: -0.2, Z: 0.3},
			Rotation:        wind.EulerAngles{Pitch: 0.01, Roll: -0.02, Yaw: 0.5},
			Velocity:        wind.Vec3{X: 1.5, Y: 0, Z: -0.1},
			AngularVelocity: wind.EulerAngles{Pitch: 0.001, Roll: 0.002, Yaw: 0.003},
		},
		{Time: 1200, LOS: 1, RWS: 8.1, Status: 1},
		{Time: 1400, LOS: 2, RWS: 7.9, Status: 0},
	}

	if err := db.InsertSamples(120, samples); err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}

	got, err := db.LoadSamples(120, 0, math.MaxInt64)
	if err != nil {
		t.Fatalf("LoadSamples failed: %v", err)
	}
	if diff := cmp.Diff(samples, got); diff != "" {
		t.Errorf("sample round trip mismatch (-want +got):\n%s", diff)
	}

	// Other range gates stay separate.
	other, err := db.LoadSamples(200, 0, math.MaxInt64)
	if err != nil {
		t.Fatalf("LoadSamples(200) failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d samples for unused distance", len(other))
	}
}

func TestLoadSamplesTimeRange(t *testing.T) {
	db := openTestDB(t)

	samples := []wind.Sample{
		{Time: 100, LOS: 0, RWS: 1, Status: 1},
		{Time: 200, LOS: 1, RWS: 2, Status: 1},
		{Time: 300, LOS: 2, RWS: 3, Status: 1},
	}
	if err := db.InsertSamples(80, samples); err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}

	got, err := db.LoadSamples(80, 150, 300)
	if err != nil {
		t.Fatalf("LoadSamples failed: %v", err)
	}
	if len(got) != 1 || got[0].Time != 200 {
		t.Errorf("range query returned %+v, want single sample at t=200", got)
	}
}

func TestSampleDistances(t *testing.T) {
	db := openTestDB(t)

	for _, d := range []float64{200, 80, 120} {
		if err := db.InsertSamples(d, []wind.Sample{{Time: 1, Status: 1}}); err != nil {
			t.Fatalf("InsertSamples(%v) failed: %v", d, err)
		}
	}

	got, err := db.SampleDistances()
	if err != nil {
		t.Fatalf("SampleDistances failed: %v", err)
	}
	want := []float64{80, 120, 200}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("distances mismatch (-want +got):\n%s", diff)
	}
}

func TestWindfieldRoundTrip(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.CreateRun("test-unit", 120, true, 8)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	descriptors := []wind.WindfieldDescriptor{
		{
			Time:  1000,
			Shear: 0.14,
			Veer:  -0.002,
			Upper: wind.PlanarDescriptor{Status: 1, Speed: 9.1, Direction: 0.2, X: 8.9, Y: 1.8, Height: 130},
			Lower: wind.PlanarDescriptor{Status: 1, Speed: 8.4, Direction: 0.21, X: 8.2, Y: 1.7, Height: 110},
		},
		{
			// Lower plane rejected: NaN fields must survive storage.
			Time:  2000,
			Shear: math.NaN(),
			Veer:  math.NaN(),
			Upper: wind.PlanarDescriptor{Status: 1, Speed: 9.3, Direction: 0.19, X: 9.1, Y: 1.7, Height: 130},
			Lower: wind.PlanarDescriptor{Status: 0, Speed: math.NaN(), Direction: math.NaN(), X: math.NaN(), Y: math.NaN(), Height: math.NaN()},
		},
	}

	if err := db.StoreWindfield(runID, descriptors); err != nil {
		t.Fatalf("StoreWindfield failed: %v", err)
	}

	got, err := db.Windfield(runID)
	if err != nil {
		t.Fatalf("Windfield failed: %v", err)
	}
	if diff := cmp.Diff(descriptors, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("windfield round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHubWindRoundTrip(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.CreateRun("test-unit", 80, false, 4)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	rows := []wind.HubWind{
		{Time: 500, Valid: true, Speed: 7.7, Direction: 0.1, Shear: 0.12, Veer: 0, SpeedUpper: 8.0, SpeedLower: 7.4},
		{Time: 700, Valid: false, Speed: math.NaN(), Direction: math.NaN(), Shear: math.NaN(), Veer: math.NaN(), SpeedUpper: math.NaN(), SpeedLower: math.NaN()},
	}

	if err := db.StoreHubWind(runID, rows); err != nil {
		t.Fatalf("StoreHubWind failed: %v", err)
	}

	got, err := db.HubWind(runID)
	if err != nil {
		t.Fatalf("HubWind failed: %v", err)
	}
	if diff := cmp.Diff(rows, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("hub wind round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)

	id1, err := db.CreateRun("inst-a", 120, false, 100)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	id2, err := db.CreateRun("inst-b", 200, true, 50)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if id1 == id2 {
		t.Fatal("runs share an id")
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	for _, r := range runs {
		if r.ID != id1 && r.ID != id2 {
			t.Errorf("unexpected run id %q", r.ID)
		}
	}
}
