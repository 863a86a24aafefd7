package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/windfield/internal/wind"
	"github.com/banshee-data/windfield/internal/winddb"
)

func newTestServer(t *testing.T, units string) (*Server, string) {
	t.Helper()
	db, err := winddb.NewDB(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runID, err := db.CreateRun("test-unit", 120, false, 8)
	require.NoError(t, err)

	descriptors := []wind.WindfieldDescriptor{
		{
			Time:  1000,
			Shear: 0.14,
			Veer:  -0.002,
			Upper: wind.PlanarDescriptor{Status: 1, Speed: 10.0, Direction: 0.2, Height: 130},
			Lower: wind.PlanarDescriptor{Status: 1, Speed: 8.0, Direction: 0.21, Height: 110},
		},
		{
			Time:  2000,
			Shear: math.NaN(),
			Veer:  math.NaN(),
			Upper: wind.PlanarDescriptor{Status: 1, Speed: 9.0, Direction: 0.19, Height: 130},
			Lower: wind.PlanarDescriptor{Status: 0, Speed: math.NaN(), Direction: math.NaN(), Height: math.NaN()},
		},
	}
	require.NoError(t, db.StoreWindfield(runID, descriptors))

	hub := []wind.HubWind{
		{Time: 1000, Valid: true, Speed: 9.0, Direction: 0.2, Shear: 0.14, SpeedUpper: 10.0, SpeedLower: 8.0},
		{Time: 2000, Valid: false, Speed: math.NaN(), Direction: math.NaN(), Shear: math.NaN(), Veer: math.NaN(), SpeedUpper: math.NaN(), SpeedLower: math.NaN()},
	}
	require.NoError(t, db.StoreHubWind(runID, hub))

	return NewServer(db, units), runID
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, "mps")
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestListRuns(t *testing.T) {
	s, runID := newTestServer(t, "mps")
	rec := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []winddb.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "test-unit", runs[0].Instrument)
}

func TestShowWindfield(t *testing.T) {
	s, runID := newTestServer(t, "mps")
	rec := get(t, s, "/api/windfield?run="+runID)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []WindfieldAPI
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)

	assert.True(t, rows[0].UpperValid)
	require.NotNil(t, rows[0].UpperSpeed)
	assert.InDelta(t, 10.0, *rows[0].UpperSpeed, 1e-12)

	// Rejected lower plane serializes as nulls, not NaN.
	assert.False(t, rows[1].LowerValid)
	assert.Nil(t, rows[1].LowerSpeed)
	assert.Nil(t, rows[1].Shear)
}

func TestShowWindfieldUnitConversion(t *testing.T) {
	s, runID := newTestServer(t, "mph")
	rec := get(t, s, "/api/windfield?run="+runID)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []WindfieldAPI
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.NotEmpty(t, rows)
	require.NotNil(t, rows[0].UpperSpeed)
	assert.InDelta(t, 22.369362920544, *rows[0].UpperSpeed, 1e-9)
	// Directions are angles and never converted.
	require.NotNil(t, rows[0].UpperDirection)
	assert.InDelta(t, 0.2, *rows[0].UpperDirection, 1e-12)
}

func TestShowHubWind(t *testing.T) {
	s, runID := newTestServer(t, "mps")
	rec := get(t, s, "/api/hubwind?run="+runID)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []HubWindAPI
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Valid)
	assert.False(t, rows[1].Valid)
	assert.Nil(t, rows[1].Speed)
}

func TestShowSummary(t *testing.T) {
	s, runID := newTestServer(t, "mps")
	rec := get(t, s, "/api/summary?run="+runID)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out, "upper_speed")
	assert.Contains(t, out, "shear")
}

func TestShowReport(t *testing.T) {
	s, runID := newTestServer(t, "mps")
	rec := get(t, s, "/api/report?run="+runID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Planar Wind Speed")
}

func TestRunParamRequired(t *testing.T) {
	s, _ := newTestServer(t, "mps")
	for _, path := range []string{"/api/windfield", "/api/hubwind", "/api/summary"} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, runID := newTestServer(t, "mps")
	req := httptest.NewRequest(http.MethodPost, "/api/windfield?run="+runID, nil)
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestShowConfig(t *testing.T) {
	s, _ := newTestServer(t, "kmph")
	rec := get(t, s, "/api/config")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kmph"`)
}
