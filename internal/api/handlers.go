package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/banshee-data/windfield/internal/report"
	"github.com/banshee-data/windfield/internal/units"
	"github.com/banshee-data/windfield/internal/wind"
)

// WindfieldAPI is the JSON shape of one reconstructed descriptor.
// Invalid readings are NaN internally; JSON cannot carry NaN, so
// those fields are pointers and serialize as null.
type WindfieldAPI struct {
	TimestampNs    int64    `json:"timestamp_ns"`
	Shear          *float64 `json:"shear"`
	Veer           *float64 `json:"veer"`
	UpperValid     bool     `json:"upper_valid"`
	UpperSpeed     *float64 `json:"upper_speed"`
	UpperDirection *float64 `json:"upper_direction"`
	UpperHeight    *float64 `json:"upper_height"`
	LowerValid     bool     `json:"lower_valid"`
	LowerSpeed     *float64 `json:"lower_speed"`
	LowerDirection *float64 `json:"lower_direction"`
	LowerHeight    *float64 `json:"lower_height"`
}

// HubWindAPI is the JSON shape of one hub-height result row.
type HubWindAPI struct {
	TimestampNs int64    `json:"timestamp_ns"`
	Valid       bool     `json:"valid"`
	Speed       *float64 `json:"speed"`
	Direction   *float64 `json:"direction"`
	Shear       *float64 `json:"shear"`
	Veer        *float64 `json:"veer"`
	SpeedUpper  *float64 `json:"speed_upper"`
	SpeedLower  *float64 `json:"speed_lower"`
}

func apiFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) apiSpeed(v float64) *float64 {
	return apiFloat(units.ConvertSpeed(v, s.units))
}

func (s *Server) windfieldToAPI(d wind.WindfieldDescriptor) WindfieldAPI {
	return WindfieldAPI{
		TimestampNs:    d.Time,
		Shear:          apiFloat(d.Shear),
		Veer:           apiFloat(d.Veer),
		UpperValid:     d.Upper.Status != 0,
		UpperSpeed:     s.apiSpeed(d.Upper.Speed),
		UpperDirection: apiFloat(d.Upper.Direction),
		UpperHeight:    apiFloat(d.Upper.Height),
		LowerValid:     d.Lower.Status != 0,
		LowerSpeed:     s.apiSpeed(d.Lower.Speed),
		LowerDirection: apiFloat(d.Lower.Direction),
		LowerHeight:    apiFloat(d.Lower.Height),
	}
}

func (s *Server) hubWindToAPI(h wind.HubWind) HubWindAPI {
	return HubWindAPI{
		TimestampNs: h.Time,
		Valid:       h.Valid,
		Speed:       s.apiSpeed(h.Speed),
		Direction:   apiFloat(h.Direction),
		Shear:       apiFloat(h.Shear),
		Veer:        apiFloat(h.Veer),
		SpeedUpper:  s.apiSpeed(h.SpeedUpper),
		SpeedLower:  s.apiSpeed(h.SpeedLower),
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(); err != nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, fmt.Sprintf("database unavailable: %v", err))
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runs, err := s.db.Runs()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write runs")
		return
	}
}

// runParam extracts and validates the run query parameter shared by
// the result endpoints.
func (s *Server) runParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return "", false
	}
	runID := r.URL.Query().Get("run")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'run' parameter")
		return "", false
	}
	return runID, true
}

func (s *Server) showWindfield(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	runID, ok := s.runParam(w, r)
	if !ok {
		return
	}

	descriptors, err := s.db.Windfield(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve windfield: %v", err))
		return
	}

	apiRows := make([]WindfieldAPI, len(descriptors))
	for i, d := range descriptors {
		apiRows[i] = s.windfieldToAPI(d)
	}

	if err := json.NewEncoder(w).Encode(apiRows); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write windfield")
		return
	}
}

func (s *Server) showHubWind(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	runID, ok := s.runParam(w, r)
	if !ok {
		return
	}

	rows, err := s.db.HubWind(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve hub wind: %v", err))
		return
	}

	apiRows := make([]HubWindAPI, len(rows))
	for i, h := range rows {
		apiRows[i] = s.hubWindToAPI(h)
	}

	if err := json.NewEncoder(w).Encode(apiRows); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write hub wind")
		return
	}
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	runID, ok := s.runParam(w, r)
	if !ok {
		return
	}

	descriptors, err := s.db.Windfield(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve windfield: %v", err))
		return
	}

	summary := report.Summarize(descriptors)

	// Summary statistics carry NaN when a series has no valid
	// samples; scrub them for JSON.
	out := map[string]interface{}{
		"descriptors": summary.Descriptors,
		"upper_speed": seriesToAPI(summary.UpperSpeed),
		"lower_speed": seriesToAPI(summary.LowerSpeed),
		"shear":       seriesToAPI(summary.Shear),
		"veer":        seriesToAPI(summary.Veer),
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write summary")
		return
	}
}

func seriesToAPI(s report.SeriesStats) map[string]interface{} {
	return map[string]interface{}{
		"count":   s.Count,
		"mean":    apiFloat(s.Mean),
		"std_dev": apiFloat(s.StdDev),
		"min":     apiFloat(s.Min),
		"max":     apiFloat(s.Max),
		"median":  apiFloat(s.Median),
	}
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runParam(w, r)
	if !ok {
		return
	}

	descriptors, err := s.db.Windfield(runID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve windfield: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTMLReport(w, "Run "+runID, descriptors); err != nil {
		http.Error(w, fmt.Sprintf("Failed to render report: %v", err), http.StatusInternalServerError)
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"units": s.units,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
