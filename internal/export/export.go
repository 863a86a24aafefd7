// Package export writes reconstructed wind results to parquet and CSV
// files for downstream analysis tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/windfield/internal/wind"
)

// WindfieldRow is the flattened on-disk layout of one reconstructed
// descriptor.
type WindfieldRow struct {
	TimestampNs    int64   `parquet:"timestamp_ns"`
	Shear          float64 `parquet:"shear"`
	Veer           float64 `parquet:"veer"`
	UpperStatus    int32   `parquet:"upper_status"`
	UpperSpeed     float64 `parquet:"upper_speed"`
	UpperDirection float64 `parquet:"upper_direction"`
	UpperX         float64 `parquet:"upper_x"`
	UpperY         float64 `parquet:"upper_y"`
	UpperHeight    float64 `parquet:"upper_height"`
	LowerStatus    int32   `parquet:"lower_status"`
	LowerSpeed     float64 `parquet:"lower_speed"`
	LowerDirection float64 `parquet:"lower_direction"`
	LowerX         float64 `parquet:"lower_x"`
	LowerY         float64 `parquet:"lower_y"`
	LowerHeight    float64 `parquet:"lower_height"`
}

// HubWindRow is the flattened layout of one hub-height result.
type HubWindRow struct {
	TimestampNs int64   `parquet:"timestamp_ns"`
	Valid       bool    `parquet:"valid"`
	Speed       float64 `parquet:"speed"`
	Direction   float64 `parquet:"direction"`
	Shear       float64 `parquet:"shear"`
	Veer        float64 `parquet:"veer"`
	SpeedUpper  float64 `parquet:"speed_upper"`
	SpeedLower  float64 `parquet:"speed_lower"`
}

func flattenWindfield(descriptors []wind.WindfieldDescriptor) []WindfieldRow {
	rows := make([]WindfieldRow, len(descriptors))
	for i, d := range descriptors {
		rows[i] = WindfieldRow{
			TimestampNs:    d.Time,
			Shear:          d.Shear,
			Veer:           d.Veer,
			UpperStatus:    int32(d.Upper.Status),
			UpperSpeed:     d.Upper.Speed,
			UpperDirection: d.Upper.Direction,
			UpperX:         d.Upper.X,
			UpperY:         d.Upper.Y,
			UpperHeight:    d.Upper.Height,
			LowerStatus:    int32(d.Lower.Status),
			LowerSpeed:     d.Lower.Speed,
			LowerDirection: d.Lower.Direction,
			LowerX:         d.Lower.X,
			LowerY:         d.Lower.Y,
			LowerHeight:    d.Lower.Height,
		}
	}
	return rows
}

func flattenHubWind(results []wind.HubWind) []HubWindRow {
	rows := make([]HubWindRow, len(results))
	for i, h := range results {
		rows[i] = HubWindRow{
			TimestampNs: h.Time,
			Valid:       h.Valid,
			Speed:       h.Speed,
			Direction:   h.Direction,
			Shear:       h.Shear,
			Veer:        h.Veer,
			SpeedUpper:  h.SpeedUpper,
			SpeedLower:  h.SpeedLower,
		}
	}
	return rows
}

// WriteWindfieldParquet writes descriptors as a parquet file.
func WriteWindfieldParquet(w io.Writer, descriptors []wind.WindfieldDescriptor) error {
	pw := parquet.NewGenericWriter[WindfieldRow](w)
	if _, err := pw.Write(flattenWindfield(descriptors)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return pw.Close()
}

// WriteHubWindParquet writes hub-height results as a parquet file.
func WriteHubWindParquet(w io.Writer, results []wind.HubWind) error {
	pw := parquet.NewGenericWriter[HubWindRow](w)
	if _, err := pw.Write(flattenHubWind(results)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return pw.Close()
}

// ReadWindfieldParquet reads back a parquet file written by
// WriteWindfieldParquet.
func ReadWindfieldParquet(path string) ([]WindfieldRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[WindfieldRow](pf)
	defer reader.Close()

	rows := make([]WindfieldRow, pf.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return rows[:read], nil
}

var windfieldCSVHeader = []string{
	"timestamp_ns", "shear", "veer",
	"upper_status", "upper_speed", "upper_direction", "upper_x", "upper_y", "upper_height",
	"lower_status", "lower_speed", "lower_direction", "lower_x", "lower_y", "lower_height",
}

// WriteWindfieldCSV writes descriptors as CSV with a header row.
func WriteWindfieldCSV(w io.Writer, descriptors []wind.WindfieldDescriptor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(windfieldCSVHeader); err != nil {
		return err
	}

	for _, d := range descriptors {
		row := []string{
			strconv.FormatInt(d.Time, 10),
			formatFloat(d.Shear), formatFloat(d.Veer),
			strconv.Itoa(d.Upper.Status),
			formatFloat(d.Upper.Speed), formatFloat(d.Upper.Direction),
			formatFloat(d.Upper.X), formatFloat(d.Upper.Y), formatFloat(d.Upper.Height),
			strconv.Itoa(d.Lower.Status),
			formatFloat(d.Lower.Speed), formatFloat(d.Lower.Direction),
			formatFloat(d.Lower.X), formatFloat(d.Lower.Y), formatFloat(d.Lower.Height),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportWindfieldFile writes descriptors to path, choosing the format
// from the file extension: .parquet, .csv, or .csv.gz.
func ExportWindfieldFile(path string, descriptors []wind.WindfieldDescriptor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".parquet"):
		return WriteWindfieldParquet(f, descriptors)
	case strings.HasSuffix(path, ".csv.gz"):
		gz := pgzip.NewWriter(f)
		if err := WriteWindfieldCSV(gz, descriptors); err != nil {
			return err
		}
		return gz.Close()
	case strings.HasSuffix(path, ".csv"):
		return WriteWindfieldCSV(f, descriptors)
	default:
		return fmt.Errorf("unsupported export format for %s: expected .parquet, .csv, or .csv.gz", path)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
