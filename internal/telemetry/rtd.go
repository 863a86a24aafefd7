// Package telemetry ingests raw lidar real-time-data (RTD) records
// from CSV files, serial ports, and UDP streams and turns them into
// wind.Sample values.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/banshee-data/windfield/internal/wind"
)

// RTD records carry one line-of-sight acquisition each. Files start
// with a header row naming the columns; streamed records (serial,
// UDP) use the canonical column order below without a header.
var rtdColumns = []string{
	"timestamp_ns", "distance", "los_id", "rws", "status",
	"surge", "sway", "heave", "pitch", "roll", "yaw",
	"vel_x", "vel_y", "vel_z", "omega_pitch", "omega_roll", "omega_yaw",
}

// Columns that must be present in every RTD file.
var rtdRequired = []string{"timestamp_ns", "distance", "los_id", "rws", "status"}

// Record is a single parsed RTD line. Distance identifies the range
// gate the acquisition belongs to.
type Record struct {
	Distance float64
	Sample   wind.Sample
}

// RecordParser maps CSV fields onto Record values using a column
// index built from a header row, or from the canonical order for
// headerless streams.
type RecordParser struct {
	index map[string]int
}

// NewStreamParser returns a parser for headerless records in the
// canonical column order.
func NewStreamParser() *RecordParser {
	index := make(map[string]int, len(rtdColumns))
	for i, name := range rtdColumns {
		index[name] = i
	}
	return &RecordParser{index: index}
}

// NewHeaderParser builds a parser from a header row. Column order is
// free; motion columns may be absent and default to zero.
func NewHeaderParser(header []string) (*RecordParser, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range rtdRequired {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("rtd header missing required column %q", name)
		}
	}
	return &RecordParser{index: index}, nil
}

// Parse converts one CSV record into a Record.
func (p *RecordParser) Parse(fields []string) (Record, error) {
	var rec Record
	var err error

	getF := func(name string) float64 {
		if err != nil {
			return 0
		}
		i, ok := p.index[name]
		if !ok || i >= len(fields) {
			return 0
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if perr != nil {
			err = fmt.Errorf("bad %s value %q", name, fields[i])
			return 0
		}
		return v
	}
	getI := func(name string) int64 {
		if err != nil {
			return 0
		}
		i, ok := p.index[name]
		if !ok || i >= len(fields) {
			return 0
		}
		v, perr := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
		if perr != nil {
			err = fmt.Errorf("bad %s value %q", name, fields[i])
			return 0
		}
		return v
	}

	rec.Sample.Time = getI("timestamp_ns")
	rec.Distance = getF("distance")
	rec.Sample.LOS = int(getI("los_id"))
	rec.Sample.RWS = getF("rws")
	rec.Sample.Status = int(getI("status"))
	rec.Sample.Translation = wind.Vec3{X: getF("surge"), Y: getF("sway"), Z: getF("heave")}
	rec.Sample.Rotation = wind.EulerAngles{Pitch: getF("pitch"), Roll: getF("roll"), Yaw: getF("yaw")}
	rec.Sample.Velocity = wind.Vec3{X: getF("vel_x"), Y: getF("vel_y"), Z: getF("vel_z")}
	rec.Sample.AngularVelocity = wind.EulerAngles{
		Pitch: getF("omega_pitch"), Roll: getF("omega_roll"), Yaw: getF("omega_yaw"),
	}

	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ParseLine parses a single comma-separated streamed record.
func (p *RecordParser) ParseLine(line string) (Record, error) {
	return p.Parse(strings.Split(strings.TrimSpace(line), ","))
}

// ReadRTD reads an RTD CSV stream and returns the samples for the
// requested range gate, in file order. Records for other gates are
// skipped.
func ReadRTD(r io.Reader, distance float64) ([]wind.Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rtd header: %w", err)
	}

	parser, err := NewHeaderParser(header)
	if err != nil {
		return nil, err
	}

	var samples []wind.Sample
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rtd line %d: %w", line, err)
		}
		rec, err := parser.Parse(fields)
		if err != nil {
			return nil, fmt.Errorf("rtd line %d: %w", line, err)
		}
		if rec.Distance != distance {
			continue
		}
		samples = append(samples, rec.Sample)
	}

	return samples, nil
}

// LoadRTDFile reads an RTD file from disk. Files ending in .gz are
// decompressed transparently.
func LoadRTDFile(path string, distance float64) ([]wind.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		// Parallel decompression keeps large capture files fast.
		gz, err := pgzip.NewReaderN(f, 1<<20, 4)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return ReadRTD(r, distance)
}

// ReadRTDRecords reads all records regardless of range gate. Useful
// for ingest, which routes each record to its gate.
func ReadRTDRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rtd header: %w", err)
	}

	parser, err := NewHeaderParser(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rtd line %d: %w", line, err)
		}
		rec, err := parser.Parse(fields)
		if err != nil {
			return nil, fmt.Errorf("rtd line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}
