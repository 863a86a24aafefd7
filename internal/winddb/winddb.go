// Package winddb persists raw lidar telemetry and reconstructed wind
// results in a sqlite database. Schema changes are managed through
// embedded golang-migrate migrations.
package winddb

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/windfield/internal/wind"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and applies all
// pending migrations.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if err := database.MigrateUp(); err != nil {
		database.Close()
		return nil, err
	}

	return database, nil
}

// OpenDB opens the database without touching the schema. Used by the
// migrate subcommand, which manages the schema itself.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Sample inserts arrive from several goroutines; WAL keeps
	// readers unblocked while an ingest transaction is open.
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// InsertSamples stores a batch of raw telemetry samples for a single
// range gate inside one transaction.
func (db *DB) InsertSamples(distance float64, samples []wind.Sample) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rtd_samples (
			timestamp_ns, los_id, distance, rws, status,
			surge, sway, heave, pitch, roll, yaw,
			vel_x, vel_y, vel_z, omega_pitch, omega_roll, omega_yaw
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.Exec(
			s.Time, s.LOS, distance, s.RWS, s.Status,
			s.Translation.X, s.Translation.Y, s.Translation.Z,
			s.Rotation.Pitch, s.Rotation.Roll, s.Rotation.Yaw,
			s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
			s.AngularVelocity.Pitch, s.AngularVelocity.Roll, s.AngularVelocity.Yaw,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample at t=%d: %w", s.Time, err)
		}
	}

	return tx.Commit()
}

// LoadSamples returns all samples recorded for the given range gate
// with timestamps in [start, end), ordered by acquisition time. Pass
// start=0, end=math.MaxInt64 for everything.
func (db *DB) LoadSamples(distance float64, start, end int64) ([]wind.Sample, error) {
	rows, err := db.Query(`
		SELECT timestamp_ns, los_id, rws, status,
		       surge, sway, heave, pitch, roll, yaw,
		       vel_x, vel_y, vel_z, omega_pitch, omega_roll, omega_yaw
		FROM rtd_samples
		WHERE distance = ? AND timestamp_ns >= ? AND timestamp_ns < ?
		ORDER BY timestamp_ns`, distance, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []wind.Sample
	for rows.Next() {
		var s wind.Sample
		err := rows.Scan(
			&s.Time, &s.LOS, &s.RWS, &s.Status,
			&s.Translation.X, &s.Translation.Y, &s.Translation.Z,
			&s.Rotation.Pitch, &s.Rotation.Roll, &s.Rotation.Yaw,
			&s.Velocity.X, &s.Velocity.Y, &s.Velocity.Z,
			&s.AngularVelocity.Pitch, &s.AngularVelocity.Roll, &s.AngularVelocity.Yaw,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// SampleDistances lists the distinct range gates present in the
// samples table.
func (db *DB) SampleDistances() ([]float64, error) {
	rows, err := db.Query(`SELECT DISTINCT distance FROM rtd_samples ORDER BY distance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var distances []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		distances = append(distances, d)
	}
	return distances, rows.Err()
}

// Run records one reconstruction pass over stored samples.
type Run struct {
	ID                 string  `json:"id"`
	Instrument         string  `json:"instrument"`
	Distance           float64 `json:"distance"`
	MotionCompensation bool    `json:"motion_compensation"`
	SampleCount        int64   `json:"sample_count"`
	CreatedAt          string  `json:"created_at"`
}

// CreateRun inserts a new run record and returns its id.
func (db *DB) CreateRun(instrument string, distance float64, motionCompensation bool, sampleCount int) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO runs (id, instrument, distance, motion_compensation, sample_count)
		VALUES (?, ?, ?, ?, ?)`,
		id, instrument, distance, motionCompensation, sampleCount)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// Runs returns the recorded reconstruction runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, instrument, distance, motion_compensation, sample_count, created_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Instrument, &r.Distance, &r.MotionCompensation, &r.SampleCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// StoreWindfield persists reconstructed descriptors for a run. NaN
// values are stored as NULL.
func (db *DB) StoreWindfield(runID string, descriptors []wind.WindfieldDescriptor) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO windfield (
			run_id, timestamp_ns, shear, veer,
			upper_status, upper_speed, upper_direction, upper_x, upper_y, upper_height,
			lower_status, lower_speed, lower_direction, lower_x, lower_y, lower_height
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range descriptors {
		_, err := stmt.Exec(
			runID, d.Time, nullable(d.Shear), nullable(d.Veer),
			d.Upper.Status, nullable(d.Upper.Speed), nullable(d.Upper.Direction),
			nullable(d.Upper.X), nullable(d.Upper.Y), nullable(d.Upper.Height),
			d.Lower.Status, nullable(d.Lower.Speed), nullable(d.Lower.Direction),
			nullable(d.Lower.X), nullable(d.Lower.Y), nullable(d.Lower.Height),
		)
		if err != nil {
			return fmt.Errorf("failed to insert windfield row at t=%d: %w", d.Time, err)
		}
	}

	return tx.Commit()
}

// Windfield loads the descriptors stored for a run, ordered by time.
// NULL columns come back as NaN.
func (db *DB) Windfield(runID string) ([]wind.WindfieldDescriptor, error) {
	rows, err := db.Query(`
		SELECT timestamp_ns, shear, veer,
		       upper_status, upper_speed, upper_direction, upper_x, upper_y, upper_height,
		       lower_status, lower_speed, lower_direction, lower_x, lower_y, lower_height
		FROM windfield WHERE run_id = ? ORDER BY timestamp_ns`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var descriptors []wind.WindfieldDescriptor
	for rows.Next() {
		var d wind.WindfieldDescriptor
		var shear, veer sql.NullFloat64
		var us, ud, ux, uy, uh sql.NullFloat64
		var ls, ld, lx, ly, lh sql.NullFloat64
		err := rows.Scan(
			&d.Time, &shear, &veer,
			&d.Upper.Status, &us, &ud, &ux, &uy, &uh,
			&d.Lower.Status, &ls, &ld, &lx, &ly, &lh,
		)
		if err != nil {
			return nil, err
		}
		d.Shear, d.Veer = denull(shear), denull(veer)
		d.Upper.Speed, d.Upper.Direction = denull(us), denull(ud)
		d.Upper.X, d.Upper.Y, d.Upper.Height = denull(ux), denull(uy), denull(uh)
		d.Lower.Speed, d.Lower.Direction = denull(ls), denull(ld)
		d.Lower.X, d.Lower.Y, d.Lower.Height = denull(lx), denull(ly), denull(lh)
		descriptors = append(descriptors, d)
	}
	return descriptors, rows.Err()
}

// StoreHubWind persists hub-height rows for a run.
func (db *DB) StoreHubWind(runID string, rows []wind.HubWind) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO hub_wind (
			run_id, timestamp_ns, valid, speed, direction, shear, veer, speed_upper, speed_lower
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range rows {
		_, err := stmt.Exec(
			runID, h.Time, h.Valid,
			nullable(h.Speed), nullable(h.Direction),
			nullable(h.Shear), nullable(h.Veer),
			nullable(h.SpeedUpper), nullable(h.SpeedLower),
		)
		if err != nil {
			return fmt.Errorf("failed to insert hub wind row at t=%d: %w", h.Time, err)
		}
	}

	return tx.Commit()
}

// HubWind loads the hub-height rows stored for a run, ordered by time.
func (db *DB) HubWind(runID string) ([]wind.HubWind, error) {
	rows, err := db.Query(`
		SELECT timestamp_ns, valid, speed, direction, shear, veer, speed_upper, speed_lower
		FROM hub_wind WHERE run_id = ? ORDER BY timestamp_ns`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []wind.HubWind
	for rows.Next() {
		var h wind.HubWind
		var speed, dir, shear, veer, upr, lwr sql.NullFloat64
		if err := rows.Scan(&h.Time, &h.Valid, &speed, &dir, &shear, &veer, &upr, &lwr); err != nil {
			return nil, err
		}
		h.Speed, h.Direction = denull(speed), denull(dir)
		h.Shear, h.Veer = denull(shear), denull(veer)
		h.SpeedUpper, h.SpeedLower = denull(upr), denull(lwr)
		result = append(result, h)
	}
	return result, rows.Err()
}

// nullable maps NaN to NULL so sqlite round-trips invalid readings.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func denull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
