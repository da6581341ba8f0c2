package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

// Run is one recorded reconstruction: where the data came from, the
// parameters it ran with, and how many rows went in and out.
type Run struct {
	ID              string
	Source          string
	Day             string
	Params          string // pipeline config as JSON
	SmoothingMethod string
	InputRows       int
	OutputRows      int
	CreatedAt       time.Time
}

func (r *Run) String() string {
	return fmt.Sprintf("%s  %s  day=%s  method=%s  rows=%d/%d",
		r.ID, r.Source, r.Day, r.SmoothingMethod, r.OutputRows, r.InputRows)
}

// RecordRun persists one processed trace together with its parameters and
// returns the new run ID. Sample columns that the trace does not carry, and
// NaN or infinite cells, are stored as NULL.
func (db *DB) RecordRun(source, day string, cfg *pipeline.Config, inputRows int, tr *trace.Trace) (string, error) {
	params, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal run params: %w", err)
	}

	method := cfg.GetSmoothingMethod()
	if sel, err := tr.Strings(pipeline.SelectedMethodCol); err == nil && len(sel) > 0 {
		method = sel[0]
	}

	id := uuid.New().String()

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, source, day, params, smoothing_method, input_rows, output_rows)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, source, day, string(params), method, inputRows, tr.NumRows())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_samples (run_id, idx, x, y, heading_deg, yaw_rate_deg_s, dt, speed_mps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	xs := columnOrNil(tr, cfg.GetXCol())
	ys := columnOrNil(tr, cfg.GetYCol())
	headings := columnOrNil(tr, cfg.GetHeadingCol())
	yawRates := columnOrNil(tr, pipeline.YawRateCol)
	dts := columnOrNil(tr, cfg.GetDtCol())
	speeds := columnOrNil(tr, cfg.GetSpeedCol())

	for i := 0; i < tr.NumRows(); i++ {
		_, err := stmt.Exec(id, i,
			cell(xs, i), cell(ys, i), cell(headings, i), cell(yawRates, i),
			cell(dts, i), cell(speeds, i))
		if err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT run_id, source, day, params, smoothing_method, input_rows, output_rows, created_at
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns the run record for id.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, source, day, params, smoothing_method, input_rows, output_rows, created_at
		FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return r, err
}

// SpeedSampleCol is the column name measured speed comes back under when a
// run's samples are reloaded, regardless of the source column binding.
const SpeedSampleCol = "speed_mps"

// LoadRunSamples rebuilds a trace from the stored samples of a run. NULL
// cells come back as NaN.
func (db *DB) LoadRunSamples(id string) (*trace.Trace, error) {
	rows, err := db.Query(`
		SELECT x, y, heading_deg, yaw_rate_deg_s, dt, speed_mps
		FROM run_samples WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var xs, ys, headings, yawRates, dts, speeds []float64
	for rows.Next() {
		var x, y, heading, yawRate, dt, speed sql.NullFloat64
		if err := rows.Scan(&x, &y, &heading, &yawRate, &dt, &speed); err != nil {
			return nil, err
		}
		xs = append(xs, floatOrNaN(x))
		ys = append(ys, floatOrNaN(y))
		headings = append(headings, floatOrNaN(heading))
		yawRates = append(yawRates, floatOrNaN(yawRate))
		dts = append(dts, floatOrNaN(dt))
		speeds = append(speeds, floatOrNaN(speed))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tr := trace.New(len(xs))
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{"x", xs}, {"y", ys}, {"heading_deg", headings},
		{pipeline.YawRateCol, yawRates}, {"dt", dts},
		{SpeedSampleCol, speeds},
	} {
		if err := tr.SetFloats(col.name, col.vals); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var day sql.NullString
	var created sql.NullString
	if err := row.Scan(&r.ID, &r.Source, &day, &r.Params, &r.SmoothingMethod,
		&r.InputRows, &r.OutputRows, &created); err != nil {
		return nil, err
	}
	r.Day = day.String
	if created.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", created.String); err == nil {
			r.CreatedAt = t
		}
	}
	return &r, nil
}

func columnOrNil(tr *trace.Trace, name string) []float64 {
	vals, err := tr.Floats(name)
	if err != nil {
		return nil
	}
	return vals
}

func cell(vals []float64, i int) interface{} {
	if vals == nil {
		return nil
	}
	v := vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
