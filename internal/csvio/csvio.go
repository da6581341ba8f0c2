// Package csvio loads traces from and saves traces to CSV files. It is a
// collaborator around the pipeline core: the core itself never touches
// files.
//
// Columns are typed by inspection on load: a column in which every
// non-empty cell parses as a float becomes a float column (empty cells are
// NaN); anything else stays a string column. The timestamp column therefore
// arrives as strings and is parsed later by the temporal differencer.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/trajectory.report/internal/trace"
)

// timeLayout is used when a parsed timestamp column has to be rendered back
// to text; it matches the reference logger format.
const timeLayout = "2006-01-02 15:04:05.999999999"

// Load reads a CSV table with a header row into a trace.
func Load(r io.Reader) (*trace.Trace, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvio: read failed: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csvio: input has no header row")
	}

	header := records[0]
	rows := records[1:]
	tr := trace.New(len(rows))

	for col, name := range header {
		cells := make([]string, len(rows))
		numeric := true
		for i, row := range rows {
			if col < len(row) {
				cells[i] = row[col]
			}
			if cells[i] == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cells[i], 64); err != nil {
				numeric = false
			}
		}

		if numeric {
			vals := make([]float64, len(cells))
			for i, cell := range cells {
				if cell == "" {
					vals[i] = math.NaN()
					continue
				}
				vals[i], _ = strconv.ParseFloat(cell, 64)
			}
			if err := tr.SetFloats(name, vals); err != nil {
				return nil, err
			}
			continue
		}
		if err := tr.SetStrings(name, cells); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// LoadFile reads a CSV file into a trace.
func LoadFile(path string) (*trace.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes the trace as CSV in original column order. NaN float cells
// are written empty so the file round-trips through Load. Where a column
// has both a raw string and a parsed time representation, the raw strings
// win to preserve source formatting.
func Save(w io.Writer, tr *trace.Trace) error {
	writer := csv.NewWriter(w)

	columns := tr.Columns()
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("csvio: write header: %w", err)
	}

	type renderer func(i int) string
	cells := make([]renderer, len(columns))
	for c, name := range columns {
		if raw, err := tr.Strings(name); err == nil {
			cells[c] = func(i int) string { return raw[i] }
			continue
		}
		if ts, err := tr.Times(name); err == nil {
			cells[c] = func(i int) string { return ts[i].Format(timeLayout) }
			continue
		}
		vals, err := tr.Floats(name)
		if err != nil {
			return err
		}
		cells[c] = func(i int) string {
			if math.IsNaN(vals[i]) {
				return ""
			}
			return strconv.FormatFloat(vals[i], 'g', -1, 64)
		}
	}

	row := make([]string, len(columns))
	for i := 0; i < tr.NumRows(); i++ {
		for c := range columns {
			row[c] = cells[c](i)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("csvio: write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveFile writes the trace to path, creating parent directories first.
func SaveFile(path string, tr *trace.Trace) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csvio: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	defer f.Close()
	if err := Save(f, tr); err != nil {
		return err
	}
	return f.Close()
}

// WithSuffixes appends processing-step suffixes to a file name:
// trip.csv + [planar dist] -> trip_planar_dist.csv. Saved artifacts record
// which stages produced them.
func WithSuffixes(path string, suffixes []string) string {
	if len(suffixes) == 0 {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_" + strings.Join(suffixes, "_") + ext
}

// SplitByDay groups the trace by the calendar day of its parsed timestamp
// column. Keys are formatted as 2006-01-02. The timestamp column must have
// been parsed already (see kinematics.ParseTimes).
func SplitByDay(tr *trace.Trace, timeCol string) (map[string]*trace.Trace, error) {
	ts, err := tr.Times(timeCol)
	if err != nil {
		return nil, err
	}

	days := make(map[string][]int)
	var order []string
	for i, v := range ts {
		key := v.Format("2006-01-02")
		if _, seen := days[key]; !seen {
			order = append(order, key)
		}
		days[key] = append(days[key], i)
	}

	out := make(map[string]*trace.Trace, len(days))
	for _, key := range order {
		sub, err := tr.Select(days[key])
		if err != nil {
			return nil, err
		}
		out[key] = sub
	}
	return out, nil
}

// ParseDay parses a 2006-01-02 day key back into a time. Used by callers
// that filter a multi-day log to a single trip day.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("csvio: invalid day %q (want YYYY-MM-DD): %w", day, err)
	}
	return t, nil
}
