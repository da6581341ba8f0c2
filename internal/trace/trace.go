// Package trace holds the in-memory tabular model shared by all pipeline
// stages: an ordered sequence of samples with named columns.
//
// Columns are either float64 series (missing values are NaN), raw string
// series (as loaded from a source file), or parsed timestamp series. Row
// order is insertion order and is never changed by column operations; only
// explicit row operations (Select, SortByTime, day/range filters) touch it.
package trace

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Trace is an ordered table of samples. The zero value is not usable; use
// New.
type Trace struct {
	n     int
	order []string // column names in original order

	floats  map[string][]float64
	strings map[string][]string
	times   map[string][]time.Time
}

// MissingColumnError reports that a stage's required column is absent from
// the trace. It is always fatal to the stage that raises it.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("trace: missing column %q", e.Column)
}

// New creates an empty trace with capacity for n rows. Columns are added
// with SetFloats, SetStrings and SetTimes and must all have length n.
func New(n int) *Trace {
	return &Trace{
		n:       n,
		floats:  make(map[string][]float64),
		strings: make(map[string][]string),
		times:   make(map[string][]time.Time),
	}
}

// NumRows returns the number of samples in the trace.
func (t *Trace) NumRows() int { return t.n }

// Columns returns all column names in their original order.
func (t *Trace) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// HasColumn reports whether a column of any kind exists.
func (t *Trace) HasColumn(name string) bool {
	if _, ok := t.floats[name]; ok {
		return true
	}
	if _, ok := t.strings[name]; ok {
		return true
	}
	_, ok := t.times[name]
	return ok
}

func (t *Trace) register(name string) {
	for _, existing := range t.order {
		if existing == name {
			return
		}
	}
	t.order = append(t.order, name)
}

// Floats returns the float series for name, or a MissingColumnError.
// The returned slice is the live backing store; callers that need a private
// copy must copy it themselves.
func (t *Trace) Floats(name string) ([]float64, error) {
	col, ok := t.floats[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	return col, nil
}

// Strings returns the string series for name, or a MissingColumnError.
func (t *Trace) Strings(name string) ([]string, error) {
	col, ok := t.strings[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	return col, nil
}

// Times returns the parsed timestamp series for name, or a
// MissingColumnError. Timestamp series only exist after a stage has parsed
// the raw string column (see kinematics.ParseTimes).
func (t *Trace) Times(name string) ([]time.Time, error) {
	col, ok := t.times[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	return col, nil
}

// SetFloats adds or replaces a float column. The values slice must have
// exactly NumRows entries.
func (t *Trace) SetFloats(name string, values []float64) error {
	if len(values) != t.n {
		return fmt.Errorf("trace: column %q has %d values, trace has %d rows", name, len(values), t.n)
	}
	t.floats[name] = values
	t.register(name)
	return nil
}

// SetStrings adds or replaces a string column.
func (t *Trace) SetStrings(name string, values []string) error {
	if len(values) != t.n {
		return fmt.Errorf("trace: column %q has %d values, trace has %d rows", name, len(values), t.n)
	}
	t.strings[name] = values
	t.register(name)
	return nil
}

// SetTimes adds or replaces a parsed timestamp column.
func (t *Trace) SetTimes(name string, values []time.Time) error {
	if len(values) != t.n {
		return fmt.Errorf("trace: column %q has %d values, trace has %d rows", name, len(values), t.n)
	}
	t.times[name] = values
	t.register(name)
	return nil
}

// SetConstFloat fills a column with the same value on every row. Used to
// stamp run parameters (e.g. the min_distance used for resampling) onto the
// output table.
func (t *Trace) SetConstFloat(name string, value float64) {
	col := make([]float64, t.n)
	for i := range col {
		col[i] = value
	}
	// length always matches, error impossible
	_ = t.SetFloats(name, col)
}

// Select returns a new trace containing the rows at the given indices, in
// the given order. Every column is carried over. Indices outside [0,
// NumRows) are an error.
func (t *Trace) Select(indices []int) (*Trace, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= t.n {
			return nil, fmt.Errorf("trace: row index %d out of range [0,%d)", idx, t.n)
		}
	}

	out := New(len(indices))
	out.order = make([]string, len(t.order))
	copy(out.order, t.order)

	for name, col := range t.floats {
		sub := make([]float64, len(indices))
		for i, idx := range indices {
			sub[i] = col[idx]
		}
		out.floats[name] = sub
	}
	for name, col := range t.strings {
		sub := make([]string, len(indices))
		for i, idx := range indices {
			sub[i] = col[idx]
		}
		out.strings[name] = sub
	}
	for name, col := range t.times {
		sub := make([]time.Time, len(indices))
		for i, idx := range indices {
			sub[i] = col[idx]
		}
		out.times[name] = sub
	}
	return out, nil
}

// Clone returns a deep copy of the trace.
func (t *Trace) Clone() *Trace {
	indices := make([]int, t.n)
	for i := range indices {
		indices[i] = i
	}
	out, _ := t.Select(indices)
	return out
}

// SortByTime returns a new trace with rows ordered by the parsed timestamp
// column. The sort is stable so samples with equal timestamps keep their
// relative order. Returns a MissingColumnError if the column has not been
// parsed yet.
func (t *Trace) SortByTime(timeCol string) (*Trace, error) {
	ts, err := t.Times(timeCol)
	if err != nil {
		return nil, err
	}
	indices := make([]int, t.n)
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return ts[indices[a]].Before(ts[indices[b]])
	})
	return t.Select(indices)
}

// IsSortedByTime reports whether the parsed timestamp column is
// non-decreasing.
func (t *Trace) IsSortedByTime(timeCol string) (bool, error) {
	ts, err := t.Times(timeCol)
	if err != nil {
		return false, err
	}
	for i := 1; i < len(ts); i++ {
		if ts[i].Before(ts[i-1]) {
			return false, nil
		}
	}
	return true, nil
}

// FilterDay returns the rows whose parsed timestamp falls on the given
// calendar day in the timestamp's own location.
func (t *Trace) FilterDay(timeCol string, day time.Time) (*Trace, error) {
	ts, err := t.Times(timeCol)
	if err != nil {
		return nil, err
	}
	y, m, d := day.Date()
	var indices []int
	for i, v := range ts {
		vy, vm, vd := v.Date()
		if vy == y && vm == m && vd == d {
			indices = append(indices, i)
		}
	}
	return t.Select(indices)
}

// FilterRange returns the rows whose parsed timestamp t satisfies
// from <= t <= to.
func (t *Trace) FilterRange(timeCol string, from, to time.Time) (*Trace, error) {
	ts, err := t.Times(timeCol)
	if err != nil {
		return nil, err
	}
	var indices []int
	for i, v := range ts {
		if !v.Before(from) && !v.After(to) {
			indices = append(indices, i)
		}
	}
	return t.Select(indices)
}

// DropNA returns the rows where none of the named float columns is NaN. With
// no columns given, every float column is checked.
func (t *Trace) DropNA(columns ...string) (*Trace, error) {
	if len(columns) == 0 {
		for name := range t.floats {
			columns = append(columns, name)
		}
		sort.Strings(columns)
	}
	cols := make([][]float64, len(columns))
	for i, name := range columns {
		col, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	var indices []int
rows:
	for i := 0; i < t.n; i++ {
		for _, col := range cols {
			if math.IsNaN(col[i]) {
				continue rows
			}
		}
		indices = append(indices, i)
	}
	return t.Select(indices)
}
