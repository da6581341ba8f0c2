package pipeline

import (
	"fmt"
	"strings"

	"github.com/banshee-data/trajectory.report/internal/smooth"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

// Step identifies one pipeline stage.
type Step string

// Pipeline stages, in the only order they may execute.
const (
	StepSmooth     Step = "smooth"
	StepProject    Step = "project"
	StepResample   Step = "resample"
	StepDt         Step = "dt"
	StepKinematics Step = "kinematics"
)

// stageOrder fixes execution order regardless of how the caller lists the
// requested steps.
var stageOrder = []Step{StepSmooth, StepProject, StepResample, StepDt, StepKinematics}

// Plan is a validated execution plan: which stages run and which lat/lon
// source columns feed the projector (raw or one smoothed variant). Plans
// are produced by BuildPlan and consumed by Run; whatever mechanism selects
// steps (CLI flags, a GUI, a config file) only needs to supply the inputs
// of BuildPlan.
type Plan struct {
	Steps []Step

	// SourceLatCol/SourceLonCol are the resolved projector inputs.
	SourceLatCol string
	SourceLonCol string

	// SelectedMethod is the smoothing variant the projector consumes, or
	// "none" for raw coordinates.
	SelectedMethod string
}

// AmbiguousSmoothingSelectionError reports that multiple smoothed variants
// exist with no deterministic rule to pick one. Callers must bind
// smoothing_method explicitly.
type AmbiguousSmoothingSelectionError struct {
	Candidates []string
}

func (e *AmbiguousSmoothingSelectionError) Error() string {
	return fmt.Sprintf("pipeline: multiple smoothed variants available (%s); set smoothing_method to select one",
		strings.Join(e.Candidates, ", "))
}

// Has reports whether the plan contains the given step.
func (p *Plan) Has(step Step) bool {
	for _, s := range p.Steps {
		if s == step {
			return true
		}
	}
	return false
}

// BuildPlan validates a requested step set against the columns available on
// the input trace and resolves the smoothing variant the projector will
// consume. It is a pure function: the trace is only inspected, never
// modified.
//
// Unknown steps are an error. A stage whose required input neither exists
// on the trace nor is produced by an earlier requested stage yields a
// trace.MissingColumnError at plan time rather than midway through a run.
func BuildPlan(requested []Step, tr *trace.Trace, cfg *Config) (*Plan, error) {
	want := make(map[Step]bool, len(requested))
	for _, s := range requested {
		switch s {
		case StepSmooth, StepProject, StepResample, StepDt, StepKinematics:
			want[s] = true
		default:
			return nil, fmt.Errorf("pipeline: unknown step %q", s)
		}
	}

	plan := &Plan{SelectedMethod: "none"}
	for _, s := range stageOrder {
		if want[s] {
			plan.Steps = append(plan.Steps, s)
		}
	}

	// Track column availability through the planned stages.
	available := make(map[string]bool)
	for _, col := range tr.Columns() {
		available[col] = true
	}

	if want[StepSmooth] {
		method := cfg.GetSmoothingMethod()
		if method == "" {
			return nil, fmt.Errorf("pipeline: smooth step requested but no smoothing_method configured")
		}
		if !available[cfg.GetLatCol()] {
			return nil, &trace.MissingColumnError{Column: cfg.GetLatCol()}
		}
		if !available[cfg.GetLonCol()] {
			return nil, &trace.MissingColumnError{Column: cfg.GetLonCol()}
		}
		available[smooth.ColumnName(cfg.GetLatCol(), method)] = true
		available[smooth.ColumnName(cfg.GetLonCol(), method)] = true
	}

	if want[StepProject] {
		latCol, lonCol, method, err := resolveSmoothing(available, cfg)
		if err != nil {
			return nil, err
		}
		plan.SourceLatCol = latCol
		plan.SourceLonCol = lonCol
		plan.SelectedMethod = method
		available[cfg.GetXCol()] = true
		available[cfg.GetYCol()] = true
	}

	if want[StepResample] || want[StepKinematics] {
		for _, col := range []string{cfg.GetXCol(), cfg.GetYCol()} {
			if !available[col] {
				return nil, &trace.MissingColumnError{Column: col}
			}
		}
	}

	if want[StepDt] {
		if !available[cfg.GetTimeCol()] {
			return nil, &trace.MissingColumnError{Column: cfg.GetTimeCol()}
		}
		available[cfg.GetDtCol()] = true
	}

	if want[StepKinematics] {
		if !available[cfg.GetDtCol()] {
			return nil, &trace.MissingColumnError{Column: cfg.GetDtCol()}
		}
		available[cfg.GetHeadingCol()] = true
		available[YawRateCol] = true
	}

	return plan, nil
}

// resolveSmoothing picks the lat/lon columns the projector consumes. An
// explicitly configured method always wins; otherwise a single available
// variant is used, no variants fall back to raw, and several variants with
// no configured choice is a configuration error.
func resolveSmoothing(available map[string]bool, cfg *Config) (latCol, lonCol, method string, err error) {
	if m := cfg.GetSmoothingMethod(); m != "" {
		latCol = smooth.ColumnName(cfg.GetLatCol(), m)
		lonCol = smooth.ColumnName(cfg.GetLonCol(), m)
		if !available[latCol] {
			return "", "", "", &trace.MissingColumnError{Column: latCol}
		}
		if !available[lonCol] {
			return "", "", "", &trace.MissingColumnError{Column: lonCol}
		}
		return latCol, lonCol, m, nil
	}

	var candidates []string
	for _, m := range smooth.ValidMethods {
		if available[smooth.ColumnName(cfg.GetLatCol(), m)] &&
			available[smooth.ColumnName(cfg.GetLonCol(), m)] {
			candidates = append(candidates, m)
		}
	}
	switch len(candidates) {
	case 0:
		return cfg.GetLatCol(), cfg.GetLonCol(), "none", nil
	case 1:
		m := candidates[0]
		return smooth.ColumnName(cfg.GetLatCol(), m), smooth.ColumnName(cfg.GetLonCol(), m), m, nil
	default:
		return "", "", "", &AmbiguousSmoothingSelectionError{Candidates: candidates}
	}
}
