package pipeline

import (
	"log"

	"github.com/banshee-data/trajectory.report/internal/geo"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/resample"
	"github.com/banshee-data/trajectory.report/internal/smooth"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

// Run executes the planned stages in order on tr and returns the enriched
// trace. Stages that only add columns mutate tr in place; the resampler
// produces a new trace, so callers must use the returned value. The run is
// single threaded and synchronous; a failure at any stage aborts the run
// with no partial output beyond the stages already completed.
func Run(tr *trace.Trace, cfg *Config, plan *Plan) (*trace.Trace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, step := range plan.Steps {
		switch step {
		case StepSmooth:
			if err := smooth.SmoothTrace(tr, cfg.GetSmoothingMethod(), cfg.GetLatCol(), cfg.GetLonCol()); err != nil {
				return nil, err
			}

		case StepProject:
			proj, err := geo.NewProjector(cfg.GetUTMZone(), cfg.GetUTMNorth())
			if err != nil {
				return nil, err
			}
			if err := proj.ProjectTrace(tr, plan.SourceLatCol, plan.SourceLonCol, cfg.GetXCol(), cfg.GetYCol()); err != nil {
				return nil, err
			}
			selected := make([]string, tr.NumRows())
			for i := range selected {
				selected[i] = plan.SelectedMethod
			}
			if err := tr.SetStrings(SelectedMethodCol, selected); err != nil {
				return nil, err
			}

		case StepResample:
			out, err := resample.ByDistance(tr, cfg.GetXCol(), cfg.GetYCol(), cfg.GetMinDistance())
			if err != nil {
				return nil, err
			}
			log.Printf("resampled trace: %d of %d samples retained (min_distance=%.2fm)",
				out.NumRows(), tr.NumRows(), cfg.GetMinDistance())
			tr = out

		case StepDt:
			if err := kinematics.ComputeDt(tr, cfg.GetTimeCol(), cfg.GetDtCol()); err != nil {
				return nil, err
			}

		case StepKinematics:
			if err := kinematics.HeadingFromXY(tr, cfg.GetXCol(), cfg.GetYCol(), cfg.GetHeadingCol()); err != nil {
				return nil, err
			}
			if err := kinematics.YawRateFromHeading(tr, cfg.GetHeadingCol(), cfg.GetDtCol(), YawRateCol); err != nil {
				return nil, err
			}
		}
	}
	return tr, nil
}

// Process is the whole pipeline in one call: plan the requested steps
// against tr, then run them.
func Process(tr *trace.Trace, cfg *Config, requested []Step) (*trace.Trace, error) {
	plan, err := BuildPlan(requested, tr, cfg)
	if err != nil {
		return nil, err
	}
	return Run(tr, cfg, plan)
}
