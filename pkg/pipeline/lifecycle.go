package pipeline

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// AdvanceResult summarizes an AdvanceWeeks run.
type AdvanceResult struct {
	Checked   int `json:"checked"`
	Advanced  int `json:"advanced"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// AdvanceWeeks recomputes currentWeek for every active program from its
// start date. Programs past their last week move to completed with
// currentWeek = durationWeeks+1 in the same update. A failure on one program
// does not stop the others; all failures are returned joined.
func (p *Pipeline) AdvanceWeeks(ctx context.Context) (*AdvanceResult, error) {
	progs, err := p.db.ListActivePrograms(ctx)
	if err != nil {
		return nil, err
	}

	now := p.now()
	res := &AdvanceResult{}
	var errs []error
	for _, prog := range progs {
		res.Checked++
		p.localize(prog)
		week := periodization.WeekAt(prog.StartDate, now)

		var update types.ProgramUpdate
		switch {
		case week > prog.DurationWeeks:
			completed := types.ProgramStatusCompleted
			final := prog.DurationWeeks + 1
			update = types.ProgramUpdate{Status: &completed, CurrentWeek: &final}
		case week != prog.CurrentWeek:
			update = types.ProgramUpdate{CurrentWeek: &week}
		default:
			continue
		}

		if err := p.db.UpdateProgram(ctx, prog.ID, update); err != nil {
			p.logger.Error("Failed to advance program", "program_id", prog.ID, "error", err)
			res.Failed++
			errs = append(errs, err)
			continue
		}
		if update.Status != nil {
			res.Completed++
			p.logger.Info("Program completed", "program_id", prog.ID, "user_id", prog.UserID)
		} else {
			res.Advanced++
			p.logger.Info("Program advanced", "program_id", prog.ID, "from", prog.CurrentWeek, "to", week)
		}
	}
	return res, stderrors.Join(errs...)
}

// WeekStatus describes where a user is in their active program.
type WeekStatus struct {
	ProgramID     string       `json:"programId"`
	Week          int          `json:"week"`
	DurationWeeks int          `json:"durationWeeks"`
	Phase         *types.Phase `json:"phase,omitempty"`
	Deload        bool         `json:"deload"`
	IntensityMin  float64      `json:"intensityMin"`
	IntensityMax  float64      `json:"intensityMax"`
	RPETarget     float64      `json:"rpeTarget"`
	VolumePercent int          `json:"volumePercent"`
}

// CurrentWeek reports the active program's current week, computed from the
// clock rather than the stored pointer, and the phase covering it.
func (p *Pipeline) CurrentWeek(ctx context.Context, userID string) (*WeekStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("userId is required")
	}
	prog, err := p.db.GetActiveProgram(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.localize(prog)

	week := clampWeek(periodization.WeekAt(prog.StartDate, p.now()), prog.DurationWeeks)
	if week > prog.DurationWeeks {
		week = prog.DurationWeeks
	}
	ph := periodization.PhaseForWeek(prog, week)
	t := periodization.PhaseTargets(ph)
	return &WeekStatus{
		ProgramID:     prog.ID,
		Week:          week,
		DurationWeeks: prog.DurationWeeks,
		Phase:         ph,
		Deload:        ph != nil && ph.Name == types.PhaseDeload,
		IntensityMin:  t.IntensityMin,
		IntensityMax:  t.IntensityMax,
		RPETarget:     t.RPETarget,
		VolumePercent: int(t.VolumeMultiplier*100 + 0.5),
	}, nil
}
