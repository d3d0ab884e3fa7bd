package generator

import (
	"fmt"
	"math"

	"github.com/ripixel/fitplan-server/pkg/domain/records"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// DefaultLoadIncrement is the plate increment target weights round to.
const DefaultLoadIncrement = 2.5

// SessionPlanner adapts a scheduled training day to today's readiness.
type SessionPlanner struct {
	Increment float64
}

// NewSessionPlanner returns a planner rounding loads to DefaultLoadIncrement.
func NewSessionPlanner() *SessionPlanner {
	return &SessionPlanner{Increment: DefaultLoadIncrement}
}

// Plan returns a copy of day scaled by the readiness snapshot. Load scales
// for every recommendation; sets only drop for reduce-volume and
// active-recovery. Records are keyed by normalized exercise name and turn
// percentageOfMax into a target weight.
func (p *SessionPlanner) Plan(day types.TrainingDay, snap types.ReadinessSnapshot, recs map[string]*types.PersonalRecord) types.TrainingDay {
	modifier := snap.IntensityModifier
	if modifier <= 0 {
		modifier = 1
	}
	increment := p.Increment
	if increment <= 0 {
		increment = DefaultLoadIncrement
	}
	cutVolume := snap.Recommendation == types.RecommendReduceVolume || snap.Recommendation == types.RecommendActiveRecovery

	out := day
	out.Exercises = make([]types.ExerciseTemplate, len(day.Exercises))
	for i, ex := range day.Exercises {
		working := ex.Category == types.CategoryMainLift || ex.Category == types.CategoryAccessory
		if working && cutVolume {
			ex.Sets = int(math.Max(1, math.Round(float64(ex.Sets)*modifier)))
		}
		if ex.PercentageOfMax != nil {
			pct := math.Round(*ex.PercentageOfMax*modifier*10) / 10
			ex.PercentageOfMax = &pct
			if rec, ok := recs[records.NormalizeName(ex.Name)]; ok && rec != nil {
				if w := records.TargetWeight(float64(rec.EstimatedOneRepMax), pct, increment); w > 0 {
					ex.TargetWeight = &w
				}
			}
		}
		if ex.RPE != nil {
			rpe := *ex.RPE
			ex.RPE = &rpe
		}
		out.Exercises[i] = ex
	}
	if snap.Recommendation != "" && snap.Recommendation != types.RecommendFullIntensity {
		out.Title = fmt.Sprintf("%s (%s)", day.Title, snap.Recommendation)
	}
	return out
}
