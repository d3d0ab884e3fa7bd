// Package validator enforces the structural invariants of candidate
// programs. Minor omissions are repaired with documented defaults; anything
// else rejects the candidate.
package validator

import (
	"fmt"
	"strings"

	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	"github.com/ripixel/fitplan-server/pkg/domain/profile"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/generator"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// Structural limits.
const (
	MinDurationWeeks   = 4
	MinExercisesPerDay = 12
)

// Defaults written by repairs.
const (
	DefaultSets = 3
	DefaultReps = "8-12"
	DefaultRest = "60 sec"
	DefaultGoal = "general fitness"
)

// categoryAliases migrates legacy and free-form labels onto the canonical
// warmup / main-lift / accessory / cooldown taxonomy.
var categoryAliases = map[string]types.ExerciseCategory{
	"warmup":      types.CategoryWarmup,
	"warm-up":     types.CategoryWarmup,
	"warm up":     types.CategoryWarmup,
	"mobility":    types.CategoryWarmup,
	"main-lift":   types.CategoryMainLift,
	"main lift":   types.CategoryMainLift,
	"main":        types.CategoryMainLift,
	"primary":     types.CategoryMainLift,
	"compound":    types.CategoryMainLift,
	"accessory":   types.CategoryAccessory,
	"accessories": types.CategoryAccessory,
	"assistance":  types.CategoryAccessory,
	"secondary":   types.CategoryAccessory,
	"isolation":   types.CategoryAccessory,
	"cooldown":    types.CategoryCooldown,
	"cool-down":   types.CategoryCooldown,
	"cool down":   types.CategoryCooldown,
	"stretch":     types.CategoryCooldown,
	"stretching":  types.CategoryCooldown,
}

// Result is the validation outcome. Errors are hard violations; warnings
// are logged by the caller and never reject.
type Result struct {
	OK       bool
	Repaired bool
	Errors   []string
	Warnings []string
}

// Err returns ErrValidationFailed describing the errors, or nil.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return apperrors.ErrValidationFailed.WithMessage("program failed structural validation: " + strings.Join(r.Errors, "; "))
}

type checker struct {
	Result
}

func (c *checker) fail(format string, args ...interface{}) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}

func (c *checker) warn(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks p in place, repairing what may be defaulted. A days-per-week
// mismatch against expectedDays is a warning; expectedDays <= 0 skips it.
func Validate(p *types.Program, expectedDays int) Result {
	c := &checker{}
	if p == nil {
		c.fail("candidate is empty")
		return c.Result
	}

	c.repairProgram(p)
	c.repairPeriodization(p)

	if p.DurationWeeks < MinDurationWeeks {
		c.fail("durationWeeks %d is below the minimum of %d", p.DurationWeeks, MinDurationWeeks)
	}
	if len(p.Weeks) == 0 {
		c.fail("program has no weekly templates")
	}
	for i := range p.Weeks {
		c.checkWeek(&p.Weeks[i], i, p.DurationWeeks, expectedDays)
	}
	c.checkNutrition(p.Nutrition)

	c.OK = len(c.Errors) == 0
	return c.Result
}

func (c *checker) repairProgram(p *types.Program) {
	if strings.TrimSpace(p.Goal) == "" {
		p.Goal = DefaultGoal
		c.Repaired = true
	}
	if p.DurationWeeks <= 0 && len(p.Weeks) > 0 {
		p.DurationWeeks = len(p.Weeks)
		c.Repaired = true
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = fmt.Sprintf("%d-Week Training Program", p.DurationWeeks)
		c.Repaired = true
	}
	if p.Status == "" {
		p.Status = types.ProgramStatusActive
		c.Repaired = true
	}
	if p.CurrentWeek <= 0 {
		p.CurrentWeek = 1
		c.Repaired = true
	}
	if len(p.Habits) == 0 {
		protein := 0
		if p.Nutrition != nil {
			protein = p.Nutrition.Macros.Protein
		}
		p.Habits = generator.DefaultHabits(protein)
		c.Repaired = true
	}
}

func (c *checker) repairPeriodization(p *types.Program) {
	if len(p.Periodization.Phases) == 0 {
		if p.DurationWeeks > 0 {
			p.Periodization.Phases = periodization.DefaultPhases(p.DurationWeeks)
			c.Repaired = true
		}
	} else {
		if periodization.NormalizePhases(p.Periodization.Phases) {
			c.Repaired = true
		}
		if periodization.ApplyPhaseDefaults(p.Periodization.Phases) {
			c.Repaired = true
		}
	}
	if p.Periodization.Model == "" {
		p.Periodization.Model = types.ModelLinear
		c.Repaired = true
	}
}

func (c *checker) checkWeek(w *types.WeeklyTemplate, idx, durationWeeks, expectedDays int) {
	if w.WeekNumber <= 0 {
		w.WeekNumber = idx + 1
		c.Repaired = true
	}
	if durationWeeks > 0 && w.WeekNumber > durationWeeks {
		c.warn("week %d is beyond durationWeeks %d", w.WeekNumber, durationWeeks)
	}
	if len(w.TrainingDays) == 0 {
		c.fail("week %d has no training days", w.WeekNumber)
		return
	}
	if expectedDays > 0 && len(w.TrainingDays) != expectedDays {
		c.warn("week %d has %d training days, expected %d", w.WeekNumber, len(w.TrainingDays), expectedDays)
	}
	for i := range w.RestDays {
		w.RestDays[i] = strings.ToLower(strings.TrimSpace(w.RestDays[i]))
		if _, ok := types.ParseWeekday(w.RestDays[i]); !ok {
			c.fail("week %d rest day %q is not a weekday", w.WeekNumber, w.RestDays[i])
		}
	}
	for i := range w.TrainingDays {
		c.checkDay(&w.TrainingDays[i], w.WeekNumber)
	}
}

func (c *checker) checkDay(d *types.TrainingDay, week int) {
	d.DayOfWeek = strings.ToLower(strings.TrimSpace(d.DayOfWeek))
	if _, ok := types.ParseWeekday(d.DayOfWeek); !ok {
		c.fail("week %d day %q is not a weekday", week, d.DayOfWeek)
	}
	label := fmt.Sprintf("week %d %s", week, d.DayOfWeek)
	if d.DurationMinutes <= 0 {
		d.DurationMinutes = profile.DefaultSessionMinutes
		c.Repaired = true
	}

	if len(d.Exercises) < MinExercisesPerDay {
		c.fail("%s has %d exercises, need at least %d", label, len(d.Exercises), MinExercisesPerDay)
	}

	seen := make(map[types.ExerciseCategory]bool)
	for i := range d.Exercises {
		ex := &d.Exercises[i]
		if canon, ok := categoryAliases[strings.ToLower(strings.TrimSpace(string(ex.Category)))]; ok {
			if canon != ex.Category {
				ex.Category = canon
				c.Repaired = true
			}
		} else {
			c.warn("%s exercise %q has unknown category %q", label, ex.Name, ex.Category)
		}
		seen[ex.Category] = true

		if strings.TrimSpace(ex.Name) == "" {
			c.fail("%s has an unnamed exercise", label)
		}
		if ex.Sets <= 0 {
			ex.Sets = DefaultSets
			c.Repaired = true
		}
		if strings.TrimSpace(ex.Reps) == "" {
			ex.Reps = DefaultReps
			c.Repaired = true
		}
		if strings.TrimSpace(ex.Rest) == "" {
			ex.Rest = DefaultRest
			c.Repaired = true
		}
	}
	var missing []string
	for _, cat := range types.RequiredCategories {
		if !seen[cat] {
			missing = append(missing, string(cat))
		}
	}
	if len(missing) > 0 {
		c.fail("%s is missing categories %s", label, strings.Join(missing, ", "))
	}
}

func (c *checker) checkNutrition(n *types.NutritionPlan) {
	if n == nil {
		c.fail("nutrition plan is missing")
		return
	}
	for _, slot := range types.MealSlots {
		m := n.MealPlan.Slot(slot)
		if m == nil {
			c.fail("meal %s is missing", slot)
			continue
		}
		var gaps []string
		if strings.TrimSpace(m.Name) == "" {
			gaps = append(gaps, "name")
		}
		if strings.TrimSpace(m.Description) == "" {
			gaps = append(gaps, "description")
		}
		if m.Calories <= 0 {
			gaps = append(gaps, "calories")
		}
		if m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
			gaps = append(gaps, "macros")
		}
		if len(m.Ingredients) == 0 {
			gaps = append(gaps, "ingredients")
		}
		if strings.TrimSpace(m.PrepTime) == "" {
			gaps = append(gaps, "prepTime")
		}
		if len(gaps) > 0 {
			c.fail("meal %s is incomplete: %s", slot, strings.Join(gaps, ", "))
		}
	}
	if n.CalorieTarget <= 0 {
		total := 0
		for _, slot := range types.MealSlots {
			if m := n.MealPlan.Slot(slot); m != nil {
				total += m.Calories
			}
		}
		n.CalorieTarget = total
		c.Repaired = true
	}
}
