package generator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ripixel/fitplan-server/pkg/domain/exercisebank"
	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	"github.com/ripixel/fitplan-server/pkg/domain/profile"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// Fallback prescription constants.
const (
	FallbackRPE      = 8.0
	DeloadRPEDrop    = 2.0
	DeloadSetsFactor = 0.6
)

// allCategories is the widening order when a day's pools run short.
var allCategories = []string{"quad", "hip", "push", "pull", "shoulders", "arms", "calves", "core", "conditioning"}

// Fallback synthesizes programs from the exercise bank. It performs no I/O
// and uses no randomness: identical contexts yield identical programs.
type Fallback struct {
	bank *exercisebank.Bank
}

// NewFallback creates the fallback strategy. A nil bank uses the embedded catalog.
func NewFallback(bank *exercisebank.Bank) *Fallback {
	if bank == nil {
		bank = exercisebank.Default()
	}
	return &Fallback{bank: bank}
}

func (f *Fallback) Name() string { return StrategyFallback }

// Generate never fails.
func (f *Fallback) Generate(_ context.Context, uc types.UserContext) (*types.Program, error) {
	return f.Synthesize(uc), nil
}

// dayContent is the exercise selection for one split slot, shared by every
// week of the program.
type dayContent struct {
	plan        dayPlan
	dayOfWeek   string
	warmups     []string
	primaries   []string
	accessories []string
	cooldowns   []string
}

// Synthesize builds a complete program for uc.
func (f *Fallback) Synthesize(uc types.UserContext) *types.Program {
	weeks := uc.DurationWeeks
	switch {
	case weeks <= 0:
		weeks = profile.DefaultDurationWeeks
	case weeks < profile.MinDurationWeeks:
		weeks = profile.MinDurationWeeks
	}
	days := uc.PreferredDays
	if len(days) == 0 {
		days = profile.DefaultSchedule(uc.DaysPerWeek)
	}
	session := uc.SessionMinutes
	if session <= 0 {
		session = profile.DefaultSessionMinutes
	}
	tier := uc.ExperienceTier
	if _, ok := accessoryCounts[tier]; !ok {
		tier = profile.DefaultExperience
	}

	sel := &selector{
		bank:      f.bank,
		excl:      f.bank.Exclusions(uc.ExcludedExercises),
		equipment: uc.EquipmentList,
		beginner:  tier == profile.TierBeginner,
	}

	split := splitFor(uc.Discipline, len(days))
	occurrences := make(map[string]int)
	contents := make([]dayContent, len(days))
	for i, d := range days {
		plan := split[i%len(split)]
		occ := occurrences[plan.Focus]
		occurrences[plan.Focus]++
		contents[i] = sel.day(plan, occ, accessoryCounts[tier])
		contents[i].dayOfWeek = strings.ToLower(d)
	}

	phases := periodization.DefaultPhases(weeks)
	rest := restDays(days)
	rx := prescriber{discipline: uc.Discipline, beginner: sel.beginner}

	prog := &types.Program{
		UserID:        uc.UserID,
		Name:          fmt.Sprintf("%d-Week %s Program", weeks, programLabel(uc.Discipline)),
		Goal:          uc.Goal,
		Discipline:    uc.Discipline,
		Status:        types.ProgramStatusActive,
		DurationWeeks: weeks,
		CurrentWeek:   1,
		DaysPerWeek:   len(days),
		Periodization: types.Periodization{Model: types.ModelLinear, Phases: phases},
		AIGenerated:   false,
		Strategy:      StrategyFallback,
		Rationale: fmt.Sprintf("Deterministic %d-day %s split with a deload every %d weeks.",
			len(days), programLabel(uc.Discipline), periodization.DeloadFrequency),
	}

	for w := 1; w <= weeks; w++ {
		ph := periodization.FindPhase(phases, w)
		deload := ph != nil && ph.Name == types.PhaseDeload
		targets := periodization.PhaseTargets(ph)

		week := types.WeeklyTemplate{
			WeekNumber: w,
			RestDays:   append([]string(nil), rest...),
			DeloadWeek: deload,
		}
		for _, c := range contents {
			week.TrainingDays = append(week.TrainingDays, rx.day(c, session, deload, targets))
		}
		prog.Weeks = append(prog.Weeks, week)
	}

	prog.Nutrition = BuildNutrition(uc)
	prog.Habits = DefaultHabits(prog.Nutrition.Macros.Protein)
	return prog
}

type selector struct {
	bank      *exercisebank.Bank
	excl      exercisebank.Exclusions
	equipment []string
	beginner  bool
}

func (s *selector) day(plan dayPlan, occ, accessories int) dayContent {
	rule := ruleFor(plan.Focus)
	used := make(map[string]bool)
	c := dayContent{plan: plan}

	c.warmups = s.drills(warmupFamilies, rule.Warmup, reserveWarmups, len(warmupFamilies[rule.Warmup]))

	c.primaries = s.pick(s.primaryPool(rule.Primary), occ*primaryCount, primaryCount, used)
	if len(c.primaries) == 0 {
		c.primaries = []string{fallbackMainLift}
	}

	c.accessories = s.pick(s.pool(rule.Accessory, false), occ, accessories, used)
	if len(c.accessories) < accessories {
		more := s.pick(s.pool(allCategories, false), 0, accessories-len(c.accessories), used)
		c.accessories = append(c.accessories, more...)
	}

	n := minDayExercises - len(c.warmups) - len(c.primaries) - len(c.accessories)
	if n < minCooldown {
		n = minCooldown
	}
	c.cooldowns = s.drills(cooldownFamilies, rule.Cooldown, reserveCooldowns, n)
	return c
}

// primaryPool prefers compound movements in the focus categories, widening
// to any movement there and then to compounds anywhere.
func (s *selector) primaryPool(categories []string) []exercisebank.Exercise {
	if p := s.pool(categories, true); len(p) > 0 {
		return p
	}
	if p := s.pool(categories, false); len(p) > 0 {
		return p
	}
	if p := s.pool(allCategories, true); len(p) > 0 {
		return p
	}
	return s.pool(allCategories, false)
}

// pool interleaves the eligible exercises of each category. Exclusions are
// hard; equipment and difficulty filters are dropped if they empty the pool.
func (s *selector) pool(categories []string, compoundOnly bool) []exercisebank.Exercise {
	lists := make([][]exercisebank.Exercise, len(categories))
	for i, cat := range categories {
		var base []exercisebank.Exercise
		for _, e := range s.bank.ByCategory(cat) {
			if s.excl.Excludes(e) || (compoundOnly && !e.Compound) {
				continue
			}
			base = append(base, e)
		}
		lists[i] = base
	}
	all := interleave(lists)

	filtered := keep(all, func(e exercisebank.Exercise) bool {
		return exercisebank.AllowsEquipment(e, s.equipment)
	})
	if len(filtered) == 0 {
		filtered = all
	}
	if s.beginner {
		easier := keep(filtered, func(e exercisebank.Exercise) bool {
			return e.Difficulty != exercisebank.DifficultyAdvanced
		})
		if len(easier) > 0 {
			filtered = easier
		}
	}
	return filtered
}

// pick takes up to n unused names from pool, starting at offset and wrapping.
func (s *selector) pick(pool []exercisebank.Exercise, offset, n int, used map[string]bool) []string {
	if len(pool) == 0 || n <= 0 {
		return nil
	}
	var out []string
	for i := 0; i < len(pool) && len(out) < n; i++ {
		e := pool[(offset+i)%len(pool)]
		if used[e.ID] {
			continue
		}
		used[e.ID] = true
		out = append(out, e.Name)
	}
	return out
}

func interleave(lists [][]exercisebank.Exercise) []exercisebank.Exercise {
	var out []exercisebank.Exercise
	seen := make(map[string]bool)
	for i := 0; ; i++ {
		added := false
		for _, l := range lists {
			if i < len(l) {
				added = true
				if !seen[l[i].ID] {
					seen[l[i].ID] = true
					out = append(out, l[i])
				}
			}
		}
		if !added {
			return out
		}
	}
}

func keep(in []exercisebank.Exercise, fn func(exercisebank.Exercise) bool) []exercisebank.Exercise {
	var out []exercisebank.Exercise
	for _, e := range in {
		if fn(e) {
			out = append(out, e)
		}
	}
	return out
}

// drills draws n warmups or stretches from the family, topping up from the
// other families and then the reserve. Excluded names and drills loading an
// injured joint are skipped.
func (s *selector) drills(families map[string][]string, family string, reserve []string, n int) []string {
	order := []string{family, "general", "lower", "upper", "pull"}
	seen := make(map[string]bool)
	var out []string
	take := func(names []string) {
		for _, name := range names {
			if len(out) == n {
				return
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			if s.excl.Excludes(exercisebank.Exercise{Name: name, BodyParts: drillParts[name]}) {
				continue
			}
			out = append(out, name)
		}
	}
	for _, fam := range order {
		take(families[fam])
	}
	take(reserve)
	return out
}

// restDays lists the weekdays not trained, Monday first.
func restDays(training []string) []string {
	trained := make(map[time.Weekday]bool)
	for _, d := range training {
		if wd, ok := types.ParseWeekday(d); ok {
			trained[wd] = true
		}
	}
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !trained[d] {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return (out[i]+6)%7 < (out[j]+6)%7 })
	names := make([]string, len(out))
	for i, d := range out {
		names[i] = types.WeekdayName(d)
	}
	return names
}

func programLabel(discipline string) string {
	switch strings.ToLower(discipline) {
	case "powerlifting":
		return "Powerlifting"
	case "bodybuilding":
		return "Hypertrophy"
	default:
		return "Strength & Conditioning"
	}
}

// prescriber turns a day's selection into exercise templates for one week.
type prescriber struct {
	discipline string
	beginner   bool
}

func (p prescriber) day(c dayContent, minutes int, deload bool, t periodization.Targets) types.TrainingDay {
	day := types.TrainingDay{
		DayOfWeek:       c.dayOfWeek,
		Title:           c.plan.Title,
		Focus:           c.plan.Focus,
		DurationMinutes: minutes,
	}
	if deload {
		day.Title += " (Deload)"
	}
	for _, name := range c.warmups {
		day.Exercises = append(day.Exercises, p.exercise(name, types.CategoryWarmup, deload, t))
	}
	for _, name := range c.primaries {
		day.Exercises = append(day.Exercises, p.exercise(name, types.CategoryMainLift, deload, t))
	}
	for _, name := range c.accessories {
		day.Exercises = append(day.Exercises, p.exercise(name, types.CategoryAccessory, deload, t))
	}
	for _, name := range c.cooldowns {
		day.Exercises = append(day.Exercises, p.exercise(name, types.CategoryCooldown, deload, t))
	}
	return day
}

func (p prescriber) exercise(name string, cat types.ExerciseCategory, deload bool, t periodization.Targets) types.ExerciseTemplate {
	ex := types.ExerciseTemplate{Name: name, Category: cat}
	switch cat {
	case types.CategoryWarmup:
		ex.Sets, ex.Reps, ex.Rest = 1, "10", "30 sec"
	case types.CategoryCooldown:
		ex.Sets, ex.Reps, ex.Rest = 1, "30 sec hold", "0 sec"
	case types.CategoryMainLift:
		ex.Sets, ex.Reps, ex.Rest = 4, p.mainReps(), "3 min"
		if p.beginner {
			ex.Sets = 3
		}
		pct := math.Round(t.Midpoint())
		ex.PercentageOfMax = &pct
		ex.RPE = p.rpe(deload)
	case types.CategoryAccessory:
		ex.Sets, ex.Reps, ex.Rest = 3, p.accessoryReps(), "90 sec"
		ex.RPE = p.rpe(deload)
	}
	if deload {
		ex.Sets = deloadSets(ex.Sets)
	}
	return ex
}

func (p prescriber) rpe(deload bool) *float64 {
	v := FallbackRPE
	if deload {
		v -= DeloadRPEDrop
	}
	return &v
}

func (p prescriber) mainReps() string {
	switch strings.ToLower(p.discipline) {
	case "powerlifting":
		return "3-5"
	case "bodybuilding":
		return "6-8"
	default:
		return "5-8"
	}
}

func (p prescriber) accessoryReps() string {
	if strings.ToLower(p.discipline) == "bodybuilding" {
		return "10-12"
	}
	return "8-12"
}

func deloadSets(sets int) int {
	n := int(math.Round(float64(sets) * DeloadSetsFactor))
	if n < 1 {
		return 1
	}
	return n
}
