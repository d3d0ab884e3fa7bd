// Package profile reduces a raw user profile into the compact context used
// to generate programs.
package profile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// Documented defaults for absent profile fields.
const (
	DefaultDaysPerWeek    = 4
	DefaultActivityLevel  = "moderately-active"
	DefaultExperience     = TierIntermediate
	DefaultDiscipline     = "general"
	DefaultGoal           = "general fitness"
	DefaultBodyweightLbs  = 170.0
	DefaultDurationWeeks  = 8
	MinDurationWeeks      = 4
	MaxDurationWeeks      = 16
	DefaultSessionMinutes = 60

	kcalPerLb      = 15
	fatShare       = 0.30
	cutAdjustment  = -0.20
	bulkAdjustment = 0.10
)

// Experience tiers.
const (
	TierBeginner     = "beginner"
	TierIntermediate = "intermediate"
	TierAdvanced     = "advanced"
	TierElite        = "elite"
)

// ActivityMultipliers maps the five activity levels to their TDEE multiplier.
var ActivityMultipliers = map[string]float64{
	"sedentary":         1.2,
	"lightly-active":    1.375,
	"moderately-active": 1.55,
	"very-active":       1.725,
	"extremely-active":  1.9,
}

var activityAliases = map[string]string{
	"light":      "lightly-active",
	"moderate":   "moderately-active",
	"active":     "very-active",
	"very":       "very-active",
	"extreme":    "extremely-active",
	"athlete":    "extremely-active",
	"inactive":   "sedentary",
	"desk":       "sedentary",
	"super":      "extremely-active",
	"veryactive": "very-active",
}

var experienceAliases = map[string]string{
	"novice":       TierBeginner,
	"new":          TierBeginner,
	"beginner":     TierBeginner,
	"intermediate": TierIntermediate,
	"advanced":     TierAdvanced,
	"experienced":  TierAdvanced,
	"elite":        TierElite,
	"expert":       TierElite,
	"competitive":  TierElite,
}

// experienceScanOrder checks the most specific tiers first.
var experienceScanOrder = []string{"elite", "expert", "competitive", "advanced", "experienced", "intermediate", "beginner", "novice"}

var disciplineAliases = map[string]string{
	"powerlifting":  "powerlifting",
	"powerlifter":   "powerlifting",
	"strength":      "powerlifting",
	"bodybuilding":  "bodybuilding",
	"bodybuilder":   "bodybuilding",
	"hypertrophy":   "bodybuilding",
	"physique":      "bodybuilding",
	"general":       "general",
	"fitness":       "general",
	"crossfit":      "general",
	"weightlifting": "powerlifting",
}

// defaultSchedules are the weekdays used when the user states a day count
// but not which days.
var defaultSchedules = map[int][]time.Weekday{
	1: {time.Wednesday},
	2: {time.Monday, time.Thursday},
	3: {time.Monday, time.Wednesday, time.Friday},
	4: {time.Monday, time.Tuesday, time.Thursday, time.Friday},
	5: {time.Monday, time.Tuesday, time.Wednesday, time.Friday, time.Saturday},
	6: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	7: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday},
}

// Aggregate builds a UserContext from a profile. It never fails: every
// missing or unrecognised field resolves to its documented default.
func Aggregate(p types.UserProfile) types.UserContext {
	bodyweight := p.BodyweightLbs
	if bodyweight <= 0 {
		bodyweight = DefaultBodyweightLbs
	}
	goal := strings.TrimSpace(p.Goal)
	if goal == "" {
		goal = DefaultGoal
	}

	calories := TargetCalories(bodyweight, p.ActivityLevel, goal)
	days := resolveDays(p.DaysPerWeek, p.PreferredDays)

	weeks := p.DurationWeeks
	switch {
	case weeks <= 0:
		weeks = DefaultDurationWeeks
	case weeks < MinDurationWeeks:
		weeks = MinDurationWeeks
	case weeks > MaxDurationWeeks:
		weeks = MaxDurationWeeks
	}
	session := p.SessionMinutes
	if session <= 0 {
		session = DefaultSessionMinutes
	}

	return types.UserContext{
		UserID:            p.UserID,
		TargetCalories:    calories,
		Macros:            SplitMacros(calories, bodyweight, goal),
		DaysPerWeek:       len(days),
		PreferredDays:     days,
		ExperienceTier:    ExperienceTier(p.Experience),
		Goal:              goal,
		Discipline:        Discipline(p.Discipline, goal),
		EquipmentList:     dedupe(p.Equipment),
		FavoriteExercises: dedupe(p.FavoriteExercises),
		ExcludedExercises: dedupe(p.DislikedExercises, p.AvoidExercises, p.Injuries),
		Injuries:          dedupe(p.Injuries),
		BodyweightLbs:     bodyweight,
		DurationWeeks:     weeks,
		SessionMinutes:    session,
	}
}

// ActivityMultiplier resolves an activity level, defaulting to moderately-active.
func ActivityMultiplier(level string) float64 {
	key := strings.ToLower(strings.TrimSpace(level))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	if m, ok := ActivityMultipliers[key]; ok {
		return m
	}
	if alias, ok := activityAliases[strings.ReplaceAll(key, "-", "")]; ok {
		return ActivityMultipliers[alias]
	}
	if alias, ok := activityAliases[strings.SplitN(key, "-", 2)[0]]; ok {
		return ActivityMultipliers[alias]
	}
	return ActivityMultipliers[DefaultActivityLevel]
}

// GoalAdjustment is the calorie adjustment applied for a goal: a deficit
// for cutting, a surplus for bulking, none otherwise.
func GoalAdjustment(goal string) float64 {
	g := strings.ToLower(goal)
	switch {
	case containsAny(g, "bulk", "gain", "mass"):
		return bulkAdjustment
	case containsAny(g, "cut", "fat loss", "fat-loss", "lose", "loss", "lean out", "shred"):
		return cutAdjustment
	}
	return 0
}

// TargetCalories estimates TDEE as bodyweight x 15 x activity multiplier,
// then applies the goal adjustment.
func TargetCalories(bodyweightLbs float64, activityLevel, goal string) int {
	tdee := bodyweightLbs * kcalPerLb * ActivityMultiplier(activityLevel)
	return int(math.Round(tdee * (1 + GoalAdjustment(goal))))
}

// ProteinFactor is grams of protein per pound of bodyweight.
func ProteinFactor(goal string) float64 {
	if containsAny(strings.ToLower(goal), "muscle", "strength", "hypertrophy", "bulk", "mass", "power") {
		return 1.2
	}
	return 1.0
}

// SplitMacros derives protein from bodyweight, fat as 30% of calories, and
// carbs from the remainder, so the macros reproduce calories within rounding.
func SplitMacros(calories int, bodyweightLbs float64, goal string) types.Macros {
	protein := int(math.Round(bodyweightLbs * ProteinFactor(goal)))
	fat := int(math.Round(float64(calories) * fatShare / 9))
	remainder := float64(calories - protein*4 - fat*9)
	carbs := int(math.Round(remainder / 4))
	if carbs < 0 {
		carbs = 0
	}
	return types.Macros{Protein: protein, Carbs: carbs, Fat: fat}
}

// ExperienceTier maps free-text experience to a tier.
func ExperienceTier(experience string) string {
	e := strings.ToLower(strings.TrimSpace(experience))
	if tier, ok := experienceAliases[e]; ok {
		return tier
	}
	for _, alias := range experienceScanOrder {
		if e != "" && strings.Contains(e, alias) {
			return experienceAliases[alias]
		}
	}
	return DefaultExperience
}

// Discipline resolves the training discipline, inferring it from the goal
// when not stated.
func Discipline(discipline, goal string) string {
	d := strings.ToLower(strings.TrimSpace(discipline))
	if canon, ok := disciplineAliases[d]; ok {
		return canon
	}
	g := strings.ToLower(goal)
	switch {
	case containsAny(g, "powerlifting", "strength", "1rm", "meet"):
		return "powerlifting"
	case containsAny(g, "muscle", "hypertrophy", "bulk", "physique", "mass"):
		return "bodybuilding"
	}
	return DefaultDiscipline
}

// DefaultSchedule returns the default training days for count days per week.
func DefaultSchedule(count int) []string {
	return resolveDays(count, nil)
}

// resolveDays returns canonical weekday names ordered Monday first. Stated
// days win; a stated count tops up from the default schedule.
func resolveDays(count int, preferred []string) []string {
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, name := range preferred {
		d, ok := types.ParseWeekday(name)
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}

	if count < 1 || count > 7 {
		count = len(days)
		if count == 0 {
			count = DefaultDaysPerWeek
		}
	}
	if len(days) > count {
		days = days[:count]
	}
	for _, d := range defaultSchedules[count] {
		if len(days) >= count {
			break
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	for d := time.Sunday; len(days) < count && d <= time.Saturday; d++ {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return mondayFirst(days[i]) < mondayFirst(days[j])
	})
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = types.WeekdayName(d)
	}
	return names
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// dedupe merges lists, trimming entries and dropping case-insensitive
// duplicates. The first spelling seen is kept.
func dedupe(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, item := range list {
			item = strings.TrimSpace(item)
			key := strings.ToLower(item)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
