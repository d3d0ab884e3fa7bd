package file_generators

import (
	"strings"

	"github.com/muktihari/fit/profile/typedef"
)

type categoryRule struct {
	keywords []string
	category typedef.ExerciseCategory
}

// categoryRules are checked in order; more specific phrases come first so
// "romanian deadlift" is not read as a row and "leg press" not as a bench.
var categoryRules = []categoryRule{
	{[]string{"bench", "floor press", "chest press", "incline press", "incline dumbbell press"}, typedef.ExerciseCategoryBenchPress},
	{[]string{"deadlift", "rdl", "good morning"}, typedef.ExerciseCategoryDeadlift},
	{[]string{"hip thrust", "glute bridge"}, typedef.ExerciseCategoryHipRaise},
	{[]string{"lunge", "split squat", "step up"}, typedef.ExerciseCategoryLunge},
	{[]string{"squat", "leg press", "wall sit"}, typedef.ExerciseCategorySquat},
	{[]string{"leg curl", "hamstring curl", "nordic"}, typedef.ExerciseCategoryLegCurl},
	{[]string{"calf"}, typedef.ExerciseCategoryCalfRaise},
	{[]string{"overhead press", "shoulder press", "military", "push press", "arnold"}, typedef.ExerciseCategoryShoulderPress},
	{[]string{"lateral raise", "rear delt", "front raise"}, typedef.ExerciseCategoryLateralRaise},
	{[]string{"fly", "flye", "pec deck"}, typedef.ExerciseCategoryFlye},
	{[]string{"pull up", "pullup", "chin up", "chinup", "pulldown", "pull down"}, typedef.ExerciseCategoryPullUp},
	{[]string{"push up", "pushup", "dip"}, typedef.ExerciseCategoryPushUp},
	{[]string{"row", "face pull"}, typedef.ExerciseCategoryRow},
	{[]string{"shrug"}, typedef.ExerciseCategoryShrug},
	{[]string{"tricep", "skull", "pushdown"}, typedef.ExerciseCategoryTricepsExtension},
	{[]string{"curl"}, typedef.ExerciseCategoryCurl},
	{[]string{"plank", "dead bug", "bird dog"}, typedef.ExerciseCategoryPlank},
	{[]string{"crunch", "ab wheel", "rollout"}, typedef.ExerciseCategoryCrunch},
	{[]string{"leg raise", "knee raise"}, typedef.ExerciseCategoryLegRaise},
	{[]string{"carry", "farmer"}, typedef.ExerciseCategoryCarry},
	{[]string{"clean", "snatch", "jerk"}, typedef.ExerciseCategoryOlympicLift},
	{[]string{"jump", "burpee", "box"}, typedef.ExerciseCategoryPlyo},
	{[]string{"stretch", "mobility", "foam roll", "circle", "swing", "cat cow", "band pull"}, typedef.ExerciseCategoryWarmUp},
	{[]string{"bike", "row erg", "walk", "jog", "run", "cardio", "circuit"}, typedef.ExerciseCategoryCardio},
}

// MapExerciseToCategory maps a free-text exercise name to the closest FIT
// exercise category, or ExerciseCategoryUnknown.
func MapExerciseToCategory(name string) typedef.ExerciseCategory {
	n := strings.ToLower(strings.ReplaceAll(name, "-", " "))
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(n, kw) {
				return rule.category
			}
		}
	}
	return typedef.ExerciseCategoryUnknown
}
