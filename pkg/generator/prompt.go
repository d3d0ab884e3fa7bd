package generator

import (
	"fmt"
	"strings"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// MaxPromptChars bounds the instruction sent to the text generator.
const MaxPromptChars = 4000

// maxListItems bounds each user-supplied list in the prompt.
const maxListItems = 10

const systemPrompt = "You are a strength coach and sports nutritionist. Reply with a single JSON object and nothing else."

// BuildPrompt renders a bounded instruction from the user context.
func BuildPrompt(uc types.UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a %d-week %s training program for the goal %q.\n", uc.DurationWeeks, uc.Discipline, uc.Goal)
	fmt.Fprintf(&b, "Experience: %s. Train %d days per week on %s. Sessions last about %d minutes.\n",
		uc.ExperienceTier, uc.DaysPerWeek, joinLimited(uc.PreferredDays), uc.SessionMinutes)
	if len(uc.EquipmentList) > 0 {
		fmt.Fprintf(&b, "Available equipment: %s.\n", joinLimited(uc.EquipmentList))
	}
	if len(uc.FavoriteExercises) > 0 {
		fmt.Fprintf(&b, "Favour: %s.\n", joinLimited(uc.FavoriteExercises))
	}
	if len(uc.ExcludedExercises) > 0 {
		fmt.Fprintf(&b, "Never include: %s.\n", joinLimited(uc.ExcludedExercises))
	}
	if len(uc.Injuries) > 0 {
		fmt.Fprintf(&b, "Work around injuries: %s.\n", joinLimited(uc.Injuries))
	}
	fmt.Fprintf(&b, "Daily nutrition: %d kcal, protein %dg, carbs %dg, fat %dg.\n",
		uc.TargetCalories, uc.Macros.Protein, uc.Macros.Carbs, uc.Macros.Fat)
	b.WriteString(schemaInstructions)

	prompt := b.String()
	if len(prompt) > MaxPromptChars {
		prompt = strings.ToValidUTF8(prompt[:MaxPromptChars], "")
	}
	return prompt
}

const schemaInstructions = `Return JSON with keys: name, goal, rationale, durationWeeks,
periodization {model, phases [{name, startWeek, endWeek, intensityRange [min,max], rpeTarget}]},
weeklyTemplates [{weekNumber, deloadWeek, restDays [day names], trainingDays [{dayOfWeek, title, focus,
durationMinutes, exercises [{name, category, sets, reps, rest, rpe, percentageOfMax, notes}]}]}],
nutritionPlan {calorieTarget, macros {protein, carbs, fat}, mealPlan {breakfast, snack1, lunch, snack2,
dinner each {name, description, calories, protein, carbs, fat, ingredients [], prepTime}}},
habits [{name, target, frequency}].
Each training day needs at least 12 exercises with categories warmup, main-lift, accessory and cooldown.
`

func joinLimited(items []string) string {
	if len(items) > maxListItems {
		items = items[:maxListItems]
	}
	return strings.Join(items, ", ")
}
