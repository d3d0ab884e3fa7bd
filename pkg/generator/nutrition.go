package generator

import (
	"fmt"
	"math"

	"github.com/ripixel/fitplan-server/pkg/domain/profile"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// DefaultCalorieTarget is used when a context carries no calorie target.
const DefaultCalorieTarget = 2500

// MealShares split daily calories across the five meal slots.
var MealShares = map[types.MealSlot]float64{
	types.SlotBreakfast: 0.20,
	types.SlotSnack1:    0.12,
	types.SlotLunch:     0.25,
	types.SlotSnack2:    0.13,
	types.SlotDinner:    0.30,
}

type mealTemplate struct {
	Name        string
	Description string
	Ingredients []string
	PrepTime    string
}

var mealTemplates = map[types.MealSlot]mealTemplate{
	types.SlotBreakfast: {
		Name:        "Greek Yogurt Oat Bowl",
		Description: "Oats and Greek yogurt topped with berries and honey.",
		Ingredients: []string{"rolled oats", "greek yogurt", "mixed berries", "honey", "chia seeds"},
		PrepTime:    "10 min",
	},
	types.SlotSnack1: {
		Name:        "Apple and Peanut Butter",
		Description: "Sliced apple with natural peanut butter.",
		Ingredients: []string{"apple", "peanut butter"},
		PrepTime:    "5 min",
	},
	types.SlotLunch: {
		Name:        "Chicken Rice Bowl",
		Description: "Grilled chicken over rice with roasted vegetables.",
		Ingredients: []string{"chicken breast", "jasmine rice", "broccoli", "bell pepper", "olive oil"},
		PrepTime:    "25 min",
	},
	types.SlotSnack2: {
		Name:        "Protein Shake and Banana",
		Description: "Whey shake blended with milk, banana on the side.",
		Ingredients: []string{"whey protein", "milk", "banana"},
		PrepTime:    "5 min",
	},
	types.SlotDinner: {
		Name:        "Salmon, Sweet Potato and Greens",
		Description: "Baked salmon with roasted sweet potato and sauteed spinach.",
		Ingredients: []string{"salmon fillet", "sweet potato", "spinach", "garlic", "lemon"},
		PrepTime:    "30 min",
	},
}

// BuildNutrition fills the five-meal plan from the context's calorie and
// macro targets using the fixed MealShares.
func BuildNutrition(uc types.UserContext) *types.NutritionPlan {
	calories := uc.TargetCalories
	macros := uc.Macros
	if calories <= 0 {
		calories = macros.Calories()
	}
	if calories <= 0 {
		calories = DefaultCalorieTarget
	}
	if macros.Calories() <= 0 {
		bw := uc.BodyweightLbs
		if bw <= 0 {
			bw = profile.DefaultBodyweightLbs
		}
		macros = profile.SplitMacros(calories, bw, uc.Goal)
	}

	plan := &types.NutritionPlan{CalorieTarget: calories, Macros: macros}
	for _, slot := range types.MealSlots {
		share := MealShares[slot]
		tmpl := mealTemplates[slot]
		plan.MealPlan.SetSlot(slot, &types.Meal{
			Name:        tmpl.Name,
			Description: tmpl.Description,
			Calories:    portion(calories, share),
			Protein:     portion(macros.Protein, share),
			Carbs:       portion(macros.Carbs, share),
			Fat:         portion(macros.Fat, share),
			Ingredients: append([]string(nil), tmpl.Ingredients...),
			PrepTime:    tmpl.PrepTime,
		})
	}
	return plan
}

func portion(total int, share float64) int {
	return int(math.Round(float64(total) * share))
}

// DefaultHabits is the habit list attached to programs that carry none.
func DefaultHabits(proteinGrams int) []types.Habit {
	protein := "1 g per lb of bodyweight"
	if proteinGrams > 0 {
		protein = fmt.Sprintf("%d g", proteinGrams)
	}
	return []types.Habit{
		{Name: "Hydration", Target: "3 L water", Frequency: "daily"},
		{Name: "Sleep", Target: "8 hours", Frequency: "daily"},
		{Name: "Steps", Target: "8000 steps", Frequency: "daily"},
		{Name: "Protein", Target: protein, Frequency: "daily"},
	}
}
