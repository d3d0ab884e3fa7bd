package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// ExtractJSON returns the largest balanced top-level {...} span in text.
// Braces inside JSON strings are ignored; prose and code fences around the
// object are skipped. Ties go to the earliest span.
func ExtractJSON(text string) (string, bool) {
	bestStart, bestEnd := -1, -1
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && i+1-start > bestEnd-bestStart {
				bestStart, bestEnd = start, i+1
			}
		}
	}
	if bestStart < 0 {
		return "", false
	}
	return text[bestStart:bestEnd], true
}

// DecodeCandidate extracts and decodes a program from free-form generator
// output. Every failure is ErrGenerationUnusable.
func DecodeCandidate(text string) (*types.Program, error) {
	span, ok := ExtractJSON(text)
	if !ok {
		return nil, apperrors.ErrGenerationUnusable.WithMessage("no JSON object in reply")
	}

	var payload programPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, apperrors.ErrGenerationUnusable.WithCause(err)
	}
	if len(payload.Weeks) == 0 && payload.Program != nil {
		payload = *payload.Program
	}
	if len(payload.Weeks) == 0 {
		return nil, apperrors.ErrGenerationUnusable.WithMessage("reply has no weekly templates")
	}
	return payload.toProgram(), nil
}

type programPayload struct {
	Name          string               `json:"name"`
	Goal          string               `json:"goal"`
	Rationale     string               `json:"rationale"`
	DurationWeeks flexInt              `json:"durationWeeks"`
	Periodization periodizationPayload `json:"periodization"`
	Weeks         []weekPayload        `json:"weeklyTemplates"`
	Nutrition     *nutritionPayload    `json:"nutritionPlan"`
	Habits        []types.Habit        `json:"habits"`

	// Some replies nest the program under a top-level key.
	Program *programPayload `json:"program"`
}

type periodizationPayload struct {
	Model  string         `json:"model"`
	Phases []phasePayload `json:"phases"`
}

type phasePayload struct {
	Name           string    `json:"name"`
	StartWeek      flexInt   `json:"startWeek"`
	EndWeek        flexInt   `json:"endWeek"`
	Weeks          []int     `json:"weeks"`
	IntensityRange []float64 `json:"intensityRange"`
	RPETarget      flexFloat `json:"rpeTarget"`
}

type weekPayload struct {
	WeekNumber   flexInt      `json:"weekNumber"`
	TrainingDays []dayPayload `json:"trainingDays"`
	RestDays     []string     `json:"restDays"`
	DeloadWeek   bool         `json:"deloadWeek"`
}

type dayPayload struct {
	DayOfWeek       string            `json:"dayOfWeek"`
	Title           string            `json:"title"`
	Focus           string            `json:"focus"`
	DurationMinutes flexInt           `json:"durationMinutes"`
	Exercises       []exercisePayload `json:"exercises"`
}

type exercisePayload struct {
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Sets            flexInt    `json:"sets"`
	Reps            flexString `json:"reps"`
	Rest            flexString `json:"rest"`
	RPE             *flexFloat `json:"rpe"`
	PercentageOfMax *flexFloat `json:"percentageOfMax"`
	Notes           string     `json:"notes"`
}

type nutritionPayload struct {
	CalorieTarget flexInt `json:"calorieTarget"`
	Macros        struct {
		Protein flexInt `json:"protein"`
		Carbs   flexInt `json:"carbs"`
		Fat     flexInt `json:"fat"`
	} `json:"macros"`
	MealPlan map[string]*mealPayload `json:"mealPlan"`
}

type mealPayload struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Calories    flexInt    `json:"calories"`
	Protein     flexInt    `json:"protein"`
	Carbs       flexInt    `json:"carbs"`
	Fat         flexInt    `json:"fat"`
	Ingredients []string   `json:"ingredients"`
	PrepTime    flexString `json:"prepTime"`
}

func (p programPayload) toProgram() *types.Program {
	prog := &types.Program{
		Name:          p.Name,
		Goal:          p.Goal,
		Rationale:     p.Rationale,
		DurationWeeks: int(p.DurationWeeks),
		Habits:        p.Habits,
		AIGenerated:   true,
		Strategy:      StrategyExternal,
		Periodization: types.Periodization{
			Model: types.PeriodizationModel(strings.ToLower(p.Periodization.Model)),
		},
	}
	for _, ph := range p.Periodization.Phases {
		prog.Periodization.Phases = append(prog.Periodization.Phases, types.Phase{
			Name:           types.PhaseName(strings.ToLower(ph.Name)),
			StartWeek:      int(ph.StartWeek),
			EndWeek:        int(ph.EndWeek),
			Weeks:          ph.Weeks,
			IntensityRange: ph.IntensityRange,
			RPETarget:      float64(ph.RPETarget),
		})
	}
	for _, w := range p.Weeks {
		week := types.WeeklyTemplate{
			WeekNumber: int(w.WeekNumber),
			RestDays:   w.RestDays,
			DeloadWeek: w.DeloadWeek,
		}
		for _, d := range w.TrainingDays {
			day := types.TrainingDay{
				DayOfWeek:       strings.ToLower(strings.TrimSpace(d.DayOfWeek)),
				Title:           d.Title,
				Focus:           d.Focus,
				DurationMinutes: int(d.DurationMinutes),
			}
			for _, ex := range d.Exercises {
				day.Exercises = append(day.Exercises, types.ExerciseTemplate{
					Name:            strings.TrimSpace(ex.Name),
					Category:        types.ExerciseCategory(strings.ToLower(strings.TrimSpace(ex.Category))),
					Sets:            int(ex.Sets),
					Reps:            string(ex.Reps),
					Rest:            string(ex.Rest),
					RPE:             ex.RPE.ptr(),
					PercentageOfMax: ex.PercentageOfMax.ptr(),
					Notes:           ex.Notes,
				})
			}
			week.TrainingDays = append(week.TrainingDays, day)
		}
		prog.Weeks = append(prog.Weeks, week)
	}
	if p.Nutrition != nil {
		plan := &types.NutritionPlan{
			CalorieTarget: int(p.Nutrition.CalorieTarget),
			Macros: types.Macros{
				Protein: int(p.Nutrition.Macros.Protein),
				Carbs:   int(p.Nutrition.Macros.Carbs),
				Fat:     int(p.Nutrition.Macros.Fat),
			},
		}
		for key, m := range p.Nutrition.MealPlan {
			if m == nil {
				continue
			}
			slot, ok := mealSlotAliases[strings.ToLower(key)]
			if !ok {
				continue
			}
			plan.MealPlan.SetSlot(slot, &types.Meal{
				Name:        m.Name,
				Description: m.Description,
				Calories:    int(m.Calories),
				Protein:     int(m.Protein),
				Carbs:       int(m.Carbs),
				Fat:         int(m.Fat),
				Ingredients: m.Ingredients,
				PrepTime:    string(m.PrepTime),
			})
		}
		prog.Nutrition = plan
	}
	return prog
}

var mealSlotAliases = map[string]types.MealSlot{
	"breakfast":       types.SlotBreakfast,
	"snack1":          types.SlotSnack1,
	"morningsnack":    types.SlotSnack1,
	"morning_snack":   types.SlotSnack1,
	"lunch":           types.SlotLunch,
	"snack2":          types.SlotSnack2,
	"afternoonsnack":  types.SlotSnack2,
	"afternoon_snack": types.SlotSnack2,
	"dinner":          types.SlotDinner,
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// flexFloat accepts a number or a string with a leading number ("7-8",
// "75%"). Strings without a number decode as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected number, got %s", b)
	}
	*f = flexFloat(leadingNumber(s))
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil || *f == 0 {
		return nil
	}
	v := float64(*f)
	return &v
}

// flexInt accepts an integer, a float (rounded) or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var v flexFloat
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*f = flexInt(math.Round(float64(v)))
	return nil
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return n
}
