package types

import "time"

// ProgramStatus is the lifecycle state of a Program.
type ProgramStatus string

const (
	ProgramStatusActive    ProgramStatus = "active"
	ProgramStatusPaused    ProgramStatus = "paused"
	ProgramStatusCompleted ProgramStatus = "completed"
	ProgramStatusArchived  ProgramStatus = "archived"
)

// PeriodizationModel tags how phases are arranged across the program.
type PeriodizationModel string

const (
	ModelLinear        PeriodizationModel = "linear"
	ModelBlock         PeriodizationModel = "block"
	ModelUndulating    PeriodizationModel = "undulating"
	ModelConjugate     PeriodizationModel = "conjugate"
	ModelAutoregulated PeriodizationModel = "autoregulated"
)

// PhaseName identifies a training phase.
type PhaseName string

const (
	PhaseAccumulation PhaseName = "accumulation"
	PhaseStrength     PhaseName = "strength"
	PhaseIntensity    PhaseName = "intensity"
	PhasePeak         PhaseName = "peak"
	PhaseDeload       PhaseName = "deload"
	PhaseTransition   PhaseName = "transition"
)

// ExerciseCategory is the canonical role of an exercise within a training day.
type ExerciseCategory string

const (
	CategoryWarmup    ExerciseCategory = "warmup"
	CategoryMainLift  ExerciseCategory = "main-lift"
	CategoryAccessory ExerciseCategory = "accessory"
	CategoryCooldown  ExerciseCategory = "cooldown"
)

// RequiredCategories lists the categories every training day must cover.
var RequiredCategories = []ExerciseCategory{CategoryWarmup, CategoryMainLift, CategoryAccessory, CategoryCooldown}

// Program is the persisted training-and-nutrition plan for one user.
type Program struct {
	ID         string        `json:"id" firestore:"id"`
	UserID     string        `json:"userId" firestore:"user_id"`
	Name       string        `json:"name" firestore:"name"`
	Goal       string        `json:"goal" firestore:"goal"`
	Discipline string        `json:"discipline,omitempty" firestore:"discipline"`
	Status     ProgramStatus `json:"status" firestore:"status"`

	StartDate     time.Time `json:"startDate" firestore:"start_date"`
	DurationWeeks int       `json:"durationWeeks" firestore:"duration_weeks"`
	CurrentWeek   int       `json:"currentWeek" firestore:"current_week"`
	DaysPerWeek   int       `json:"daysPerWeek" firestore:"days_per_week"`

	Periodization Periodization    `json:"periodization" firestore:"periodization"`
	Weeks         []WeeklyTemplate `json:"weeklyTemplates" firestore:"weekly_templates"`
	Nutrition     *NutritionPlan   `json:"nutritionPlan,omitempty" firestore:"nutrition_plan"`
	Habits        []Habit          `json:"habits,omitempty" firestore:"habits"`

	AIGenerated      bool       `json:"aiGenerated" firestore:"ai_generated"`
	Strategy         string     `json:"strategy,omitempty" firestore:"strategy"`
	Rationale        string     `json:"rationale,omitempty" firestore:"rationale"`
	LastPropagatedAt *time.Time `json:"lastPropagatedAt,omitempty" firestore:"last_propagated_at"`
	CreatedAt        time.Time  `json:"createdAt" firestore:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" firestore:"updated_at"`
}

// Periodization holds the model tag and ordered phase list.
type Periodization struct {
	Model  PeriodizationModel `json:"model" firestore:"model"`
	Phases []Phase            `json:"phases" firestore:"phases"`
}

// Phase covers the inclusive week range [StartWeek, EndWeek].
// Weeks is only populated by generated payloads that list weeks explicitly
// and is cleared once the phase is normalized to range form.
type Phase struct {
	Name           PhaseName `json:"name" firestore:"name"`
	StartWeek      int       `json:"startWeek" firestore:"start_week"`
	EndWeek        int       `json:"endWeek" firestore:"end_week"`
	Weeks          []int     `json:"weeks,omitempty" firestore:"-"`
	IntensityRange []float64 `json:"intensityRange,omitempty" firestore:"intensity_range"`
	RPETarget      float64   `json:"rpeTarget,omitempty" firestore:"rpe_target"`
}

// WeeklyTemplate is the blueprint for one program week.
type WeeklyTemplate struct {
	WeekNumber   int           `json:"weekNumber" firestore:"week_number"`
	TrainingDays []TrainingDay `json:"trainingDays" firestore:"training_days"`
	RestDays     []string      `json:"restDays" firestore:"rest_days"`
	DeloadWeek   bool          `json:"deloadWeek" firestore:"deload_week"`
}

// TrainingDay is a single scheduled session within a week.
type TrainingDay struct {
	DayOfWeek       string             `json:"dayOfWeek" firestore:"day_of_week"`
	Title           string             `json:"title" firestore:"title"`
	Focus           string             `json:"focus" firestore:"focus"`
	DurationMinutes int                `json:"durationMinutes" firestore:"duration_minutes"`
	Exercises       []ExerciseTemplate `json:"exercises" firestore:"exercises"`
}

// ExerciseTemplate is one prescribed exercise.
type ExerciseTemplate struct {
	Name            string           `json:"name" firestore:"name"`
	Category        ExerciseCategory `json:"category" firestore:"category"`
	Sets            int              `json:"sets" firestore:"sets"`
	Reps            string           `json:"reps" firestore:"reps"`
	Rest            string           `json:"rest" firestore:"rest"`
	RPE             *float64         `json:"rpe,omitempty" firestore:"rpe,omitempty"`
	PercentageOfMax *float64         `json:"percentageOfMax,omitempty" firestore:"percentage_of_max,omitempty"`
	TargetWeight    *float64         `json:"targetWeight,omitempty" firestore:"target_weight,omitempty"`
	Notes           string           `json:"notes,omitempty" firestore:"notes"`
}

// Macros are daily macronutrient targets in grams.
type Macros struct {
	Protein int `json:"protein" firestore:"protein"`
	Carbs   int `json:"carbs" firestore:"carbs"`
	Fat     int `json:"fat" firestore:"fat"`
}

// Calories returns the energy implied by the macros (4/4/9 kcal per gram).
func (m Macros) Calories() int {
	return m.Protein*4 + m.Carbs*4 + m.Fat*9
}

// NutritionPlan is the daily nutrition prescription.
type NutritionPlan struct {
	CalorieTarget int      `json:"calorieTarget" firestore:"calorie_target"`
	Macros        Macros   `json:"macros" firestore:"macros"`
	MealPlan      MealPlan `json:"mealPlan" firestore:"meal_plan"`
}

// MealPlan holds the five daily meal slots.
type MealPlan struct {
	Breakfast *Meal `json:"breakfast,omitempty" firestore:"breakfast"`
	Snack1    *Meal `json:"snack1,omitempty" firestore:"snack1"`
	Lunch     *Meal `json:"lunch,omitempty" firestore:"lunch"`
	Snack2    *Meal `json:"snack2,omitempty" firestore:"snack2"`
	Dinner    *Meal `json:"dinner,omitempty" firestore:"dinner"`
}

// MealSlot names a position in the daily meal plan.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotSnack1    MealSlot = "snack1"
	SlotLunch     MealSlot = "lunch"
	SlotSnack2    MealSlot = "snack2"
	SlotDinner    MealSlot = "dinner"
)

// MealSlots is the fixed daily order of meal slots.
var MealSlots = []MealSlot{SlotBreakfast, SlotSnack1, SlotLunch, SlotSnack2, SlotDinner}

// Slot returns the meal in the given slot, or nil.
func (mp *MealPlan) Slot(slot MealSlot) *Meal {
	switch slot {
	case SlotBreakfast:
		return mp.Breakfast
	case SlotSnack1:
		return mp.Snack1
	case SlotLunch:
		return mp.Lunch
	case SlotSnack2:
		return mp.Snack2
	case SlotDinner:
		return mp.Dinner
	}
	return nil
}

// SetSlot assigns a meal to the given slot.
func (mp *MealPlan) SetSlot(slot MealSlot, m *Meal) {
	switch slot {
	case SlotBreakfast:
		mp.Breakfast = m
	case SlotSnack1:
		mp.Snack1 = m
	case SlotLunch:
		mp.Lunch = m
	case SlotSnack2:
		mp.Snack2 = m
	case SlotDinner:
		mp.Dinner = m
	}
}

// Meal is a single meal with its macro breakdown.
type Meal struct {
	Name        string   `json:"name" firestore:"name"`
	Description string   `json:"description" firestore:"description"`
	Calories    int      `json:"calories" firestore:"calories"`
	Protein     int      `json:"protein" firestore:"protein"`
	Carbs       int      `json:"carbs" firestore:"carbs"`
	Fat         int      `json:"fat" firestore:"fat"`
	Ingredients []string `json:"ingredients" firestore:"ingredients"`
	PrepTime    string   `json:"prepTime" firestore:"prep_time"`
}

// Habit is a daily lifestyle target attached to a program.
type Habit struct {
	Name      string `json:"name" firestore:"name"`
	Target    string `json:"target" firestore:"target"`
	Frequency string `json:"frequency" firestore:"frequency"`
}

// ProgramUpdate is a partial update; nil fields are left untouched.
type ProgramUpdate struct {
	Status           *ProgramStatus
	CurrentWeek      *int
	LastPropagatedAt *time.Time
}
