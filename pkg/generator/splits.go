package generator

import "strings"

// dayPlan is one slot of a weekly split.
type dayPlan struct {
	Title string
	Focus string
}

// splitTables maps discipline to day-count-keyed splits.
var splitTables = map[string]map[int][]dayPlan{
	"powerlifting": {
		3: {{"Squat / Quads", "squat"}, {"Bench / Push", "bench"}, {"Deadlift / Pull", "deadlift"}},
		4: {{"Squat / Quads", "squat"}, {"Bench / Push", "bench"}, {"Deadlift / Pull", "deadlift"}, {"Upper Volume", "upper"}},
		5: {{"Squat / Quads", "squat"}, {"Bench / Push", "bench"}, {"Deadlift / Pull", "deadlift"}, {"Upper Volume", "upper"}, {"Lower Volume", "lower"}},
	},
	"bodybuilding": {
		3: {{"Push", "push"}, {"Pull", "pull"}, {"Legs", "legs"}},
		4: {{"Upper A", "upper"}, {"Lower A", "lower"}, {"Upper B", "upper"}, {"Lower B", "lower"}},
		5: {{"Push", "push"}, {"Pull", "pull"}, {"Legs", "legs"}, {"Upper", "upper"}, {"Lower", "lower"}},
		6: {{"Push A", "push"}, {"Pull A", "pull"}, {"Legs A", "legs"}, {"Push B", "push"}, {"Pull B", "pull"}, {"Legs B", "legs"}},
	},
}

// genericSplits covers any discipline and day count without a dedicated table.
var genericSplits = map[int][]dayPlan{
	1: {{"Full Body", "full body"}},
	2: {{"Full Body A", "full body"}, {"Full Body B", "full body"}},
	3: {{"Full Body A", "full body"}, {"Full Body B", "full body"}, {"Full Body C", "full body"}},
	4: {{"Upper A", "upper"}, {"Lower A", "lower"}, {"Upper B", "upper"}, {"Lower B", "lower"}},
	5: {{"Upper", "upper"}, {"Lower", "lower"}, {"Push", "push"}, {"Pull", "pull"}, {"Legs", "legs"}},
	6: {{"Push A", "push"}, {"Pull A", "pull"}, {"Legs A", "legs"}, {"Push B", "push"}, {"Pull B", "pull"}, {"Legs B", "legs"}},
	7: {{"Push A", "push"}, {"Pull A", "pull"}, {"Legs A", "legs"}, {"Push B", "push"}, {"Pull B", "pull"}, {"Legs B", "legs"}, {"Full Body", "full body"}},
}

// splitFor returns the split for a discipline and day count. Unknown
// combinations use the generic table.
func splitFor(discipline string, days int) []dayPlan {
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}
	if table, ok := splitTables[strings.ToLower(discipline)]; ok {
		if split, ok := table[days]; ok {
			return split
		}
	}
	return genericSplits[days]
}

// focusRule maps a focus keyword to exercise bank categories and the warmup
// and cooldown families used for the day.
type focusRule struct {
	Keywords  []string
	Primary   []string
	Accessory []string
	Warmup    string
	Cooldown  string
}

// focusRules are checked in order; the first keyword hit wins.
var focusRules = []focusRule{
	{[]string{"squat"}, []string{"quad"}, []string{"quad", "hip", "calves", "core"}, "lower", "lower"},
	{[]string{"deadlift"}, []string{"hip", "pull"}, []string{"hip", "pull", "core"}, "pull", "lower"},
	{[]string{"bench"}, []string{"push"}, []string{"push", "shoulders", "arms"}, "upper", "upper"},
	{[]string{"push", "chest"}, []string{"push", "shoulders"}, []string{"push", "shoulders", "arms"}, "upper", "upper"},
	{[]string{"pull", "back"}, []string{"pull"}, []string{"pull", "arms", "shoulders"}, "pull", "upper"},
	{[]string{"upper"}, []string{"push", "pull"}, []string{"shoulders", "arms", "push", "pull"}, "upper", "upper"},
	{[]string{"lower", "leg", "quad", "glute", "hamstring"}, []string{"quad", "hip"}, []string{"quad", "hip", "calves", "core"}, "lower", "lower"},
}

var fullBodyRule = focusRule{
	Primary:   []string{"quad", "push"},
	Accessory: []string{"pull", "hip", "shoulders", "core"},
	Warmup:    "general",
	Cooldown:  "general",
}

func ruleFor(focus string) focusRule {
	f := strings.ToLower(focus)
	for _, r := range focusRules {
		for _, kw := range r.Keywords {
			if strings.Contains(f, kw) {
				return r
			}
		}
	}
	return fullBodyRule
}

// warmupFamilies are the fixed warmup sets per family.
var warmupFamilies = map[string][]string{
	"lower":   {"Leg Swings", "Hip Circles", "Bodyweight Squats"},
	"upper":   {"Arm Circles", "Band Pull-Aparts", "Scapular Push-Ups"},
	"pull":    {"Cat-Cow", "Scapular Pull-Ups", "Band Dislocates"},
	"general": {"Jumping Jacks", "World's Greatest Stretch", "Inchworms"},
}

// cooldownFamilies are stretches drawn in order until the day is full.
var cooldownFamilies = map[string][]string{
	"lower":   {"Standing Quad Stretch", "Hamstring Stretch", "Pigeon Stretch", "Couch Stretch", "Calf Stretch", "Child's Pose"},
	"upper":   {"Doorway Chest Stretch", "Cross-Body Shoulder Stretch", "Overhead Triceps Stretch", "Lat Stretch", "Thread the Needle", "Child's Pose"},
	"general": {"Standing Forward Fold", "Supine Spinal Twist", "Hip Flexor Stretch", "Cross-Body Shoulder Stretch", "Cobra Stretch", "Box Breathing"},
}

// reserveWarmups and reserveCooldowns load no tagged joint and are drawn
// only when exclusions empty the regular families.
var (
	reserveWarmups   = []string{"Marching in Place", "Ankle Circles", "Neck Rolls"}
	reserveCooldowns = []string{"Seated Calf Stretch", "Neck Stretch", "Diaphragmatic Breathing"}
)

// drillParts tags warmups and stretches with the joints they load.
var drillParts = map[string][]string{
	"Leg Swings":                  {"hip"},
	"Hip Circles":                 {"hip"},
	"Bodyweight Squats":           {"knee", "hip"},
	"Arm Circles":                 {"shoulder"},
	"Band Pull-Aparts":            {"shoulder"},
	"Scapular Push-Ups":           {"shoulder", "wrist"},
	"Cat-Cow":                     {"lower back", "wrist"},
	"Scapular Pull-Ups":           {"shoulder", "elbow"},
	"Band Dislocates":             {"shoulder"},
	"Jumping Jacks":               {"knee", "shoulder"},
	"World's Greatest Stretch":    {"hip", "lower back"},
	"Inchworms":                   {"wrist", "shoulder", "lower back"},
	"Standing Quad Stretch":       {"knee"},
	"Hamstring Stretch":           {"lower back"},
	"Pigeon Stretch":              {"hip", "knee"},
	"Couch Stretch":               {"knee", "hip"},
	"Child's Pose":                {"knee"},
	"Doorway Chest Stretch":       {"shoulder"},
	"Cross-Body Shoulder Stretch": {"shoulder"},
	"Overhead Triceps Stretch":    {"shoulder", "elbow"},
	"Lat Stretch":                 {"shoulder"},
	"Thread the Needle":           {"shoulder"},
	"Standing Forward Fold":       {"lower back"},
	"Supine Spinal Twist":         {"lower back"},
	"Hip Flexor Stretch":          {"hip"},
	"Cobra Stretch":               {"lower back", "wrist"},
}

// accessoryCounts scale accessory volume with experience.
var accessoryCounts = map[string]int{
	"beginner":     3,
	"intermediate": 4,
	"advanced":     5,
	"elite":        6,
}

const (
	primaryCount     = 2
	minDayExercises  = 12
	minCooldown      = 2
	fallbackMainLift = "Bodyweight Circuit"
)
