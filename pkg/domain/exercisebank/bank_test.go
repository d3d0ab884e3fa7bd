package exercisebank

import (
	"testing"
)

func TestDefaultCatalogLoads(t *testing.T) {
	b := Default()
	if len(b.All()) < 60 {
		t.Fatalf("Expected a populated catalog, got %d exercises", len(b.All()))
	}
	categories := []string{"quad", "hip", "push", "pull", "shoulders", "arms", "calves", "core"}
	for _, c := range categories {
		if len(b.ByCategory(c)) == 0 {
			t.Errorf("Expected exercises in category %q, got none", c)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "exercises: []"},
		{"malformed", "exercises: [{id: a"},
		{"missing name", "exercises:\n  - {id: a, category: quad}"},
		{"duplicate id", "exercises:\n  - {id: a, name: A, category: quad}\n  - {id: a, name: B, category: quad}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); err == nil {
				t.Errorf("Expected error for %s catalog, got nil", tt.name)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantID         string
		wantConfidence float64
	}{
		{"exact name", "Bench Press", "bench-press", 1.0},
		{"case insensitive", "bEnCh PrEsS", "bench-press", 1.0},
		{"alias", "Squat", "back-squat", 1.0},
		{"alias abbreviation", "OHP", "overhead-press", 1.0},
		{"hyphen insensitive", "pull up", "pull-up", 1.0},
		{"expanded abbreviation", "BB Bench Press", "bench-press", 0.95},
	}
	b := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := b.Lookup(tt.input)
			if !res.Matched {
				t.Fatalf("Expected match for %q, got none", tt.input)
			}
			if res.Exercise.ID != tt.wantID {
				t.Errorf("Expected %s, got %s", tt.wantID, res.Exercise.ID)
			}
			if res.Confidence != tt.wantConfidence {
				t.Errorf("Expected confidence %v, got %v", tt.wantConfidence, res.Confidence)
			}
		})
	}
}

func TestLookup_Fuzzy(t *testing.T) {
	b := Default()
	res := b.Lookup("Good Mornings")
	if !res.Matched || res.Exercise.ID != "good-morning" {
		t.Fatalf("Expected fuzzy match to good-morning, got %+v", res)
	}
	if res.Confidence < fuzzyThreshold || res.Confidence >= 1.0 {
		t.Errorf("Expected fuzzy confidence in [%.2f, 1), got %f", fuzzyThreshold, res.Confidence)
	}

	for _, input := range []string{"Banana Split", "", "   "} {
		if res := b.Lookup(input); res.Matched {
			t.Errorf("Expected no match for %q, got %s", input, res.Exercise.ID)
		}
	}
}

func TestSubstitutesFor(t *testing.T) {
	b := Default()
	subs := b.SubstitutesFor("back-squat")
	want := []string{"Hack Squat", "Front Squat", "Goblet Squat", "Leg Press", "Wall Sit"}
	if len(subs) != len(want) {
		t.Fatalf("Expected %d substitutes, got %d", len(want), len(subs))
	}
	for i, s := range subs {
		if s.Name != want[i] {
			t.Errorf("Expected substitute %d to be %s, got %s", i, want[i], s.Name)
		}
		if s.ID == "back-squat" {
			t.Errorf("Expected substitutes to exclude the source exercise")
		}
		if s.Pattern != "squat" || s.PrimaryMuscle != "quadriceps" {
			t.Errorf("Expected squat/quadriceps substitute, got %s/%s", s.Pattern, s.PrimaryMuscle)
		}
	}

	if subs := b.SubstitutesFor("no-such-exercise"); subs != nil {
		t.Errorf("Expected nil for unknown id, got %v", subs)
	}
}

func TestQueries(t *testing.T) {
	b := Default()

	triceps := b.ByMuscle("triceps")
	var sawBench, sawPushdown bool
	for _, e := range triceps {
		sawBench = sawBench || e.ID == "bench-press"
		sawPushdown = sawPushdown || e.ID == "tricep-pushdown"
	}
	if !sawBench || !sawPushdown {
		t.Errorf("Expected ByMuscle(triceps) to include primary and secondary movers")
	}

	for _, e := range b.ByEquipment("Dumbbells") {
		if e.Equipment != "dumbbell" {
			t.Errorf("Expected dumbbell equipment, got %s for %s", e.Equipment, e.Name)
		}
	}
	for _, e := range b.ByPattern("hinge") {
		if e.Pattern != "hinge" {
			t.Errorf("Expected hinge pattern, got %s", e.Pattern)
		}
	}
	for _, e := range b.ByDifficulty("advanced") {
		if e.DifficultyRank() != 3 {
			t.Errorf("Expected advanced rank 3 for %s, got %d", e.Name, e.DifficultyRank())
		}
	}
	if _, ok := b.ByID("deadlift"); !ok {
		t.Errorf("Expected deadlift by id")
	}
}

func TestExclusions(t *testing.T) {
	b := Default()
	x := b.Exclusions([]string{"Good Mornings", "knee", "Zercher Carry"})

	mustGet := func(id string) Exercise {
		e, ok := b.ByID(id)
		if !ok {
			t.Fatalf("missing %s", id)
		}
		return e
	}

	if !x.Excludes(mustGet("good-morning")) {
		t.Errorf("Expected Good Morning excluded by plural name")
	}
	if !x.Excludes(mustGet("back-squat")) {
		t.Errorf("Expected Back Squat excluded by knee injury")
	}
	if x.Excludes(mustGet("bench-press")) {
		t.Errorf("Expected Bench Press allowed")
	}
	if !x.ExcludesName("good morning") {
		t.Errorf("Expected name match for singular form")
	}
	if !x.ExcludesName("Zercher Carry") {
		t.Errorf("Expected raw name outside the catalog to be kept")
	}
	if x.Empty() {
		t.Errorf("Expected non-empty exclusions")
	}
	if !b.Exclusions(nil).Empty() {
		t.Errorf("Expected empty exclusions for no terms")
	}
}

func TestAllowsEquipment(t *testing.T) {
	b := Default()
	bench, _ := b.ByID("bench-press")
	pushUp, _ := b.ByID("push-up")
	row, _ := b.ByID("dumbbell-row")

	if AllowsEquipment(bench, []string{"dumbbells"}) {
		t.Errorf("Expected barbell bench rejected with only dumbbells")
	}
	if !AllowsEquipment(pushUp, []string{"dumbbells"}) {
		t.Errorf("Expected bodyweight always allowed")
	}
	if !AllowsEquipment(row, []string{"DB"}) {
		t.Errorf("Expected DB alias to allow dumbbell row")
	}
	if !AllowsEquipment(bench, nil) {
		t.Errorf("Expected empty equipment list to allow everything")
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"squat", "squat", 0},
		{"good morning", "good mornings", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("Expected distance(%q, %q) = %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}
