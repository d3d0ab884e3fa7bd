package records

import (
	"testing"
	"time"

	"github.com/ripixel/fitplan-server/pkg/types"
)

func TestEstimateOneRepMax(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		reps   int
		want   int
	}{
		{"single rep is the weight", 200, 1, 200},
		{"brzycki five reps", 200, 5, 225},
		{"brzycki ten reps", 100, 10, 133},
		{"brzycki twelve reps", 100, 12, 144},
		{"epley above twelve", 100, 15, 150},
		{"zero reps", 100, 0, 0},
		{"zero weight", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateOneRepMax(tt.weight, tt.reps); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestEstimateOneRepMax_BrzyckiShape(t *testing.T) {
	// Brzycki grows with reps at a fixed weight; the estimate must never
	// step backwards anywhere in the Brzycki range.
	prev := EstimateOneRepMax(185, 1)
	for reps := 2; reps <= 12; reps++ {
		got := EstimateOneRepMax(185, reps)
		if got < prev {
			t.Errorf("Estimate dropped at %d reps: %d < %d", reps, got, prev)
		}
		prev = got
	}
}

func TestRepMaxTable(t *testing.T) {
	table := RepMaxTable(225)
	want := types.RepMaxTable{OneRM: 225, ThreeRM: 213, FiveRM: 200, EightRM: 181, TenRM: 169}
	if table != want {
		t.Errorf("Expected %+v, got %+v", want, table)
	}

	// The 5RM of an estimate derived from a 5-rep set returns the set weight.
	if got := RepMaxTable(EstimateOneRepMax(200, 5)).FiveRM; got != 200 {
		t.Errorf("Expected 5RM 200, got %d", got)
	}
}

func TestTargetWeight(t *testing.T) {
	if got := TargetWeight(225, 80, 2.5); got != 180 {
		t.Errorf("Expected 180, got %v", got)
	}
	if got := TargetWeight(0, 80, 2.5); got != 0 {
		t.Errorf("Expected 0 for missing 1RM, got %v", got)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Bench Press":        "bench press",
		"  bench   PRESS  ":  "bench press",
		"Bench-Press!":       "benchpress",
		"Barbell Back Squat": "barbell back squat",
		"T-Bar Row (Close)":  "tbar row close",
		"":                   "",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBestSets(t *testing.T) {
	sets := []types.LiftSet{
		{ExerciseName: "Squat", Weight: 225, Reps: 5},
		{ExerciseName: "Bench Press", Weight: 185, Reps: 3},
		{ExerciseName: "squat", Weight: 245, Reps: 3},
		{ExerciseName: "SQUAT ", Weight: 200, Reps: 8},
		{ExerciseName: "Deadlift", Weight: 0, Reps: 5},
	}

	best := BestSets(sets)
	if len(best) != 2 {
		t.Fatalf("Expected 2 exercises, got %d", len(best))
	}
	if best[0].Weight != 245 || best[0].Reps != 3 {
		t.Errorf("Expected squat best 245x3, got %vx%d", best[0].Weight, best[0].Reps)
	}
	if best[1].ExerciseName != "Bench Press" {
		t.Errorf("Expected bench press second, got %s", best[1].ExerciseName)
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	set := types.LiftSet{ExerciseName: "Bench Press", Weight: 200, Reps: 5}

	first, outcome := Evaluate(nil, set, now)
	if outcome.Status != types.RecordFirstRecorded {
		t.Fatalf("Expected first-recorded, got %s", outcome.Status)
	}
	if first == nil || first.EstimatedOneRepMax != 225 || first.Key != "bench press" {
		t.Fatalf("Unexpected first record: %+v", first)
	}

	// Submitting the same set again matches instead of setting a new record.
	next, outcome := Evaluate(first, set, now.Add(24*time.Hour))
	if outcome.Status != types.RecordMatched {
		t.Errorf("Expected matched, got %s", outcome.Status)
	}
	if next != nil {
		t.Errorf("Expected no write on matched, got %+v", next)
	}

	_, outcome = Evaluate(first, types.LiftSet{ExerciseName: "Bench Press", Weight: 150, Reps: 5}, now)
	if outcome.Status != types.RecordBelow {
		t.Errorf("Expected below-record, got %s", outcome.Status)
	}

	better, outcome := Evaluate(first, types.LiftSet{ExerciseName: "bench press", Weight: 210, Reps: 5}, now)
	if outcome.Status != types.RecordNew {
		t.Fatalf("Expected new-pr, got %s", outcome.Status)
	}
	if outcome.PreviousOneRepMax != 225 {
		t.Errorf("Expected previous 225, got %d", outcome.PreviousOneRepMax)
	}
	if len(better.History) != 1 || better.History[0].EstimatedOneRepMax != 225 {
		t.Errorf("Expected previous record archived, got %+v", better.History)
	}
}

func TestEvaluate_HistoryCapped(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var current *types.PersonalRecord
	for i := 0; i < 15; i++ {
		next, _ := Evaluate(current, types.LiftSet{ExerciseName: "Deadlift", Weight: float64(300 + i*5), Reps: 1}, now)
		if next == nil {
			t.Fatalf("Expected new record on iteration %d", i)
		}
		current = next
	}

	if len(current.History) != HistoryLimit {
		t.Fatalf("Expected %d history entries, got %d", HistoryLimit, len(current.History))
	}
	if current.History[0].EstimatedOneRepMax != 365 {
		t.Errorf("Expected most recent archived 365, got %d", current.History[0].EstimatedOneRepMax)
	}
}
