package calendar

import (
	"testing"
	"time"

	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	"github.com/ripixel/fitplan-server/pkg/types"
)

func date(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testProgram(start time.Time, weeks int, days ...string) *types.Program {
	p := &types.Program{
		ID:            "prog-1",
		UserID:        "user-1",
		StartDate:     start,
		DurationWeeks: weeks,
		Periodization: types.Periodization{Model: types.ModelLinear, Phases: periodization.DefaultPhases(weeks)},
	}
	for w := 1; w <= weeks; w++ {
		week := types.WeeklyTemplate{WeekNumber: w, RestDays: []string{"sunday"}}
		for _, d := range days {
			week.TrainingDays = append(week.TrainingDays, types.TrainingDay{
				DayOfWeek: d,
				Title:     "Session " + d,
				Exercises: []types.ExerciseTemplate{{Name: "Back Squat", Category: types.CategoryMainLift, Sets: 4, Reps: "5"}},
			})
		}
		p.Weeks = append(p.Weeks, week)
	}
	return p
}

func withNutrition(p *types.Program) *types.Program {
	p.Nutrition = &types.NutritionPlan{CalorieTarget: 2500}
	for _, slot := range types.MealSlots {
		p.Nutrition.MealPlan.SetSlot(slot, &types.Meal{Name: string(slot) + " meal", Calories: 500, Ingredients: []string{"rice"}})
	}
	return p
}

func TestPropagate_YesterdayOmitted(t *testing.T) {
	now := date("2024-03-13").Add(9 * time.Hour) // Wednesday
	p := testProgram(date("2024-03-12"), 4, "tuesday", "thursday")

	events := Propagate(p, now)
	for _, e := range events {
		if e.Date == "2024-03-12" {
			t.Errorf("Expected yesterday's %s event omitted", e.Type)
		}
	}
	if len(events) == 0 || events[0].Date != "2024-03-14" || events[0].Type != types.EventWorkout {
		t.Errorf("Expected first event to be Thursday's workout, got %+v", events[0])
	}
}

func TestPropagate_NoPastScheduling(t *testing.T) {
	now := date("2024-05-20").Add(23 * time.Hour)
	p := withNutrition(testProgram(date("2024-05-06"), 8, "monday", "wednesday", "friday"))

	for _, e := range Propagate(p, now) {
		if e.Date < "2024-05-20" {
			t.Fatalf("Expected no events before today, got %s on %s", e.Type, e.Date)
		}
		if e.Status != types.EventScheduled {
			t.Errorf("Expected scheduled status, got %s", e.Status)
		}
	}
}

func TestPropagate_AnchorsOnSunday(t *testing.T) {
	start := date("2024-03-13") // Wednesday
	if got := WeekAnchor(start, 1).Format(types.DateLayout); got != "2024-03-10" {
		t.Errorf("Expected week 1 anchor 2024-03-10, got %s", got)
	}
	if got := WeekAnchor(start, 2).Format(types.DateLayout); got != "2024-03-17" {
		t.Errorf("Expected week 2 anchor 2024-03-17, got %s", got)
	}

	p := testProgram(start, 4, "monday")
	events := Propagate(p, date("2024-03-01"))
	want := map[string]bool{"2024-03-11": true, "2024-03-18": true, "2024-03-25": true, "2024-04-01": true}
	for _, e := range events {
		if e.Type != types.EventWorkout {
			continue
		}
		if !want[e.Date] {
			t.Errorf("Unexpected workout date %s", e.Date)
		}
		delete(want, e.Date)
	}
	if len(want) != 0 {
		t.Errorf("Missing workout dates %v", want)
	}
}

func TestPropagate_EventContents(t *testing.T) {
	start := date("2024-01-07") // Sunday
	p := withNutrition(testProgram(start, 4, "monday", "thursday"))
	events := Propagate(p, start)

	counts := make(map[types.EventType]int)
	for _, e := range events {
		counts[e.Type]++
		if e.UserID != "user-1" || e.ProgramID != "prog-1" || e.ID == "" {
			t.Errorf("Expected ownership and id set, got %+v", e)
		}
		switch e.Type {
		case types.EventNutrition:
			if e.StartTime != MealTimes[e.MealSlot] {
				t.Errorf("Expected %s at %s, got %s", e.MealSlot, MealTimes[e.MealSlot], e.StartTime)
			}
			if e.Meal == nil {
				t.Errorf("Expected meal snapshot on nutrition event")
			}
		case types.EventWorkout:
			if len(e.Exercises) != 1 {
				t.Errorf("Expected exercises copied onto workout")
			}
			wantPhase := types.PhaseAccumulation
			if e.WeekNumber == 4 {
				wantPhase = types.PhaseDeload
			}
			if e.PeriodizationPhase != wantPhase {
				t.Errorf("Expected phase %s in week %d, got %s", wantPhase, e.WeekNumber, e.PeriodizationPhase)
			}
		}
	}
	if counts[types.EventWorkout] != 8 || counts[types.EventRestDay] != 4 {
		t.Errorf("Expected 8 workouts and 4 rest days, got %v", counts)
	}
	if counts[types.EventNutrition] != 4*7*5 {
		t.Errorf("Expected %d nutrition events, got %d", 4*7*5, counts[types.EventNutrition])
	}

	p.Weeks[0].TrainingDays[0].Exercises[0].Name = "Changed"
	p.Nutrition.MealPlan.Breakfast.Ingredients[0] = "changed"
	for _, e := range events {
		if e.Type == types.EventWorkout && e.Exercises[0].Name == "Changed" {
			t.Fatalf("Expected workout exercises to be a copy")
		}
		if e.Meal != nil && e.Meal.Ingredients[0] == "changed" {
			t.Fatalf("Expected meal snapshot to be a copy")
		}
	}
}

func TestPropagate_DuplicateDaySlots(t *testing.T) {
	p := testProgram(date("2024-01-07"), 4, "monday", "monday")
	events := Propagate(p, date("2024-01-07"))
	ids := make(map[string]bool)
	for _, e := range events {
		if ids[e.ID] {
			t.Fatalf("Expected unique ids, duplicate %s on %s", e.ID, e.Date)
		}
		ids[e.ID] = true
	}
}

func TestEventID_Deterministic(t *testing.T) {
	a := EventID("p1", "2024-01-01", types.EventWorkout, "0")
	if a != EventID("p1", "2024-01-01", types.EventWorkout, "0") {
		t.Errorf("Expected stable ids")
	}
	if a == EventID("p2", "2024-01-01", types.EventWorkout, "0") {
		t.Errorf("Expected program id to change the event id")
	}
	if a == EventID("p1", "2024-01-01", types.EventRestDay, "0") {
		t.Errorf("Expected type to change the event id")
	}
}

func TestReconcile(t *testing.T) {
	start := date("2024-01-07")
	now := date("2024-01-15")
	today := DateString(now, time.UTC)
	p := testProgram(start, 4, "monday", "thursday")

	existing := Propagate(p, start)
	fresh := Propagate(p, now)
	up, del := Reconcile(existing, fresh, today)
	if len(up) != 0 || len(del) != 0 {
		t.Fatalf("Expected idempotent re-propagation, got %d upserts and %d deletes", len(up), len(del))
	}

	// Mark Monday of week 2 completed, then edit every session title and
	// drop Thursday sessions.
	var completedID string
	for _, e := range existing {
		if e.Date == "2024-01-15" && e.Type == types.EventWorkout {
			e.Status = types.EventCompleted
			completedID = e.ID
		}
	}
	for i := range p.Weeks {
		p.Weeks[i].TrainingDays = p.Weeks[i].TrainingDays[:1]
		p.Weeks[i].TrainingDays[0].Title = "Edited"
	}

	up, del = Reconcile(existing, Propagate(p, now), today)
	for _, u := range up {
		if u.ID == completedID {
			t.Errorf("Expected completed event not to be overwritten")
		}
		if u.Date < today {
			t.Errorf("Expected no upserts before today, got %s", u.Date)
		}
	}
	if len(up) != 2 {
		t.Errorf("Expected 2 edited Monday workouts upserted, got %d", len(up))
	}
	if len(del) != 3 {
		t.Errorf("Expected 3 future Thursday workouts deleted, got %d", len(del))
	}
	for _, id := range del {
		for _, e := range existing {
			if e.ID == id && (e.Date < today || e.Status != types.EventScheduled) {
				t.Errorf("Expected only future scheduled events deleted, got %s on %s", e.Status, e.Date)
			}
		}
	}
}
