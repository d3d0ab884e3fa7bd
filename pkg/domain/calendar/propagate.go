// Package calendar expands a program's weekly templates into dated events.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// WorkoutStartTime is the default start time of workout events.
const WorkoutStartTime = "07:00"

// MealTimes maps meal slots to their time of day.
var MealTimes = map[types.MealSlot]string{
	types.SlotBreakfast: "08:00",
	types.SlotSnack1:    "10:30",
	types.SlotLunch:     "12:30",
	types.SlotSnack2:    "15:30",
	types.SlotDinner:    "18:30",
}

var mealTitles = map[types.MealSlot]string{
	types.SlotBreakfast: "Breakfast",
	types.SlotSnack1:    "Morning Snack",
	types.SlotLunch:     "Lunch",
	types.SlotSnack2:    "Afternoon Snack",
	types.SlotDinner:    "Dinner",
}

// eventNamespace seeds deterministic event IDs.
var eventNamespace = uuid.MustParse("5b0f7c9e-3f5d-4d38-9a55-2f1f8f6b7e21")

// EventID is stable for a program, date, event type and slot, so repeated
// propagation addresses the same documents.
func EventID(programID, date string, typ types.EventType, slot string) string {
	name := strings.Join([]string{programID, date, string(typ), slot}, "|")
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// civil drops time-of-day, keeping the calendar date of t in its location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateString formats t's calendar date in loc.
func DateString(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return civil(t).Format(types.DateLayout)
}

// WeekAnchor is the Sunday on or before startDate + (week-1)*7 days.
func WeekAnchor(start time.Time, week int) time.Time {
	d := civil(start).AddDate(0, 0, (week-1)*7)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// Propagate materializes the program's events. Dates are resolved in the
// start date's location; any event dated before now's calendar date there is
// dropped. The program must carry an ID.
func Propagate(p *types.Program, now time.Time) []*types.CalendarEvent {
	loc := p.StartDate.Location()
	today := civil(now.In(loc))
	b := &builder{program: p, today: today, now: now, slots: make(map[string]int)}

	for _, w := range p.Weeks {
		anchor := WeekAnchor(p.StartDate, w.WeekNumber)
		phase := phaseName(p, w.WeekNumber)

		for _, day := range w.TrainingDays {
			wd, ok := types.ParseWeekday(day.DayOfWeek)
			if !ok {
				continue
			}
			b.add(anchor.AddDate(0, 0, int(wd)), types.CalendarEvent{
				Type:               types.EventWorkout,
				Title:              day.Title,
				StartTime:          WorkoutStartTime,
				Exercises:          copyExercises(day.Exercises),
				WeekNumber:         w.WeekNumber,
				PeriodizationPhase: phase,
			})
		}
		for _, rest := range w.RestDays {
			wd, ok := types.ParseWeekday(rest)
			if !ok {
				continue
			}
			b.add(anchor.AddDate(0, 0, int(wd)), types.CalendarEvent{
				Type:               types.EventRestDay,
				Title:              "Rest Day",
				WeekNumber:         w.WeekNumber,
				PeriodizationPhase: phase,
			})
		}
	}

	if p.Nutrition != nil {
		start := civil(p.StartDate)
		for d := 0; d < p.DurationWeeks*7; d++ {
			date := start.AddDate(0, 0, d)
			week := d/7 + 1
			phase := phaseName(p, week)
			for _, slot := range types.MealSlots {
				meal := p.Nutrition.MealPlan.Slot(slot)
				if meal == nil {
					continue
				}
				b.add(date, types.CalendarEvent{
					Type:               types.EventNutrition,
					Title:              fmt.Sprintf("%s: %s", mealTitles[slot], meal.Name),
					StartTime:          MealTimes[slot],
					Meal:               copyMeal(meal),
					MealSlot:           slot,
					WeekNumber:         week,
					PeriodizationPhase: phase,
				})
			}
		}
	}

	sort.SliceStable(b.events, func(i, j int) bool {
		if b.events[i].Date != b.events[j].Date {
			return b.events[i].Date < b.events[j].Date
		}
		return b.events[i].StartTime < b.events[j].StartTime
	})
	return b.events
}

type builder struct {
	program *types.Program
	today   time.Time
	now     time.Time
	events  []*types.CalendarEvent
	slots   map[string]int
}

func (b *builder) add(date time.Time, ev types.CalendarEvent) {
	if date.Before(b.today) {
		return
	}
	ds := date.Format(types.DateLayout)

	slot := string(ev.MealSlot)
	if slot == "" {
		key := ds + "|" + string(ev.Type)
		slot = fmt.Sprint(b.slots[key])
		b.slots[key]++
	}

	ev.ID = EventID(b.program.ID, ds, ev.Type, slot)
	ev.UserID = b.program.UserID
	ev.ProgramID = b.program.ID
	ev.Date = ds
	ev.Status = types.EventScheduled
	ev.CreatedAt = b.now
	b.events = append(b.events, &ev)
}

func phaseName(p *types.Program, week int) types.PhaseName {
	if ph := periodization.PhaseForWeek(p, week); ph != nil {
		return ph.Name
	}
	return ""
}

func copyExercises(in []types.ExerciseTemplate) []types.ExerciseTemplate {
	out := make([]types.ExerciseTemplate, len(in))
	for i, ex := range in {
		ex.RPE = copyFloat(ex.RPE)
		ex.PercentageOfMax = copyFloat(ex.PercentageOfMax)
		ex.TargetWeight = copyFloat(ex.TargetWeight)
		out[i] = ex
	}
	return out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyMeal(m *types.Meal) *types.Meal {
	c := *m
	c.Ingredients = append([]string(nil), m.Ingredients...)
	return &c
}
