package types

import "time"

// EventType classifies a CalendarEvent.
type EventType string

const (
	EventWorkout   EventType = "workout"
	EventRestDay   EventType = "rest-day"
	EventNutrition EventType = "nutrition"
)

// EventStatus tracks a CalendarEvent through its lifecycle.
type EventStatus string

const (
	EventScheduled  EventStatus = "scheduled"
	EventCompleted  EventStatus = "completed"
	EventSkipped    EventStatus = "skipped"
	EventInProgress EventStatus = "in-progress"
)

// DateLayout is the day-granular format used for CalendarEvent dates.
const DateLayout = "2006-01-02"

// CalendarEvent is a dated, status-tracked entry owned by a program.
type CalendarEvent struct {
	ID                 string             `json:"id" firestore:"id"`
	UserID             string             `json:"userId" firestore:"user_id"`
	ProgramID          string             `json:"programId,omitempty" firestore:"program_id"`
	Type               EventType          `json:"type" firestore:"type"`
	Title              string             `json:"title" firestore:"title"`
	Date               string             `json:"date" firestore:"date"`
	StartTime          string             `json:"startTime,omitempty" firestore:"start_time"`
	Exercises          []ExerciseTemplate `json:"exercises,omitempty" firestore:"exercises"`
	Meal               *Meal              `json:"mealData,omitempty" firestore:"meal_data"`
	MealSlot           MealSlot           `json:"mealSlot,omitempty" firestore:"meal_slot"`
	WeekNumber         int                `json:"weekNumber,omitempty" firestore:"week_number"`
	PeriodizationPhase PhaseName          `json:"periodizationPhase,omitempty" firestore:"periodization_phase"`
	Status             EventStatus        `json:"status" firestore:"status"`
	CreatedAt          time.Time          `json:"createdAt" firestore:"created_at"`
}
