package pipeline

import (
	"context"
	stderrors "errors"
	"strings"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/domain/calendar"
	"github.com/ripixel/fitplan-server/pkg/domain/readiness"
	"github.com/ripixel/fitplan-server/pkg/domain/records"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// ScoreReadiness scores today's recovery. It reads nothing from the store.
func (p *Pipeline) ScoreReadiness(samples []types.BiometricSample, checkIn *types.CheckIn) types.ReadinessSnapshot {
	return readiness.Score(samples, checkIn, p.now())
}

// SubmitLifts detects personal records from one submission. Only the best
// set per exercise is compared with the stored record, and each comparison
// runs inside the store's read-modify-write so concurrent submissions cannot
// both claim the same record.
func (p *Pipeline) SubmitLifts(ctx context.Context, userID string, sets []types.LiftSet) ([]types.RecordOutcome, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("userId is required")
	}
	best := records.BestSets(sets)
	if len(best) == 0 {
		return nil, apperrors.ErrInvalidArgument.WithMessage("no set with a positive weight and rep count")
	}

	now := p.now()
	outcomes := make([]types.RecordOutcome, 0, len(best))
	for _, set := range best {
		key := records.NormalizeName(set.ExerciseName)
		var outcome types.RecordOutcome
		err := p.db.UpdatePersonalRecord(ctx, userID, key, func(current *types.PersonalRecord) (*types.PersonalRecord, error) {
			next, out := records.Evaluate(current, set, now)
			outcome = out
			return next, nil
		})
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)

		if outcome.Status == types.RecordNew || outcome.Status == types.RecordFirstRecorded {
			p.logger.Info("Personal record", "user_id", userID, "exercise", key,
				"status", outcome.Status, "estimated_1rm", outcome.EstimatedOneRM)
			p.publish(ctx, shared.TopicRecordUpdated, shared.EventTypeRecordUpdated, userID, types.RecordEvent{
				UserID:         userID,
				ExerciseName:   outcome.ExerciseName,
				EstimatedOneRM: outcome.EstimatedOneRM,
			})
		}
	}
	return outcomes, nil
}

// RecordHistory returns the stored record for an exercise. The name goes
// through the same normalization as detection.
func (p *Pipeline) RecordHistory(ctx context.Context, userID, exerciseName string) (*types.PersonalRecord, error) {
	userID = strings.TrimSpace(userID)
	key := records.NormalizeName(exerciseName)
	if userID == "" || key == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("userId and exerciseName are required")
	}
	return p.db.GetPersonalRecord(ctx, userID, key)
}

// SessionResult is today's readiness-adjusted session.
type SessionResult struct {
	Date       string                  `json:"date"`
	ProgramID  string                  `json:"programId,omitempty"`
	WeekNumber int                     `json:"weekNumber,omitempty"`
	Phase      types.PhaseName         `json:"periodizationPhase,omitempty"`
	Readiness  types.ReadinessSnapshot `json:"readiness"`
	RestDay    bool                    `json:"restDay"`
	Session    *types.TrainingDay      `json:"session,omitempty"`
}

// TodaySession finds today's scheduled workout for the user's active program
// and scales it by readiness, turning percentages of max into loads from the
// user's records. A day without a scheduled workout is a rest day.
func (p *Pipeline) TodaySession(ctx context.Context, userID string, samples []types.BiometricSample, checkIn *types.CheckIn) (*SessionResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("userId is required")
	}
	prog, err := p.db.GetActiveProgram(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := p.now()
	today := calendar.DateString(now, p.loc)
	res := &SessionResult{
		Date:      today,
		ProgramID: prog.ID,
		Readiness: readiness.Score(samples, checkIn, now),
		RestDay:   true,
	}

	events, err := p.db.ListEvents(ctx, userID, today, today)
	if err != nil {
		return nil, err
	}
	var workout *types.CalendarEvent
	for _, e := range events {
		if e.Type == types.EventWorkout && e.ProgramID == prog.ID {
			workout = e
			break
		}
	}
	if workout == nil {
		return res, nil
	}

	recs, err := p.recordsFor(ctx, userID, workout.Exercises)
	if err != nil {
		return nil, err
	}
	day := types.TrainingDay{
		DayOfWeek: strings.ToLower(now.In(p.loc).Weekday().String()),
		Title:     workout.Title,
		Exercises: workout.Exercises,
	}
	planned := p.planner.Plan(day, res.Readiness, recs)

	res.RestDay = false
	res.WeekNumber = workout.WeekNumber
	res.Phase = workout.PeriodizationPhase
	res.Session = &planned
	return res, nil
}

// recordsFor loads records for exercises prescribed as a percentage of max.
func (p *Pipeline) recordsFor(ctx context.Context, userID string, exercises []types.ExerciseTemplate) (map[string]*types.PersonalRecord, error) {
	recs := make(map[string]*types.PersonalRecord)
	for _, ex := range exercises {
		if ex.PercentageOfMax == nil {
			continue
		}
		key := records.NormalizeName(ex.Name)
		if _, done := recs[key]; done {
			continue
		}
		rec, err := p.db.GetPersonalRecord(ctx, userID, key)
		switch {
		case stderrors.Is(err, apperrors.ErrNotFound):
			recs[key] = nil
		case err != nil:
			return nil, err
		default:
			recs[key] = rec
		}
	}
	return recs, nil
}
