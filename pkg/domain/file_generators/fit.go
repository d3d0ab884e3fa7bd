// Package file_generators renders programs into files a user can take
// elsewhere: FIT workouts for devices and an XLSX workbook.
package file_generators

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// maxStepNameLen keeps step names within what head units display.
const maxStepNameLen = 32

// GenerateWorkoutFit encodes a training day as a FIT workout file.
//
// Each exercise becomes an active step followed by a rest step; exercises
// with more than one set are closed with a repeat step pointing back at the
// active step.
func GenerateWorkoutFit(day types.TrainingDay, created time.Time) ([]byte, error) {
	if len(day.Exercises) == 0 {
		return nil, fmt.Errorf("training day %q has no exercises", day.Title)
	}

	fit := &proto.FIT{
		Messages: []proto.Message{},
	}

	// 1. FileId message
	fileId := mesgdef.NewFileId(nil).
		SetType(typedef.FileWorkout).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(created)
	fit.Messages = append(fit.Messages, fileId.ToMesg(nil))

	// 2. Steps, built first so the workout header can carry the count
	var steps []*mesgdef.WorkoutStep
	next := func() typedef.MessageIndex { return typedef.MessageIndex(len(steps)) }

	for _, ex := range day.Exercises {
		first := next()
		active := mesgdef.NewWorkoutStep(nil).
			SetMessageIndex(first).
			SetWktStepName(truncate(ex.Name, maxStepNameLen)).
			SetIntensity(intensityFor(ex.Category)).
			SetTargetType(typedef.WktStepTargetOpen).
			SetExerciseCategory(MapExerciseToCategory(ex.Name)).
			SetNotes(stepNotes(ex))
		if reps := LeadingNumber(ex.Reps); reps > 0 && !isTimed(ex.Reps) {
			active.SetDurationType(typedef.WktStepDurationReps).SetDurationValue(uint32(reps))
		} else if secs := ParseSeconds(ex.Reps); secs > 0 {
			active.SetDurationType(typedef.WktStepDurationTime).SetDurationValue(uint32(secs * 1000))
		} else {
			active.SetDurationType(typedef.WktStepDurationOpen)
		}
		steps = append(steps, active)

		if secs := ParseSeconds(ex.Rest); secs > 0 {
			rest := mesgdef.NewWorkoutStep(nil).
				SetMessageIndex(next()).
				SetWktStepName("Rest").
				SetIntensity(typedef.IntensityRest).
				SetDurationType(typedef.WktStepDurationTime).
				SetDurationValue(uint32(secs * 1000)).
				SetTargetType(typedef.WktStepTargetOpen)
			steps = append(steps, rest)
		}

		if ex.Sets > 1 {
			repeat := mesgdef.NewWorkoutStep(nil).
				SetMessageIndex(next()).
				SetDurationType(typedef.WktStepDurationRepeatUntilStepsCmplt).
				SetDurationValue(uint32(first)).
				SetTargetValue(uint32(ex.Sets))
			steps = append(steps, repeat)
		}
	}

	// 3. Workout message
	name := day.Title
	if name == "" {
		name = day.Focus
	}
	workout := mesgdef.NewWorkout(nil).
		SetSport(typedef.SportTraining).
		SetSubSport(typedef.SubSportStrengthTraining).
		SetWktName(truncate(name, maxStepNameLen)).
		SetNumValidSteps(uint16(len(steps)))
	fit.Messages = append(fit.Messages, workout.ToMesg(nil))

	for _, s := range steps {
		fit.Messages = append(fit.Messages, s.ToMesg(nil))
	}

	var buf bytes.Buffer
	enc := encoder.New(&buf)

	if err := enc.Encode(fit); err != nil {
		return nil, fmt.Errorf("failed to encode FIT workout: %w", err)
	}

	return buf.Bytes(), nil
}

func intensityFor(c types.ExerciseCategory) typedef.Intensity {
	switch c {
	case types.CategoryWarmup:
		return typedef.IntensityWarmup
	case types.CategoryCooldown:
		return typedef.IntensityCooldown
	default:
		return typedef.IntensityActive
	}
}

func stepNotes(ex types.ExerciseTemplate) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%dx%s", ex.Sets, ex.Reps))
	if ex.TargetWeight != nil {
		parts = append(parts, fmt.Sprintf("@ %s", strconv.FormatFloat(*ex.TargetWeight, 'f', -1, 64)))
	} else if ex.PercentageOfMax != nil {
		parts = append(parts, fmt.Sprintf("@ %s%%", strconv.FormatFloat(*ex.PercentageOfMax, 'f', -1, 64)))
	}
	if ex.RPE != nil {
		parts = append(parts, fmt.Sprintf("RPE %s", strconv.FormatFloat(*ex.RPE, 'f', -1, 64)))
	}
	if ex.Notes != "" {
		parts = append(parts, ex.Notes)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// LeadingNumber returns the first integer in s, or 0 if there is none.
// "8-12" yields 8 and "AMRAP 5" yields 5.
func LeadingNumber(s string) int {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[start:end])
	return n
}

func isTimed(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "sec") || strings.Contains(s, "min") {
		return true
	}
	return len(s) > 1 && s[len(s)-1] == 's' && s[len(s)-2] >= '0' && s[len(s)-2] <= '9'
}

// ParseSeconds reads durations such as "90 sec", "3 min", "1.5 min" or
// "30s". A bare number is taken as seconds.
func ParseSeconds(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	start := strings.IndexFunc(s, func(r rune) bool { return unicode.IsDigit(r) || r == '.' })
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0
	}
	unit := strings.TrimSpace(s[end:])
	if strings.HasPrefix(unit, "min") || unit == "m" {
		v *= 60
	}
	return int(v + 0.5)
}
