package records

import (
	"strings"
	"time"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// HistoryLimit bounds the superseded records kept per exercise.
const HistoryLimit = 10

// BestSets keeps the set with the highest estimated 1RM per exercise,
// in order of first appearance. Ties keep the earlier set. Sets with no
// usable weight or reps are ignored.
func BestSets(sets []types.LiftSet) []types.LiftSet {
	index := make(map[string]int)
	var best []types.LiftSet
	for _, s := range sets {
		key := NormalizeName(s.ExerciseName)
		if key == "" || EstimateOneRepMax(s.Weight, s.Reps) == 0 {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(best)
			best = append(best, s)
			continue
		}
		if EstimateOneRepMax(s.Weight, s.Reps) > EstimateOneRepMax(best[i].Weight, best[i].Reps) {
			best[i] = s
		}
	}
	return best
}

// Evaluate compares a submission's best set with the stored record.
// It returns the record to persist, or nil when nothing changes.
func Evaluate(current *types.PersonalRecord, set types.LiftSet, now time.Time) (*types.PersonalRecord, types.RecordOutcome) {
	est := EstimateOneRepMax(set.Weight, set.Reps)
	outcome := types.RecordOutcome{
		ExerciseName:   strings.TrimSpace(set.ExerciseName),
		Best:           set,
		EstimatedOneRM: est,
	}

	if current == nil {
		next := newRecord(set, est, now)
		outcome.Status = types.RecordFirstRecorded
		outcome.Record = next
		return next, outcome
	}

	outcome.PreviousOneRepMax = current.EstimatedOneRepMax
	switch {
	case est > current.EstimatedOneRepMax:
		next := newRecord(set, est, now)
		next.History = appendHistory(current.History, types.RecordEntry{
			Weight:             current.Weight,
			Reps:               current.Reps,
			EstimatedOneRepMax: current.EstimatedOneRepMax,
			AchievedAt:         current.AchievedAt,
		})
		outcome.Status = types.RecordNew
		outcome.Record = next
		return next, outcome
	case est == current.EstimatedOneRepMax:
		outcome.Status = types.RecordMatched
	default:
		outcome.Status = types.RecordBelow
	}
	outcome.Record = current
	return nil, outcome
}

func newRecord(set types.LiftSet, est int, now time.Time) *types.PersonalRecord {
	return &types.PersonalRecord{
		Key:                NormalizeName(set.ExerciseName),
		ExerciseName:       strings.TrimSpace(set.ExerciseName),
		Weight:             set.Weight,
		Reps:               set.Reps,
		EstimatedOneRepMax: est,
		RepMaxTable:        RepMaxTable(est),
		AchievedAt:         now,
	}
}

// appendHistory prepends the newest entry and keeps at most HistoryLimit.
func appendHistory(history []types.RecordEntry, entry types.RecordEntry) []types.RecordEntry {
	out := make([]types.RecordEntry, 0, HistoryLimit)
	out = append(out, entry)
	for _, h := range history {
		if len(out) == HistoryLimit {
			break
		}
		out = append(out, h)
	}
	return out
}
