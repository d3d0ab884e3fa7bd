// Package records estimates one-repetition maxima and detects personal
// records from logged sets.
package records

import (
	"math"
	"strings"
	"unicode"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// epleyThreshold is the rep count above which Brzycki stops being reliable.
const epleyThreshold = 12

// EstimateOneRepMax estimates a one-repetition maximum from a weight/reps pair.
// A single rep is its own max; up to 12 reps uses Brzycki, beyond that Epley.
func EstimateOneRepMax(weight float64, reps int) int {
	if weight <= 0 || reps <= 0 {
		return 0
	}
	if reps == 1 {
		return int(math.Round(weight))
	}
	if reps > epleyThreshold {
		return int(math.Round(weight * (1 + float64(reps)/30)))
	}
	return int(math.Round(weight * 36 / float64(37-reps)))
}

// WeightForReps inverts Brzycki: the weight liftable for reps given a 1RM.
func WeightForReps(oneRM float64, reps int) float64 {
	if oneRM <= 0 || reps <= 0 {
		return 0
	}
	if reps == 1 {
		return oneRM
	}
	return oneRM * float64(37-reps) / 36
}

// RepMaxTable builds the 1/3/5/8/10 rep-max equivalents for a 1RM.
func RepMaxTable(oneRM int) types.RepMaxTable {
	rm := float64(oneRM)
	at := func(reps int) int {
		return int(math.Round(WeightForReps(rm, reps)))
	}
	return types.RepMaxTable{
		OneRM:   oneRM,
		ThreeRM: at(3),
		FiveRM:  at(5),
		EightRM: at(8),
		TenRM:   at(10),
	}
}

// TargetWeight converts a percentage of 1RM into a load rounded to increment.
func TargetWeight(oneRM, percent, increment float64) float64 {
	if oneRM <= 0 || percent <= 0 || increment <= 0 {
		return 0
	}
	raw := oneRM * percent / 100
	return math.Round(raw/increment) * increment
}

// NormalizeName is the identity used for personal records on both the write
// and read paths: lowercase, non-alphanumerics stripped, whitespace collapsed.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
