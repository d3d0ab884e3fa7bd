// Package readiness scores daily recovery from biometric and self-reported
// signals and maps the score to a training recommendation.
package readiness

import (
	"math"
	"sort"
	"time"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// Factor weights. Only factors with data contribute, and the total is
// divided by the sum of the weights actually used.
const (
	WeightHRV        = 0.3
	WeightSleep      = 0.3
	WeightRestingHR  = 0.2
	WeightSubjective = 0.2

	// DefaultScore applies when no signal is available.
	DefaultScore = 70

	rhrWindow      = 7
	checkInMaxDays = 2
)

// Factor keys used in the breakdown.
const (
	FactorHRV        = "hrv"
	FactorSleep      = "sleep"
	FactorRestingHR  = "restingHeartRate"
	FactorSubjective = "subjective"
)

type band struct {
	min            float64
	recommendation types.Recommendation
	modifier       float64
}

// bands are checked top-down; the last one catches everything below 40.
var bands = []band{
	{85, types.RecommendPushHard, 1.05},
	{70, types.RecommendFullIntensity, 1.0},
	{55, types.RecommendModerate, 0.9},
	{40, types.RecommendReduceVolume, 0.75},
	{math.Inf(-1), types.RecommendActiveRecovery, 0.5},
}

// Score computes a readiness snapshot. samples may be in any order; the most
// recent sample carrying a metric is treated as today's reading for it.
func Score(samples []types.BiometricSample, checkIn *types.CheckIn, now time.Time) types.ReadinessSnapshot {
	sorted := make([]types.BiometricSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	breakdown := make(map[string]types.FactorScore)
	if s, ok := hrvScore(sorted); ok {
		breakdown[FactorHRV] = types.FactorScore{Score: s, Weight: WeightHRV}
	}
	if s, ok := sleepScore(sorted); ok {
		breakdown[FactorSleep] = types.FactorScore{Score: s, Weight: WeightSleep}
	}
	if s, ok := restingHRScore(sorted); ok {
		breakdown[FactorRestingHR] = types.FactorScore{Score: s, Weight: WeightRestingHR}
	}
	if s, ok := subjectiveScore(checkIn, now); ok {
		breakdown[FactorSubjective] = types.FactorScore{Score: s, Weight: WeightSubjective}
	}

	var weighted, used float64
	for _, f := range breakdown {
		weighted += f.Score * f.Weight
		used += f.Weight
	}

	score := float64(DefaultScore)
	if used > 0 {
		score = math.Round(weighted / used)
	}

	b := classify(score)
	return types.ReadinessSnapshot{
		ReadinessScore:    score,
		IntensityModifier: b.modifier,
		Recommendation:    b.recommendation,
		FactorBreakdown:   breakdown,
	}
}

// Recommend maps a score to its recommendation and intensity modifier.
func Recommend(score float64) (types.Recommendation, float64) {
	b := classify(score)
	return b.recommendation, b.modifier
}

func classify(score float64) band {
	for _, b := range bands {
		if score >= b.min {
			return b
		}
	}
	return bands[len(bands)-1]
}

func hrvScore(samples []types.BiometricSample) (float64, bool) {
	for i, s := range samples {
		if s.HRV == nil {
			continue
		}
		baseline := 0.0
		if s.HRVBaseline != nil {
			baseline = *s.HRVBaseline
		} else {
			baseline = trailingMean(samples[i+1:], func(b types.BiometricSample) *float64 { return b.HRV })
		}
		if baseline <= 0 {
			return 0, false
		}
		return clamp((*s.HRV/baseline)*70 + 30), true
	}
	return 0, false
}

func sleepScore(samples []types.BiometricSample) (float64, bool) {
	for _, s := range samples {
		if s.SleepHours == nil {
			continue
		}
		score := (*s.SleepHours/8)*80 + 20
		if s.SleepScore != nil {
			score += (*s.SleepScore - 70) / 30 * 10
		}
		return clamp(score), true
	}
	return 0, false
}

func restingHRScore(samples []types.BiometricSample) (float64, bool) {
	for i, s := range samples {
		if s.RestingHR == nil {
			continue
		}
		avg := trailingMean(samples[i+1:], func(b types.BiometricSample) *float64 { return b.RestingHR })
		if avg <= 0 {
			return 0, false
		}
		return clamp(70 + (avg-*s.RestingHR)*5), true
	}
	return 0, false
}

func subjectiveScore(c *types.CheckIn, now time.Time) (float64, bool) {
	if c == nil || c.Mood == 0 || c.Energy == 0 || c.Soreness == 0 {
		return 0, false
	}
	if daysBetween(c.Date, now) > checkInMaxDays {
		return 0, false
	}
	mood := float64(c.Mood) / 5
	energy := float64(c.Energy) / 5
	soreness := float64(6-c.Soreness) / 5
	return clamp((mood + energy + soreness) / 3 * 100), true
}

// trailingMean averages up to rhrWindow present values from older samples.
func trailingMean(older []types.BiometricSample, value func(types.BiometricSample) *float64) float64 {
	var sum float64
	var n int
	for _, s := range older {
		if n == rhrWindow {
			break
		}
		if v := value(s); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.In(from.Location()).Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
