package types

import "time"

// Recommendation is the categorical training advice derived from readiness.
type Recommendation string

const (
	RecommendPushHard       Recommendation = "push-hard"
	RecommendFullIntensity  Recommendation = "full-intensity"
	RecommendModerate       Recommendation = "moderate-intensity"
	RecommendReduceVolume   Recommendation = "reduce-volume"
	RecommendActiveRecovery Recommendation = "active-recovery"
)

// BiometricSample is one day of wearable data. Absent metrics are nil.
type BiometricSample struct {
	Date        time.Time `json:"date"`
	HRV         *float64  `json:"hrv,omitempty"`
	HRVBaseline *float64  `json:"hrvBaseline,omitempty"`
	SleepHours  *float64  `json:"sleepHours,omitempty"`
	SleepScore  *float64  `json:"sleepScore,omitempty"`
	RestingHR   *float64  `json:"restingHeartRate,omitempty"`
}

// CheckIn is a subjective self-report on a 1-5 scale.
type CheckIn struct {
	Date     time.Time `json:"date"`
	Mood     int       `json:"mood"`
	Energy   int       `json:"energy"`
	Soreness int       `json:"soreness"`
}

// FactorScore is a single factor's contribution to readiness.
type FactorScore struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// ReadinessSnapshot is the derived recovery state for one day.
type ReadinessSnapshot struct {
	ReadinessScore    float64                `json:"readinessScore"`
	IntensityModifier float64                `json:"intensityModifier"`
	Recommendation    Recommendation         `json:"recommendation"`
	FactorBreakdown   map[string]FactorScore `json:"factorBreakdown"`
}
