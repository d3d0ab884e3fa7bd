package types

import "time"

// RepMaxTable lists estimated maxima for common rep counts.
type RepMaxTable struct {
	OneRM   int `json:"1RM" firestore:"one_rm"`
	ThreeRM int `json:"3RM" firestore:"three_rm"`
	FiveRM  int `json:"5RM" firestore:"five_rm"`
	EightRM int `json:"8RM" firestore:"eight_rm"`
	TenRM   int `json:"10RM" firestore:"ten_rm"`
}

// RecordEntry is a superseded personal record kept in history.
type RecordEntry struct {
	Weight             float64   `json:"weight" firestore:"weight"`
	Reps               int       `json:"reps" firestore:"reps"`
	EstimatedOneRepMax int       `json:"estimatedOneRepMax" firestore:"estimated_one_rep_max"`
	AchievedAt         time.Time `json:"achievedAt" firestore:"achieved_at"`
}

// PersonalRecord is the best known lift for one exercise, keyed by the
// normalized exercise name.
type PersonalRecord struct {
	Key                string        `json:"key" firestore:"key"`
	ExerciseName       string        `json:"exerciseName" firestore:"exercise_name"`
	Weight             float64       `json:"weight" firestore:"weight"`
	Reps               int           `json:"reps" firestore:"reps"`
	EstimatedOneRepMax int           `json:"estimatedOneRepMax" firestore:"estimated_one_rep_max"`
	RepMaxTable        RepMaxTable   `json:"repMaxTable" firestore:"rep_max_table"`
	AchievedAt         time.Time     `json:"achievedAt" firestore:"achieved_at"`
	History            []RecordEntry `json:"history" firestore:"history"`
}

// LiftSet is one logged set submitted for record detection.
type LiftSet struct {
	ExerciseName string  `json:"exerciseName"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
}

// RecordStatus is the outcome of comparing a submission with the stored record.
type RecordStatus string

const (
	RecordNew           RecordStatus = "new-pr"
	RecordMatched       RecordStatus = "matched"
	RecordFirstRecorded RecordStatus = "first-recorded"
	RecordBelow         RecordStatus = "below-record"
)

// RecordOutcome reports what a submission did to one exercise's record.
type RecordOutcome struct {
	ExerciseName      string          `json:"exerciseName"`
	Status            RecordStatus    `json:"status"`
	Best              LiftSet         `json:"best"`
	EstimatedOneRM    int             `json:"estimatedOneRepMax"`
	PreviousOneRepMax int             `json:"previousOneRepMax,omitempty"`
	Record            *PersonalRecord `json:"record,omitempty"`
}
