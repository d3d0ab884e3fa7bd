package types

// UserProfile is the raw profile submitted with a generation request.
// Every field is optional.
type UserProfile struct {
	UserID            string   `json:"userId" firestore:"user_id"`
	Goal              string   `json:"goal,omitempty" firestore:"goal"`
	Discipline        string   `json:"discipline,omitempty" firestore:"discipline"`
	DaysPerWeek       int      `json:"daysPerWeek,omitempty" firestore:"days_per_week"`
	PreferredDays     []string `json:"preferredDays,omitempty" firestore:"preferred_days"`
	Experience        string   `json:"experience,omitempty" firestore:"experience"`
	ActivityLevel     string   `json:"activityLevel,omitempty" firestore:"activity_level"`
	Equipment         []string `json:"equipment,omitempty" firestore:"equipment"`
	FavoriteExercises []string `json:"favoriteExercises,omitempty" firestore:"favorite_exercises"`
	DislikedExercises []string `json:"dislikedExercises,omitempty" firestore:"disliked_exercises"`
	AvoidExercises    []string `json:"avoidExercises,omitempty" firestore:"avoid_exercises"`
	Injuries          []string `json:"injuries,omitempty" firestore:"injuries"`
	BodyweightLbs     float64  `json:"bodyweightLbs,omitempty" firestore:"bodyweight_lbs"`
	DurationWeeks     int      `json:"durationWeeks,omitempty" firestore:"duration_weeks"`
	SessionMinutes    int      `json:"sessionMinutes,omitempty" firestore:"session_minutes"`
	StartDate         string   `json:"startDate,omitempty" firestore:"start_date"`
}

// UserContext is the compact generation input derived from a UserProfile.
// It is rebuilt for every request and never mutated in place.
type UserContext struct {
	UserID            string   `json:"userId"`
	TargetCalories    int      `json:"targetCalories"`
	Macros            Macros   `json:"macros"`
	DaysPerWeek       int      `json:"daysPerWeek"`
	PreferredDays     []string `json:"preferredDays"`
	ExperienceTier    string   `json:"experienceTier"`
	Goal              string   `json:"goal"`
	Discipline        string   `json:"discipline"`
	EquipmentList     []string `json:"equipmentList"`
	FavoriteExercises []string `json:"favoriteExercises"`
	ExcludedExercises []string `json:"excludedExercises"`
	Injuries          []string `json:"injuries"`
	BodyweightLbs     float64  `json:"bodyweightLbs"`
	DurationWeeks     int      `json:"durationWeeks"`
	SessionMinutes    int      `json:"sessionMinutes"`
}
