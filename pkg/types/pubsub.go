package types

// PubSubMessage is the payload of a Pub/Sub event via Cloud Event.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
}

// ProgramEvent is published when a program is generated, edited or propagated.
type ProgramEvent struct {
	ProgramID string `json:"programId"`
	UserID    string `json:"userId"`
	Strategy  string `json:"strategy,omitempty"`
	Events    int    `json:"events,omitempty"`
}

// RecordEvent is published when a submission sets a new personal record.
type RecordEvent struct {
	UserID         string `json:"userId"`
	ExerciseName   string `json:"exerciseName"`
	EstimatedOneRM int    `json:"estimatedOneRepMax"`
}
