package types

import "time"

// ExecutionStatus tracks a function invocation.
type ExecutionStatus string

const (
	ExecutionPending ExecutionStatus = "pending"
	ExecutionStarted ExecutionStatus = "started"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// ExecutionRecord is the audit trail of one function invocation.
// JSON and Firestore keys match so partial updates apply to either store.
type ExecutionRecord struct {
	ExecutionID  string          `json:"execution_id" firestore:"execution_id"`
	Service      string          `json:"service" firestore:"service"`
	Status       ExecutionStatus `json:"status" firestore:"status"`
	UserID       string          `json:"user_id,omitempty" firestore:"user_id,omitempty"`
	TriggerType  string          `json:"trigger_type,omitempty" firestore:"trigger_type,omitempty"`
	Timestamp    time.Time       `json:"timestamp" firestore:"timestamp"`
	StartTime    time.Time       `json:"start_time" firestore:"start_time"`
	EndTime      *time.Time      `json:"end_time,omitempty" firestore:"end_time,omitempty"`
	InputsJSON   string          `json:"inputs_json,omitempty" firestore:"inputs_json,omitempty"`
	OutputsJSON  string          `json:"outputs_json,omitempty" firestore:"outputs_json,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty" firestore:"error_message,omitempty"`
}
