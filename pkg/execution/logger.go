// Package execution records an audit trail of function invocations.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// Database is the slice of shared.Database the execution log needs.
type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error
}

// ExecutionOptions contains optional fields for execution logging
type ExecutionOptions struct {
	UserID      string
	TriggerType string
	Inputs      interface{}
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func encode(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// LogPending creates an execution record with PENDING status and captured inputs
func LogPending(ctx context.Context, db Database, service string, opts ExecutionOptions) (string, error) {
	execID := fmt.Sprintf("%s-%s", service, uuid.NewString())
	ts := now()

	record := &types.ExecutionRecord{
		ExecutionID: execID,
		Service:     service,
		Status:      types.ExecutionPending,
		Timestamp:   ts,
		StartTime:   ts,
		UserID:      opts.UserID,
		TriggerType: opts.TriggerType,
		InputsJSON:  encode(opts.Inputs),
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("failed to log execution pending: %w", err)
	}
	return execID, nil
}

// LogStart moves an execution to STARTED, adding metadata that was not
// known when it was created.
func LogStart(ctx context.Context, db Database, execID string, inputs interface{}, opts *ExecutionOptions) error {
	updates := map[string]interface{}{
		"status":     string(types.ExecutionStarted),
		"start_time": now(),
	}
	if opts != nil {
		if opts.UserID != "" {
			updates["user_id"] = opts.UserID
		}
		if opts.TriggerType != "" {
			updates["trigger_type"] = opts.TriggerType
		}
	}
	if s := encode(inputs); s != "" {
		updates["inputs_json"] = s
	}

	if err := db.UpdateExecution(ctx, execID, updates); err != nil {
		return fmt.Errorf("failed to log execution start: %w", err)
	}
	return nil
}

// LogSuccess updates an execution record with SUCCESS status
func LogSuccess(ctx context.Context, db Database, execID string, outputs interface{}) error {
	ts := now()
	updates := map[string]interface{}{
		"status":    string(types.ExecutionSuccess),
		"timestamp": ts,
		"end_time":  ts,
	}
	if s := encode(outputs); s != "" {
		updates["outputs_json"] = s
	}

	if err := db.UpdateExecution(ctx, execID, updates); err != nil {
		return fmt.Errorf("failed to log execution success: %w", err)
	}
	return nil
}

// LogFailure updates an execution record with FAILED status
func LogFailure(ctx context.Context, db Database, execID string, err error, outputs interface{}) error {
	ts := now()
	updates := map[string]interface{}{
		"status":        string(types.ExecutionFailed),
		"timestamp":     ts,
		"end_time":      ts,
		"error_message": err.Error(),
	}
	if s := encode(outputs); s != "" {
		updates["outputs_json"] = s
	}

	if updateErr := db.UpdateExecution(ctx, execID, updates); updateErr != nil {
		return fmt.Errorf("failed to log execution failure: %w", updateErr)
	}
	return nil
}
