package shared

import (
	"context"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	// Executions
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error

	// Programs
	CreateProgram(ctx context.Context, program *types.Program) error
	GetProgram(ctx context.Context, id string) (*types.Program, error)
	GetActiveProgram(ctx context.Context, userID string) (*types.Program, error)
	UpdateProgram(ctx context.Context, id string, update types.ProgramUpdate) error
	ListActivePrograms(ctx context.Context) ([]*types.Program, error)

	// Calendar events. ApplyCalendarBatch writes upserts and deletes as one batch.
	ListProgramEvents(ctx context.Context, programID string, fromDate string) ([]*types.CalendarEvent, error)
	ListEvents(ctx context.Context, userID string, fromDate, toDate string) ([]*types.CalendarEvent, error)
	ApplyCalendarBatch(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error

	// Personal records. fn receives the current record (nil if none) and
	// returns the record to store, or nil to leave it unchanged.
	GetPersonalRecord(ctx context.Context, userID, key string) (*types.PersonalRecord, error)
	UpdatePersonalRecord(ctx context.Context, userID, key string, fn func(current *types.PersonalRecord) (*types.PersonalRecord, error)) error

	// Advisory locks
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Secrets Interface ---

type SecretStore interface {
	GetSecret(ctx context.Context, projectID, name string) (string, error)
}

// --- Text Generation Interface ---

// TextRequest is a prompt with its token budget.
type TextRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
}

// TextResult is always returned, even on failure: UsedFallback marks a
// static reply produced when every upstream attempt failed.
type TextResult struct {
	Text         string
	Source       string
	UsedFallback bool
}

type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) TextResult
}
