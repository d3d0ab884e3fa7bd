package mocks

import (
	"context"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/ripixel/fitplan-server/pkg"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	SetExecutionFunc    func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc func(ctx context.Context, id string, data map[string]interface{}) error

	CreateProgramFunc      func(ctx context.Context, program *types.Program) error
	GetProgramFunc         func(ctx context.Context, id string) (*types.Program, error)
	GetActiveProgramFunc   func(ctx context.Context, userID string) (*types.Program, error)
	UpdateProgramFunc      func(ctx context.Context, id string, update types.ProgramUpdate) error
	ListActiveProgramsFunc func(ctx context.Context) ([]*types.Program, error)

	ListProgramEventsFunc  func(ctx context.Context, programID string, fromDate string) ([]*types.CalendarEvent, error)
	ListEventsFunc         func(ctx context.Context, userID string, fromDate, toDate string) ([]*types.CalendarEvent, error)
	ApplyCalendarBatchFunc func(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error

	GetPersonalRecordFunc    func(ctx context.Context, userID, key string) (*types.PersonalRecord, error)
	UpdatePersonalRecordFunc func(ctx context.Context, userID, key string, fn func(current *types.PersonalRecord) (*types.PersonalRecord, error)) error

	AcquireLockFunc func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLockFunc func(ctx context.Context, key, owner string) error
}

var _ shared.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}
func (m *MockDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) CreateProgram(ctx context.Context, program *types.Program) error {
	if m.CreateProgramFunc != nil {
		return m.CreateProgramFunc(ctx, program)
	}
	return nil
}

func (m *MockDatabase) GetProgram(ctx context.Context, id string) (*types.Program, error) {
	if m.GetProgramFunc != nil {
		return m.GetProgramFunc(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockDatabase) GetActiveProgram(ctx context.Context, userID string) (*types.Program, error) {
	if m.GetActiveProgramFunc != nil {
		return m.GetActiveProgramFunc(ctx, userID)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockDatabase) UpdateProgram(ctx context.Context, id string, update types.ProgramUpdate) error {
	if m.UpdateProgramFunc != nil {
		return m.UpdateProgramFunc(ctx, id, update)
	}
	return nil
}

func (m *MockDatabase) ListActivePrograms(ctx context.Context) ([]*types.Program, error) {
	if m.ListActiveProgramsFunc != nil {
		return m.ListActiveProgramsFunc(ctx)
	}
	return nil, nil
}

func (m *MockDatabase) ListProgramEvents(ctx context.Context, programID string, fromDate string) ([]*types.CalendarEvent, error) {
	if m.ListProgramEventsFunc != nil {
		return m.ListProgramEventsFunc(ctx, programID, fromDate)
	}
	return nil, nil
}

func (m *MockDatabase) ListEvents(ctx context.Context, userID string, fromDate, toDate string) ([]*types.CalendarEvent, error) {
	if m.ListEventsFunc != nil {
		return m.ListEventsFunc(ctx, userID, fromDate, toDate)
	}
	return nil, nil
}

func (m *MockDatabase) ApplyCalendarBatch(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error {
	if m.ApplyCalendarBatchFunc != nil {
		return m.ApplyCalendarBatchFunc(ctx, upserts, deletes)
	}
	return nil
}

func (m *MockDatabase) GetPersonalRecord(ctx context.Context, userID, key string) (*types.PersonalRecord, error) {
	if m.GetPersonalRecordFunc != nil {
		return m.GetPersonalRecordFunc(ctx, userID, key)
	}
	return nil, apperrors.ErrNotFound
}

// UpdatePersonalRecord defaults to running fn against an empty record.
func (m *MockDatabase) UpdatePersonalRecord(ctx context.Context, userID, key string, fn func(current *types.PersonalRecord) (*types.PersonalRecord, error)) error {
	if m.UpdatePersonalRecordFunc != nil {
		return m.UpdatePersonalRecordFunc(ctx, userID, key, fn)
	}
	_, err := fn(nil)
	return err
}

func (m *MockDatabase) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if m.AcquireLockFunc != nil {
		return m.AcquireLockFunc(ctx, key, owner, ttl)
	}
	return true, nil
}

func (m *MockDatabase) ReleaseLock(ctx context.Context, key, owner string) error {
	if m.ReleaseLockFunc != nil {
		return m.ReleaseLockFunc(ctx, key, owner)
	}
	return nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}
func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

// --- Mock Secrets ---
type MockSecretStore struct {
	GetSecretFunc func(ctx context.Context, projectID, name string) (string, error)
}

func (m *MockSecretStore) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	if m.GetSecretFunc != nil {
		return m.GetSecretFunc(ctx, projectID, name)
	}
	return "mock-secret-value", nil
}

// --- Mock Text Generator ---
type MockTextGenerator struct {
	GenerateFunc func(ctx context.Context, req shared.TextRequest) shared.TextResult
}

// Generate defaults to the static fallback reply.
func (m *MockTextGenerator) Generate(ctx context.Context, req shared.TextRequest) shared.TextResult {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return shared.TextResult{Text: "Generation is unavailable right now.", Source: "static", UsedFallback: true}
}
