package database

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "fitplan.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Programs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	older := &types.Program{ID: "p1", UserID: "u1", Name: "Old", Status: types.ProgramStatusActive, CreatedAt: base}
	newer := &types.Program{ID: "p2", UserID: "u1", Name: "New", Status: types.ProgramStatusActive, CreatedAt: base.Add(time.Hour)}
	for _, p := range []*types.Program{older, newer} {
		if err := s.CreateProgram(ctx, p); err != nil {
			t.Fatalf("CreateProgram(%s): %v", p.ID, err)
		}
	}

	if err := s.CreateProgram(ctx, older); !stderrors.Is(err, apperrors.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	active, err := s.GetActiveProgram(ctx, "u1")
	if err != nil {
		t.Fatalf("GetActiveProgram: %v", err)
	}
	if active.ID != "p2" {
		t.Errorf("Expected newest active program p2, got %s", active.ID)
	}

	archived := types.ProgramStatusArchived
	week := 3
	propagated := base.Add(2 * time.Hour)
	if err := s.UpdateProgram(ctx, "p2", types.ProgramUpdate{Status: &archived, CurrentWeek: &week, LastPropagatedAt: &propagated}); err != nil {
		t.Fatalf("UpdateProgram: %v", err)
	}
	got, err := s.GetProgram(ctx, "p2")
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if got.Status != archived || got.CurrentWeek != 3 {
		t.Errorf("Expected archived at week 3, got %s at week %d", got.Status, got.CurrentWeek)
	}
	if got.LastPropagatedAt == nil || !got.LastPropagatedAt.Equal(propagated) {
		t.Errorf("Expected LastPropagatedAt %v, got %v", propagated, got.LastPropagatedAt)
	}

	active, err = s.GetActiveProgram(ctx, "u1")
	if err != nil || active.ID != "p1" {
		t.Errorf("Expected p1 active after archiving p2, got %v / %v", active, err)
	}

	list, err := s.ListActivePrograms(ctx)
	if err != nil {
		t.Fatalf("ListActivePrograms: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 active program, got %d", len(list))
	}

	if _, err := s.GetProgram(ctx, "missing"); !stderrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetActiveProgram(ctx, "nobody"); !stderrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for user without program, got %v", err)
	}
	if err := s.UpdateProgram(ctx, "missing", types.ProgramUpdate{CurrentWeek: &week}); !stderrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating missing program, got %v", err)
	}
}

func TestSQLite_CalendarBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	events := []*types.CalendarEvent{
		{ID: "e1", UserID: "u1", ProgramID: "p1", Type: types.EventWorkout, Date: "2024-03-11", Status: types.EventScheduled},
		{ID: "e2", UserID: "u1", ProgramID: "p1", Type: types.EventRestDay, Date: "2024-03-12", Status: types.EventScheduled},
		{ID: "e3", UserID: "u1", ProgramID: "p1", Type: types.EventWorkout, Date: "2024-03-13", Status: types.EventScheduled},
		{ID: "e4", UserID: "u2", ProgramID: "p9", Type: types.EventWorkout, Date: "2024-03-13", Status: types.EventScheduled},
	}
	if err := s.ApplyCalendarBatch(ctx, events, nil); err != nil {
		t.Fatalf("ApplyCalendarBatch: %v", err)
	}

	got, err := s.ListProgramEvents(ctx, "p1", "2024-03-12")
	if err != nil {
		t.Fatalf("ListProgramEvents: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e3" {
		t.Errorf("Expected [e2 e3], got %v", ids(got))
	}

	renamed := *events[0]
	renamed.Title = "Renamed"
	if err := s.ApplyCalendarBatch(ctx, []*types.CalendarEvent{&renamed}, []string{"e3"}); err != nil {
		t.Fatalf("ApplyCalendarBatch: %v", err)
	}

	got, err = s.ListEvents(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events for u1, got %v", ids(got))
	}
	if got[0].Title != "Renamed" {
		t.Errorf("Expected upsert to overwrite title, got %q", got[0].Title)
	}

	got, err = s.ListEvents(ctx, "u1", "2024-03-12", "")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e2" {
		t.Errorf("Expected [e2] from 2024-03-12 on, got %v", ids(got))
	}
}

func TestSQLite_PersonalRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetPersonalRecord(ctx, "u1", "bench press"); !stderrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err := s.UpdatePersonalRecord(ctx, "u1", "bench press", func(cur *types.PersonalRecord) (*types.PersonalRecord, error) {
		if cur != nil {
			t.Errorf("Expected no current record, got %+v", cur)
		}
		return &types.PersonalRecord{Key: "bench press", Weight: 225, Reps: 5, EstimatedOneRepMax: 253}, nil
	})
	if err != nil {
		t.Fatalf("UpdatePersonalRecord: %v", err)
	}

	err = s.UpdatePersonalRecord(ctx, "u1", "bench press", func(cur *types.PersonalRecord) (*types.PersonalRecord, error) {
		if cur == nil || cur.Weight != 225 {
			t.Errorf("Expected current record at 225, got %+v", cur)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("UpdatePersonalRecord (no change): %v", err)
	}

	boom := apperrors.ErrInvalidArgument.WithMessage("boom")
	err = s.UpdatePersonalRecord(ctx, "u1", "bench press", func(cur *types.PersonalRecord) (*types.PersonalRecord, error) {
		return nil, boom
	})
	if !stderrors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("Expected callback error to propagate, got %v", err)
	}

	rec, err := s.GetPersonalRecord(ctx, "u1", "bench press")
	if err != nil {
		t.Fatalf("GetPersonalRecord: %v", err)
	}
	if rec.EstimatedOneRepMax != 253 {
		t.Errorf("Expected 1RM 253, got %d", rec.EstimatedOneRepMax)
	}
}

func TestSQLite_Locks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, err := s.AcquireLock(ctx, "generate:u1", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected first acquire to succeed, got %v / %v", ok, err)
	}
	ok, _ = s.AcquireLock(ctx, "generate:u1", "b", time.Minute)
	if ok {
		t.Error("Expected second owner to be refused while lease is live")
	}
	ok, _ = s.AcquireLock(ctx, "generate:u1", "a", time.Minute)
	if !ok {
		t.Error("Expected holder to re-acquire its own lock")
	}

	now = now.Add(2 * time.Minute)
	ok, _ = s.AcquireLock(ctx, "generate:u1", "b", time.Minute)
	if !ok {
		t.Error("Expected expired lease to be taken over")
	}

	if err := s.ReleaseLock(ctx, "generate:u1", "a"); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	ok, _ = s.AcquireLock(ctx, "generate:u1", "c", time.Minute)
	if ok {
		t.Error("Expected release by a non-owner to leave the lock held")
	}
	if err := s.ReleaseLock(ctx, "generate:u1", "b"); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	ok, _ = s.AcquireLock(ctx, "generate:u1", "c", time.Minute)
	if !ok {
		t.Error("Expected lock to be free after owner release")
	}
}

func TestSQLite_Executions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	start := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	if err := s.SetExecution(ctx, &types.ExecutionRecord{ExecutionID: "x1", Service: "planner", Status: types.ExecutionPending, StartTime: start}); err != nil {
		t.Fatalf("SetExecution: %v", err)
	}
	if err := s.UpdateExecution(ctx, "x1", map[string]interface{}{"status": types.ExecutionSuccess, "outputs_json": `{"ok":true}`}); err != nil {
		t.Fatalf("UpdateExecution: %v", err)
	}
	rec, err := s.GetExecution(ctx, "x1")
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if rec.Status != types.ExecutionSuccess || rec.Service != "planner" || rec.OutputsJSON != `{"ok":true}` {
		t.Errorf("Expected merged execution record, got %+v", rec)
	}
}

func ids(events []*types.CalendarEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
