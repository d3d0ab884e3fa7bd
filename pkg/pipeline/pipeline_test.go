package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/domain/profile"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/generator"
	"github.com/ripixel/fitplan-server/pkg/infrastructure/database"
	"github.com/ripixel/fitplan-server/pkg/testing/mocks"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// Monday 2 March 2026, 09:00 UTC.
var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(db shared.Database, pub shared.Publisher, cfg Config) *Pipeline {
	p := New(db, pub, nil, nil, cfg, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })
	return p
}

func testProfile() types.UserProfile {
	return types.UserProfile{
		UserID:            "user-1",
		Goal:              "get stronger",
		Discipline:        "powerlifting",
		DaysPerWeek:       4,
		Experience:        "intermediate",
		DislikedExercises: []string{"Good Mornings"},
		BodyweightLbs:     180,
		StartDate:         "2026-03-02",
	}
}

type recorder struct {
	mu       sync.Mutex
	created  []*types.Program
	updates  map[string][]types.ProgramUpdate
	batches  int
	upserts  []*types.CalendarEvent
	deletes  []string
	locks    int
	releases int
	topics   []string
}

func newRecorder() *recorder {
	return &recorder{updates: make(map[string][]types.ProgramUpdate)}
}

func (r *recorder) db() *mocks.MockDatabase {
	return &mocks.MockDatabase{
		CreateProgramFunc: func(ctx context.Context, program *types.Program) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.created = append(r.created, program)
			return nil
		},
		UpdateProgramFunc: func(ctx context.Context, id string, update types.ProgramUpdate) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates[id] = append(r.updates[id], update)
			return nil
		},
		ApplyCalendarBatchFunc: func(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.batches++
			r.upserts = append(r.upserts, upserts...)
			r.deletes = append(r.deletes, deletes...)
			return nil
		},
		AcquireLockFunc: func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.locks++
			return true, nil
		},
		ReleaseLockFunc: func(ctx context.Context, key, owner string) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.releases++
			return nil
		},
	}
}

func (r *recorder) pub() *mocks.MockPublisher {
	return &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.topics = append(r.topics, topic)
			return "msg-1", nil
		},
	}
}

func TestGenerate_FallbackWhenExternalUnusable(t *testing.T) {
	rec := newRecorder()
	// The default mock text generator returns its static fallback reply.
	p := New(rec.db(), rec.pub(), nil, &mocks.MockTextGenerator{}, Config{ExternalGeneration: true}, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if res.Strategy != generator.StrategyFallback {
		t.Errorf("Expected fallback strategy, got %s", res.Strategy)
	}
	if len(rec.created) != 1 {
		t.Fatalf("Expected 1 program created, got %d", len(rec.created))
	}
	prog := rec.created[0]
	if prog.Status != types.ProgramStatusActive || prog.AIGenerated {
		t.Errorf("Expected active deterministic program, got status=%s ai=%v", prog.Status, prog.AIGenerated)
	}
	if prog.ID == "" || prog.UserID != "user-1" {
		t.Errorf("Expected identity stamped, got id=%q user=%q", prog.ID, prog.UserID)
	}
	if got := prog.StartDate.Format(types.DateLayout); got != "2026-03-02" {
		t.Errorf("Expected start 2026-03-02, got %s", got)
	}
	if rec.batches != 1 || len(rec.upserts) == 0 {
		t.Errorf("Expected one non-empty calendar batch, got %d batches with %d events", rec.batches, len(rec.upserts))
	}
	if res.Events != len(rec.upserts) {
		t.Errorf("Expected %d events reported, got %d", len(rec.upserts), res.Events)
	}
	if prog.LastPropagatedAt == nil {
		t.Error("Expected lastPropagatedAt set after a successful batch")
	}
	ups := rec.updates[prog.ID]
	if len(ups) != 1 || ups[0].LastPropagatedAt == nil {
		t.Errorf("Expected a single lastPropagatedAt update, got %+v", ups)
	}
	if rec.locks != 1 || rec.releases != 1 {
		t.Errorf("Expected lock acquired and released once, got %d/%d", rec.locks, rec.releases)
	}
	if len(rec.topics) != 1 || rec.topics[0] != shared.TopicProgramGenerated {
		t.Errorf("Expected program generated event, got %v", rec.topics)
	}

	for _, e := range rec.upserts {
		if e.Date < "2026-03-02" {
			t.Errorf("Expected no event before today, got %s", e.Date)
		}
		for _, ex := range e.Exercises {
			if strings.EqualFold(ex.Name, "Good Mornings") {
				t.Errorf("Expected excluded exercise absent, found on %s", e.Date)
			}
		}
	}
}

func TestGenerate_ExternalUsable(t *testing.T) {
	uc := profile.Aggregate(testProfile())
	body, err := json.Marshal(generator.NewFallback(nil).Synthesize(uc))
	if err != nil {
		t.Fatal(err)
	}
	text := &mocks.MockTextGenerator{
		GenerateFunc: func(ctx context.Context, req shared.TextRequest) shared.TextResult {
			return shared.TextResult{Text: "```json\n" + string(body) + "\n```", Source: "primary"}
		},
	}
	rec := newRecorder()
	p := New(rec.db(), rec.pub(), nil, text, Config{ExternalGeneration: true}, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if res.Strategy != generator.StrategyExternal || !res.Program.AIGenerated {
		t.Errorf("Expected external program, got strategy=%s ai=%v", res.Strategy, res.Program.AIGenerated)
	}
}

func TestGenerate_ExternalExcludedExerciseSubstituted(t *testing.T) {
	prof := testProfile()
	prof.DislikedExercises = nil
	reply := generator.NewFallback(nil).Synthesize(profile.Aggregate(prof))
	for wi := range reply.Weeks {
		for di := range reply.Weeks[wi].TrainingDays {
			exs := reply.Weeks[wi].TrainingDays[di].Exercises
			for ei := range exs {
				if exs[ei].Category == types.CategoryAccessory {
					exs[ei].Name = "Good Morning"
					break
				}
			}
		}
	}
	body, err := json.Marshal(reply)
	if err != nil {
		t.Fatal(err)
	}
	text := &mocks.MockTextGenerator{
		GenerateFunc: func(ctx context.Context, req shared.TextRequest) shared.TextResult {
			return shared.TextResult{Text: string(body), Source: "primary"}
		},
	}
	rec := newRecorder()
	p := New(rec.db(), rec.pub(), nil, text, Config{ExternalGeneration: true}, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if res.Strategy != generator.StrategyExternal {
		t.Fatalf("Expected external program kept after substitution, got %s", res.Strategy)
	}
	for _, week := range res.Program.Weeks {
		for _, day := range week.TrainingDays {
			for _, ex := range day.Exercises {
				if ex.Name == "Good Morning" {
					t.Errorf("Expected Good Morning substituted on %s week %d", day.Title, week.WeekNumber)
				}
			}
		}
	}
	found := false
	for _, w := range res.Warnings {
		if strings.HasPrefix(w, "replaced Good Morning with ") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a substitution warning, got %v", res.Warnings)
	}
}

func TestGenerate_ExternalDisabledSkipsGenerator(t *testing.T) {
	called := false
	text := &mocks.MockTextGenerator{
		GenerateFunc: func(ctx context.Context, req shared.TextRequest) shared.TextResult {
			called = true
			return shared.TextResult{}
		},
	}
	rec := newRecorder()
	p := New(rec.db(), rec.pub(), nil, text, Config{ExternalGeneration: false}, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })

	if _, err := p.Generate(context.Background(), testProfile()); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if called {
		t.Error("Expected text generator not called when external generation is disabled")
	}
}

func TestGenerate_PropagationFailureLeavesProgramUnpropagated(t *testing.T) {
	rec := newRecorder()
	db := rec.db()
	db.ApplyCalendarBatchFunc = func(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error {
		return apperrors.ErrStoreUnavailable.WithMessage("batch write failed")
	}
	p := newTestPipeline(db, rec.pub(), Config{})

	_, err := p.Generate(context.Background(), testProfile())
	if !errors.Is(err, apperrors.ErrPropagationFailed) {
		t.Fatalf("Expected ErrPropagationFailed, got %v", err)
	}
	if !apperrors.IsRetryable(err) {
		t.Error("Expected propagation failure to be retryable")
	}
	if len(rec.created) != 1 {
		t.Fatalf("Expected program persisted before propagation, got %d", len(rec.created))
	}
	if rec.created[0].LastPropagatedAt != nil {
		t.Error("Expected lastPropagatedAt unset after a failed batch")
	}
	for _, u := range rec.updates[rec.created[0].ID] {
		if u.LastPropagatedAt != nil {
			t.Error("Expected no lastPropagatedAt update after a failed batch")
		}
	}
	if len(rec.topics) != 0 {
		t.Errorf("Expected no events published, got %v", rec.topics)
	}
	if rec.releases != 1 {
		t.Errorf("Expected lock released after failure, got %d", rec.releases)
	}
}

func TestGenerate_LockHeld(t *testing.T) {
	rec := newRecorder()
	db := rec.db()
	db.AcquireLockFunc = func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
		if key != "generate:user-1" {
			t.Errorf("Expected per-user lock key, got %s", key)
		}
		return false, nil
	}
	p := newTestPipeline(db, rec.pub(), Config{})

	_, err := p.Generate(context.Background(), testProfile())
	if !errors.Is(err, apperrors.ErrGenerationInProgress) {
		t.Fatalf("Expected ErrGenerationInProgress, got %v", err)
	}
	if len(rec.created) != 0 {
		t.Errorf("Expected nothing created, got %d", len(rec.created))
	}
	if rec.releases != 0 {
		t.Errorf("Expected no release for a lock never held, got %d", rec.releases)
	}
}

func TestGenerate_RateLimited(t *testing.T) {
	rec := newRecorder()
	p := newTestPipeline(rec.db(), rec.pub(), Config{RateInterval: time.Minute, RateBurst: 1})

	if _, err := p.Generate(context.Background(), testProfile()); err != nil {
		t.Fatalf("Expected first request allowed, got %v", err)
	}
	_, err := p.Generate(context.Background(), testProfile())
	if !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}

	other := testProfile()
	other.UserID = "user-2"
	if _, err := p.Generate(context.Background(), other); err != nil {
		t.Errorf("Expected other users unaffected, got %v", err)
	}
}

func TestGenerate_RequiresUser(t *testing.T) {
	p := newTestPipeline(&mocks.MockDatabase{}, &mocks.MockPublisher{}, Config{})
	_, err := p.Generate(context.Background(), types.UserProfile{UserID: "  "})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestGenerate_ArchivesPriorProgram(t *testing.T) {
	rec := newRecorder()
	db := rec.db()
	db.GetActiveProgramFunc = func(ctx context.Context, userID string) (*types.Program, error) {
		return &types.Program{ID: "old", UserID: userID, Status: types.ProgramStatusActive}, nil
	}
	db.ListProgramEventsFunc = func(ctx context.Context, programID string, fromDate string) ([]*types.CalendarEvent, error) {
		if programID != "old" || fromDate != "2026-03-02" {
			t.Errorf("Expected old program events from today, got %s from %s", programID, fromDate)
		}
		return []*types.CalendarEvent{
			{ID: "old-scheduled", ProgramID: "old", Date: "2026-03-03", Status: types.EventScheduled},
			{ID: "old-done", ProgramID: "old", Date: "2026-03-02", Status: types.EventCompleted},
		}, nil
	}
	p := newTestPipeline(db, rec.pub(), Config{})

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if res.Archived != "old" {
		t.Errorf("Expected old program archived, got %q", res.Archived)
	}
	ups := rec.updates["old"]
	if len(ups) != 1 || ups[0].Status == nil || *ups[0].Status != types.ProgramStatusArchived {
		t.Errorf("Expected archive update on old program, got %+v", ups)
	}
	if len(rec.deletes) != 1 || rec.deletes[0] != "old-scheduled" {
		t.Errorf("Expected only the scheduled future event deleted, got %v", rec.deletes)
	}
	if rec.batches != 1 {
		t.Errorf("Expected deletes and upserts in one batch, got %d batches", rec.batches)
	}
}

func TestGenerate_ArchiveFailureCreatesNothing(t *testing.T) {
	rec := newRecorder()
	db := rec.db()
	db.GetActiveProgramFunc = func(ctx context.Context, userID string) (*types.Program, error) {
		return &types.Program{ID: "old", UserID: userID, Status: types.ProgramStatusActive}, nil
	}
	db.UpdateProgramFunc = func(ctx context.Context, id string, update types.ProgramUpdate) error {
		if id == "old" {
			return apperrors.ErrStoreUnavailable.WithMessage("update failed")
		}
		return nil
	}
	p := newTestPipeline(db, rec.pub(), Config{})

	_, err := p.Generate(context.Background(), testProfile())
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}
	if len(rec.created) != 0 {
		t.Errorf("Expected no new active program beside the old one, got %d created", len(rec.created))
	}
	if rec.batches != 0 {
		t.Errorf("Expected no calendar writes, got %d batches", rec.batches)
	}
}

func TestGenerate_CreateFailureRestoresPriorProgram(t *testing.T) {
	rec := newRecorder()
	db := rec.db()
	db.GetActiveProgramFunc = func(ctx context.Context, userID string) (*types.Program, error) {
		return &types.Program{ID: "old", UserID: userID, Status: types.ProgramStatusActive}, nil
	}
	db.CreateProgramFunc = func(ctx context.Context, program *types.Program) error {
		return apperrors.ErrStoreUnavailable.WithMessage("create failed")
	}
	p := newTestPipeline(db, rec.pub(), Config{})

	if _, err := p.Generate(context.Background(), testProfile()); err == nil {
		t.Fatal("Expected error when the new program cannot be written")
	}
	ups := rec.updates["old"]
	if len(ups) != 2 {
		t.Fatalf("Expected archive then restore on old program, got %+v", ups)
	}
	if ups[0].Status == nil || *ups[0].Status != types.ProgramStatusArchived {
		t.Errorf("Expected first update to archive, got %+v", ups[0])
	}
	if ups[1].Status == nil || *ups[1].Status != types.ProgramStatusActive {
		t.Errorf("Expected second update to restore active, got %+v", ups[1])
	}
}

func TestGenerate_ConcurrentRequestRejected(t *testing.T) {
	rec := newRecorder()
	db := rec.db()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	db.AcquireLockFunc = func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return true, nil
	}
	p := newTestPipeline(db, rec.pub(), Config{})

	first := make(chan error, 1)
	go func() {
		_, err := p.Generate(context.Background(), testProfile())
		first <- err
	}()
	<-entered

	second := make(chan error, 1)
	other := testProfile()
	other.DaysPerWeek = 3
	go func() {
		_, err := p.Generate(context.Background(), other)
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	if err := <-first; err != nil {
		t.Fatalf("Expected first request to succeed, got %v", err)
	}
	if err := <-second; !errors.Is(err, apperrors.ErrGenerationInProgress) {
		t.Errorf("Expected ErrGenerationInProgress for the concurrent request, got %v", err)
	}
	if len(rec.created) != 1 {
		t.Errorf("Expected a single program created, got %d", len(rec.created))
	}
}

func TestGenerate_ArtifactsUploaded(t *testing.T) {
	rec := newRecorder()
	var mu sync.Mutex
	var objects []string
	store := &mocks.MockBlobStore{
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			if bucket != "artifacts" {
				t.Errorf("Expected bucket artifacts, got %s", bucket)
			}
			if len(data) == 0 {
				t.Errorf("Expected non-empty artifact %s", object)
			}
			objects = append(objects, object)
			return nil
		},
	}
	p := New(rec.db(), rec.pub(), store, nil, Config{ArtifactBucket: "artifacts"}, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	// Workbook plus one workout per training day.
	if len(objects) != 5 || len(res.Artifacts) != 5 {
		t.Fatalf("Expected 5 artifacts, got %d written, %d reported", len(objects), len(res.Artifacts))
	}
	prefix := "programs/user-1/" + res.Program.ID + "/"
	for _, o := range res.Artifacts {
		if !strings.HasPrefix(o, prefix) {
			t.Errorf("Expected object under %s, got %s", prefix, o)
		}
	}
}

func TestGenerate_ArtifactFailureIsNotFatal(t *testing.T) {
	rec := newRecorder()
	store := &mocks.MockBlobStore{
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte) error {
			return apperrors.ErrArtifactFailed
		},
	}
	p := New(rec.db(), rec.pub(), store, nil, Config{ArtifactBucket: "artifacts"}, quietLogger())
	p.SetClock(func() time.Time { return fixedNow })

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Expected success despite upload failure, got %v", err)
	}
	if len(res.Artifacts) != 0 {
		t.Errorf("Expected no artifacts reported, got %v", res.Artifacts)
	}
}

func TestPropagate_RejectsInactiveProgram(t *testing.T) {
	db := &mocks.MockDatabase{
		GetProgramFunc: func(ctx context.Context, id string) (*types.Program, error) {
			return &types.Program{ID: id, Status: types.ProgramStatusArchived}, nil
		},
	}
	p := newTestPipeline(db, &mocks.MockPublisher{}, Config{})
	_, err := p.Propagate(context.Background(), "p1")
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestPipeline_SQLiteRoundTrip(t *testing.T) {
	store, err := database.NewSQLite(filepath.Join(t.TempDir(), "fitplan.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	p := newTestPipeline(store, &mocks.MockPublisher{}, Config{})

	res, err := p.Generate(ctx, testProfile())
	if err != nil {
		t.Fatalf("Expected generation success, got %v", err)
	}
	active, err := store.GetActiveProgram(ctx, "user-1")
	if err != nil {
		t.Fatalf("Expected active program, got %v", err)
	}
	if active.ID != res.Program.ID || active.LastPropagatedAt == nil {
		t.Errorf("Expected stored program propagated, got id=%s propagated=%v", active.ID, active.LastPropagatedAt)
	}

	events, err := store.ListProgramEvents(ctx, res.Program.ID, "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != res.Events {
		t.Errorf("Expected %d stored events, got %d", res.Events, len(events))
	}

	again, err := p.Propagate(ctx, res.Program.ID)
	if err != nil {
		t.Fatalf("Expected re-propagation success, got %v", err)
	}
	if again.Upserted != 0 || again.Deleted != 0 {
		t.Errorf("Expected re-propagation to be a no-op, got %+v", again)
	}

	week, err := p.CurrentWeek(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if week.Week != 1 || week.Phase == nil || week.Phase.Name != types.PhaseAccumulation {
		t.Errorf("Expected week 1 accumulation, got %+v", week)
	}

	session, err := p.TodaySession(ctx, "user-1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if session.RestDay || session.Session == nil {
		t.Fatalf("Expected a Monday workout, got rest day")
	}
	if session.Readiness.ReadinessScore != 70 {
		t.Errorf("Expected default readiness 70, got %v", session.Readiness.ReadinessScore)
	}

	// A second program replaces the first and clears its future schedule.
	second, err := p.generate(ctx, testProfile())
	if err != nil {
		t.Fatalf("Expected regeneration success, got %v", err)
	}
	old, err := store.GetProgram(ctx, res.Program.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Status != types.ProgramStatusArchived {
		t.Errorf("Expected first program archived, got %s", old.Status)
	}
	leftover, err := store.ListProgramEvents(ctx, res.Program.ID, "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(leftover) != 0 {
		t.Errorf("Expected archived program's future events removed, got %d", len(leftover))
	}
	active, err = store.GetActiveProgram(ctx, "user-1")
	if err != nil || active.ID != second.Program.ID {
		t.Errorf("Expected second program active, got %v (%v)", active, err)
	}
}
