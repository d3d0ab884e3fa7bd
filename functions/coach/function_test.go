package coach

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
	"github.com/ripixel/fitplan-server/pkg/testing/mocks"
	"github.com/ripixel/fitplan-server/pkg/types"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func setup(db *mocks.MockDatabase) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &mocks.MockPublisher{}
	svc = &bootstrap.Service{DB: db, Pub: pub, Config: &bootstrap.Config{}, Logger: logger}
	pipe = pipeline.New(db, pub, nil, nil, pipeline.Config{}, logger)
	pipe.SetClock(func() time.Time { return fixedNow })
}

func serve(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

func TestScoreReadiness(t *testing.T) {
	setup(&mocks.MockDatabase{})

	body := `{"samples":[{"date":"2026-03-02T06:00:00Z","hrv":55,"hrvBaseline":50,"sleepHours":8}]}`
	rr := serve(entry(NewReadinessHandler), http.MethodPost, "/", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap types.ReadinessSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, ok := snap.FactorBreakdown["hrv"]; !ok {
		t.Errorf("Expected hrv factor, got %v", snap.FactorBreakdown)
	}
	if snap.ReadinessScore < 80 {
		t.Errorf("Expected a high score for good recovery, got %v", snap.ReadinessScore)
	}
}

func TestSubmitLifts(t *testing.T) {
	var keys []string
	setup(&mocks.MockDatabase{
		UpdatePersonalRecordFunc: func(ctx context.Context, userID, key string, fn func(*types.PersonalRecord) (*types.PersonalRecord, error)) error {
			keys = append(keys, key)
			_, err := fn(nil)
			return err
		},
	})

	body := `{"userId":"user-1","sets":[{"exerciseName":"Bench Press","weight":185,"reps":5},{"exerciseName":"bench press","weight":175,"reps":5}]}`
	rr := serve(entry(NewSubmitLiftsHandler), http.MethodPost, "/", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res struct {
		Outcomes []types.RecordOutcome `json:"outcomes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(res.Outcomes) != 1 || len(keys) != 1 {
		t.Fatalf("Expected one outcome for one exercise, got %d outcomes and keys %v", len(res.Outcomes), keys)
	}
	if res.Outcomes[0].Status != types.RecordFirstRecorded {
		t.Errorf("Expected first-recorded, got %s", res.Outcomes[0].Status)
	}
	if res.Outcomes[0].Best.Weight != 185 {
		t.Errorf("Expected best set 185, got %v", res.Outcomes[0].Best.Weight)
	}
}

func TestCoachErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*bootstrap.Service, *pipeline.Pipeline) http.HandlerFunc
		method  string
		target  string
		body    string
		want    int
	}{
		{"readiness needs POST", NewReadinessHandler, http.MethodGet, "/", "", http.StatusBadRequest},
		{"lifts malformed", NewSubmitLiftsHandler, http.MethodPost, "/", "[", http.StatusBadRequest},
		{"lifts without valid sets", NewSubmitLiftsHandler, http.MethodPost, "/", `{"userId":"u","sets":[{"exerciseName":"Squat","weight":0,"reps":5}]}`, http.StatusBadRequest},
		{"record not found", NewRecordHistoryHandler, http.MethodGet, "/?userId=u&exercise=Squat", "", http.StatusNotFound},
		{"record needs exercise", NewRecordHistoryHandler, http.MethodGet, "/?userId=u", "", http.StatusBadRequest},
		{"session without program", NewTodaySessionHandler, http.MethodPost, "/", `{"userId":"u"}`, http.StatusNotFound},
		{"week needs user", NewCurrentWeekHandler, http.MethodGet, "/", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(&mocks.MockDatabase{})
			rr := serve(entry(tt.handler), tt.method, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}
