package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
	"github.com/ripixel/fitplan-server/pkg/testing/mocks"
	"github.com/ripixel/fitplan-server/pkg/types"
)

func newTestRouter(db *mocks.MockDatabase) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &mocks.MockPublisher{}
	svc := &bootstrap.Service{DB: db, Pub: pub, Config: &bootstrap.Config{}, Logger: logger}
	return NewRouter(svc, pipeline.New(db, pub, nil, nil, pipeline.Config{}, logger))
}

func TestRouter(t *testing.T) {
	db := &mocks.MockDatabase{
		ListActiveProgramsFunc: func(ctx context.Context) ([]*types.Program, error) {
			return nil, nil
		},
	}
	h := newTestRouter(db)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/programs/advance", "", http.StatusOK},
		{http.MethodPost, "/programs/", `{"daysPerWeek":3}`, http.StatusBadRequest},
		{http.MethodPost, "/coach/readiness", `{"samples":[]}`, http.StatusOK},
		{http.MethodGet, "/coach/records?userId=u&exercise=Squat", "", http.StatusNotFound},
		{http.MethodGet, "/coach/week", "", http.StatusBadRequest},
		{http.MethodGet, "/coach/lifts", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rr.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestStartScheduler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(&mocks.MockDatabase{}, &mocks.MockPublisher{}, nil, nil, pipeline.Config{}, logger)

	c, err := startScheduler(defaultAdvanceSchedule, p, logger)
	if err != nil {
		t.Fatalf("Expected default schedule to parse, got %v", err)
	}
	c.Stop()

	if _, err := startScheduler("not a schedule", p, logger); err == nil {
		t.Error("Expected error for malformed schedule")
	}
}
