// Package coach serves the on-demand operations a client calls during the
// training day: readiness, record submission and lookup, today's session and
// the current program week.
package coach

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/framework"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
	"github.com/ripixel/fitplan-server/pkg/types"
)

const serviceName = "coach"

const maxBodyBytes = 1 << 20

var (
	svc     *bootstrap.Service
	pipe    *pipeline.Pipeline
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("ScoreReadiness", entry(NewReadinessHandler))
	functions.HTTP("SubmitLifts", entry(NewSubmitLiftsHandler))
	functions.HTTP("RecordHistory", entry(NewRecordHistoryHandler))
	functions.HTTP("TodaySession", entry(NewTodaySessionHandler))
	functions.HTTP("CurrentWeek", entry(NewCurrentWeekHandler))
}

func initService(ctx context.Context) (*bootstrap.Service, *pipeline.Pipeline, error) {
	if svc != nil && pipe != nil {
		return svc, pipe, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx, serviceName)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
			return
		}
		pipe = pipeline.FromService(svc)
	})
	return svc, pipe, svcErr
}

// entry defers handler construction until the first request so that
// service initialization runs lazily.
func entry(build func(*bootstrap.Service, *pipeline.Pipeline) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p, err := initService(r.Context())
		if err != nil {
			http.Error(w, "service init failed", http.StatusInternalServerError)
			return
		}
		build(s, p)(w, r)
	}
}

// ReadinessRequest carries today's wearable data and optional check-in.
type ReadinessRequest struct {
	UserID  string                  `json:"userId,omitempty"`
	Samples []types.BiometricSample `json:"samples"`
	CheckIn *types.CheckIn          `json:"checkIn,omitempty"`
}

// LiftsRequest is a batch of logged sets.
type LiftsRequest struct {
	UserID string          `json:"userId"`
	Sets   []types.LiftSet `json:"sets"`
}

// NewReadinessHandler scores recovery from the posted samples.
func NewReadinessHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		var req ReadinessRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		snap := p.ScoreReadiness(req.Samples, req.CheckIn)
		logger.Info("Readiness scored", "user_id", req.UserID, "score", snap.ReadinessScore,
			"recommendation", snap.Recommendation)
		return snap, nil
	})
}

// NewSubmitLiftsHandler runs record detection on the posted sets.
func NewSubmitLiftsHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		var req LiftsRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		outcomes, err := p.SubmitLifts(ctx, req.UserID, req.Sets)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"outcomes": outcomes}, nil
	})
}

// NewRecordHistoryHandler returns one exercise's record. Query parameters:
// userId and exercise.
func NewRecordHistoryHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		q := r.URL.Query()
		return p.RecordHistory(ctx, q.Get("userId"), q.Get("exercise"))
	})
}

// NewTodaySessionHandler returns today's workout scaled by readiness.
func NewTodaySessionHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		var req ReadinessRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		res, err := p.TodaySession(ctx, req.UserID, req.Samples, req.CheckIn)
		if err != nil {
			return nil, err
		}
		logger.Info("Session planned", "user_id", req.UserID, "program_id", res.ProgramID, "rest_day", res.RestDay)
		return res, nil
	})
}

// NewCurrentWeekHandler reports the user's program week. Query parameter: userId.
func NewCurrentWeekHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		return p.CurrentWeek(ctx, r.URL.Query().Get("userId"))
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Method != http.MethodPost {
		return apperrors.ErrInvalidArgument.WithMessage("use POST")
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.ErrInvalidArgument.WithMessage("failed to read body").WithCause(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.ErrInvalidArgument.WithMessage("malformed JSON body").WithCause(err)
	}
	return nil
}
