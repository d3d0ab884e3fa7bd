// Package planner hosts the program generation and week-advancement functions.
package planner

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

const serviceName = "planner"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var (
	svc     *bootstrap.Service
	pipe    *pipeline.Pipeline
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("GenerateProgram", GenerateProgram)
	functions.HTTP("AdvancePrograms", AdvancePrograms)
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

// GenerateProgram is the HTTP entry point for program generation.
func GenerateProgram(w http.ResponseWriter, r *http.Request) {
	s, p, err := initService(r.Context())
	if err != nil {
		http.Error(w, "service init failed", http.StatusInternalServerError)
		return
	}
	NewGenerateHandler(s, p)(w, r)
}

// AdvancePrograms is the HTTP entry point invoked by Cloud Scheduler.
func AdvancePrograms(w http.ResponseWriter, r *http.Request) {
	s, p, err := initService(r.Context())
	if err != nil {
		http.Error(w, "service init failed", http.StatusInternalServerError)
		return
	}
	NewAdvanceHandler(s, p)(w, r)
}

// NewGenerateHandler accepts a UserProfile body and returns the generation result.
func NewGenerateHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		if r.Method != http.MethodPost {
			return nil, apperrors.ErrInvalidArgument.WithMessage("use POST")
		}
		var prof types.UserProfile
		if err := decodeBody(r, &prof); err != nil {
			return nil, err
		}
		logger.Info("Generating program", "user_id", prof.UserID)
		return p.Generate(ctx, prof)
	})
}

// NewAdvanceHandler moves every active program to its current week.
func NewAdvanceHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	return framework.WrapHTTP(serviceName, s, func(ctx context.Context, r *http.Request, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		res, err := p.AdvanceWeeks(ctx)
		if res != nil {
			logger.Info("Advanced programs", "checked", res.Checked, "advanced", res.Advanced,
				"completed", res.Completed, "failed", res.Failed)
		}
		return res, err
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.ErrInvalidArgument.WithMessage("failed to read body").WithCause(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.ErrInvalidArgument.WithMessage("malformed JSON body").WithCause(err)
	}
	return nil
}
