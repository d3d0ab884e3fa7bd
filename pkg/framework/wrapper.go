// Package framework adapts FitPlan handlers to Cloud Functions triggers,
// adding execution logging and error-to-status mapping.
package framework

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/execution"
)

// HandlerFunc is the signature for a CloudEvent function handler.
// It returns outputs (for logging) and error.
type HandlerFunc func(ctx context.Context, e event.Event, svc *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error)

// HTTPHandlerFunc is the signature for an HTTP function handler. Outputs
// are written to the response as JSON.
type HTTPHandlerFunc func(ctx context.Context, r *http.Request, svc *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error)

// ErrorResponse is the JSON body written for failed HTTP calls.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func begin(ctx context.Context, serviceName, trigger string, svc *bootstrap.Service) (*slog.Logger, string) {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", serviceName)

	execID, err := execution.LogPending(ctx, svc.DB, serviceName, execution.ExecutionOptions{
		TriggerType: trigger,
	})
	if err != nil {
		// Logging failures never fail the function.
		logger.Error("Failed to log execution pending", "error", err)
	}
	if err := execution.LogStart(ctx, svc.DB, execID, nil, nil); err != nil {
		logger.Warn("Failed to log execution start", "error", err)
	}
	logger = logger.With("execution_id", execID)
	logger.Info("Function started")
	return logger, execID
}

func finish(ctx context.Context, svc *bootstrap.Service, logger *slog.Logger, execID string, outputs interface{}, handlerErr error) {
	if handlerErr != nil {
		logger.Error("Function failed", "error", handlerErr, "code", apperrors.GetCode(handlerErr))
		if logErr := execution.LogFailure(ctx, svc.DB, execID, handlerErr, outputs); logErr != nil {
			logger.Warn("Failed to log execution failure", "error", logErr)
		}
		return
	}
	logger.Info("Function completed successfully")
	if logErr := execution.LogSuccess(ctx, svc.DB, execID, outputs); logErr != nil {
		logger.Warn("Failed to log execution success", "error", logErr)
	}
}

// WrapCloudEvent wraps a handler with automatic execution logging. Only
// retryable errors are returned to the trigger so that Pub/Sub redelivers;
// permanent failures are logged and acknowledged.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		logger, execID := begin(ctx, serviceName, "pubsub", svc)
		logger = logger.With("event_id", e.ID(), "event_type", e.Type())

		outputs, handlerErr := handler(ctx, e, svc, logger, execID)
		finish(ctx, svc, logger, execID, outputs, handlerErr)

		if handlerErr != nil && apperrors.IsRetryable(handlerErr) {
			return handlerErr
		}
		return nil
	}
}

// WrapHTTP wraps an HTTP handler with execution logging and JSON responses.
// Errors are mapped to status codes with errors.HTTPStatus.
func WrapHTTP(serviceName string, svc *bootstrap.Service, handler HTTPHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger, execID := begin(ctx, serviceName, "http", svc)

		outputs, handlerErr := handler(ctx, r, svc, logger, execID)
		finish(ctx, svc, logger, execID, outputs, handlerErr)

		if handlerErr != nil {
			writeJSON(w, apperrors.HTTPStatus(handlerErr), errorBody(handlerErr))
			return
		}
		writeJSON(w, http.StatusOK, outputs)
	}
}

func errorBody(err error) ErrorResponse {
	var fpErr *apperrors.FitPlanError
	if stderrors.As(err, &fpErr) {
		return ErrorResponse{Code: string(fpErr.Code), Message: fpErr.Message, Details: fpErr.Metadata}
	}
	return ErrorResponse{Code: string(apperrors.CodeInternal), Message: "internal error"}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		body = map[string]string{"status": "ok"}
	}
	json.NewEncoder(w).Encode(body)
}
