// Package propagator re-materializes a program's calendar when the program
// is edited. Propagation is idempotent so redelivered events are harmless.
package propagator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/framework"
	infrapubsub "github.com/ripixel/fitplan-server/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
	"github.com/ripixel/fitplan-server/pkg/types"
)

const serviceName = "propagator"

var (
	svc     *bootstrap.Service
	pipe    *pipeline.Pipeline
	svcOnce sync.Once
	svcErr  error
)

func init() {
	// EventArc trigger on the program-edited topic
	functions.CloudEvent("PropagateProgram", PropagateProgram)

	// Push subscription variant; a 500 makes Pub/Sub redeliver
	functions.HTTP("PropagateProgramHTTP", PropagateProgramHTTP)
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

// PropagateProgram is the entry point for EventArc triggers.
func PropagateProgram(ctx context.Context, e cloudevents.Event) error {
	s, p, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return NewEventHandler(s, p)(ctx, e)
}

// PropagateProgramHTTP is the entry point for push subscriptions.
func PropagateProgramHTTP(w http.ResponseWriter, r *http.Request) {
	s, p, err := initService(r.Context())
	if err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	NewPushHandler(s, p)(w, r)
}

// NewEventHandler returns the CloudEvent handler. Only retryable failures
// are returned so that permanent ones are acknowledged.
func NewEventHandler(s *bootstrap.Service, p *pipeline.Pipeline) func(context.Context, event.Event) error {
	return framework.WrapCloudEvent(serviceName, s, func(ctx context.Context, e event.Event, _ *bootstrap.Service, logger *slog.Logger, execID string) (interface{}, error) {
		var msg types.ProgramEvent
		if err := infrapubsub.DecodePayload(e, &msg); err != nil {
			return nil, err
		}
		logger.Info("Propagating program", "program_id", msg.ProgramID, "user_id", msg.UserID)
		return p.Propagate(ctx, msg.ProgramID)
	})
}

// NewPushHandler accepts either a CloudEvent over HTTP or a raw Pub/Sub
// push envelope.
func NewPushHandler(s *bootstrap.Service, p *pipeline.Pipeline) http.HandlerFunc {
	handle := NewEventHandler(s, p)
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		e, err := cehttp.NewEventFromHTTPRequest(r)
		if err != nil {
			// Pub/Sub push wraps the payload in {"message":{"data":...}}
			pushed := cloudevents.NewEvent()
			pushed.SetID(r.Header.Get("X-Request-Id"))
			pushed.SetSource("//pubsub.googleapis.com/push")
			pushed.SetType(shared.EventTypeProgramEdited)
			if err := pushed.SetData(cloudevents.ApplicationJSON, body); err != nil {
				http.Error(w, fmt.Sprintf("failed to parse event: %v", err), http.StatusBadRequest)
				return
			}
			e = &pushed
		}

		if err := handle(r.Context(), *e); err != nil {
			slog.Error("Handler failed, returning 500 for retry", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
