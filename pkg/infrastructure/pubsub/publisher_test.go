package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

func TestNewCloudEvent(t *testing.T) {
	e, err := NewCloudEvent("com.fitplan.program.generated", "prog-1", types.ProgramEvent{ProgramID: "prog-1", UserID: "u1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if e.ID() == "" {
		t.Error("Expected event ID to be set")
	}
	if e.Source() != EventSource {
		t.Errorf("Expected source %q, got %q", EventSource, e.Source())
	}
	if e.Subject() != "prog-1" {
		t.Errorf("Expected subject prog-1, got %q", e.Subject())
	}
	var got types.ProgramEvent
	if err := json.Unmarshal(e.Data(), &got); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if got.ProgramID != "prog-1" || got.UserID != "u1" {
		t.Errorf("Expected payload to round trip, got %+v", got)
	}
}

func TestLogPublisher(t *testing.T) {
	e, _ := NewCloudEvent("com.fitplan.record.updated", "", types.RecordEvent{UserID: "u1"})
	id, err := (&LogPublisher{}).PublishCloudEvent(context.Background(), "topic", e)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(id, "mock-") {
		t.Errorf("Expected mock message id, got %q", id)
	}
}

func TestDecodePayload(t *testing.T) {
	inner, err := NewCloudEvent("com.fitplan.program.edited", "prog-1", types.ProgramEvent{ProgramID: "prog-1", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}
	var msg types.PubSubMessage
	msg.Message.Data = raw
	wrapped := cloudevents.NewEvent()
	wrapped.SetID("push-1")
	wrapped.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	wrapped.SetSource("//pubsub.googleapis.com/projects/p/topics/t")
	if err := wrapped.SetData(cloudevents.ApplicationJSON, msg); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		e    cloudevents.Event
	}{
		{"direct", inner},
		{"pubsub envelope", wrapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got types.ProgramEvent
			if err := DecodePayload(tt.e, &got); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got.ProgramID != "prog-1" {
				t.Errorf("Expected prog-1, got %+v", got)
			}
		})
	}

	empty := cloudevents.NewEvent()
	var got types.ProgramEvent
	if err := DecodePayload(empty, &got); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for an empty event, got %v", err)
	}
}
