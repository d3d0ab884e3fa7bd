package pubsub

import (
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// EventSource is the CloudEvent source for everything FitPlan publishes.
const EventSource = "/fitplan"

// NewCloudEvent creates a standardized CloudEvent v1.0 with a JSON payload.
// subject is typically the program or user the event concerns.
func NewCloudEvent(eventType, subject string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetID(uuid.NewString())
	e.SetType(eventType)
	e.SetSource(EventSource)
	e.SetTime(time.Now().UTC())
	if subject != "" {
		e.SetSubject(subject)
	}
	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}
	return e, nil
}

// DecodePayload unmarshals the FitPlan payload carried by e into v. Events
// arrive either directly or as a Pub/Sub message whose data is itself a
// CloudEvent published by PubSubAdapter; both envelopes are unwrapped.
func DecodePayload(e cloudevents.Event, v interface{}) error {
	data := e.Data()

	var msg types.PubSubMessage
	if err := json.Unmarshal(data, &msg); err == nil && len(msg.Message.Data) > 0 {
		data = msg.Message.Data
		var inner cloudevents.Event
		if err := json.Unmarshal(data, &inner); err == nil && inner.Type() != "" {
			data = inner.Data()
		}
	}

	if len(data) == 0 {
		return apperrors.ErrInvalidArgument.WithMessage("event carries no data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.ErrInvalidArgument.WithMessage("malformed event payload").WithCause(err)
	}
	return nil
}
