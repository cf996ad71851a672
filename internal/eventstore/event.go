package eventstore

import (
	"encoding/json"
	"time"
)

// Event is one recorded fact about a build run.
type Event interface {
	// ID is the store sequence number. Zero until appended.
	ID() int64
	BuildID() string
	Type() string
	Timestamp() time.Time
	// Payload is the JSON encoded metadata of the event.
	Payload() []byte
	Metadata() map[string]string
}

// BaseEvent is the stored form of every event. Typed events embed it.
type BaseEvent struct {
	EventID        int64
	EventBuildID   string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) BuildID() string             { return e.EventBuildID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }

// DecodeMeta unmarshals the payload of e into the metadata type T.
// Events read back from the store are BaseEvents, so this is how the
// projection recovers BuildStartedMeta, StepFinishedMeta and friends.
func DecodeMeta[T any](e Event) (T, bool) {
	var meta T
	if len(e.Payload()) == 0 {
		return meta, false
	}
	if err := json.Unmarshal(e.Payload(), &meta); err != nil {
		return meta, false
	}
	return meta, true
}
