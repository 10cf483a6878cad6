package events

import (
	"context"
	"time"
)

// Encounter lifecycle event types.
const (
	EncounterStarted         = "ENCOUNTER_STARTED"
	EncounterPaused          = "ENCOUNTER_PAUSED"
	EncounterResumed         = "ENCOUNTER_RESUMED"
	EncounterCompleted       = "ENCOUNTER_COMPLETED"
	EncounterCancelled       = "ENCOUNTER_CANCELLED"
	EncounterMessageAppended = "ENCOUNTER_MESSAGE_APPENDED"

	ReportCreated  = "REPORT_CREATED"
	ReportRendered = "REPORT_RENDERED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ENCOUNTER_PAUSED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// UserID is the recipient carried in the payload, if any.
func UserID(e Event) string {
	id, _ := e.Payload()["user_id"].(string)
	return id
}

// NewEncounterEvent builds a lifecycle event addressed to the encounter owner.
func NewEncounterEvent(eventType, userID, encounterID, status string) BaseEvent {
	now := time.Now().UTC()
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"type":         eventType,
			"user_id":      userID,
			"encounter_id": encounterID,
			"status":       status,
			"occurred_at":  now.Format(time.RFC3339Nano),
		},
		OccurredAt: now,
	}
}

// Publisher is satisfied by the NATS publisher and by NopPublisher.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	Events []Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event Event) error {
	p.Events = append(p.Events, event)
	return nil
}

// Types lists the recorded event types in order.
func (p *RecordingPublisher) Types() []string {
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.EventType()
	}
	return out
}
