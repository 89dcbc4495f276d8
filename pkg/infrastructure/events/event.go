package events

import (
	"time"
)

// Event is one entry in the audit trail of a run
type Event interface {
	Type() string
	RunID() string
	Data() interface{}
	Timestamp() time.Time
	Sequence() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore keeps the audit trail of runs, one stream per run id
type EventStore interface {
	AppendEvent(runID string, event Event) error
	ReadEvents(runID string, fromSequence int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// RunEvent is the stored form of an event. Seq is assigned by the store on append and
// counts from 1 within each run.
type RunEvent struct {
	Kind    string
	Run     string
	Payload interface{}
	At      time.Time
	Seq     int
}

func (e RunEvent) Type() string         { return e.Kind }
func (e RunEvent) RunID() string        { return e.Run }
func (e RunEvent) Data() interface{}    { return e.Payload }
func (e RunEvent) Timestamp() time.Time { return e.At }
func (e RunEvent) Sequence() int        { return e.Seq }

// NewEvent creates an unsequenced event of runID stamped with the current time
func NewEvent(eventType, runID string, data interface{}) Event {
	return RunEvent{
		Kind:    eventType,
		Run:     runID,
		Payload: data,
		At:      time.Now(),
	}
}

// PayloadAs returns the payload of e when it has type T
func PayloadAs[T any](e Event) (T, bool) {
	payload, ok := e.Data().(T)
	return payload, ok
}
