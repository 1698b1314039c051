// Package events defines the lifecycle events of one story generation run.
package events

import (
	"fmt"
	"time"
)

// EventType enumerates the lifecycle events a generation run can emit.
// Keeping the list small and explicit prevents accidental proliferation of
// loosely defined event names.
type EventType string

const (
	SessionStart  EventType = "SessionStart"
	ModelLoad     EventType = "ModelLoad"
	EngineStart   EventType = "EngineStart"
	EngineFinish  EventType = "EngineFinish"
	ArtifactSaved EventType = "ArtifactSaved"
	SessionEnd    EventType = "SessionEnd"
	Warning       EventType = "Warning"
)

// Event represents a single occurrence in a run. It is intentionally
// lightweight; any structured payloads are stored in the Payload field.
type Event struct {
	Type      EventType   // required
	Timestamp time.Time   // auto-populated when zero
	SessionID string      // session identifier from the logger
	Payload   interface{} // optional, type asserted by consumers
}

// Validate performs cheap sanity checks for consumers that need stronger
// contracts than the zero-value guarantees.
func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("events: missing type")
	}
	return nil
}

// Sink receives run events. Implementations must be safe for concurrent
// use; the engine calls them inline.
type Sink func(Event)

// Emit sends an event through the sink when one is wired, stamping the
// timestamp. A nil Sink drops events.
func (s Sink) Emit(sessionID string, typ EventType, payload interface{}) {
	if s == nil {
		return
	}
	s(Event{Type: typ, Timestamp: time.Now(), SessionID: sessionID, Payload: payload})
}

// SessionPayload signals session lifecycle transitions.
type SessionPayload struct {
	Dir string
}

// ModelLoadPayload is emitted after a model identifier resolves.
type ModelLoadPayload struct {
	Identifier string
	Provider   string
}

// EnginePayload describes an engine invocation.
type EnginePayload struct {
	Program  string
	ExitCode int
	Duration time.Duration
	Err      error
}

// ArtifactPayload points at a saved story artifact.
type ArtifactPayload struct {
	Path string
}

// WarningPayload transports non-fatal notices, such as dropped flags.
type WarningPayload struct {
	Message string
}
