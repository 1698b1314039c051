package events

import "testing"

func TestValidateRequiresType(t *testing.T) {
	if err := (Event{}).Validate(); err == nil {
		t.Error("expected error for missing type")
	}
	if err := (Event{Type: EngineStart}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNilSinkDropsEvents(t *testing.T) {
	var s Sink
	s.Emit("session", Warning, WarningPayload{Message: "ignored flag"})
}

func TestSinkStampsTimestamp(t *testing.T) {
	var got Event
	s := Sink(func(e Event) { got = e })
	s.Emit("session", ArtifactSaved, ArtifactPayload{Path: "Story.md"})

	if got.Type != ArtifactSaved {
		t.Errorf("Type = %q, want %q", got.Type, ArtifactSaved)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
	if got.SessionID != "session" {
		t.Errorf("SessionID = %q", got.SessionID)
	}
}
