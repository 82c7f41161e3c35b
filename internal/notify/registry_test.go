package notify

import (
	"strings"
	"testing"
)

func TestNewRegistry_IndexesByEvent(t *testing.T) {
	r, err := NewRegistry([]Subscriber{
		{Name: "bot", Endpoint: "http://bot/rpc", Events: []string{EventAvailabilityChanged}},
		{Name: "audit", Endpoint: "http://audit/rpc"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	got := r.For(EventAvailabilityChanged)
	if len(got) != 2 || got[0].Name != "bot" || got[1].Name != "audit" {
		t.Errorf("availability.changed: got %+v", got)
	}
	got = r.For(EventDatesAdded)
	if len(got) != 1 || got[0].Name != "audit" {
		t.Errorf("dates.added: got %+v", got)
	}
	if got := r.For("nothing"); len(got) != 0 {
		t.Errorf("unknown event: got %+v", got)
	}
}

func TestNewRegistry_RejectsUnknownEvent(t *testing.T) {
	_, err := NewRegistry([]Subscriber{{Name: "bot", Events: []string{"cell.written"}}})
	if err == nil || !strings.Contains(err.Error(), "unknown event") {
		t.Errorf("expected unknown event error, got %v", err)
	}
}

func TestNewRegistry_DuplicateEventListedOnce(t *testing.T) {
	r, err := NewRegistry([]Subscriber{{Name: "bot", Events: []string{EventDatesAdded, EventDatesAdded}}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := r.For(EventDatesAdded); len(got) != 1 {
		t.Errorf("got %d subscribers, want 1", len(got))
	}
}
