package notify

import (
	"fmt"
	"slices"
)

// Subscriber is a JSON-RPC endpoint interested in some events.
// An empty Events list means every event.
type Subscriber struct {
	Name     string
	Endpoint string
	Events   []string
}

// Registry indexes subscribers by event name.
type Registry struct {
	byEvent map[string][]Subscriber
}

// NewRegistry validates subs and indexes them. Unknown event names are rejected.
func NewRegistry(subs []Subscriber) (*Registry, error) {
	r := &Registry{byEvent: make(map[string][]Subscriber)}
	for _, s := range subs {
		events := s.Events
		if len(events) == 0 {
			events = Events
		}
		for _, e := range events {
			if !slices.Contains(Events, e) {
				return nil, fmt.Errorf("subscriber %q: unknown event %q", s.Name, e)
			}
			if !slices.ContainsFunc(r.byEvent[e], func(o Subscriber) bool { return o.Name == s.Name }) {
				r.byEvent[e] = append(r.byEvent[e], s)
			}
		}
	}
	return r, nil
}

// For returns the subscribers for event, in registration order.
func (r *Registry) For(event string) []Subscriber {
	return r.byEvent[event]
}
