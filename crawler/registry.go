// Package crawler periodically drains the outbox: it fetches events without a
// success outcome, dispatches them to the subscribers registered for their
// topic, and appends one publication record per event and cycle. Delivery is
// at-least-once; downstream handlers are expected to be idempotent.
package crawler

import (
	"context"

	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

// Subscriber handles one dispatched event.
type Subscriber func(ctx context.Context, event outbox.DomainEvent) error

// Registry is the static topic-to-subscribers mapping, resolved once at
// startup. It is not safe for registration after the crawler starts.
type Registry struct {
	subscribers map[string][]Subscriber
}

func NewRegistry() *Registry {
	return &Registry{subscribers: make(map[string][]Subscriber)}
}

func (r *Registry) Register(topic string, sub Subscriber) {
	r.subscribers[topic] = append(r.subscribers[topic], sub)
}

// SubscribersFor returns the handlers registered for a topic; an empty result
// is not an error, the crawler treats such events as no-ops.
func (r *Registry) SubscribersFor(topic string) []Subscriber {
	return r.subscribers[topic]
}
