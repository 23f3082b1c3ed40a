package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
)

// Factory builds domain events with a fresh identity, the injected clock's
// current time, and an empty publication history. It never persists anything;
// saving the event inside the caller's transaction is the caller's job.
type Factory struct {
	clk clock.Clock
}

func NewFactory(clk clock.Clock) Factory {
	return Factory{clk: clk}
}

func (f Factory) Create(topic string, payload any) (DomainEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("outbox: marshal payload for %s: %w", topic, err)
	}
	return DomainEvent{
		ID:           uuid.NewString(),
		OccurredAt:   f.clk.Now(),
		Topic:        topic,
		Payload:      raw,
		Publications: []Publication{},
	}, nil
}
