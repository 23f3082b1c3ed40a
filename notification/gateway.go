package notification

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmailGateway records sent emails instead of delivering them. Used
// by tests and by deployments without a mail provider configured.
type InMemoryEmailGateway struct {
	mu     sync.Mutex
	sent   []Email
	logger *slog.Logger

	// FailWith, when set, makes every Send return this error.
	FailWith error
}

func NewInMemoryEmailGateway(logger *slog.Logger) *InMemoryEmailGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEmailGateway{logger: logger}
}

func (g *InMemoryEmailGateway) Send(ctx context.Context, email Email) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailWith != nil {
		return g.FailWith
	}
	g.sent = append(g.sent, email)
	g.logger.Info("email recorded",
		"kind", email.Kind,
		"recipients", len(email.Recipients),
	)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (g *InMemoryEmailGateway) Sent() []Email {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Email(nil), g.sent...)
}
