// Package agency exposes the read model of the prescribing agencies a
// convention is attached to. Counsellor and validator addresses feed the
// notification subscribers.
package agency

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound signals the referenced agency does not exist.
var ErrNotFound = errors.New("agency: not found")

type Agency struct {
	ID               string
	Name             string
	CounsellorEmails []string
	ValidatorEmails  []string
}

// Reader provides read access to agency profiles.
type Reader interface {
	GetByID(ctx context.Context, id string) (Agency, error)
}

// InMemoryReader serves a fixed set of agencies; used in tests and in the
// in-memory wiring.
type InMemoryReader struct {
	mu   sync.RWMutex
	byID map[string]Agency
}

func NewInMemoryReader(agencies ...Agency) *InMemoryReader {
	r := &InMemoryReader{byID: make(map[string]Agency, len(agencies))}
	for _, a := range agencies {
		r.byID[a.ID] = a
	}
	return r
}

func (r *InMemoryReader) GetByID(ctx context.Context, id string) (Agency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return Agency{}, ErrNotFound
	}
	return a, nil
}
