package registry

import (
	"context"
	"sync"

	"github.com/ballot-chain/ballot_chain/internal/identity"
)

type memoryRegistry struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRegistry builds an in-memory record store for testing.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{records: make(map[string]Record)}
}

func (r *memoryRegistry) Get(_ context.Context, email string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[identity.Normalize(email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

func (r *memoryRegistry) Put(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := identity.Normalize(record.Email)
	if _, exists := r.records[email]; exists {
		return ErrImmutable
	}
	record.Email = email
	r.records[email] = record
	return nil
}
