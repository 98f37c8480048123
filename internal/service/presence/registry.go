// internal/service/presence/registry.go

package presence

import (
	domain "hershield/internal/domain/presence"
)

// Registry is the in-memory session registry: one record per currently
// reporting identity. It is owned by the hub's dispatch serialization
// point and is deliberately unsynchronized; a dispatcher that runs
// handlers concurrently must wrap it in its own lock.
type Registry struct {
	records map[string]domain.Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]domain.Record),
	}
}

// Upsert inserts or replaces the record for identity. Last writer wins.
func (r *Registry) Upsert(identity string, loc domain.Location) domain.Record {
	rec := domain.Record{Identity: identity, Location: loc}
	r.records[identity] = rec
	return rec
}

// Remove deletes the record for identity, reporting whether one
// existed. Removing an absent identity is a no-op.
func (r *Registry) Remove(identity string) bool {
	if _, ok := r.records[identity]; !ok {
		return false
	}
	delete(r.records, identity)
	return true
}

// Len returns the number of currently reporting identities.
func (r *Registry) Len() int {
	return len(r.records)
}
