// Package registry is the process-wide map from network-object-id to
// entity, plus the per-type cache of each entity type's RPC
// descriptors. It is mutated only on the driver thread (see the
// concurrency model in SPEC_FULL.md §5) and therefore holds no internal
// locks of its own.
package registry

import "errors"

// Entity is the minimal shape the registry needs from a networked
// entity: a stable identity and owner. entity.Base satisfies this.
type Entity interface {
	NetworkObjectID() uint32
	OwnerClientID() uint32
}

// ErrReservedID is returned by Insert for network-object-id 0, which
// spec.md §3 reserves and never assigns.
var ErrReservedID = errors.New("registry: network-object-id 0 is reserved")

// Registry maps network-object-id to entity. The zero value is not
// usable; use New.
type Registry struct {
	entities map[uint32]Entity
	order    []uint32 // insertion order, for deterministic All()/late-join replay
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entities: make(map[uint32]Entity)}
}

// Get returns the entity bound to id, or nil if none is registered.
func (r *Registry) Get(id uint32) Entity {
	return r.entities[id]
}

// All returns every registered entity, in the order entities were
// inserted (stable for late-joiner spawn replay).
func (r *Registry) All() []Entity {
	out := make([]Entity, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.entities[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Insert binds e to id, replacing any prior binding at that id
// silently — used by the spawn protocol when a locally-assigned id is
// reassigned to the host's id for the same entity.
func (r *Registry) Insert(e Entity, id uint32) error {
	if id == 0 {
		return ErrReservedID
	}
	if _, exists := r.entities[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entities[id] = e
	return nil
}

// Remove unbinds id, if present.
func (r *Registry) Remove(id uint32) {
	if _, ok := r.entities[id]; !ok {
		return
	}
	delete(r.entities, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether id is currently bound to an entity.
func (r *Registry) Contains(id uint32) bool {
	_, ok := r.entities[id]
	return ok
}
