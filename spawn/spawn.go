// Package spawn implements the spawn protocol from spec.md §4.4: host-
// initiated entity creation, idempotent receipt on every other process,
// and late-joiner replay of already-spawned entities.
package spawn

import (
	"fmt"
	"reflect"

	"github.com/lonng/netrpc/entity"
	"github.com/lonng/netrpc/registry"
	"github.com/lonng/netrpc/wire"
)

// Coordinator drives the spawn protocol. A Manager owns exactly one
// Coordinator, sharing its Registry and DescriptorCache with the rest
// of the RPC dispatch path.
type Coordinator struct {
	registry    *registry.Registry
	descriptors *registry.DescriptorCache
	allocator   registry.IDAllocator
}

// NewCoordinator builds a Coordinator over the given shared state.
func NewCoordinator(reg *registry.Registry, descriptors *registry.DescriptorCache, allocator registry.IDAllocator) *Coordinator {
	return &Coordinator{registry: reg, descriptors: descriptors, allocator: allocator}
}

// HostSpawn is called only on the host. It allocates a fresh
// network-object-id, constructs the entity via its registered factory,
// attaches it, inserts it into the registry, fires its spawn-hook, and
// returns the wire frame the caller must broadcast reliably to every
// connected client.
func (c *Coordinator) HostSpawn(typeName string, owner uint32, emitter entity.Emitter) (entity.Networked, []byte, error) {
	factory, err := entity.Lookup(typeName)
	if err != nil {
		return nil, nil, err
	}

	e := factory()
	id := c.allocator.Next()
	if err := c.attachAndInsert(e, typeName, id, owner, emitter); err != nil {
		return nil, nil, err
	}

	frame := wire.EncodeSpawn(typeName, id, owner)
	fireSpawnHook(e)
	return e, frame, nil
}

// Receive handles an inbound spawn frame on a non-host process (or a
// host replaying its own broadcast, harmlessly). It is idempotent: a
// network-object-id already present in the registry is left alone and
// receive returns the existing entity rather than constructing a
// duplicate, since retransmission or a race between direct send and
// late-joiner sync can otherwise deliver the same spawn twice.
func (c *Coordinator) Receive(data []byte, emitter entity.Emitter) (entity.Networked, error) {
	typeName, id, owner, err := wire.DecodeSpawn(data)
	if err != nil {
		return nil, err
	}

	if existing := c.registry.Get(id); existing != nil {
		if n, ok := existing.(entity.Networked); ok {
			return n, nil
		}
		return nil, fmt.Errorf("spawn: network-object-id %d already holds a non-networked entity", id)
	}

	factory, err := entity.Lookup(typeName)
	if err != nil {
		return nil, err
	}

	e := factory()
	if err := c.attachAndInsert(e, typeName, id, owner, emitter); err != nil {
		return nil, err
	}

	fireSpawnHook(e)
	return e, nil
}

// ReplayFrames returns an EncodeSpawn frame for every entity currently
// in the registry, in insertion order, for a late joiner's
// reliable-ordered sync. The caller is responsible for sending them.
func (c *Coordinator) ReplayFrames() [][]byte {
	all := c.registry.All()
	frames := make([][]byte, 0, len(all))
	for _, e := range all {
		n, ok := e.(entity.Networked)
		if !ok {
			continue
		}
		frames = append(frames, wire.EncodeSpawn(n.TypeName(), n.NetworkObjectID(), n.OwnerClientID()))
	}
	return frames
}

func (c *Coordinator) attachAndInsert(e entity.Networked, typeName string, id, owner uint32, emitter entity.Emitter) error {
	base := e.GetBase()
	descs, err := c.descriptors.CacheDescriptors(reflect.TypeOf(e), e.RPCTable())
	if err != nil {
		return err
	}
	base.SetNetworkObjectID(id)
	base.SetOwnerClientID(owner)
	base.Attach(emitter, typeName, descs)
	return c.registry.Insert(e, id)
}

func fireSpawnHook(e entity.Networked) {
	if s, ok := e.(entity.Spawnable); ok {
		s.OnSpawn()
	}
}
