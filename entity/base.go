package entity

import (
	"github.com/lonng/netrpc/registry"
	"github.com/lonng/netrpc/rpcmeta"
)

// Base is embedded by value in every networked entity type. It carries
// the identity fields the registry keys on (NetworkObjectID,
// OwnerClientID) and the plumbing Invoke needs to route a call: the
// emitter back to the owning Manager and this type's descriptor table,
// bound once at spawn time.
//
// Go has no proxy or virtual-dispatch mechanism, so interception does
// not live inside the entity's own methods. Application code that wants
// a remote-method call routed calls entity.Invoke(e, name, args...)
// instead of the method directly; Invoke decides whether to run the
// body locally, send it to the server, or broadcast it, and performs
// the body invocation itself via reflection when appropriate. The
// entity's method bodies stay plain business logic with no dispatcher
// guard of their own.
type Base struct {
	networkObjectID uint32
	ownerClientID   uint32
	typeName        string

	emitter     Emitter
	descriptors map[string]*registry.Descriptor
}

// NetworkObjectID satisfies registry.Entity.
func (b *Base) NetworkObjectID() uint32 { return b.networkObjectID }

// OwnerClientID satisfies registry.Entity.
func (b *Base) OwnerClientID() uint32 { return b.ownerClientID }

// SetNetworkObjectID is called once by the spawn protocol, either when
// assigning a freshly-allocated id (host) or when adopting the id from
// a received spawn frame (client).
func (b *Base) SetNetworkObjectID(id uint32) { b.networkObjectID = id }

// SetOwnerClientID is called once by the spawn protocol from the
// spawn frame's owner field (0 meaning host-owned).
func (b *Base) SetOwnerClientID(id uint32) { b.ownerClientID = id }

// TypeName is the fully-qualified name the spawn protocol advertises
// on the wire and resolves back through the factory registry.
func (b *Base) TypeName() string { return b.typeName }

// Attach wires a freshly-constructed entity into the framework. The
// spawn protocol calls it exactly once, before inserting the entity
// into the registry or invoking its spawn-hook.
func (b *Base) Attach(emitter Emitter, typeName string, descriptors map[string]*registry.Descriptor) {
	b.emitter = emitter
	b.typeName = typeName
	b.descriptors = descriptors
}

// Networked is implemented by every entity type: registry.Entity for
// identity, GetBase to reach the embedded Base, and RPCTable to
// declare its remote methods. Go has no attribute/annotation
// mechanism, so a type's remote-method table is explicit, self-declared
// data rather than something discovered by scanning for markers —
// spec.md §9's "explicit registration" resolution of how to express
// per-method annotations without attributes.
type Networked interface {
	registry.Entity
	GetBase() *Base
	RPCTable() []rpcmeta.Decl
	TypeName() string
}

// Spawnable is the spawn-hook interface. Every entity that embeds Base
// satisfies it through Base's no-op OnSpawn; a type that defines its own
// OnSpawn shadows that default.
type Spawnable interface {
	OnSpawn()
}

// OnSpawn is the default no-op spawn-hook. Entities that want to react
// to their own spawn (e.g. to initialize client-only view state)
// define their own OnSpawn method, which shadows this one — Go's usual
// substitute for an override.
func (b *Base) OnSpawn() {}
