// Package rpcmeta declares the attribute metadata that marks an entity
// method as remote: which role may originate it, and under what
// delivery/ownership semantics. Go has no runtime method attributes, so
// the reference implementation's reflective annotations become the
// explicit per-entity registration strategy from the design notes:
// entities list their remote methods in their RPCTable method, built
// with ServerRPC and ClientRPC.
package rpcmeta

import "github.com/lonng/netrpc/transport"

// Kind is the originating attribute kind of a remote method.
type Kind int

const (
	// ServerBound methods run on the host; clients send them there.
	ServerBound Kind = iota
	// ClientBound methods run on clients; the host broadcasts them.
	ClientBound
)

func (k Kind) String() string {
	if k == ClientBound {
		return "ClientBound"
	}
	return "ServerBound"
}

// Decl is one entity method's remote-call declaration: its name, the
// role that originates it, and its ownership/delivery options. The
// defaults mirror the reference implementation's attribute defaults:
// ServerBound requires ownership by default, ClientBound does not; both
// default to Reliable delivery.
type Decl struct {
	Name             string
	Kind             Kind
	RequireOwnership bool
	Delivery         transport.DeliveryMode
}

// Option customizes a Decl away from its kind-specific defaults.
type Option func(*Decl)

// RequireOwnership overrides the default ownership requirement.
func RequireOwnership(require bool) Option {
	return func(d *Decl) { d.RequireOwnership = require }
}

// WithDelivery overrides the default delivery mode.
func WithDelivery(mode transport.DeliveryMode) Option {
	return func(d *Decl) { d.Delivery = mode }
}

// ServerRPC declares a server-bound remote method: clients call it,
// only the host executes it, ownership is required by default.
func ServerRPC(name string, opts ...Option) Decl {
	d := Decl{Name: name, Kind: ServerBound, RequireOwnership: true, Delivery: transport.Reliable}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ClientRPC declares a client-bound remote method: the host calls it,
// every client (and the host itself) executes it, ownership is not
// required by default.
func ClientRPC(name string, opts ...Option) Decl {
	d := Decl{Name: name, Kind: ClientBound, RequireOwnership: false, Delivery: transport.Reliable}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
