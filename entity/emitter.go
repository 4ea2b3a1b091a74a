package entity

import "github.com/lonng/netrpc/transport"

// Emitter is the slice of Manager an entity's interceptor needs: role
// context plus the two outbound RPC paths. It is a separate interface
// (rather than entities depending on the netrpc package directly) to
// avoid an import cycle between entity and the top-level manager.
type Emitter interface {
	// IsHost reports whether the local process is the host.
	IsHost() bool
	// IsConnected reports whether a client-role process currently has
	// an established connection (Connected state). Meaningless (and
	// unused) on the host.
	IsConnected() bool
	// LocalClientID is this process's own client-id: 0 on the host,
	// the host-assigned id on a connected client.
	LocalClientID() uint32
	// SendToServer encodes and sends a server-bound RPC invocation.
	SendToServer(method string, id uint32, params []any, mode transport.DeliveryMode) error
	// Broadcast encodes and sends a client-bound RPC invocation to
	// every connected client.
	Broadcast(method string, id uint32, params []any, mode transport.DeliveryMode) error
}
