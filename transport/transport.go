// Package transport specifies the datagram transport contract the
// manager drives each tick. Only the interface is specified here; two
// reference implementations live in the sibling transport/loopback and
// transport/ws packages.
package transport

// DeliveryMode selects how a frame should be delivered.
type DeliveryMode int

const (
	// Reliable delivers frames in send order, guaranteed.
	Reliable DeliveryMode = iota
	// Unreliable delivers frames best-effort, no ordering guarantee.
	Unreliable
	// UnreliableSequenced delivers frames best-effort, dropping any
	// frame older than the most recently delivered one on the same
	// channel; never retransmitted.
	UnreliableSequenced
)

func (m DeliveryMode) String() string {
	switch m {
	case Reliable:
		return "Reliable"
	case Unreliable:
		return "Unreliable"
	case UnreliableSequenced:
		return "UnreliableSequenced"
	default:
		return "Unknown"
	}
}

// PeerID identifies a connected peer from the transport's point of
// view. The manager maps these to its own client-ids; the transport
// never interprets them.
type PeerID uint32

// Transport abstracts connection lifecycle and datagram send/receive
// over an unreliable-datagram-shaped channel. Implementations are
// driven exclusively from the manager's Update loop; event callbacks
// set below must not be invoked concurrently with each other, though
// they may originate from a transport-owned goroutine (e.g. a socket
// read pump) — see the package doc of the concrete implementation for
// its specific threading contract.
type Transport interface {
	// StartServer begins listening for inbound connections.
	StartServer(port int, maxClients int) error
	// StartClient begins connecting to a remote host. hostID is an
	// opaque value (hostname, IP, URL) forwarded to the implementation
	// without interpretation.
	StartClient(hostID string, port int) error
	// Update performs one non-blocking poll of pending transport
	// events, invoking the callbacks below synchronously. It never
	// blocks.
	Update()
	// SendToClient delivers data to a single connected peer (host
	// side).
	SendToClient(id PeerID, data []byte, mode DeliveryMode) error
	// SendToAll delivers data to every connected peer (host side).
	SendToAll(data []byte, mode DeliveryMode) error
	// SendToServer delivers data to the host (client side).
	SendToServer(data []byte, mode DeliveryMode) error
	// Stop tears down the transport; subsequent sends are no-ops.
	Stop()

	// OnClientConnected fires (host side) when a new peer completes its
	// transport-level handshake.
	OnClientConnected(fn func(peer PeerID))
	// OnClientDisconnected fires (host side) when a peer disconnects.
	OnClientDisconnected(fn func(peer PeerID))
	// OnDataReceived fires whenever a datagram arrives, tagged with its
	// sender. On the client side, sender is always 0 (the host).
	OnDataReceived(fn func(data []byte, sender PeerID))
	// OnConnectedToServer fires (client side) once the transport-level
	// connection to the host is established.
	OnConnectedToServer(fn func())
	// OnDisconnectedFromServer fires (client side) on transport
	// failure or explicit Stop.
	OnDisconnectedFromServer(fn func())
}
