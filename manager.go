// Package netrpc is a lightweight, single-threaded RPC layer for
// networked objects: a host broadcasts entity spawns and owns
// server-bound invocation, clients own their view of the world and
// may invoke server-bound methods on entities they own. See the
// entity, registry, spawn, and wire packages for the pieces Manager
// assembles.
package netrpc

import (
	"reflect"
	"sync/atomic"

	"github.com/lonng/netrpc/entity"
	"github.com/lonng/netrpc/internal/env"
	"github.com/lonng/netrpc/internal/log"
	"github.com/lonng/netrpc/registry"
	"github.com/lonng/netrpc/rpcmeta"
	"github.com/lonng/netrpc/spawn"
	"github.com/lonng/netrpc/transport"
	"github.com/lonng/netrpc/wire"
)

// ClientID identifies one connected client. The host is always 0; the
// host assigns 1, 2, 3, ... to clients in connection order.
type ClientID = uint32

// State is a position in the connection state machine from spec.md
// §4.5: Uninitialized → Hosting / Connecting → Connected → (Stop) →
// Uninitialized.
type State int32

const (
	Uninitialized State = iota
	Hosting
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Hosting:
		return "Hosting"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Manager owns the transport, the entity registry, the spawn protocol,
// and the set of connected clients, driving all of them from a single
// goroutine's Update calls — grounded on the teacher's Engine/
// cluster.Node split, collapsed to a single process role instead of a
// cluster of nodes.
type Manager struct {
	opts *managerOptions

	state   atomic.Int32
	tr      transport.Transport
	reg     *registry.Registry
	descs   *registry.DescriptorCache
	spawner *spawn.Coordinator
	clients *clientSet

	localClientID atomic.Uint32 // 0 on host; assigned on client once ClientAssign arrives
	nextClientID  atomic.Uint32 // host-side counter, starts handing out ids at 1
}

// NewManager builds a Manager in the Uninitialized state.
func NewManager(opts ...Option) *Manager {
	o := defaultManagerOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Manager{
		opts:    o,
		reg:     registry.New(),
		descs:   registry.NewDescriptorCache(),
		clients: newClientSet(),
	}
	m.spawner = spawn.NewCoordinator(m.reg, m.descs, o.allocator)
	m.state.Store(int32(Uninitialized))
	return m
}

// State returns the manager's current connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsHost satisfies entity.Emitter.
func (m *Manager) IsHost() bool {
	return m.State() == Hosting
}

// IsConnected satisfies entity.Emitter: true only once a client has
// received its client-id assignment.
func (m *Manager) IsConnected() bool {
	return m.State() == Connected
}

// LocalClientID satisfies entity.Emitter.
func (m *Manager) LocalClientID() uint32 {
	return m.localClientID.Load()
}

// StartServer transitions Uninitialized → Hosting and begins listening.
func (m *Manager) StartServer(tr transport.Transport, port int, maxClients int) error {
	if !m.state.CompareAndSwap(int32(Uninitialized), int32(Hosting)) {
		return ErrAlreadyRunning
	}

	m.tr = tr
	tr.OnClientConnected(m.handleClientConnected)
	tr.OnClientDisconnected(m.handleClientDisconnected)
	tr.OnDataReceived(m.handleData)

	if err := tr.StartServer(port, maxClients); err != nil {
		m.state.Store(int32(Uninitialized))
		return err
	}
	log.Info("netrpc: hosting on port %d", port)
	return nil
}

// StartClient transitions Uninitialized → Connecting and begins
// connecting to hostID:port. The state advances to Connected once the
// handshake's client-id assignment frame arrives.
func (m *Manager) StartClient(tr transport.Transport, hostID string, port int) error {
	if !m.state.CompareAndSwap(int32(Uninitialized), int32(Connecting)) {
		return ErrAlreadyRunning
	}

	m.tr = tr
	tr.OnConnectedToServer(m.handleConnectedToServer)
	tr.OnDisconnectedFromServer(m.handleDisconnectedFromServer)
	tr.OnDataReceived(m.handleData)

	if err := tr.StartClient(hostID, port); err != nil {
		m.state.Store(int32(Uninitialized))
		return err
	}
	log.Info("netrpc: connecting to %s:%d", hostID, port)
	return nil
}

// Update drains one batch of pending transport events. The caller
// drives this from its own game loop or tick timer; every registry
// mutation and RPC dispatch happens synchronously inside this call, on
// whatever goroutine calls it — see the package doc for the concurrency
// contract this provides.
func (m *Manager) Update() {
	if m.tr == nil {
		return
	}
	m.tr.Update()
}

// Stop tears down the transport and resets the manager to
// Uninitialized, ready to Start again.
func (m *Manager) Stop() error {
	if m.tr == nil {
		return ErrNotRunning
	}
	m.tr.Stop()
	m.tr = nil
	m.clients.Close()
	m.clients = newClientSet()
	m.localClientID.Store(0)
	m.state.Store(int32(Uninitialized))
	return nil
}

// Spawn is host-only: it allocates a network-object-id for typeName,
// constructs the entity via its registered factory, inserts it into the
// registry, and broadcasts the spawn frame reliably to every connected
// client.
func (m *Manager) Spawn(typeName string, owner ClientID) (entity.Networked, error) {
	if m.State() != Hosting {
		return nil, ErrNotHost
	}

	e, frame, err := m.spawner.HostSpawn(typeName, owner, m)
	if err != nil {
		return nil, err
	}

	if err := m.tr.SendToAll(frame, transport.Reliable); err != nil {
		log.Error("netrpc: broadcast spawn frame: %v", err)
	}
	return e, nil
}

// --- entity.Emitter outbound paths -------------------------------------

// SendToServer satisfies entity.Emitter: encode and send a server-bound
// invocation to the host. Only meaningful on a client.
func (m *Manager) SendToServer(method string, id uint32, params []any, mode transport.DeliveryMode) error {
	frame, err := wire.EncodeRPC(method, id, params)
	if err != nil {
		return err
	}
	if frame, err = m.opts.pipeline.Outbound().Process(frame); err != nil {
		return err
	}
	return m.tr.SendToServer(frame, mode)
}

// Broadcast satisfies entity.Emitter: encode and send a client-bound
// invocation to every connected client. Only meaningful on the host.
func (m *Manager) Broadcast(method string, id uint32, params []any, mode transport.DeliveryMode) error {
	frame, err := wire.EncodeRPC(method, id, params)
	if err != nil {
		return err
	}
	if frame, err = m.opts.pipeline.Outbound().Process(frame); err != nil {
		return err
	}
	return m.tr.SendToAll(frame, mode)
}

// --- transport event handlers -------------------------------------

func (m *Manager) handleClientConnected(peer transport.PeerID) {
	id := m.nextClientID.Add(1)
	if err := m.clients.Add(clientRecord{clientID: id, peer: peer}); err != nil {
		log.Error("netrpc: add client %d: %v", id, err)
		return
	}

	if err := m.tr.SendToClient(peer, wire.EncodeClientAssign(id), transport.Reliable); err != nil {
		log.Error("netrpc: send client-assign to peer %d: %v", peer, err)
		return
	}

	// Late-joiner sync: replay every already-spawned entity in
	// insertion order over a reliable-ordered channel.
	for _, frame := range m.spawner.ReplayFrames() {
		if err := m.tr.SendToClient(peer, frame, transport.Reliable); err != nil {
			log.Error("netrpc: replay spawn to peer %d: %v", peer, err)
		}
	}

	if env.Debug {
		log.Info("netrpc: client connected, ClientID=%d, Peer=%d", id, peer)
	}
	if m.opts.onClientConnected != nil {
		m.opts.onClientConnected(id)
	}
}

func (m *Manager) handleClientDisconnected(peer transport.PeerID) {
	var found ClientID
	var ok bool
	m.clients.Each(func(rec clientRecord) bool {
		if rec.peer == peer {
			found, ok = rec.clientID, true
			return false
		}
		return true
	})
	if !ok {
		return
	}
	m.clients.Remove(found)
	if env.Debug {
		log.Info("netrpc: client disconnected, ClientID=%d", found)
	}
	if m.opts.onClientDisconnected != nil {
		m.opts.onClientDisconnected(found)
	}
}

func (m *Manager) handleConnectedToServer() {
	if env.Debug {
		log.Info("netrpc: transport connected to server, awaiting client-id assignment")
	}
}

func (m *Manager) handleDisconnectedFromServer() {
	m.state.Store(int32(Uninitialized))
	m.localClientID.Store(0)
	if m.opts.onDisconnectedFromServer != nil {
		m.opts.onDisconnectedFromServer()
	}
}

// handleData is the single entry point every inbound datagram is fed
// through — the handshake / client-assign / spawn / RPC classification
// from spec.md §4.5.
func (m *Manager) handleData(data []byte, sender transport.PeerID) {
	if m.opts.pipeline != nil {
		var err error
		if data, err = m.opts.pipeline.Inbound().Process(data); err != nil {
			log.Error("netrpc: inbound pipeline rejected frame: %v", err)
			return
		}
	}

	switch {
	case wire.IsHandshake(data):
		// Ping: nothing to do beyond having routed it away from RPC
		// handling.
		return

	case wire.IsClientAssign(data):
		m.handleClientAssign(data)

	case wire.IsSpawn(data):
		m.handleSpawn(data)

	default:
		m.handleRPC(data, sender)
	}
}

func (m *Manager) handleClientAssign(data []byte) {
	if m.State() != Connecting {
		// A handshake must precede any RPC addressed to this client;
		// an assignment received outside Connecting is out of order.
		return
	}
	id, err := wire.DecodeClientAssign(data)
	if err != nil {
		log.Error("netrpc: decode client-assign: %v", err)
		return
	}
	m.localClientID.Store(id)
	m.state.Store(int32(Connected))
	log.Info("netrpc: assigned client-id %d", id)
	if m.opts.onConnectedToServer != nil {
		m.opts.onConnectedToServer()
	}
}

func (m *Manager) handleSpawn(data []byte) {
	if _, err := m.spawner.Receive(data, m); err != nil {
		log.Error("netrpc: spawn receipt: %v", err)
	}
}

func (m *Manager) handleRPC(data []byte, sender transport.PeerID) {
	method, id, params, err := wire.DecodeRPC(data)
	if err != nil {
		log.Error("netrpc: decode rpc frame: %v", err)
		return
	}

	raw := m.reg.Get(id)
	if raw == nil {
		log.Error("netrpc: rpc %s targets unknown network-object-id %d", method, id)
		return
	}
	target, ok := raw.(entity.Networked)
	if !ok {
		log.Error("netrpc: network-object-id %d is not a networked entity", id)
		return
	}

	descs := m.descs.Lookup(reflect.TypeOf(target))
	d, ok := descs[method]
	if !ok {
		log.Error("netrpc: network-object-id %d has no declared remote method %q", id, method)
		return
	}

	// The frame's declared attribute must match the role it arrived on:
	// a server-bound method only ever runs on the host, a client-bound
	// method only ever runs on a client.
	host := m.IsHost()
	if d.Decl.Kind == rpcmeta.ServerBound && !host {
		log.Error("netrpc: %s#%d.%s is server-bound, dropping frame received on a client", target.TypeName(), id, method)
		return
	}
	if d.Decl.Kind == rpcmeta.ClientBound && host {
		log.Error("netrpc: %s#%d.%s is client-bound, dropping frame received on the host", target.TypeName(), id, method)
		return
	}

	// Only the host can be spoofed by a non-owning sender; a client only
	// ever receives client-bound frames from the host, which is always
	// trusted. A server-bound frame gets here only on the host (the role
	// gate above drops it on a client), so only that case is checked.
	if d.Decl.Kind == rpcmeta.ServerBound && d.Decl.RequireOwnership {
		senderClientID, ok := m.clients.ClientIDByPeer(sender)
		if !ok {
			log.Error("netrpc: rpc %s#%d.%s from unknown peer %d, dropping", target.TypeName(), id, method, sender)
			return
		}
		if senderClientID != target.OwnerClientID() {
			if env.Debug {
				log.Info("netrpc: rpc %s#%d.%s from non-owner ClientID=%d (owner=%d), dropping", target.TypeName(), id, method, senderClientID, target.OwnerClientID())
			}
			return
		}
	}

	if len(params) != len(d.ParamTypes) {
		log.Error("netrpc: rpc %s#%d.%s got %d params, want %d, dropping", target.TypeName(), id, method, len(params), len(d.ParamTypes))
		return
	}

	values := make([]reflect.Value, len(params))
	for i, p := range params {
		v, err := wire.Convert(p, d.ParamTypes[i])
		if err != nil {
			log.Error("netrpc: convert param %d of %s: %v", i, method, err)
			return
		}
		values[i] = v
	}

	if err := entity.DispatchValues(target, method, values); err != nil {
		log.Error("netrpc: invoke %s#%d.%s: %v", target.TypeName(), id, method, err)
	}
}
