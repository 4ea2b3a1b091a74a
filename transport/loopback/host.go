package loopback

import (
	"sync/atomic"

	"github.com/lonng/netrpc/transport"
)

type hostSide struct {
	network    *Network
	started    atomic.Bool
	stopped    atomic.Bool
	maxClients int

	onConnected    func(transport.PeerID)
	onDisconnected func(transport.PeerID)
	onData         func([]byte, transport.PeerID)
}

func (h *hostSide) StartServer(port int, maxClients int) error {
	h.network.mu.Lock()
	h.network.host = h
	h.network.maxClients = maxClients
	h.network.mu.Unlock()
	h.maxClients = maxClients
	h.started.Store(true)
	return nil
}

func (h *hostSide) StartClient(hostID string, port int) error {
	return errStopped // a host transport never dials out
}

func (h *hostSide) Update() {
	if h.stopped.Load() {
		return
	}
	h.network.mu.Lock()
	connects := h.network.pendingConnect
	h.network.pendingConnect = nil
	disconnects := h.network.pendingDisconnect
	h.network.pendingDisconnect = nil
	h.network.mu.Unlock()

	for _, p := range connects {
		if h.onConnected != nil {
			h.onConnected(p)
		}
	}
	for _, p := range disconnects {
		if h.onDisconnected != nil {
			h.onDisconnected(p)
		}
	}

	for _, m := range h.network.toHost.drain() {
		if h.onData != nil {
			h.onData(m.data, m.from)
		}
	}
}

func (h *hostSide) SendToClient(id transport.PeerID, data []byte, mode transport.DeliveryMode) error {
	if h.stopped.Load() {
		return nil
	}
	h.network.mu.Lock()
	c, ok := h.network.peers[id]
	h.network.mu.Unlock()
	if !ok {
		return nil
	}
	c.inbox.push(msg{data: append([]byte(nil), data...), from: 0, mode: mode})
	return nil
}

func (h *hostSide) SendToAll(data []byte, mode transport.DeliveryMode) error {
	if h.stopped.Load() {
		return nil
	}
	h.network.mu.Lock()
	peers := make([]*clientSide, 0, len(h.network.peers))
	for _, c := range h.network.peers {
		peers = append(peers, c)
	}
	h.network.mu.Unlock()
	for _, c := range peers {
		c.inbox.push(msg{data: append([]byte(nil), data...), from: 0, mode: mode})
	}
	return nil
}

func (h *hostSide) SendToServer(data []byte, mode transport.DeliveryMode) error {
	return errStopped // a host transport has no server to talk to
}

func (h *hostSide) Stop() {
	h.stopped.Store(true)
}

func (h *hostSide) OnClientConnected(fn func(transport.PeerID))    { h.onConnected = fn }
func (h *hostSide) OnClientDisconnected(fn func(transport.PeerID)) { h.onDisconnected = fn }
func (h *hostSide) OnDataReceived(fn func([]byte, transport.PeerID)) {
	h.onData = fn
}
func (h *hostSide) OnConnectedToServer(fn func())    {}
func (h *hostSide) OnDisconnectedFromServer(fn func()) {}
