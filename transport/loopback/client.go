package loopback

import (
	"errors"
	"sync/atomic"

	"github.com/lonng/netrpc/transport"
)

type clientSide struct {
	network *Network
	peer    transport.PeerID
	stopped atomic.Bool

	connectPending atomic.Bool
	inbox          mailbox

	onConnected     func()
	onDisconnected  func()
	onData          func([]byte, transport.PeerID)
}

func (c *clientSide) StartServer(port int, maxClients int) error {
	return errors.New("loopback: client transport cannot StartServer")
}

func (c *clientSide) StartClient(hostID string, port int) error {
	n := c.network
	n.mu.Lock()
	if n.host == nil {
		n.mu.Unlock()
		return errors.New("loopback: no host listening on this network")
	}
	if n.maxClients > 0 && len(n.peers) >= n.maxClients {
		n.mu.Unlock()
		return errors.New("loopback: host at max clients")
	}
	n.nextPeer++
	id := transport.PeerID(n.nextPeer)
	n.peers[id] = c
	n.pendingConnect = append(n.pendingConnect, id)
	n.mu.Unlock()

	c.peer = id
	c.connectPending.Store(true)
	return nil
}

func (c *clientSide) Update() {
	if c.stopped.Load() {
		return
	}
	if c.connectPending.CompareAndSwap(true, false) {
		if c.onConnected != nil {
			c.onConnected()
		}
	}
	for _, m := range c.inbox.drain() {
		if c.onData != nil {
			c.onData(m.data, 0)
		}
	}
}

func (c *clientSide) SendToClient(id transport.PeerID, data []byte, mode transport.DeliveryMode) error {
	return errors.New("loopback: client transport cannot address other clients")
}

func (c *clientSide) SendToAll(data []byte, mode transport.DeliveryMode) error {
	return errors.New("loopback: client transport cannot broadcast")
}

func (c *clientSide) SendToServer(data []byte, mode transport.DeliveryMode) error {
	if c.stopped.Load() {
		return nil
	}
	c.network.toHost.push(msg{data: append([]byte(nil), data...), from: c.peer, mode: mode})
	return nil
}

func (c *clientSide) Stop() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	n := c.network
	n.mu.Lock()
	delete(n.peers, c.peer)
	n.pendingDisconnect = append(n.pendingDisconnect, c.peer)
	n.mu.Unlock()
	if c.onDisconnected != nil {
		c.onDisconnected()
	}
}

func (c *clientSide) OnClientConnected(fn func(transport.PeerID))    {}
func (c *clientSide) OnClientDisconnected(fn func(transport.PeerID)) {}
func (c *clientSide) OnDataReceived(fn func([]byte, transport.PeerID)) {
	c.onData = fn
}
func (c *clientSide) OnConnectedToServer(fn func())    { c.onConnected = fn }
func (c *clientSide) OnDisconnectedFromServer(fn func()) { c.onDisconnected = fn }
