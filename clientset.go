package netrpc

import (
	"sync"
	"sync/atomic"

	"github.com/lonng/netrpc/internal/env"
	"github.com/lonng/netrpc/internal/log"
	"github.com/lonng/netrpc/transport"
)

const (
	clientSetStatusWorking = 0
	clientSetStatusClosed  = 1
)

// clientRecord is one connected client as tracked by the host.
type clientRecord struct {
	clientID uint32
	peer     transport.PeerID
}

// clientSet is group.Group adapted to this domain: instead of indexing
// *session.Session by session id for multicast, it indexes clientRecord
// by client-id, reusing the teacher's sync.RWMutex-guarded map plus
// closed-flag shape.
type clientSet struct {
	status  atomic.Int32
	mu      sync.RWMutex
	clients map[uint32]clientRecord
}

func newClientSet() *clientSet {
	cs := &clientSet{clients: make(map[uint32]clientRecord)}
	cs.status.Store(clientSetStatusWorking)
	return cs
}

func (cs *clientSet) Add(rec clientRecord) error {
	if cs.IsClosed() {
		return ErrClosedClientSet
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.clients[rec.clientID]; ok {
		return ErrClientDuplication
	}
	cs.clients[rec.clientID] = rec

	if env.Debug {
		log.Info("netrpc: client set add, ClientID=%d", rec.clientID)
	}
	return nil
}

func (cs *clientSet) Remove(clientID uint32) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.clients, clientID)
}

func (cs *clientSet) Get(clientID uint32) (clientRecord, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	rec, ok := cs.clients[clientID]
	return rec, ok
}

// ClientIDByPeer resolves the transport-level peer that just sent a
// datagram back to the client-id the host assigned it at connect time.
func (cs *clientSet) ClientIDByPeer(peer transport.PeerID) (uint32, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, rec := range cs.clients {
		if rec.peer == peer {
			return rec.clientID, true
		}
	}
	return 0, false
}

func (cs *clientSet) Count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.clients)
}

// Each walks every client in unspecified order; fn returning false
// stops the walk early.
func (cs *clientSet) Each(fn func(clientRecord) bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, rec := range cs.clients {
		if !fn(rec) {
			return
		}
	}
}

func (cs *clientSet) IsClosed() bool {
	return cs.status.Load() == clientSetStatusClosed
}

func (cs *clientSet) Close() {
	if !cs.status.CompareAndSwap(clientSetStatusWorking, clientSetStatusClosed) {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.clients = make(map[uint32]clientRecord)
}
