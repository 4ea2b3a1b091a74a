// Package loopback is an in-process Transport implementation connecting
// a host and any number of clients through mutex-guarded in-memory
// mailboxes that each side drains in its Update, grounded on the
// teacher's test/mock network stand-ins. It is the reference transport
// this repo's own end-to-end tests drive, and doubles as a way to embed
// a host and a local bot client in a single process.
package loopback

import (
	"errors"
	"sync"

	"github.com/lonng/netrpc/transport"
)

// Network is the shared medium a host and its clients are attached to.
// One Network models one UDP-socket-shaped namespace; tests typically
// create one Network per scenario.
type Network struct {
	mu         sync.Mutex
	host       *hostSide
	maxClients int
	nextPeer   uint32
	peers      map[transport.PeerID]*clientSide

	pendingConnect    []transport.PeerID
	pendingDisconnect []transport.PeerID
	toHost            mailbox
}

// NewNetwork creates an empty shared medium.
func NewNetwork() *Network {
	return &Network{peers: make(map[transport.PeerID]*clientSide)}
}

// Host returns a new host-side Transport bound to this network. Only
// one host may be started per Network.
func (n *Network) Host() transport.Transport {
	h := &hostSide{network: n}
	return h
}

// Client returns a new client-side Transport bound to this network.
func (n *Network) Client() transport.Transport {
	return &clientSide{network: n}
}

type msg struct {
	data []byte
	from transport.PeerID
	mode transport.DeliveryMode
}

// mailbox is a per-direction inbound queue with no capacity limit.
// Pushing an UnreliableSequenced entry discards every earlier undelivered
// UnreliableSequenced entry, the sequenced-drop-old behavior spec.md §9
// asks implementers to prefer.
type mailbox struct {
	mu  sync.Mutex
	buf []msg
}

func (m *mailbox) push(x msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x.mode == transport.UnreliableSequenced {
		kept := m.buf[:0]
		for _, e := range m.buf {
			if e.mode != transport.UnreliableSequenced {
				kept = append(kept, e)
			}
		}
		m.buf = kept
	}
	m.buf = append(m.buf, x)
}

func (m *mailbox) drain() []msg {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.buf
	m.buf = nil
	return out
}

var errStopped = errors.New("loopback: transport is stopped")
