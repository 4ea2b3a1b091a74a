// Package ws is a WebSocket-backed Transport implementation, grounded on
// the teacher's cluster/handler.go handleWS/newWSConn pattern. Because
// WebSocket rides on TCP, every delivery mode collapses to
// reliable-ordered here; Unreliable and UnreliableSequenced sends still
// work, they just don't drop or reorder the way a real UDP-based
// transport would. That divergence is logged once per transport.
package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lonng/netrpc/internal/log"
	"github.com/lonng/netrpc/transport"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Transport is a host or client WebSocket transport. Construct one with
// New and call StartServer or StartClient, matching the Transport
// contract (a single instance plays one role for its lifetime).
type Transport struct {
	mu      sync.Mutex
	peers   map[transport.PeerID]*websocket.Conn
	nextID  uint32
	server  *http.Server
	conn    *websocket.Conn // client-side connection to the host
	stopped atomic.Bool
	warnedModeOnce sync.Once

	inbound chan inboundMsg
	events  chan event

	onConnected              func(transport.PeerID)
	onDisconnected           func(transport.PeerID)
	onData                   func([]byte, transport.PeerID)
	onConnectedToServer      func()
	onDisconnectedFromServer func()
}

type inboundMsg struct {
	data []byte
	from transport.PeerID
}

type eventKind int

const (
	evConnected eventKind = iota
	evDisconnected
	evConnectedToServer
	evDisconnectedFromServer
)

type event struct {
	kind eventKind
	peer transport.PeerID
}

// New creates an unstarted transport. Call StartServer xor StartClient.
func New() *Transport {
	return &Transport{
		peers:   make(map[transport.PeerID]*websocket.Conn),
		inbound: make(chan inboundMsg, 256),
		events:  make(chan event, 64),
	}
}

func (t *Transport) warnModeOnce() {
	t.warnedModeOnce.Do(func() {
		log.Info("ws transport: all delivery modes collapse to reliable-ordered over WebSocket")
	})
}

// StartServer begins listening for WebSocket upgrades on the given
// port. maxClients is advisory; connections beyond it are rejected at
// the HTTP handler.
func (t *Transport) StartServer(port int, maxClients int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.mu.Lock()
		full := maxClients > 0 && len(t.peers) >= maxClients
		t.mu.Unlock()
		if full {
			http.Error(w, "server full", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("ws transport: upgrade failed", err)
			return
		}
		t.acceptPeer(conn)
	})

	t.server = &http.Server{Addr: ":" + strconv.Itoa(port), Handler: mux}
	ln, err := net.Listen("tcp", t.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ws transport: serve error", err)
		}
	}()
	return nil
}

func (t *Transport) acceptPeer(conn *websocket.Conn) {
	t.mu.Lock()
	t.nextID++
	id := transport.PeerID(t.nextID)
	t.peers[id] = conn
	t.mu.Unlock()

	t.events <- event{kind: evConnected, peer: id}
	go t.readLoop(conn, id)
}

func (t *Transport) readLoop(conn *websocket.Conn, id transport.PeerID) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			delete(t.peers, id)
			t.mu.Unlock()
			t.events <- event{kind: evDisconnected, peer: id}
			return
		}
		t.inbound <- inboundMsg{data: data, from: id}
	}
}

// StartClient dials the host at hostID:port, where hostID is a bare
// hostname or IP forwarded without interpretation.
func (t *Transport) StartClient(hostID string, port int) error {
	url := "ws://" + net.JoinHostPort(hostID, strconv.Itoa(port)) + "/"
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(context.Background(), url, nil)
	if err != nil {
		return err
	}
	t.conn = conn
	t.events <- event{kind: evConnectedToServer}
	go t.clientReadLoop(conn)
	return nil
}

func (t *Transport) clientReadLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.events <- event{kind: evDisconnectedFromServer}
			return
		}
		t.inbound <- inboundMsg{data: data, from: 0}
	}
}

// Update drains pending connection events and inbound datagrams,
// invoking the registered callbacks synchronously. Never blocks.
func (t *Transport) Update() {
	for {
		select {
		case ev := <-t.events:
			t.dispatchEvent(ev)
		case m := <-t.inbound:
			if t.onData != nil {
				t.onData(m.data, m.from)
			}
		default:
			return
		}
	}
}

func (t *Transport) dispatchEvent(ev event) {
	switch ev.kind {
	case evConnected:
		if t.onConnected != nil {
			t.onConnected(ev.peer)
		}
	case evDisconnected:
		if t.onDisconnected != nil {
			t.onDisconnected(ev.peer)
		}
	case evConnectedToServer:
		if t.onConnectedToServer != nil {
			t.onConnectedToServer()
		}
	case evDisconnectedFromServer:
		if t.onDisconnectedFromServer != nil {
			t.onDisconnectedFromServer()
		}
	}
}

func (t *Transport) SendToClient(id transport.PeerID, data []byte, mode transport.DeliveryMode) error {
	if t.stopped.Load() {
		return nil
	}
	if mode != transport.Reliable {
		t.warnModeOnce()
	}
	t.mu.Lock()
	conn, ok := t.peers[id]
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *Transport) SendToAll(data []byte, mode transport.DeliveryMode) error {
	if t.stopped.Load() {
		return nil
	}
	if mode != transport.Reliable {
		t.warnModeOnce()
	}
	t.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(t.peers))
	for _, c := range t.peers {
		conns = append(conns, c)
	}
	t.mu.Unlock()
	var firstErr error
	for _, c := range conns {
		if err := c.WriteMessage(websocket.BinaryMessage, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *Transport) SendToServer(data []byte, mode transport.DeliveryMode) error {
	if t.stopped.Load() || t.conn == nil {
		return nil
	}
	if mode != transport.Reliable {
		t.warnModeOnce()
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *Transport) Stop() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	t.mu.Lock()
	for _, c := range t.peers {
		_ = c.Close()
	}
	t.peers = make(map[transport.PeerID]*websocket.Conn)
	t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
	if t.server != nil {
		_ = t.server.Close()
	}
}

func (t *Transport) OnClientConnected(fn func(transport.PeerID))      { t.onConnected = fn }
func (t *Transport) OnClientDisconnected(fn func(transport.PeerID))   { t.onDisconnected = fn }
func (t *Transport) OnDataReceived(fn func([]byte, transport.PeerID)) { t.onData = fn }
func (t *Transport) OnConnectedToServer(fn func())                    { t.onConnectedToServer = fn }
func (t *Transport) OnDisconnectedFromServer(fn func())               { t.onDisconnectedFromServer = fn }

var _ transport.Transport = (*Transport)(nil)
