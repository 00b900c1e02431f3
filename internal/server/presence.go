package server

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/wire"
)

// HostPeer is the presence id under which the local hands are relayed.
const HostPeer = "host"

// clientBuffer bounds the outbound queue of one presence client. A client
// that falls behind misses messages.
const clientBuffer = 32

// PeerSink receives the remote peers seen on the presence channel and
// publishes the local snapshot.
type PeerSink interface {
	SubmitPeer(id string, snap wire.Snapshot)
	RemovePeer(id string)
	SyncPeers(ids []string)
	Subscribe() (<-chan wire.Snapshot, func())
}

type presenceClient struct {
	id     string
	conn   *websocket.Conn
	send   chan wire.Presence
	binary atomic.Bool
}

// PresenceHub relays hand snapshots between presence clients at
// /api/presence. Each connection is one peer with a server-assigned id;
// the local app joins as HostPeer. Binary frames carry msgpack, text frames
// JSON, and each client is answered in the format it last used.
type PresenceHub struct {
	sink PeerSink
	log  *slog.Logger

	mu      sync.RWMutex
	clients map[string]*presenceClient

	stop chan struct{}
	once sync.Once
}

// NewPresenceHub creates a hub and starts relaying the local snapshot.
func NewPresenceHub(sink PeerSink, log *slog.Logger) *PresenceHub {
	h := &PresenceHub{
		sink:    sink,
		log:     log,
		clients: make(map[string]*presenceClient),
		stop:    make(chan struct{}),
	}
	go h.relayHost()
	return h
}

// ServeHTTP upgrades a presence client and serves it until it leaves.
func (h *PresenceHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("server: presence websocket upgrade", "error", err)
		return
	}

	c := &presenceClient{id: uuid.New().String(), conn: conn, send: make(chan wire.Presence, clientBuffer)}
	c.binary.Store(true)
	done := make(chan struct{})
	go h.writePump(c, done)

	h.join(c)
	h.readPump(c)
	h.leave(c)

	close(c.send)
	<-done
	conn.Close()
}

func (h *PresenceHub) join(c *presenceClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Info("server: presence peer joined", "peer", c.id)
	h.announce()
}

func (h *PresenceHub) leave(c *presenceClient) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	h.sink.RemovePeer(c.id)
	h.broadcast(wire.Presence{Type: wire.TypeLeave, Peer: c.id}, "")
	h.log.Info("server: presence peer left", "peer", c.id)
	h.announce()
}

// announce sends the full peer set to every client and prunes the local
// mirror to it.
func (h *PresenceHub) announce() {
	ids := h.peerIDs()
	h.sink.SyncPeers(ids)
	h.broadcast(wire.Presence{Type: wire.TypePeers, Peers: append([]string{HostPeer}, ids...)}, "")
}

func (h *PresenceHub) peerIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// readPump handles inbound messages until the client disconnects or
// sends leave. The client's own id always overrides the peer it claims.
func (h *PresenceHub) readPump(c *presenceClient) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		binary := kind == websocket.BinaryMessage
		c.binary.Store(binary)

		msg, err := wire.DecodePresence(data, binary)
		if err != nil {
			h.log.Debug("server: presence message dropped", "peer", c.id, "error", err)
			continue
		}
		switch msg.Type {
		case wire.TypeState:
			msg.Peer = c.id
			h.sink.SubmitPeer(c.id, *msg.Snapshot)
			h.broadcast(msg, c.id)
		case wire.TypeLeave:
			return
		case wire.TypePeers:
			// The hub owns the peer set.
		}
	}
}

func (h *PresenceHub) writePump(c *presenceClient, done chan struct{}) {
	defer close(done)
	for msg := range c.send {
		var err error
		if c.binary.Load() {
			var data []byte
			if data, err = wire.EncodePresence(msg); err == nil {
				err = c.conn.WriteMessage(websocket.BinaryMessage, data)
			}
		} else {
			err = c.conn.WriteJSON(msg)
		}
		if err != nil {
			h.log.Debug("server: presence write failed", "peer", c.id, "error", err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// broadcast queues msg for every client except skip.
func (h *PresenceHub) broadcast(msg wire.Presence, skip string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == skip {
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

// relayHost forwards every local snapshot as the host peer's state.
func (h *PresenceHub) relayHost() {
	snaps, cancel := h.sink.Subscribe()
	defer cancel()
	for {
		select {
		case <-h.stop:
			return
		case s := <-snaps:
			h.broadcast(wire.Presence{Type: wire.TypeState, Peer: HostPeer, Snapshot: &s}, "")
		}
	}
}

// Close stops relaying the host and disconnects every client.
func (h *PresenceHub) Close() {
	h.once.Do(func() {
		close(h.stop)
		h.mu.RLock()
		defer h.mu.RUnlock()
		for _, c := range h.clients {
			c.conn.Close()
		}
	})
}
