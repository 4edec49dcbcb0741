package ws

import (
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

// clientBuffer is the number of outgoing messages queued per connection
// before new ones are dropped.
const clientBuffer = 256

// Client is one browser connection. Messages reach it only through the
// hub, which owns the send channel.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{conn: conn, send: make(chan []byte, buffer)}
}

// Hub tracks the connections watching simulation runs. Step streams and
// run lists go to every client; replies and errors go to one.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	dropped atomic.Uint64

	// onCount is called with the client count after every change.
	onCount func(int)
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// OnClientCount installs fn to be told the number of connected clients
// whenever it changes.
func (h *Hub) OnClientCount(fn func(int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCount = fn
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n, fn := len(h.clients), h.onCount
	h.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// Unregister removes c and closes its send channel, ending its write
// pump. Unregistering twice is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n, fn := len(h.clients), h.onCount
	h.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// Broadcast encodes one envelope and queues it for every client.
func (h *Hub) Broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		glog.Errorf("Error creating %s message: %v", msgType, err)
		return
	}
	h.broadcastRaw(msg)
}

func (h *Hub) broadcastRaw(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.enqueue(c, msg)
	}
}

// Send encodes one envelope for c alone. It reports false when c has
// gone away or its buffer is full.
func (h *Hub) Send(c *Client, msgType string, payload any) bool {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		glog.Errorf("Error creating %s message: %v", msgType, err)
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	return h.enqueue(c, msg)
}

// enqueue never blocks; the caller holds mu so send is still open.
func (h *Hub) enqueue(c *Client, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			glog.Warningf("client buffer full, %d messages dropped so far", n)
		}
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded on full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
