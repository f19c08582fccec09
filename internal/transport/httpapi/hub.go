package httpapi

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hedera-chat-agent/server/internal/metrics"
	logx "github.com/hedera-chat-agent/server/pkg/logger"
)

const sendBufferSize = 256

var (
	ErrBufferFull       = errors.New("send buffer full")
	ErrConnectionClosed = errors.New("connection closed")
)

// Connection is one websocket client. Writes to the socket happen only in
// its write pump; everything else enqueues frames on send.
type Connection struct {
	ID   string
	Conn *websocket.Conn

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func (c *Connection) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks open websocket connections and fans ledger entries out to all
// of them.
type Hub struct {
	connections map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Run owns the connection set until ctx is cancelled. On exit every
// connection's send queue is closed so its write pump sends a close frame.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for id, conn := range h.connections {
			conn.closeSend()
			delete(h.connections, id)
			metrics.WebsocketConnections.Dec()
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			metrics.WebsocketConnections.Inc()
			logx.Debug().Str("connection_id", conn.ID).Msg("Websocket connection registered")

		case conn := <-h.unregister:
			h.remove(conn)

		case data := <-h.broadcast:
			h.mu.RLock()
			var slow []*Connection
			for _, conn := range h.connections {
				if err := conn.enqueue(data); err != nil {
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				logx.Warn().Str("connection_id", conn.ID).Msg("Websocket client too slow, closing")
				h.remove(conn)
			}
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	_, ok := h.connections[conn.ID]
	if ok {
		delete(h.connections, conn.ID)
	}
	h.mu.Unlock()
	if ok {
		metrics.WebsocketConnections.Dec()
		logx.Debug().Str("connection_id", conn.ID).Msg("Websocket connection unregistered")
	}
	conn.closeSend()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.NewString(),
		Conn: ws,
		send: make(chan []byte, sendBufferSize),
	}
}

// Register adds conn to the broadcast set. After the hub has stopped the
// connection's queue is closed instead.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.closeSend()
	}
}

func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
		conn.closeSend()
	}
}

// Broadcast queues a frame for every connected client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

func (h *Hub) BroadcastEvent(event string, data any) error {
	frame, err := encodeEvent(event, data)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

func (h *Hub) SendEvent(conn *Connection, event string, data any) error {
	frame, err := encodeEvent(event, data)
	if err != nil {
		return err
	}
	return conn.enqueue(frame)
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
