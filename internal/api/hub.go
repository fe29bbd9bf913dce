package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/tidewater/internal/engine"
)

const (
	maxStreamConns = 32
	sendBuffer     = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Message is the envelope for everything sent over the stream.
type Message struct {
	Type    string `json:"type"` // "hello", "event"
	Tick    uint64 `json:"tick"`
	Payload any    `json:"payload"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans simulation events out to websocket clients.
type Hub struct {
	register   chan *streamClient
	unregister chan *streamClient
	done       chan struct{}
	clients    map[*streamClient]struct{}
}

// NewHub creates a hub. Call Run before serving clients.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		done:       make(chan struct{}),
		clients:    make(map[*streamClient]struct{}),
	}
}

// Run broadcasts events until ctx is cancelled or events is closed.
func (h *Hub) Run(ctx context.Context, events <-chan engine.Event) {
	defer func() {
		for c := range h.clients {
			close(c.send)
		}
		h.clients = nil
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			if len(h.clients) >= maxStreamConns {
				close(c.send)
				continue
			}
			h.clients[c] = struct{}{}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(Message{Type: "event", Tick: ev.Tick, Payload: ev})
			if err != nil {
				slog.Error("stream encode failed", "error", err)
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Slow reader; drop it rather than stall the fan-out.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// join hands c to the hub. It returns false once the hub has stopped.
func (h *Hub) join(c *streamClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *streamClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and streams events until the client
// goes away. The first frame is a hello carrying the current status.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}

	hello, err := json.Marshal(Message{Type: "hello", Tick: s.Sim.CurrentTick(), Payload: s.status()})
	if err != nil {
		conn.Close()
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- hello
	if !s.hub.join(c) {
		conn.Close()
		return
	}
	slog.Debug("stream client connected", "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump(s.hub)
}

// readPump discards inbound frames and notices disconnects.
func (c *streamClient) readPump(h *Hub) {
	defer func() {
		h.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
