package www

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans state snapshots out to the connected dashboards. The
// traffic is strictly one-way, clients never send application
// messages.
type Hub struct {
	logger  *slog.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Serve upgrades the request and keeps pushing broadcasts to the
// connection until it drops. Blocks until the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, name string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		logger: h.logger.With(slog.String("client", name)),
		conn:   conn,
		send:   make(chan []byte, 256),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clientName", name, "clients", n)

	go c.readUntilClosed()
	c.writePump()

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.logger.Debug("websocket client disconnected", "clientName", name)

	return nil
}

// Broadcast queues msg for every connected client. Clients whose
// buffer is full miss this update, the next one supersedes it anyway.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			c.logger.Warn("send buffer full, skipping update")
		}
	}
}

type client struct {
	logger *slog.Logger
	conn   *ws.Conn
	send   chan []byte
}

// readUntilClosed consumes control frames (pong, close) so the
// connection's read deadline stays fresh. Any read error ends the
// connection, which in turn ends the write pump.
func (c *client) readUntilClosed() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.conn.Close()
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var msgType int
		var payload []byte

		select {
		case msg := <-c.send:
			msgType, payload = ws.TextMessage, msg
		case <-ticker.C:
			msgType, payload = ws.PingMessage, nil
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(msgType, payload); err != nil {
			c.logger.Debug("websocket write failed", slog.Any("error", err))
			return
		}
	}
}
