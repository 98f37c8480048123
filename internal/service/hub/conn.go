// internal/service/hub/conn.go

package hub

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn wraps one WebSocket connection. Outbound frames go through the
// buffered send channel and are written by a single goroutine, which
// preserves per-recipient delivery order.
type wsConn struct {
	hub      *Hub
	identity string
	sock     *websocket.Conn
	send     chan []byte
	once     sync.Once
}

func newWSConn(h *Hub, identity string, sock *websocket.Conn) *wsConn {
	return &wsConn{
		hub:      h,
		identity: identity,
		sock:     sock,
		send:     make(chan []byte, h.cfg.SendBuffer),
	}
}

func (c *wsConn) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close signals the write pump to finish. Guarded so that converging
// detach paths cannot close the channel twice.
func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// readPump pumps frames from the WebSocket connection into the hub's
// dispatcher. A read error of any kind, including a peer going away,
// drives the disconnect transition.
func (c *wsConn) readPump() {
	cfg := c.hub.cfg

	defer c.hub.detach(c.identity)

	c.sock.SetReadLimit(cfg.MaxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("read error on %s: %v", c.identity, err)
			}
			return
		}
		c.hub.inbound(c.identity, message)
	}
}

// writePump pumps frames from the send channel to the WebSocket
// connection and keeps the peer alive with pings.
func (c *wsConn) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
		c.hub.detach(c.identity)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				// detach closed the channel
				c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
