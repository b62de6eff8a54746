package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBacklog = 16

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client pumps hub events onto one websocket connection. The feed is
// server-to-client only; inbound frames are read solely to notice closes
// and answer pings.
type Client struct {
	conn *websocket.Conn
	send chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan Event, sendBacklog),
		closed: make(chan struct{}),
	}
}

// enqueue hands an event to the write pump. Returns false when the client's
// buffer is full or the client is detached.
func (c *Client) enqueue(e Event) bool {
	select {
	case <-c.closed:
		return false
	case c.send <- e:
		return true
	default:
		return false
	}
}

// detach stops the pumps. Idempotent.
func (c *Client) detach() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// Run drives both pumps and blocks until the connection dies for any
// reason. The caller is responsible for hub membership around it.
func (c *Client) Run() {
	go c.readPump()
	c.writePump()
}

func (c *Client) readPump() {
	defer c.detach()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Discard anything the client sends; an error means it is gone.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.detach()
		_ = c.conn.Close()
	}()

	for {
		select {
		case e := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}
