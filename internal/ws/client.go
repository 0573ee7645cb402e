package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one websocket connection. Outbound events flow through a
// buffered channel drained by a single writer goroutine, which preserves
// per-connection ordering. A consumer too slow to drain its buffer is
// dropped; the room actor must never block on fan-out.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, 32),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Send marshals and queues one event, fire-and-forget.
func (c *Client) Send(event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.Close()
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
