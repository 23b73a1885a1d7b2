package ws

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
)

// ConnLike is the subset of *websocket.Conn the hub needs. Tests substitute
// an in-memory fake.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

type Client struct {
	ID     string
	RoomID string
	Conn   ConnLike
	Send   chan []byte

	hub *Hub
}

// inboundMessage is what chat clients send over the wire.
type inboundMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ReadPump reads client frames and submits them for scanning. It returns
// when the connection drops, unregistering the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregisterCh <- c
	}()
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var in inboundMessage
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		c.hub.submit(c, in)
	}
}

// WritePump drains the send channel onto the connection. The hub closes
// Send on unregister, terminating the pump.
func (c *Client) WritePump() {
	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
