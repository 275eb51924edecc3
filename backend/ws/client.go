// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one WebSocket connection. It starts unjoined; a join intent
// binds it to a user id and registers it with the hub. Only joined
// connections receive fan-out.
type Client struct {
	hub    *Hub
	router *Router
	conn   *websocket.Conn
	send   chan []byte

	userID string
	joined bool
}

func NewClient(hub *Hub, router *Router, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		router: router,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// ReadPump consumes client frames and dispatches intents until the
// connection drops. A dropped connection simply deregisters; there is
// no other in-flight work to cancel.
func (c *Client) ReadPump() {
	defer func() {
		if c.joined {
			c.hub.Unregister(c)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var intent Intent
		if err := json.Unmarshal(data, &intent); err != nil {
			c.sendError("INVALID_ARGUMENT", "malformed frame")
			continue
		}
		c.dispatch(&intent)
	}
}

func (c *Client) dispatch(intent *Intent) {
	switch intent.Type {
	case IntentJoin:
		if c.joined {
			c.sendError("INVALID_ARGUMENT", "already joined")
			return
		}
		if err := c.router.Join(c, intent.UserID); err != nil {
			c.sendAppError(err)
		}

	case IntentMessage:
		if !c.joined {
			c.sendError("UNAUTHORIZED", "join first")
			return
		}
		if _, err := c.router.Send(c.userID, SendRequest{
			RecipientID: intent.RecipientID,
			ChatID:      intent.ChatID,
			Content:     intent.Content,
			MessageType: intent.MessageType,
			TTLSeconds:  intent.TTL,
		}); err != nil {
			// The sender sees the failure; the recipient never
			// learns an attempt happened.
			c.sendAppError(err)
		}

	case IntentMarkRead:
		if !c.joined {
			c.sendError("UNAUTHORIZED", "join first")
			return
		}
		if err := c.router.MarkRead(c.userID, intent.ChatID); err != nil {
			c.sendAppError(err)
		}

	default:
		c.sendError("INVALID_ARGUMENT", "unknown intent type")
	}
}

// enqueue pushes an event onto this connection only.
func (c *Client) enqueue(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, detail string) {
	c.enqueue(&Event{Type: EventError, Code: code, Detail: detail})
}

func (c *Client) sendAppError(err error) {
	c.enqueue(errorEvent(err))
}

// WritePump writes queued frames and keepalive pings to the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
