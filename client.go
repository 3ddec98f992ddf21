package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a single websocket connection with an ephemeral identity.
// A client is bound to at most one room for its lifetime.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan any

	mu   sync.Mutex
	room *Room
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, 8),
	}
}

func (c *Client) boundRoom() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) bind(r *Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

// trySend queues msg without blocking. Used before the client is seated in a
// room; seated clients are written to through the room's broadcast helpers.
func (c *Client) trySend(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

// serveWS upgrades the connection and runs the read loop until disconnect.
func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := newClient(conn)

		go client.writePump()
		client.readPump(cfg, reg)
	}
}

func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		if room := c.boundRoom(); room != nil {
			room.leave(c)
		} else {
			close(c.send)
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			c.handleJoin(reg, msg)
		case "submit-answer":
			if room := c.boundRoom(); room != nil {
				room.submit(c, msg.Answer)
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) handleJoin(reg *Registry, msg ClientMessage) {
	if c.boundRoom() != nil || msg.Name == "" {
		return
	}

	room, err := reg.findOrCreateRoom(msg.RoomID, msg.Subjects)
	if err != nil {
		c.trySend(ErrorMessage{Type: "error", Message: err.Error()})
		return
	}

	room.join(c, msg.Name)
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
