package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 5 * time.Second

// Connection wraps a websocket connection with serialized writes.
type Connection struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewConnection(conn *websocket.Conn) *Connection {
	return &Connection{conn: conn}
}

// Send writes one message; concurrent broadcasters are serialized.
func (c *Connection) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadMessage blocks for the next client frame.
func (c *Connection) ReadMessage() (Message, error) {
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (c *Connection) Close() {
	_ = c.conn.Close()
}

// Hub manages WebSocket subscribers by topic and broadcasts events to them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Connection]struct{}
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Connection]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a connection for a topic.
func (h *Hub) Subscribe(topic string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[*Connection]struct{})
	}
	h.subscribers[topic][conn] = struct{}{}
	h.logger.Debug().Str("topic", topic).Msg("ws subscriber added")
}

// Unsubscribe removes a connection from a topic and closes it.
func (h *Hub) Unsubscribe(topic string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[topic]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subscribers, topic)
		}
	}
	conn.Close()
}

// Broadcast delivers a message to every subscriber of a topic. Dead
// connections are dropped on write failure.
func (h *Hub) Broadcast(topic string, msg Message) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.subscribers[topic]))
	for conn := range h.subscribers[topic] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("topic", topic).Msg("ws send failed, dropping connection")
			h.Unsubscribe(topic, conn)
		}
	}
}

// SubscriberCount reports active connections for a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
