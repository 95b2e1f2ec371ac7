package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub is pure transport: it tracks connected clients and moves bytes. Session
// state lives with the game engine, which consumes OnMessage/OnDisconnect.
type Hub struct {
	Clients    map[int64]*Client
	Register   chan *Client
	Unregister chan *Client
	Incoming   chan *ClientMessage
	mu         sync.RWMutex

	OnMessage    func(client *Client, msg Message)
	OnDisconnect func(client *Client)
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[int64]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Incoming:   make(chan *ClientMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if existing, ok := h.Clients[client.UserID]; ok {
				existing.CloseSend()
			}
			h.Clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("client registered: user=%d username=%s", client.UserID, client.Username)

		case client := <-h.Unregister:
			h.mu.Lock()
			if c, ok := h.Clients[client.UserID]; ok && c == client {
				delete(h.Clients, client.UserID)
				client.CloseSend()
			}
			h.mu.Unlock()

			if h.OnDisconnect != nil {
				h.OnDisconnect(client)
			}
			log.Printf("client unregistered: user=%d", client.UserID)

		case cm := <-h.Incoming:
			var msg Message
			if err := json.Unmarshal(cm.Data, &msg); err != nil {
				cm.Client.TrySend(NewErrorMessage("invalid message format"))
				continue
			}
			if h.OnMessage != nil {
				h.OnMessage(cm.Client, msg)
			}
		}
	}
}

func (h *Hub) GetClient(userID int64) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.Clients[userID]
}

// SendToUser drops the message if the user's send buffer is full, the user is
// not connected, or the connection was replaced since the lookup.
func (h *Hub) SendToUser(userID int64, data []byte) {
	if c := h.GetClient(userID); c != nil {
		c.TrySend(data)
	}
}
