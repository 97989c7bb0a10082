package notify

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/stockmeta/api/internal/model"
)

// Message types pushed to session subscribers.
const (
	MessageTypeNotice = "notice"
	MessageTypeItem   = "item"
	MessageTypeQueue  = "queue"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

type wsMessage struct {
	Type string `json:"type"`
}

type noticeMessage struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type itemMessage struct {
	Type   string              `json:"type"`
	ItemID string              `json:"itemId"`
	Status model.ProcessStatus `json:"status"`
}

type queueMessage struct {
	Type       string `json:"type"`
	Processing bool   `json:"processing"`
}

// Client is one WebSocket subscriber to a session's event stream.
type Client struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub fans engine events out to WebSocket clients grouped by session.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex
}

type broadcastMessage struct {
	SessionID string
	Message   []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[*Client]bool)
			}
			h.clients[client.SessionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.SessionID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.SessionID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Notify implements Notifier.
func (h *Hub) Notify(sessionID, title, message string, severity Severity) {
	h.send(sessionID, noticeMessage{
		Type:     MessageTypeNotice,
		Title:    title,
		Message:  message,
		Severity: severity,
	})
}

// ItemStatus implements Notifier.
func (h *Hub) ItemStatus(sessionID, itemID string, status model.ProcessStatus) {
	h.send(sessionID, itemMessage{
		Type:   MessageTypeItem,
		ItemID: itemID,
		Status: status,
	})
}

// QueueState implements Notifier.
func (h *Hub) QueueState(sessionID string, processing bool) {
	h.send(sessionID, queueMessage{
		Type:       MessageTypeQueue,
		Processing: processing,
	})
}

func (h *Hub) send(sessionID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal hub message: %v", err)
		return
	}
	select {
	case h.broadcast <- &broadcastMessage{SessionID: sessionID, Message: data}:
	default:
		log.Printf("Hub broadcast buffer full, dropping message for session %s", sessionID)
	}
}

// HandleConnection services one WebSocket connection until it closes.
func (h *Hub) HandleConnection(c *websocket.Conn, sessionID string) {
	client := &Client{
		SessionID: sessionID,
		Conn:      c,
		Send:      make(chan []byte, 256),
	}

	h.register <- client
	defer func() { h.unregister <- client }()

	// Writer goroutine with keep-alive pings.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == MessageTypePing {
			data, _ := json.Marshal(wsMessage{Type: MessageTypePong})
			client.Send <- data
		}
	}
}
