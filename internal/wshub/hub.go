package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"

	"flicktrainer/internal/adaptation"
	"flicktrainer/internal/events"
	"flicktrainer/internal/patterns"
	"flicktrainer/internal/recommend"
)

// Client message types.
const (
	TypeAccept  = "accept"
	TypeDismiss = "dismiss"
	TypePattern = "pattern"
)

// Server message types.
const (
	TypeAdjustments    = "adjustments"
	TypeRecommendation = "recommendation"
	TypeDismissed      = "dismissed"
	TypeProfileReset   = "reset"
	TypeError          = "error"
)

// ClientMessage is the JSON structure received from game-loop clients.
type ClientMessage struct {
	Type   string `json:"t"`
	Family string `json:"f,omitempty"`
	Zone   string `json:"z,omitempty"`
	Count  int    `json:"n,omitempty"`
}

// ServerMessage is the JSON structure sent to game-loop clients.
type ServerMessage struct {
	Type           string                              `json:"t"`
	Difficulty     float64                             `json:"d,omitempty"`
	Adjustments    *adaptation.Adjustments             `json:"adj,omitempty"`
	Recommendation *recommend.DifficultyRecommendation `json:"rec,omitempty"`
	Pattern        *patterns.FlickPattern              `json:"pat,omitempty"`
	Error          string                              `json:"err,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages the WebSocket connections of one session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.Send)
		delete(h.clients, id)
	}
}

// CloseAll unregisters every client, ending their write pumps and
// dropping their connections.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
		if c.Conn != nil {
			c.Conn.CloseNow()
		}
	}
}

// Send queues a message for one client. Non-blocking: drops if the channel
// is full or the client is gone.
func (h *Hub) Send(id string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		// Drop message if channel full
	}
}

// ReadPump decodes the client's messages and sends whatever handle answers
// back to that client only. It returns when the connection fails or ctx
// ends.
func (h *Hub) ReadPump(ctx context.Context, c *Client, handle func(ClientMessage) (ServerMessage, bool)) error {
	for {
		_, data, err := c.Conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg ClientMessage
		reply, ok := ServerMessage{Type: TypeError, Error: "malformed message"}, true
		if err := json.Unmarshal(data, &msg); err == nil {
			reply, ok = handle(msg)
		}
		if ok {
			h.Send(c.ID, reply)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client. Non-blocking: drops if channel full.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// PublishAdaptation relays an adaptation event to the game loop.
func (h *Hub) PublishAdaptation(ev events.AdaptationEvent) {
	adj := ev.Adjustments
	msg := ServerMessage{Difficulty: ev.Difficulty, Adjustments: &adj}
	switch ev.Kind {
	case events.KindRecommendation:
		msg.Type = TypeRecommendation
		msg.Recommendation = ev.Recommendation
	case events.KindDismissed:
		msg.Type = TypeDismissed
	case events.KindProfileReset:
		msg.Type = TypeProfileReset
	default:
		msg.Type = TypeAdjustments
	}
	h.Broadcast(msg)
}
