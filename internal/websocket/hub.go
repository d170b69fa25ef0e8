package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"folder-explorer/internal/model"
)

type subscription struct {
	client  *Client
	eventID string
}

// Hub fans status updates out to connected clients: every client receives
// every update, and clients subscribed to an event's room receive an
// additional room-scoped frame. All state is ephemeral; a client that missed
// an update re-fetches through the status API.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	updates     chan model.EventStatusUpdate
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		updates:     make(chan model.EventStatusUpdate, 64),
	}
}

// Broadcast hands a status update to the hub loop. Non-blocking: if the hub
// is saturated the update is dropped, since clients can always re-fetch.
func (h *Hub) Broadcast(update model.EventStatusUpdate) {
	select {
	case h.updates <- update:
	default:
		slog.Warn("hub update buffer full, dropping status update", "event_id", update.EventID)
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case sub := <-h.subscribe:
			// A dropped client's readPump can still race a subscribe in;
			// re-adding it to a room would send on its closed channel.
			if !h.clients[sub.client] {
				continue
			}
			room := roomName(sub.eventID)
			if h.rooms[room] == nil {
				h.rooms[room] = make(map[*Client]bool)
			}
			h.rooms[room][sub.client] = true
		case sub := <-h.unsubscribe:
			room := roomName(sub.eventID)
			if members, ok := h.rooms[room]; ok {
				delete(members, sub.client)
				if len(members) == 0 {
					delete(h.rooms, room)
				}
			}
		case update := <-h.updates:
			h.deliver(update)
		}
	}
}

type statusFrame struct {
	Type string                  `json:"type"`
	Room string                  `json:"room,omitempty"`
	Data model.EventStatusUpdate `json:"data"`
}

func (h *Hub) deliver(update model.EventStatusUpdate) {
	global, err := json.Marshal(statusFrame{Type: "event.status", Data: update})
	if err != nil {
		slog.Error("failed to marshal status frame", "error", err)
		return
	}

	for client := range h.clients {
		h.send(client, global)
	}

	room := roomName(update.EventID)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	scoped, err := json.Marshal(statusFrame{Type: "event.status", Room: room, Data: update})
	if err != nil {
		return
	}
	for client := range members {
		h.send(client, scoped)
	}
}

func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		// Slow consumer: drop it rather than block the hub.
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	for room, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(client.send)
}

func roomName(eventID string) string {
	return "event:" + eventID
}
