package ws_room

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	http_common "github.com/humanbelnik/musicroom/internal/delivery/http/common"
	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const broadcastBuffer = 256

type roomEvent struct {
	roomCode string
	closing  bool
	data     []byte
}

// Hub fans room events out to the websocket clients of each room.
type Hub struct {
	logger     zerolog.Logger
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomEvent
	done       chan struct{}
	mu         sync.RWMutex
}

type HubOption func(*Hub)

func WithHubLogger(logger zerolog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:     log.Logger,
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomEvent, broadcastBuffer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case ev := <-h.broadcast:
			h.broadcastToRoom(ev)
		}
	}
}

// Publish queues the event for the room's listeners and never blocks; events
// are dropped when the queue is full.
func (h *Hub) Publish(event model.Event) {
	data, err := json.Marshal(toMessage(event))
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	select {
	case h.broadcast <- roomEvent{
		roomCode: event.RoomCode,
		closing:  event.Type == model.EventRoomClosed,
		data:     data,
	}:
	default:
		h.logger.Warn().Str("room", event.RoomCode).Str("type", event.Type).Msg("broadcast queue full, event dropped")
	}
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ActiveRooms lists the rooms with at least one connected client.
func (h *Hub) ActiveRooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	codes := make([]string, 0, len(h.rooms))
	for code := range h.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[client.roomCode]; !exists {
		h.rooms[client.roomCode] = make(map[*Client]bool)
	}
	h.rooms[client.roomCode][client] = true

	h.logger.Info().Str("session", client.sessionID).Str("room", client.roomCode).Msg("client registered")
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.drop(client) {
		h.logger.Info().Str("session", client.sessionID).Str("room", client.roomCode).Msg("client unregistered")
	}
}

func (h *Hub) broadcastToRoom(ev roomEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[ev.roomCode] {
		select {
		case client.send <- ev.data:
			if ev.closing {
				h.drop(client)
			}
		default:
			h.logger.Warn().Str("session", client.sessionID).Str("room", ev.roomCode).Msg("slow client dropped")
			h.drop(client)
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) bool {
	roomClients, ok := h.rooms[client.roomCode]
	if !ok || !roomClients[client] {
		return false
	}

	delete(roomClients, client)
	close(client.send)
	if len(roomClients) == 0 {
		delete(h.rooms, client.roomCode)
	}
	return true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, roomClients := range h.rooms {
		for client := range roomClients {
			h.drop(client)
		}
	}
}

type Message struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Payload  any    `json:"payload,omitempty"`
}

func toMessage(event model.Event) Message {
	payload := event.Payload
	switch p := event.Payload.(type) {
	case model.Snapshot:
		if p.IsEmpty() {
			payload = nil
		} else {
			payload = http_common.NewSongDTO(p)
		}
	case model.SkipOutcome:
		payload = http_common.NewSkipOutcomeDTO(p)
	}

	return Message{
		Type:     event.Type,
		RoomCode: event.RoomCode,
		Payload:  payload,
	}
}
