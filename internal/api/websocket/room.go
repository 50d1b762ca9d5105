package websocket

import (
	"sync"

	"github.com/rs/zerolog"
)

// Room groups the subscribers of a single run. The empty run id is the
// firehose room and receives events from every run.
type Room struct {
	RunID   string
	Clients map[string]*Client
	mu      sync.RWMutex
	Logger  zerolog.Logger
}

func NewRoom(runID string, logger zerolog.Logger) *Room {
	return &Room{
		RunID:   runID,
		Clients: make(map[string]*Client),
		Logger:  logger,
	}
}

// AddClient adds a subscriber to the room
func (r *Room) AddClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Clients[client.ID] = client
	r.Logger.Info().
		Str("runId", r.RunID).
		Str("clientId", client.ID).
		Int("totalClients", len(r.Clients)).
		Msg("Client joined room")
}

// RemoveClient removes a subscriber from the room
func (r *Room) RemoveClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Clients[client.ID]; exists {
		delete(r.Clients, client.ID)
		r.Logger.Info().
			Str("runId", r.RunID).
			Str("clientId", client.ID).
			Int("remainingClients", len(r.Clients)).
			Msg("Client left room")
	}
}

// Broadcast sends a message to all subscribers in the room
func (r *Room) Broadcast(message Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, client := range r.Clients {
		select {
		case client.Send <- message:
		default:
			// Client's send channel is full, skip
			r.Logger.Warn().
				Str("clientId", client.ID).
				Msg("Client send buffer full, message dropped")
		}
	}
}

// IsEmpty returns true when no subscriber is left
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients) == 0
}

// ClientCount returns the number of subscribers in the room
func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}
