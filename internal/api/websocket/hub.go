package websocket

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FirehoseRoom is the subscription key that receives events for every run.
const FirehoseRoom = ""

// Hub maintains the set of active subscribers and fans run events out to them
type Hub struct {
	// Rooms indexed by run ID
	Rooms map[string]*Room

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Broadcast messages to the matching room plus the firehose
	Broadcast chan Message

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	Logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message, 256),
		Logger:     logger,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	// Cleanup ticker for removing empty rooms
	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)

		case <-cleanupTicker.C:
			h.cleanupEmptyRooms()
		}
	}
}

// Publish queues a run event without blocking the caller. Events are dropped
// when the hub cannot keep up; the polling endpoints remain the source of
// truth for run state.
func (h *Hub) Publish(message Message) {
	select {
	case h.Broadcast <- message:
	default:
		h.Logger.Warn().
			Str("runId", message.RunID).
			Str("type", string(message.Type)).
			Msg("Hub broadcast buffer full, event dropped")
	}
}

// registerClient registers a new subscriber to a room
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.Rooms[client.RunID]
	if !exists {
		room = NewRoom(client.RunID, h.Logger)
		h.Rooms[client.RunID] = room
		h.Logger.Info().Str("runId", client.RunID).Msg("Created new room")
	}

	room.AddClient(client)
}

// unregisterClient unregisters a subscriber from a room
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.Rooms[client.RunID]
	if !exists {
		return
	}

	room.RemoveClient(client)
	close(client.Send)

	if room.IsEmpty() {
		delete(h.Rooms, client.RunID)
		h.Logger.Info().Str("runId", client.RunID).Msg("Removed empty room")
	}
}

// broadcastMessage fans the event out to the run's room and the firehose
func (h *Hub) broadcastMessage(message Message) {
	h.mu.RLock()
	room := h.Rooms[message.RunID]
	firehose := h.Rooms[FirehoseRoom]
	h.mu.RUnlock()

	if room != nil {
		room.Broadcast(message)
	}
	if firehose != nil && message.RunID != FirehoseRoom {
		firehose.Broadcast(message)
	}

	h.Logger.Debug().
		Str("runId", message.RunID).
		Str("type", string(message.Type)).
		Msg("Run event broadcast")
}

// cleanupEmptyRooms removes empty rooms
func (h *Hub) cleanupEmptyRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	emptyRooms := make([]string, 0)
	for runID, room := range h.Rooms {
		if room.IsEmpty() {
			emptyRooms = append(emptyRooms, runID)
		}
	}

	for _, runID := range emptyRooms {
		delete(h.Rooms, runID)
		h.Logger.Info().Str("runId", runID).Msg("Cleaned up empty room")
	}

	if len(emptyRooms) > 0 {
		h.Logger.Info().
			Int("cleanedRooms", len(emptyRooms)).
			Int("activeRooms", len(h.Rooms)).
			Msg("Room cleanup completed")
	}
}

// GetRoomStats returns subscriber counts per room
func (h *Hub) GetRoomStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := make(map[string]int)
	for runID, room := range h.Rooms {
		stats[runID] = room.ClientCount()
	}
	return stats
}
