package websocket

import (
	"sync"

	"go.uber.org/zap"
)

// Registry maintains the set of live connections per conversation room. It
// knows nothing about message content; payloads pass through as marshaled
// frames. A room key exists iff the room has at least one live connection.
type Registry struct {
	mu sync.RWMutex

	// rooms maps a conversation id to its connection set.
	rooms map[string]map[*Client]struct{}

	// member maps a connection back to the room it belongs to. A
	// connection belongs to exactly one room at a time.
	member map[*Client]string

	logger *zap.Logger
}

// NewRegistry creates an empty registry. Each server (and each test) owns
// its own instance.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Client]struct{}),
		member: make(map[*Client]string),
		logger: logger,
	}
}

// Connect registers the connection under roomID, creating the room if
// absent. Re-joining the same room is a no-op.
func (r *Registry) Connect(client *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.member[client]; ok {
		if current == roomID {
			return
		}
		r.removeLocked(client)
	}

	room := r.rooms[roomID]
	if room == nil {
		room = make(map[*Client]struct{})
		r.rooms[roomID] = room
	}
	room[client] = struct{}{}
	r.member[client] = roomID

	r.logger.Info("Connection joined room",
		zap.String("roomID", roomID),
		zap.Int("connections", len(room)))
}

// Disconnect removes the connection from whichever room it belongs to,
// dropping the room entry when it empties. Safe to call on an already
// disconnected connection.
func (r *Registry) Disconnect(client *Client) {
	r.mu.Lock()
	roomID, ok := r.member[client]
	if ok {
		r.removeLocked(client)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	client.close()
	r.logger.Info("Connection left room", zap.String("roomID", roomID))
}

// removeLocked drops the client from its room and the member index. Caller
// holds the write lock.
func (r *Registry) removeLocked(client *Client) {
	roomID := r.member[client]
	if room, ok := r.rooms[roomID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.member, client)
}

// Broadcast sends the payload to every connection in the room except
// exclude. Membership is snapshotted before the fan-out pass; connections
// whose send fails are evicted after the pass completes, so partial
// delivery never rolls back already-sent copies. Broadcasting to a
// non-existent room is a no-op.
func (r *Registry) Broadcast(roomID string, payload []byte, exclude *Client) {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	if !ok {
		r.mu.RUnlock()
		return
	}
	snapshot := make([]*Client, 0, len(room))
	for client := range room {
		snapshot = append(snapshot, client)
	}
	r.mu.RUnlock()

	var failed []*Client
	for _, client := range snapshot {
		if client == exclude {
			continue
		}
		if err := client.enqueue(payload); err != nil {
			r.logger.Error("Failed to broadcast to connection",
				zap.String("roomID", roomID),
				zap.Error(err))
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		r.Disconnect(client)
	}
}

// Publish implements usecase.Publisher: fan-out to the whole room.
func (r *Registry) Publish(roomID string, payload []byte) {
	r.Broadcast(roomID, payload, nil)
}

// SendPersonal delivers a payload to a single connection. Failure is
// logged, not raised.
func (r *Registry) SendPersonal(client *Client, payload []byte) {
	if err := client.enqueue(payload); err != nil {
		r.logger.Error("Failed to send personal message", zap.Error(err))
	}
}

// ConnectionCount reports the number of live connections in the room.
// Observability only.
func (r *Registry) ConnectionCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
