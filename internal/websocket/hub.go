package websocket

import (
	"encoding/json"
	"sync"

	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher pushes an accepted event onto the cross-instance broker
// channel. Implemented by the fan-out service; publish failures are logged
// there, never surfaced to the gateway.
type EventPublisher interface {
	Publish(event events.CollaborationEvent)
}

// ActivityRecorder persists a durable copy of non-ephemeral events.
// Fire-and-forget; must never block delivery.
type ActivityRecorder interface {
	Record(event events.CollaborationEvent)
}

// Hub owns all gateway state for one process: room membership, the
// user -> sessions index, and client lifecycle. Membership maps are guarded
// by mu; lifecycle goes through the register/unregister channels consumed by
// Run.
type Hub struct {
	// rooms: workspace id -> members
	rooms map[string]map[*Client]struct{}

	// userSessions: user id -> session id -> client (multi-device)
	userSessions map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	publisher EventPublisher
	recorder  ActivityRecorder

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		rooms:        make(map[string]map[*Client]struct{}),
		userSessions: make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		logger:       log,
	}
}

// AttachSinks wires the fan-out and recorder after construction; the hub and
// the fan-out service reference each other, so one side binds late.
func (h *Hub) AttachSinks(publisher EventPublisher, recorder ActivityRecorder) {
	h.publisher = publisher
	h.recorder = recorder
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			sessions, ok := h.userSessions[client.UserId]
			if !ok {
				sessions = make(map[uuid.UUID]*Client)
				h.userSessions[client.UserId] = sessions
			}
			sessions[client.SessionId] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"session_id": client.SessionId,
				"user_id":    client.UserId,
			})

		case client := <-h.unregister:
			h.disconnect(client)
		}
	}
}

// disconnect synthesizes the presence-left event for the client's current
// room before releasing any state, so consumers see a leave for every join
// even on ungraceful drops.
func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	room := client.room
	client.room = ""
	if room != "" {
		h.removeFromRoomLocked(client, room)
	}
	if sessions, ok := h.userSessions[client.UserId]; ok {
		if _, present := sessions[client.SessionId]; present {
			delete(sessions, client.SessionId)
			close(client.Send)
		}
		if len(sessions) == 0 {
			delete(h.userSessions, client.UserId)
		}
	}
	h.mu.Unlock()

	if room != "" {
		event := events.New(events.UserLeft, room, client.UserId, client.UserName, map[string]interface{}{
			"user_name": client.UserName,
		})
		h.dispatch(event, client)
	}

	h.logger.Info("Hub", "Client disconnected", map[string]interface{}{
		"session_id": client.SessionId,
		"user_id":    client.UserId,
	})
}

// Join moves the session into a workspace room. A session belongs to at most
// one room: joining a new room implicitly leaves the prior one. Re-joining
// the current room keeps membership untouched but still announces presence.
func (h *Hub) Join(client *Client, workspaceId string) {
	h.mu.Lock()
	prior := client.room
	if prior != "" && prior != workspaceId {
		h.removeFromRoomLocked(client, prior)
	}
	members, ok := h.rooms[workspaceId]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[workspaceId] = members
	}
	members[client] = struct{}{}
	client.room = workspaceId
	h.mu.Unlock()

	if prior != "" && prior != workspaceId {
		left := events.New(events.UserLeft, prior, client.UserId, client.UserName, map[string]interface{}{
			"user_name": client.UserName,
		})
		h.dispatch(left, client)
	}

	joined := events.New(events.UserJoined, workspaceId, client.UserId, client.UserName, map[string]interface{}{
		"user_name": client.UserName,
	})
	h.dispatch(joined, client)

	h.logger.Info("Hub", "Session joined workspace", map[string]interface{}{
		"session_id":   client.SessionId,
		"user_id":      client.UserId,
		"workspace_id": workspaceId,
	})
}

// Leave removes the session from its room and announces the departure.
func (h *Hub) Leave(client *Client, workspaceId string) {
	h.mu.Lock()
	inRoom := client.room == workspaceId
	if inRoom {
		h.removeFromRoomLocked(client, workspaceId)
		client.room = ""
	}
	h.mu.Unlock()

	if !inRoom {
		return
	}

	event := events.New(events.UserLeft, workspaceId, client.UserId, client.UserName, map[string]interface{}{
		"user_name": client.UserName,
	})
	h.dispatch(event, client)
}

func (h *Hub) removeFromRoomLocked(client *Client, workspaceId string) {
	if members, ok := h.rooms[workspaceId]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, workspaceId)
		}
	}
}

// Emit stamps and dispatches a content event originating from the session.
// Returns false when the session is not in a room (soft rejection; the
// connection stays open).
func (h *Hub) Emit(client *Client, eventType string, payload map[string]interface{}) bool {
	h.mu.RLock()
	room := client.room
	h.mu.RUnlock()

	if room == "" {
		return false
	}

	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["user_name"] = client.UserName

	event := events.New(eventType, room, client.UserId, client.UserName, payload)
	h.dispatch(event, client)
	return true
}

// dispatch runs both delivery paths for an accepted event: immediate local
// send to room members (origin excluded, it has its own local echo) and the
// broker publish for every other instance. The broker copy also comes back
// to this instance and is re-delivered to everyone, origin included; clients
// de-duplicate by event id.
func (h *Hub) dispatch(event events.CollaborationEvent, origin *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event", map[string]interface{}{"error": err})
		return
	}

	h.broadcastToRoom(event.WorkspaceId, data, origin)

	if h.publisher != nil {
		h.publisher.Publish(event)
	}
	if h.recorder != nil && !events.Ephemeral(event.Type) {
		h.recorder.Record(event)
	}
}

// DeliverToRoom hands a broker-relayed event to every local member of the
// room, with no exclusions and no re-publishing.
func (h *Hub) DeliverToRoom(workspaceId string, data []byte) {
	h.broadcastToRoom(workspaceId, data, nil)
}

func (h *Hub) broadcastToRoom(workspaceId string, data []byte, exclude *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[workspaceId] {
		if client == exclude {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// Slow consumer: drop this frame rather than stall the room.
			// The write pump's ping deadline reaps truly dead connections.
			h.logger.Warn("Hub", "Send buffer full, dropping frame", map[string]interface{}{
				"session_id": client.SessionId,
				"user_id":    client.UserId,
			})
		}
	}
}

// SessionsForUser returns the live session ids of a user on this instance.
func (h *Hub) SessionsForUser(userId uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.userSessions[userId]))
	for id := range h.userSessions[userId] {
		ids = append(ids, id)
	}
	return ids
}

// RoomSize reports the local member count of a room.
func (h *Hub) RoomSize(workspaceId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[workspaceId])
}
