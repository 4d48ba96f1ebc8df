package events

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds carried over the collaboration channel.
const (
	UserJoined     = "user_joined"
	UserLeft       = "user_left"
	FileChanged    = "file_changed"
	CursorMoved    = "cursor_moved"
	ActivityUpdate = "activity_update"
	JobProgress    = "job_progress"
)

// CollaborationEvent is an immutable fact about something that happened in a
// workspace. It is created once by the gateway (or by the job engine for
// progress updates), stamped with server time, and never mutated afterwards.
// Clients de-duplicate by Id, since the same event can legitimately arrive
// twice (local low-latency delivery plus the broker relay).
type CollaborationEvent struct {
	Id          uuid.UUID              `json:"id"`
	Type        string                 `json:"type"`
	WorkspaceId string                 `json:"workspace_id"`
	UserId      uuid.UUID              `json:"user_id"`
	UserName    string                 `json:"user_name,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload"`
}

// New stamps a fresh event with identity and server time.
func New(eventType, workspaceId string, userId uuid.UUID, userName string, payload map[string]interface{}) CollaborationEvent {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return CollaborationEvent{
		Id:          uuid.New(),
		Type:        eventType,
		WorkspaceId: workspaceId,
		UserId:      userId,
		UserName:    userName,
		Timestamp:   time.Now(),
		Payload:     payload,
	}
}

// Ephemeral reports whether an event kind is too frequent or short-lived to
// deserve a durable activity record.
func Ephemeral(eventType string) bool {
	return eventType == CursorMoved || eventType == JobProgress
}
