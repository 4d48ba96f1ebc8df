package entity

import (
	"time"

	"github.com/google/uuid"
)

// Activity is a durable projection of a collaboration event. Created once by
// the activity recorder, never updated.
type Activity struct {
	Id          uuid.UUID
	WorkspaceId string
	UserId      uuid.UUID
	UserName    string
	EventType   string
	Payload     map[string]interface{}
	Timestamp   time.Time
	CreatedAt   time.Time
}
