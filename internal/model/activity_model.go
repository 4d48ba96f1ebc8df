package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity stores the durable workspace activity log. Append-only.
type Activity struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceId string         `gorm:"type:varchar(100);not null;index:idx_activities_ws_time,priority:1" json:"workspace_id"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index:idx_activities_user" json:"user_id"`
	UserName    string         `gorm:"type:varchar(200)" json:"user_name"`
	EventType   string         `gorm:"type:varchar(50);not null;index:idx_activities_type" json:"event_type"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Timestamp   time.Time      `gorm:"not null;index:idx_activities_ws_time,priority:2,sort:desc" json:"timestamp"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
