package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListActivitiesRequest struct {
	WorkspaceId string
	EventType   string
	Since       *time.Time
	Until       *time.Time
	Limit       int
	Offset      int
}

type ActivityResponse struct {
	Id          uuid.UUID              `json:"id"`
	WorkspaceId string                 `json:"workspace_id"`
	UserId      uuid.UUID              `json:"user_id"`
	UserName    string                 `json:"user_name"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   time.Time              `json:"timestamp"`
}
