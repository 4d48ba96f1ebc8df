package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job stores the durable job lifecycle record.
type Job struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	JobId       string         `gorm:"type:varchar(120);unique;not null;index:idx_jobs_job_id" json:"job_id"`
	Type        string         `gorm:"type:varchar(50);not null;index:idx_jobs_type" json:"type"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index:idx_jobs_user_status,priority:2" json:"status"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Result      datatypes.JSON `gorm:"type:jsonb" json:"result,omitempty"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	Progress    int            `gorm:"default:0" json:"progress"`
	RetryCount  int            `gorm:"default:0" json:"retry_count"`
	MaxRetries  int            `gorm:"default:3" json:"max_retries"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index:idx_jobs_user_status,priority:1" json:"user_id"`
	WorkspaceId *string        `gorm:"type:varchar(100);index:idx_jobs_workspace" json:"workspace_id,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_jobs_created,sort:desc" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}
