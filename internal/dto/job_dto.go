package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitJobRequest struct {
	Type        string                 `json:"type" validate:"required"`
	Data        map[string]interface{} `json:"data" validate:"required"`
	WorkspaceId *string                `json:"workspace_id,omitempty"`
}

type SubmitJobResponse struct {
	JobId  string `json:"job_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobId       string                 `json:"job_id"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	Progress    int                    `json:"progress"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
	UserId      uuid.UUID              `json:"user_id"`
	WorkspaceId *string                `json:"workspace_id,omitempty"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	CreatedAt   *time.Time             `json:"created_at,omitempty"`
}

type RetryJobResponse struct {
	JobId         string `json:"job_id"`
	OriginalJobId string `json:"original_job_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
}

type ListJobsRequest struct {
	UserId uuid.UUID
	Status string
	Type   string
	Limit  int
	Offset int
}

// QueuedJobMessage is the wire format of a job on the broker's durable
// queue. MaxRetries travels with the job so workers honor the policy that
// was configured at submission time.
type QueuedJobMessage struct {
	JobId       string                 `json:"job_id"`
	Type        string                 `json:"type"`
	Data        map[string]interface{} `json:"data"`
	UserId      uuid.UUID              `json:"user_id"`
	WorkspaceId *string                `json:"workspace_id,omitempty"`
	MaxRetries  int                    `json:"max_retries"`
}
