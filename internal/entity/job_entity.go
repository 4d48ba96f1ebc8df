package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Terminal reports whether the status can never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the durable lifecycle record for one submitted job. The record is
// created when a worker first dequeues the job (submission only enqueues)
// and from then on is written exclusively by the execution engine.
type Job struct {
	JobId       string
	Type        string
	Status      JobStatus
	Payload     map[string]interface{}
	Result      map[string]interface{}
	Error       string
	Progress    int
	RetryCount  int
	MaxRetries  int
	UserId      uuid.UUID
	WorkspaceId *string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
