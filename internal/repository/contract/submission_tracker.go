package contract

import (
	"context"

	"github.com/google/uuid"
)

// Submission is the marker written when a job is enqueued, before any worker
// has created its record. It carries enough identity for the status read
// path to answer ownership checks on not-yet-dequeued jobs.
type Submission struct {
	JobId  string    `json:"job_id"`
	Type   string    `json:"type"`
	UserId uuid.UUID `json:"user_id"`
}

// SubmissionTracker remembers enqueued jobs, so the status read path can tell
// "enqueued but not yet dequeued" (pending, no record) apart from "never
// submitted" (not found). The marker must be visible to every instance,
// since any instance may answer the status query.
type SubmissionTracker interface {
	Mark(ctx context.Context, sub Submission) error
	// Find returns nil when the job id was never marked.
	Find(ctx context.Context, jobId string) (*Submission, error)
}
