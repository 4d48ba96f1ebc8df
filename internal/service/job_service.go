package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"collab-platform-be/internal/dto"
	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/repository/contract"
	"collab-platform-be/internal/repository/memory"
	"collab-platform-be/internal/repository/specification"
	"collab-platform-be/pkg/jobs"

	"github.com/google/uuid"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobNotRetriable  = errors.New("only failed jobs can be retried")
	ErrUnknownJobType   = errors.New("unknown job type")
	ErrQueueUnavailable = errors.New("job queue unavailable")
)

// JobEnqueuer is the slice of the broker queue the submission path needs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, msgId string, payload []byte) error
}

type IJobService interface {
	Submit(ctx context.Context, userId uuid.UUID, req *dto.SubmitJobRequest) (*dto.SubmitJobResponse, error)
	Status(ctx context.Context, jobId string) (*dto.JobStatusResponse, error)
	Retry(ctx context.Context, jobId string) (*dto.RetryJobResponse, error)
	ListByUser(ctx context.Context, req *dto.ListJobsRequest) ([]*dto.JobStatusResponse, int64, error)
}

type jobService struct {
	queue      JobEnqueuer
	tracker    contract.SubmissionTracker
	repo       contract.JobRepository
	cache      *memory.JobStatusCache
	registry   *jobs.Registry
	maxRetries int
	logger     logger.ILogger
}

func NewJobService(
	queue JobEnqueuer,
	tracker contract.SubmissionTracker,
	repo contract.JobRepository,
	cache *memory.JobStatusCache,
	registry *jobs.Registry,
	maxRetries int,
	log logger.ILogger,
) IJobService {
	return &jobService{
		queue:      queue,
		tracker:    tracker,
		repo:       repo,
		cache:      cache,
		registry:   registry,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// Submit assigns a job id, enqueues the durable work, and returns without
// waiting for execution. Enqueue failure is surfaced to the submitter: jobs
// are the durability-guaranteed path, unlike events.
func (s *jobService) Submit(ctx context.Context, userId uuid.UUID, req *dto.SubmitJobRequest) (*dto.SubmitJobResponse, error) {
	if !s.registry.Has(req.Type) {
		return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnknownJobType, req.Type, s.registry.Names())
	}
	if s.queue == nil {
		return nil, ErrQueueUnavailable
	}

	jobId := newJobId(req.Type)

	msg := dto.QueuedJobMessage{
		JobId:       jobId,
		Type:        req.Type,
		Data:        req.Data,
		UserId:      userId,
		WorkspaceId: req.WorkspaceId,
		MaxRetries:  s.maxRetries,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, jobId, payload); err != nil {
		return nil, err
	}

	// Best-effort marker: without it a not-yet-dequeued job reads as
	// not-found, which is a status-accuracy degradation, not a lost job.
	if err := s.tracker.Mark(ctx, contract.Submission{JobId: jobId, Type: req.Type, UserId: userId}); err != nil {
		s.logger.Warn("JobService", "Failed to mark submission", map[string]interface{}{
			"error":  err,
			"job_id": jobId,
		})
	}

	s.logger.Info("JobService", "Job submitted", map[string]interface{}{
		"job_id":  jobId,
		"type":    req.Type,
		"user_id": userId,
	})

	return &dto.SubmitJobResponse{
		JobId:  jobId,
		Type:   req.Type,
		Status: string(entity.JobStatusPending),
	}, nil
}

// Status reads the job record. A submitted job with no record yet is a valid
// "pending" state, distinct from never-submitted.
func (s *jobService) Status(ctx context.Context, jobId string) (*dto.JobStatusResponse, error) {
	if cached, found := s.cache.Get(jobId); found {
		return toJobStatusResponse(cached), nil
	}

	job, err := s.repo.FindOne(ctx, specification.ByJobID{JobID: jobId})
	if err != nil {
		return nil, err
	}
	if job != nil {
		s.cache.Save(job)
		return toJobStatusResponse(job), nil
	}

	sub, err := s.tracker.Find(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrJobNotFound
	}

	// Enqueued, no worker has picked it up yet. The marker carries the
	// owner, so ownership checks hold even before a record exists.
	return &dto.JobStatusResponse{
		JobId:      jobId,
		Type:       sub.Type,
		Status:     string(entity.JobStatusPending),
		MaxRetries: s.maxRetries,
		UserId:     sub.UserId,
	}, nil
}

// Retry re-submits a terminally failed job under a fresh identity. The old
// record stays as historical failure evidence.
func (s *jobService) Retry(ctx context.Context, jobId string) (*dto.RetryJobResponse, error) {
	job, err := s.repo.FindOne(ctx, specification.ByJobID{JobID: jobId})
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Status != entity.JobStatusFailed {
		return nil, ErrJobNotRetriable
	}

	resp, err := s.Submit(ctx, job.UserId, &dto.SubmitJobRequest{
		Type:        job.Type,
		Data:        job.Payload,
		WorkspaceId: job.WorkspaceId,
	})
	if err != nil {
		return nil, err
	}

	return &dto.RetryJobResponse{
		JobId:         resp.JobId,
		OriginalJobId: jobId,
		Type:          resp.Type,
		Status:        resp.Status,
	}, nil
}

func (s *jobService) ListByUser(ctx context.Context, req *dto.ListJobsRequest) ([]*dto.JobStatusResponse, int64, error) {
	filters := []specification.Specification{specification.OwnedByUser{UserID: req.UserId}}
	if req.Status != "" {
		filters = append(filters, specification.ByStatus{Status: req.Status})
	}
	if req.Type != "" {
		filters = append(filters, specification.ByJobType{Type: req.Type})
	}

	total, err := s.repo.Count(ctx, filters...)
	if err != nil {
		return nil, 0, err
	}

	records, err := s.repo.FindAll(ctx, append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: req.Limit, Offset: req.Offset},
	)...)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*dto.JobStatusResponse, 0, len(records))
	for _, job := range records {
		result = append(result, toJobStatusResponse(job))
	}
	return result, total, nil
}

func toJobStatusResponse(job *entity.Job) *dto.JobStatusResponse {
	created := job.CreatedAt
	return &dto.JobStatusResponse{
		JobId:       job.JobId,
		Type:        job.Type,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Payload:     job.Payload,
		Result:      job.Result,
		Error:       job.Error,
		RetryCount:  job.RetryCount,
		MaxRetries:  job.MaxRetries,
		UserId:      job.UserId,
		WorkspaceId: job.WorkspaceId,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		CreatedAt:   &created,
	}
}

const jobIdAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newJobId builds a caller-visible identifier: <type>-<unix-millis>-<suffix>.
// The random suffix makes same-millisecond collisions negligible.
func newJobId(jobType string) string {
	suffix := make([]byte, 9)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing is effectively fatal; fall back to uuid noise.
		return fmt.Sprintf("%s-%d-%s", jobType, time.Now().UnixMilli(), uuid.NewString()[:9])
	}
	for i := range suffix {
		suffix[i] = jobIdAlphabet[int(suffix[i])%len(jobIdAlphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", jobType, time.Now().UnixMilli(), suffix)
}
