package service

import (
	"context"
	"encoding/json"
	"time"

	"collab-platform-be/internal/dto"
	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/repository/contract"
	"collab-platform-be/internal/repository/memory"
	"collab-platform-be/internal/repository/specification"
	"collab-platform-be/pkg/broker"
	"collab-platform-be/pkg/events"
	"collab-platform-be/pkg/jobs"
)

// IExecutorService is the worker side of the job pipeline: it consumes the
// durable queue, runs handlers, and owns every write to the job record after
// submission.
type IExecutorService interface {
	Run(ctx context.Context) error
}

// JobConsumer is the slice of the broker queue the engine needs.
type JobConsumer interface {
	Process(ctx context.Context, concurrency int, handler func(ctx context.Context, d broker.Delivery)) error
	Backoff(attempt int) time.Duration
}

type executorService struct {
	queue       JobConsumer
	repo        contract.JobRepository
	cache       *memory.JobStatusCache
	registry    *jobs.Registry
	fanout      IFanoutService
	local       LocalDelivery
	concurrency int
	jobTimeout  time.Duration
	logger      logger.ILogger
}

func NewExecutorService(
	queue JobConsumer,
	repo contract.JobRepository,
	cache *memory.JobStatusCache,
	registry *jobs.Registry,
	fanout IFanoutService,
	local LocalDelivery,
	concurrency int,
	jobTimeout time.Duration,
	log logger.ILogger,
) IExecutorService {
	return &executorService{
		queue:       queue,
		repo:        repo,
		cache:       cache,
		registry:    registry,
		fanout:      fanout,
		local:       local,
		concurrency: concurrency,
		jobTimeout:  jobTimeout,
		logger:      log,
	}
}

func (s *executorService) Run(ctx context.Context) error {
	if err := s.queue.Process(ctx, s.concurrency, s.processDelivery); err != nil {
		return err
	}
	s.logger.Info("Executor", "Job workers started", map[string]interface{}{
		"concurrency": s.concurrency,
		"job_timeout": s.jobTimeout.String(),
	})
	return nil
}

// processDelivery handles one delivery of one job. At-least-once delivery
// means the same job can arrive again after a crash or a missed ack, so the
// completed check runs before anything with side effects.
func (s *executorService) processDelivery(ctx context.Context, d broker.Delivery) {
	var msg dto.QueuedJobMessage
	if err := json.Unmarshal(d.Payload(), &msg); err != nil {
		s.logger.Error("Executor", "Dropping unparseable job payload", map[string]interface{}{"error": err})
		// Redelivery cannot fix a malformed payload.
		s.ack(d.Term, msg.JobId)
		return
	}

	existing, err := s.repo.FindOne(ctx, specification.ByJobID{JobID: msg.JobId})
	if err != nil {
		s.logger.Error("Executor", "Record lookup failed, retrying delivery", map[string]interface{}{
			"error":  err,
			"job_id": msg.JobId,
		})
		s.ack(func() error { return d.Retry(s.queue.Backoff(d.Attempt())) }, msg.JobId)
		return
	}
	if existing != nil && existing.Status.Terminal() {
		// Redelivered after terminal settlement. Acking without running the
		// handler is what makes retries idempotent for completed work.
		s.logger.Info("Executor", "Skipping redelivery of settled job", map[string]interface{}{
			"job_id": msg.JobId,
			"status": existing.Status,
		})
		s.ack(d.Ack, msg.JobId)
		return
	}

	handler, err := s.registry.Lookup(msg.Type)
	if err != nil {
		// Submission validates types, so this only happens when a deploy
		// removed a handler while jobs were in flight. Permanent failure.
		s.settleFailed(ctx, &msg, d.Attempt(), "no handler for job type: "+msg.Type)
		s.ack(d.Ack, msg.JobId)
		return
	}

	job := s.markProcessing(ctx, &msg, existing, d.Attempt())

	result, execErr := s.execute(ctx, handler, job)
	if execErr == nil {
		s.settleCompleted(ctx, job, result)
		s.ack(d.Ack, msg.JobId)
		return
	}

	if d.Attempt() >= job.MaxRetries {
		s.settleFailed(ctx, &msg, d.Attempt(), execErr.Error())
		s.ack(d.Ack, msg.JobId)
		return
	}

	delay := s.queue.Backoff(d.Attempt())
	job.Status = entity.JobStatusRetrying
	job.Error = execErr.Error()
	job.RetryCount = d.Attempt()
	if err := s.repo.Update(ctx, job); err != nil {
		s.logger.Error("Executor", "Failed to record retrying status", map[string]interface{}{
			"error":  err,
			"job_id": job.JobId,
		})
	}
	s.logger.Warn("Executor", "Job attempt failed, scheduling retry", map[string]interface{}{
		"job_id":  job.JobId,
		"attempt": d.Attempt(),
		"delay":   delay.String(),
		"error":   execErr.Error(),
	})
	s.ack(func() error { return d.Retry(delay) }, msg.JobId)
}

// markProcessing creates the record on first dequeue or moves an existing one
// back to processing on a retry attempt.
func (s *executorService) markProcessing(ctx context.Context, msg *dto.QueuedJobMessage, existing *entity.Job, attempt int) *entity.Job {
	now := time.Now()

	if existing == nil {
		job := &entity.Job{
			JobId:       msg.JobId,
			Type:        msg.Type,
			Status:      entity.JobStatusProcessing,
			Payload:     msg.Data,
			RetryCount:  attempt - 1,
			MaxRetries:  msg.MaxRetries,
			UserId:      msg.UserId,
			WorkspaceId: msg.WorkspaceId,
			StartedAt:   &now,
		}
		if err := s.repo.Create(ctx, job); err != nil {
			s.logger.Error("Executor", "Failed to create job record", map[string]interface{}{
				"error":  err,
				"job_id": msg.JobId,
			})
		}
		return job
	}

	existing.Status = entity.JobStatusProcessing
	existing.RetryCount = attempt - 1
	existing.StartedAt = &now
	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("Executor", "Failed to mark job processing", map[string]interface{}{
			"error":  err,
			"job_id": msg.JobId,
		})
	}
	return existing
}

// execute runs the handler under the per-job timeout with a progress
// callback that updates the record and pushes a live event to the job's
// workspace, if it has one.
func (s *executorService) execute(ctx context.Context, handler jobs.Handler, job *entity.Job) (map[string]interface{}, error) {
	execCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	progress := func(percent int) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		job.Progress = percent
		if err := s.repo.Update(execCtx, job); err != nil {
			s.logger.Warn("Executor", "Progress update not persisted", map[string]interface{}{
				"error":  err,
				"job_id": job.JobId,
			})
		}
		s.notifyProgress(job, percent)
	}

	return handler.Execute(execCtx, job.Payload, progress)
}

// notifyProgress emits a live progress event to the job's workspace room.
// Progress is cosmetic, so delivery is best-effort on both the local and the
// cross-instance path.
func (s *executorService) notifyProgress(job *entity.Job, percent int) {
	if job.WorkspaceId == nil || *job.WorkspaceId == "" {
		return
	}

	event := events.New(events.JobProgress, *job.WorkspaceId, job.UserId, "", map[string]interface{}{
		"job_id":   job.JobId,
		"type":     job.Type,
		"progress": percent,
	})

	if s.local != nil {
		if data, err := json.Marshal(event); err == nil {
			s.local.DeliverToRoom(event.WorkspaceId, data)
		}
	}
	if s.fanout != nil {
		s.fanout.Publish(event)
	}
}

func (s *executorService) settleCompleted(ctx context.Context, job *entity.Job, result map[string]interface{}) {
	now := time.Now()
	job.Status = entity.JobStatusCompleted
	job.Result = result
	job.Error = ""
	job.Progress = 100
	job.CompletedAt = &now
	if err := s.repo.Update(ctx, job); err != nil {
		s.logger.Error("Executor", "Failed to record completion", map[string]interface{}{
			"error":  err,
			"job_id": job.JobId,
		})
		return
	}
	s.cache.Save(job)
	s.logger.Info("Executor", "Job completed", map[string]interface{}{
		"job_id": job.JobId,
		"type":   job.Type,
	})
}

// settleFailed writes the terminal failed record. It goes through an upsert
// because failure can be decided before a record exists (handler missing on
// first dequeue).
func (s *executorService) settleFailed(ctx context.Context, msg *dto.QueuedJobMessage, attempt int, reason string) {
	now := time.Now()

	existing, err := s.repo.FindOne(ctx, specification.ByJobID{JobID: msg.JobId})
	if err != nil {
		s.logger.Error("Executor", "Record lookup failed while settling failure", map[string]interface{}{
			"error":  err,
			"job_id": msg.JobId,
		})
		return
	}

	if existing == nil {
		existing = &entity.Job{
			JobId:       msg.JobId,
			Type:        msg.Type,
			Payload:     msg.Data,
			MaxRetries:  msg.MaxRetries,
			UserId:      msg.UserId,
			WorkspaceId: msg.WorkspaceId,
		}
		existing.Status = entity.JobStatusFailed
		existing.Error = reason
		existing.RetryCount = attempt
		existing.CompletedAt = &now
		if err := s.repo.Create(ctx, existing); err != nil {
			s.logger.Error("Executor", "Failed to create failed job record", map[string]interface{}{
				"error":  err,
				"job_id": msg.JobId,
			})
			return
		}
	} else {
		existing.Status = entity.JobStatusFailed
		existing.Error = reason
		existing.RetryCount = attempt
		existing.CompletedAt = &now
		if err := s.repo.Update(ctx, existing); err != nil {
			s.logger.Error("Executor", "Failed to record failure", map[string]interface{}{
				"error":  err,
				"job_id": msg.JobId,
			})
			return
		}
	}

	s.cache.Save(existing)
	s.logger.Error("Executor", "Job failed terminally", map[string]interface{}{
		"job_id":   msg.JobId,
		"type":     msg.Type,
		"attempts": attempt,
		"error":    reason,
	})
}

// ack invokes one of the delivery settlement calls and logs when the broker
// rejects it; the job state is already settled in the database at this
// point, so a failed ack only risks a redundant redelivery.
func (s *executorService) ack(settle func() error, jobId string) {
	if err := settle(); err != nil {
		s.logger.Warn("Executor", "Delivery settlement failed", map[string]interface{}{
			"error":  err,
			"job_id": jobId,
		})
	}
}
