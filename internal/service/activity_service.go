package service

import (
	"context"
	"encoding/json"
	"time"

	"collab-platform-be/internal/dto"
	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/repository/contract"
	"collab-platform-be/internal/repository/specification"
	"collab-platform-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IActivityService interface {
	// Record queues a durable copy of the event. Fire-and-forget: the
	// real-time path never waits on, or fails because of, persistence.
	Record(event events.CollaborationEvent)

	// Consume runs the background persistence loop. Called once at startup.
	Consume(ctx context.Context) error

	ListByWorkspace(ctx context.Context, req *dto.ListActivitiesRequest) ([]*dto.ActivityResponse, int64, error)
}

type activityService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	repo      contract.ActivityRepository
	logger    logger.ILogger
}

func NewActivityService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo contract.ActivityRepository,
	log logger.ILogger,
) IActivityService {
	return &activityService{
		pubSub:    pubSub,
		topicName: topicName,
		repo:      repo,
		logger:    log,
	}
}

func (s *activityService) Record(event events.CollaborationEvent) {
	// Cursor moves are too frequent to have durability value.
	if events.Ephemeral(event.Type) {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("ActivityRecorder", "Failed to marshal event", map[string]interface{}{"error": err})
		return
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		// Best-effort log: activity history is not a delivery guarantee.
		s.logger.Error("ActivityRecorder", "Failed to queue activity", map[string]interface{}{
			"error":    err,
			"event_id": event.Id,
		})
	}
}

func (s *activityService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.persistMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *activityService) persistMessage(ctx context.Context, msg *message.Message) {
	// Always ack: a failed insert is logged and swallowed, redelivering it
	// forever would only back up the channel.
	defer msg.Ack()

	var event events.CollaborationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("ActivityRecorder", "Failed to unmarshal activity message", map[string]interface{}{"error": err})
		return
	}
	if events.Ephemeral(event.Type) {
		return
	}

	activity := entity.Activity{
		Id:          event.Id,
		WorkspaceId: event.WorkspaceId,
		UserId:      event.UserId,
		UserName:    event.UserName,
		EventType:   event.Type,
		Payload:     event.Payload,
		Timestamp:   event.Timestamp,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, &activity); err != nil {
		s.logger.Error("ActivityRecorder", "Failed to persist activity", map[string]interface{}{
			"error":        err,
			"event_id":     event.Id,
			"workspace_id": event.WorkspaceId,
		})
	}
}

func (s *activityService) ListByWorkspace(ctx context.Context, req *dto.ListActivitiesRequest) ([]*dto.ActivityResponse, int64, error) {
	specs := []specification.Specification{
		specification.ByWorkspaceID{WorkspaceID: req.WorkspaceId},
		specification.TimeRange{Since: req.Since, Until: req.Until},
	}
	if req.EventType != "" {
		specs = append(specs, specification.ByEventType{EventType: req.EventType})
	}

	total, err := s.repo.Count(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}

	specs = append(specs,
		specification.OrderBy{Field: "timestamp", Desc: true},
		specification.Pagination{Limit: req.Limit, Offset: req.Offset},
	)

	activities, err := s.repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		result = append(result, &dto.ActivityResponse{
			Id:          a.Id,
			WorkspaceId: a.WorkspaceId,
			UserId:      a.UserId,
			UserName:    a.UserName,
			EventType:   a.EventType,
			Payload:     a.Payload,
			Timestamp:   a.Timestamp,
		})
	}

	return result, total, nil
}
