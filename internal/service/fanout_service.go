package service

import (
	"context"
	"encoding/json"
	"time"

	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/pkg/broker"
	"collab-platform-be/pkg/events"
)

// LocalDelivery hands a relayed event to every locally-attached member of a
// room. Implemented by the websocket hub.
type LocalDelivery interface {
	DeliverToRoom(workspaceId string, data []byte)
}

type IFanoutService interface {
	// Publish puts the event on the shared broker channel so every instance
	// (this one included) relays it. Best-effort: failures are logged, never
	// returned, because the real-time layer must not block on the broker.
	Publish(event events.CollaborationEvent)

	// Start brings up the process-wide relay loop. Called once at startup.
	// Broker unavailability is non-fatal: the gateway keeps serving local
	// delivery and the subscription is retried in the background.
	Start(ctx context.Context) error
}

type fanoutService struct {
	bus           broker.EventBus
	channel       string
	delivery      LocalDelivery
	retryInterval time.Duration
	logger        logger.ILogger
}

func NewFanoutService(bus broker.EventBus, channel string, delivery LocalDelivery, log logger.ILogger) IFanoutService {
	return &fanoutService{
		bus:           bus,
		channel:       channel,
		delivery:      delivery,
		retryInterval: 5 * time.Second,
		logger:        log,
	}
}

func (s *fanoutService) Publish(event events.CollaborationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Fanout", "Failed to marshal event for publish", map[string]interface{}{"error": err})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.bus.Publish(ctx, s.channel, data); err != nil {
		s.logger.Error("Fanout", "Broker publish failed, event lost cross-instance", map[string]interface{}{
			"error":        err,
			"event_id":     event.Id,
			"workspace_id": event.WorkspaceId,
		})
	}
}

func (s *fanoutService) Start(ctx context.Context) error {
	if err := s.subscribe(ctx); err != nil {
		s.logger.Error("Fanout", "Broker subscribe failed, serving local-only delivery", map[string]interface{}{
			"error":   err,
			"channel": s.channel,
		})
		go s.resubscribe(ctx)
	}
	return nil
}

// resubscribe keeps trying the broker until it comes back or the process
// shuts down. Cross-instance relay is degraded until then.
func (s *fanoutService) resubscribe(ctx context.Context) {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.subscribe(ctx); err != nil {
				s.logger.Warn("Fanout", "Broker subscribe retry failed", map[string]interface{}{
					"error":   err,
					"channel": s.channel,
				})
				continue
			}
			return
		}
	}
}

// subscribe relays inbound broker messages to local room members only. No
// re-publish happens here, which is what prevents publish loops between
// instances. Ordering across instances follows the broker: per-publisher
// causal order, nothing stronger.
func (s *fanoutService) subscribe(ctx context.Context) error {
	err := s.bus.Subscribe(ctx, s.channel, func(payload []byte) {
		var event events.CollaborationEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			s.logger.Error("Fanout", "Failed to parse relayed event", map[string]interface{}{"error": err})
			return
		}
		if event.WorkspaceId == "" {
			return
		}
		s.delivery.DeliverToRoom(event.WorkspaceId, payload)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Fanout", "Subscribed to collaboration channel", map[string]interface{}{"channel": s.channel})
	return nil
}
