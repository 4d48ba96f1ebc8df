package bootstrap

import (
	"context"
	"log"
	"time"

	"collab-platform-be/internal/config"
	"collab-platform-be/internal/controller"
	"collab-platform-be/internal/handler"
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/repository/implementation"
	"collab-platform-be/internal/repository/memory"
	"collab-platform-be/internal/service"
	"collab-platform-be/internal/websocket"
	"collab-platform-be/pkg/broker"
	"collab-platform-be/pkg/jobs"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	JobController      controller.IJobController
	ActivityController controller.IActivityController

	// WebSockets
	CollabHandler *handler.CollabHandler
	WebSocketHub  *websocket.Hub

	// Background Services (Exposed for main.go to run)
	FanoutService   service.IFanoutService
	ActivityService service.IActivityService
	ExecutorService service.IExecutorService

	// QueueAvailable is false when NATS was unreachable at boot and the
	// job pipeline is running degraded.
	QueueAvailable bool

	// Kept for health probes.
	db  *gorm.DB
	rdb *redis.Client
}

// Health pings each backing dependency and reports per-component state for
// the health endpoint. Probes share the caller's deadline.
func (c *Container) Health(ctx context.Context) map[string]string {
	result := map[string]string{
		"job_queue": "up",
		"database":  "down",
		"redis":     "down",
	}
	if !c.QueueAvailable {
		result["job_queue"] = "degraded"
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
			result["database"] = "up"
		}
	}
	if c.rdb != nil {
		if err := c.rdb.Ping(ctx).Err(); err == nil {
			result["redis"] = "up"
		}
	}
	return result
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Infrastructure
	// Redis carries the cross-instance event channel and submission markers.
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	eventBus := broker.NewRedisEventBus(rdb)

	// NATS JetStream holds the durable job queue. The gateway keeps serving
	// without it; job submission returns unavailable until it comes back.
	queue, err := broker.NewQueue(cfg.App.NatsURL, broker.QueueConfig{
		Stream:      cfg.JobQueue.Stream,
		Subject:     cfg.JobQueue.Subject,
		Durable:     cfg.JobQueue.Durable,
		MaxAttempts: cfg.JobQueue.MaxRetries,
		BackoffBase: cfg.JobQueue.BackoffBase,
		BackoffCap:  cfg.JobQueue.BackoffCap,
		// The ack window must outlive the per-job timeout, or JetStream
		// redelivers jobs that are still executing.
		AckWait: cfg.JobQueue.JobTimeout + 30*time.Second,
	})
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS JetStream: %v (job pipeline degraded)", err)
		queue = nil
	}

	// 3. Repositories
	jobRepo := implementation.NewJobRepository(db)
	activityRepo := implementation.NewActivityRepository(db)
	submissionTracker := implementation.NewRedisSubmissionTracker(rdb)
	statusCache := memory.NewJobStatusCache()

	// 4. Job Handlers
	registry := jobs.NewRegistry()
	for _, h := range []jobs.Handler{
		jobs.NewCodeExecutionHandler(cfg.JobQueue.HandlerDelay),
		jobs.NewFileProcessingHandler(cfg.JobQueue.HandlerDelay),
		jobs.NewWorkspaceExportHandler(cfg.JobQueue.HandlerDelay, cfg.JobQueue.ExportBaseURL),
	} {
		if err := registry.Register(h); err != nil {
			log.Fatalf("[FATAL] Failed to register job handler: %v", err)
		}
	}

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/collaboration.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 6. Event Pipeline
	fanoutService := service.NewFanoutService(eventBus, cfg.App.EventChannel, wsHub, sysLogger)

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	activityService := service.NewActivityService(pubSub, cfg.App.ActivityTopic, activityRepo, sysLogger)

	wsHub.AttachSinks(fanoutService, activityService)

	// 7. Job Pipeline
	// A nil *Queue must stay a nil interface so the degraded check fires.
	var enqueuer service.JobEnqueuer
	var executorService service.IExecutorService
	if queue != nil {
		enqueuer = queue
		executorService = service.NewExecutorService(
			queue,
			jobRepo,
			statusCache,
			registry,
			fanoutService,
			wsHub,
			cfg.JobQueue.Concurrency,
			cfg.JobQueue.JobTimeout,
			sysLogger,
		)
	}

	jobService := service.NewJobService(
		enqueuer,
		submissionTracker,
		jobRepo,
		statusCache,
		registry,
		cfg.JobQueue.MaxRetries,
		sysLogger,
	)

	// 8. Controllers & Handlers
	return &Container{
		JobController:      controller.NewJobController(jobService, sysLogger),
		ActivityController: controller.NewActivityController(activityService, sysLogger),
		CollabHandler:      handler.NewCollabHandler(wsHub, cfg.App.JWTSecret, wsLogger),
		WebSocketHub:       wsHub,

		FanoutService:   fanoutService,
		ActivityService: activityService,
		ExecutorService: executorService,
		QueueAvailable:  queue != nil,

		db:  db,
		rdb: rdb,
	}
}
