package main

import (
	"context"
	"log"

	"collab-platform-be/internal/bootstrap"
	"collab-platform-be/internal/config"
	"collab-platform-be/internal/server"
	"collab-platform-be/internal/tracer"
	"collab-platform-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx := context.Background()

	// Non-fatal: the fan-out service retries the broker subscription in
	// the background and local delivery keeps working meanwhile.
	if err := container.FanoutService.Start(ctx); err != nil {
		log.Printf("[WARN] Collaboration channel subscription failed: %v", err)
	}

	go func() {
		log.Println("Background: Starting Activity Consumer...")
		if err := container.ActivityService.Consume(ctx); err != nil {
			log.Printf("Background Activity Consumer Error: %v", err)
		}
	}()

	if container.ExecutorService != nil {
		if err := container.ExecutorService.Run(ctx); err != nil {
			log.Printf("Job workers failed to start: %v (job pipeline degraded)", err)
		}
	} else {
		log.Println("[WARN] Job queue unavailable; serving real-time gateway only")
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
