package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"soulscript-chat-be/internal/bootstrap"
	"soulscript-chat-be/internal/config"
	"soulscript-chat-be/internal/server"
	"soulscript-chat-be/internal/tracer"
	"soulscript-chat-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.Open(cfg.Database.Connection, database.Options{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogSQL:          cfg.Database.LogSQL,
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
	if created, err := container.FeatureFlagService.SeedPredefined(seedCtx); err != nil {
		log.Printf("[WARN] Failed to seed predefined feature flags: %v", err)
	} else if created > 0 {
		log.Printf("[INFO] Seeded %d predefined feature flags", created)
	}
	cancelSeed()

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	container.AlertService.Start()
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		return srv.Shutdown()
	})
	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
