package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/jitsi/jicofo-go/internal/bridge"
	"github.com/jitsi/jicofo-go/internal/config"
	"github.com/jitsi/jicofo-go/internal/events"
	"github.com/jitsi/jicofo-go/internal/gateway"
	"github.com/jitsi/jicofo-go/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(
		cfg.Logging.Level,
		cfg.Logging.Format,
		cfg.Logging.Output,
		cfg.Logging.EnableJSON,
	)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cfg.Logging.EnableAsync {
		asyncLog := logger.NewAsyncLogger(log, cfg.Logging.AsyncBufferSize)
		defer asyncLog.Stop()
		log = asyncLog.Logger
	}

	log.WithComponent("main").Info("Starting bridge monitor", "bridges", len(cfg.Monitor.Bridges))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus(log, events.WithSubscriberBuffer(cfg.Events.SubscriberBuffer))

	tracker := bridge.NewTracker(log)
	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		tracker.Run(ctx, eventBus)
	}()

	checker := bridge.NewHTTPHealthChecker(cfg.Monitor.Bridges, cfg.Monitor.CheckTimeout)
	monitor, err := bridge.NewMonitor(log, eventBus, checker,
		slices.Sorted(maps.Keys(cfg.Monitor.Bridges)), cfg.Monitor.CheckInterval)
	if err != nil {
		log.WithComponent("main").Error("Failed to initialize bridge monitor", "error", err.Error())
		os.Exit(1)
	}
	monitor.Start(ctx)

	server := gateway.NewServer(cfg, log, tracker, bridge.NewManager(monitor, checker))
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithComponent("main").Error("Server failed to start", "error", err.Error())
			stop()
		}
	}()

	log.WithComponent("main").Info("Bridge monitor started successfully",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port)

	// Wait for interrupt signal
	<-ctx.Done()

	log.WithComponent("main").Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithComponent("main").Error("Failed to stop server gracefully", "error", err.Error())
	}
	monitor.Stop()
	<-trackerDone

	log.WithComponent("main").Info("Bridge monitor shut down successfully")
}
