package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoptrends/internal"
	"shoptrends/internal/config"
	"shoptrends/internal/container"
	"shoptrends/internal/ops"
	"shoptrends/ui"

	"github.com/gin-gonic/gin"
)

func main() {
	appConfig, err := config.Load()
	if err != nil {
		internal.DefaultLogger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appConfig, logger); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

// run owns the container so its Shutdown runs before main exits
func run(ctx context.Context, appConfig *config.Config, logger *internal.Logger) error {
	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create application container: %w", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := appContainer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}()

	go appContainer.Sessions.Run(ctx, time.Minute)

	if appConfig.Ops.Enabled {
		opsApp := ops.NewApp(appContainer.Stats, logger)
		go func() {
			if err := opsApp.Start(ctx, ":"+appConfig.Ops.Port); err != nil {
				logger.Error("Ops server failed: %v", err)
			}
		}()
	}

	server, err := ui.NewServer(ui.Deps{
		Board:    appContainer.Dashboard,
		Sessions: appContainer.Sessions,
		Hub:      appContainer.SSEHub,
		Logger:   logger,
		Tracing:  appConfig.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
