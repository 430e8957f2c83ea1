package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"companion/internal/api"
	"companion/internal/config"
	"companion/internal/container"
	"companion/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	log := logger.Get()

	if err := godotenv.Load(".env.local"); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer c.Close()

	// The index must hold its first snapshot before the scheduler is armed.
	c.Loader.Refresh(ctx)
	go c.Loader.Run(ctx)
	go c.Scheduler.Run(ctx)

	handlers := api.NewHandlers(c.Loader, c.Index, c.Registry, c.Tracker, c.Devices, c.Claims, c.Prefs, log)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.Routes(handlers),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Infof("Companion backend starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Server stopped unexpectedly")
	}
	log.Info("Server stopped")
}
