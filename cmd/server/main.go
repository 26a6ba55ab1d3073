package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/thesisfmt/internal/api"
	"github.com/dgallion1/thesisfmt/internal/config"
	"github.com/dgallion1/thesisfmt/internal/pipeline"
	"github.com/dgallion1/thesisfmt/internal/profile"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	p, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		log.Error("invalid profile", "error", err)
		os.Exit(1)
	}
	builder, err := pipeline.NewBuilder(p, log)
	if err != nil {
		log.Error("invalid style graph", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := pipeline.NewRunStore(cfg.RunTTL)
	go runs.Janitor(ctx, 5*time.Minute)

	srv := api.NewServer(builder, runs, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting thesisfmt", "port", cfg.Port, "profile", p.Name)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
