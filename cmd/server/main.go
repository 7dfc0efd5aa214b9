// Package main is the entry point for the txprop API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"txprop/internal/app"
	"txprop/internal/config"
	"txprop/internal/core/tx"
	"txprop/internal/domain/member"
	v1 "txprop/internal/infrastructure/http/v1"
	"txprop/internal/infrastructure/http/v1/handlers"
	"txprop/internal/infrastructure/metrics"
	"txprop/pkg/logger"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting txprop server")

	// --- Metrics ---
	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
		opts     []tx.Option
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.NewWithRegistry(reg)
		gatherer = reg
		opts = append(opts, tx.WithRecorder(m))
	}

	// --- Storage backend and coordinator ---
	backend, err := app.Open(ctx, cfg, opts...)
	if err != nil {
		logger.Fatal(ctx, "failed to open storage backend", "error", err)
	}
	defer backend.Close()
	log.Infow("storage backend ready", "backend", backend.Name)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger: log.WithComponent("http"),
		Health: handlers.NewHealthHandler(backend.Name, backend.Probe, backend.Stats),
		Orders: backend.OrderService(),
		Members: backend.MemberServices(map[string]member.Layout{
			handlers.LayoutRepositories:   member.LayoutRepositoriesOnly,
			handlers.LayoutService:        member.LayoutServiceOnly,
			handlers.LayoutAll:            member.LayoutAll,
			handlers.LayoutLogRequiresNew: member.LayoutLogRequiresNew,
		}),
		Metrics:  m,
		Gatherer: gatherer,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "backend", backend.Name)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
