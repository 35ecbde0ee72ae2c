package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nestbridge/server/internal/aggregate"
	"nestbridge/server/internal/config"
	"nestbridge/server/internal/enrich"
	"nestbridge/server/internal/mcp"
	"nestbridge/server/internal/middleware"
	"nestbridge/server/internal/nest"
	"nestbridge/server/internal/observability"
	"nestbridge/server/internal/store"
	"nestbridge/server/internal/tools"
)

func main() {
	// Initialize observability (Loki)
	observability.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Usage log is optional; the server runs without a database.
	var usage *store.Store
	if cfg.DatabaseURL != "" {
		usage, err = store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		log.Printf("Usage log connected")
	} else {
		log.Printf("DATABASE_URL not set, usage log disabled")
	}

	// Upstream clients, explicitly constructed and injected (no globals).
	nestClient := nest.NewClient(cfg.NestBaseURL, cfg.NestAPIKey, cfg.UpstreamTimeout)
	enricher := enrich.NewClient(cfg.UpstreamTimeout)

	opts := []aggregate.Option{aggregate.WithEnricher(enricher)}
	for resource, pageCap := range cfg.PageCaps {
		opts = append(opts, aggregate.WithPageCap(resource, pageCap))
	}
	aggregator := aggregate.New(nestClient, opts...)

	dispatcher := tools.NewDispatcher(aggregator, enricher)
	handler := mcp.NewHandler(dispatcher, usage)

	authenticator := middleware.NewAuthenticator(cfg.ServiceJWTSecret)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond)

	// Router (Go 1.22+ method-aware patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := usage.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"degraded","db":"unavailable"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	mux.HandleFunc("GET /v1/usage", func(w http.ResponseWriter, r *http.Request) {
		counts, err := usage.UsageSince(time.Now().Add(-24 * time.Hour))
		if err != nil {
			observability.LogError("usage_summary", err)
			http.Error(w, `{"error":"usage query failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counts)
	})

	mux.Handle("/v1/mcp", middleware.Recovery(
		authenticator.Middleware(
			rateLimiter.Middleware(
				middleware.Transport(handler)))))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("Starting nestbridge server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal %s, shutting down gracefully...", sig)

	// Give in-flight requests up to 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Printf("Server stopped")
}
