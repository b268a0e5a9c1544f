package main

import (
	"context"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guileen/respool/api"
	"github.com/guileen/respool/factory"
	"github.com/guileen/respool/logger"
	"github.com/guileen/respool/metrics"
	"github.com/guileen/respool/pool"
)

func main() {
	startTime := time.Now()
	logger.Info("Starting pool server", "startup_time", startTime.Format(time.RFC3339))

	config := pool.Config{
		Name:                envString("POOL_NAME", "default"),
		MaxConnections:      envInt("POOL_MAX_CONNECTIONS", 10),
		MinConnections:      envInt("POOL_MIN_CONNECTIONS", 2),
		IdleTimeout:         envDuration("POOL_IDLE_TIMEOUT", 30*time.Minute),
		HealthCheckInterval: envDuration("POOL_HEALTH_CHECK_INTERVAL", time.Minute),
		AcquireTimeout:      envDuration("POOL_ACQUIRE_TIMEOUT", 30*time.Second),
		MaxRetries:          envInt("POOL_MAX_RETRIES", 3),
		RetryBaseDelay:      envDuration("POOL_RETRY_BASE_DELAY", 100*time.Millisecond),
		EnableHealthCheck:   true,
		EnableMetrics:       true,
	}

	resourceFactory, kind := buildFactory()
	logger.Info("Resource factory configured", "kind", kind)

	p := pool.New(config, resourceFactory)
	logger.Info("Pool created", "pool", config.Name,
		"max_connections", config.MaxConnections, "min_connections", config.MinConnections)

	// Prometheus registry with the pool exporter
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewExporter(p))

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Register pprof handlers for profiling
	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	r.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	// Register admin API and metrics routes
	api.NewPoolHandler(p).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	port := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		port = ":" + p
	}

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		logger.Info("HTTP server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed to start", "error", err, "port", port)
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	logger.Info("Pool server initialized", "init_duration", time.Since(startTime).String())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownStart := time.Now()
	logger.Info("Shutting down pool server...", "shutdown_start", shutdownStart.Format(time.RFC3339))
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	p.Destroy()
	logger.Info("Pool server shutdown complete", "shutdown_duration", time.Since(shutdownStart).String())
}

// buildFactory picks a backend from the environment: DATABASE_URL wins,
// otherwise BACKEND_ADDR selects a raw TCP backend.
func buildFactory() (pool.ResourceFactory, string) {
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		return factory.NewPostgres(connString), "postgres"
	}
	addr := os.Getenv("BACKEND_ADDR")
	if addr == "" {
		addr = "127.0.0.1:5432"
	}
	return factory.NewTCP(addr, envDuration("BACKEND_DIAL_TIMEOUT", 10*time.Second)), "tcp"
}

func envString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
