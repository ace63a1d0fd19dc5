package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/obsmine/weather-obs-pipeline/internal/api/http"
	"github.com/obsmine/weather-obs-pipeline/internal/cache"
	"github.com/obsmine/weather-obs-pipeline/internal/config"
	"github.com/obsmine/weather-obs-pipeline/internal/openmeteo"
	"github.com/obsmine/weather-obs-pipeline/internal/pipeline"
	"github.com/obsmine/weather-obs-pipeline/internal/scheduler"
)

func main() {
	// Load configuration (.env handled inside).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Per-location durable cache, the fetch-failure fallback.
	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Fatalf("failed to init cache store: %v", err)
	}

	// Provider client with backoff and circuit breaker.
	client := openmeteo.NewClient(httpClient)

	// Core pipeline: fetch -> normalize -> cache -> localize ->
	// aggregate -> score -> sanitize.
	p := pipeline.New(client, store, cfg.LocalTZ, cfg.AnomalyWindow)

	// Scheduler keeping the cache warm for every configured location.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, cfg.DefaultLookbackDays, p)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-obs-pipeline",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-obs-pipeline",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, p, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
