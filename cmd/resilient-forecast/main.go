package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/weatherdemo/resilient-forecast/internal/api/http"
	"github.com/weatherdemo/resilient-forecast/internal/cache"
	"github.com/weatherdemo/resilient-forecast/internal/config"
	"github.com/weatherdemo/resilient-forecast/internal/forecast"
	"github.com/weatherdemo/resilient-forecast/internal/scheduler"
	"github.com/weatherdemo/resilient-forecast/internal/stats"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel(cfg.LogLevel),
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(log)

	// Cache-aside backend. "none" degrades every lookup to a miss, so all
	// requests fall through to the provider.
	var store cache.Cache
	switch cfg.CacheBackend {
	case "redis":
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		store = redisCache
	case "none":
		store = cache.Noop{}
	default:
		store = cache.NewMemory()
	}
	log.Info("cache backend ready", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL)

	// Simulated flaky provider over the static city registry.
	registry := forecast.DefaultRegistry()
	provider := forecast.NewSimulated(registry, nil)

	st := stats.New(prometheus.DefaultRegisterer)

	// Consumer service: cache-aside plus bounded retries with exponential
	// backoff.
	service := forecast.NewService(provider, store, st, forecast.Config{
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
		CacheTTL:    cfg.CacheTTL,
		Logger:      log,
	})

	// Optional periodic cache warming for registered cities.
	warmer := scheduler.New(registry.Cities(), cfg.WarmInterval, service, log)
	if err := warmer.Start(); err != nil {
		log.Error("failed to start cache warmer", "error", err)
		os.Exit(1)
	}
	defer warmer.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "resilient-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
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
			"service": "resilient-forecast",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, provider, st)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("listening", "port", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
