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

	httpapi "skycast/internal/api/http"
	"skycast/internal/cache"
	"skycast/internal/config"
	"skycast/internal/events"
	"skycast/internal/favorites"
	"skycast/internal/location"
	"skycast/internal/resolver"
	"skycast/internal/scheduler"
	"skycast/internal/session"
	"skycast/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Durable cache store and its typed partitions.
	store, err := cache.NewSQLiteStore(cfg.CacheDBPath)
	if err != nil {
		log.Fatalf("failed to open cache store: %v", err)
	}
	defer store.Close()

	parts := cache.NewPartitions(store)
	bus := events.NewBroadcaster()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	client := weather.NewClient(httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherBaseURL, cfg.GeoBaseURL)

	// Favorites hydrate once from persisted storage.
	favs := favorites.NewController(parts, bus)
	hydrateCtx, cancelHydrate := context.WithTimeout(context.Background(), 5*time.Second)
	favs.SetIDs(parts.FavoriteIDs(hydrateCtx))
	cancelHydrate()

	loc := location.NewStatic(cfg.HomeCoordinates)
	res := resolver.New(client, parts, loc, bus)
	holder := session.NewHolder(parts, favs, bus)

	// Background revalidation of home and favorite snapshots.
	sched := scheduler.New(cfg.RefreshInterval, res, favs, client, parts)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "skycast",
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
			"service": "skycast",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Resolver:  res,
		Suggester: client,
		Favorites: favs,
		Session:   holder,
		Events:    bus,
	})

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
