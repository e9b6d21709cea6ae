package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dieselhub/internal/app"
	"dieselhub/internal/auth"
	"dieselhub/internal/cache"
	"dieselhub/internal/config"
	"dieselhub/internal/db"
	"dieselhub/internal/http/handlers"
	"dieselhub/internal/http/middleware"
	"dieselhub/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// attemptSweepInterval is how often expired order attempts are dropped from memory
const attemptSweepInterval = time.Minute

func main() {
	// `api hash-token <token>` prints a value for ADMIN_TOKEN_HASH
	if len(os.Args) == 3 && os.Args[1] == "hash-token" {
		hash, err := auth.HashToken(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}
	cfg := config.Load()

	// Setup logger
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Initialize telemetry (optional service)
	shutdownTelemetry, enabled, err := telemetry.InitTelemetry()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		shutdownTelemetry = func() {}
	} else if enabled {
		log.Info().Msg("Telemetry initialized successfully")
	} else {
		log.Info().Msg("Telemetry disabled")
	}
	defer shutdownTelemetry()

	// Initialize database
	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Redis is optional; without it rate state and address cache stay in process
	var redisClient *cache.RedisClient
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory state")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Initialize services
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	services := app.NewServices(database, cfg, redisClient, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if services.MemoryAttempts != nil {
		go services.MemoryAttempts.StartSweeper(ctx, attemptSweepInterval, services.Gate.Window())
		log.Info().Msg("Order attempt sweeper started")
	}

	// Setup Echo
	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	// Set custom validator
	e.Validator = handlers.NewCustomValidator()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Telemetry())
	e.Use(echomiddleware.CORSWithConfig(corsConfig(cfg)))
	e.Use(echomiddleware.BodyLimit("25M"))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Setup routes
	api := e.Group("/api")
	handlers.SetupRoutes(api, services)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Server started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func corsConfig(cfg *config.Config) echomiddleware.CORSConfig {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middleware.AdminTokenHeader,
			middleware.SyncKeyHeader,
			handlers.DeviceIDHeader,
		},
	}
}
