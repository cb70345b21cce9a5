package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avecnous/shipclass/shipclass-backend/internal/config"
	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/handler"
	"github.com/avecnous/shipclass/shipclass-backend/internal/middleware"
	"github.com/avecnous/shipclass/shipclass-backend/internal/repository/cache"
	"github.com/avecnous/shipclass/shipclass-backend/internal/repository/postgres"
	"github.com/avecnous/shipclass/shipclass-backend/internal/repository/storage"
	"github.com/avecnous/shipclass/shipclass-backend/internal/service"
	"github.com/avecnous/shipclass/shipclass-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	var optionRepo domain.OptionRepository = postgres.NewOptionRepository(pool)
	classRepo := postgres.NewShippingClassRepository(pool)
	zoneRepo := postgres.NewShippingZoneRepository(pool)

	// Optional Redis option cache
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, option cache will fall back to the database")
		}
		optionRepo = cache.NewCachedOptionRepository(optionRepo, redisClient, cfg.CacheTTL)
		log.Info().Dur("ttl", cfg.CacheTTL).Msg("Option cache enabled")
	}

	// Optional S3 settings backups
	var snapshotRepo storage.SnapshotRepository
	if cfg.S3.Enabled() {
		s3Repo, err := storage.NewS3SnapshotRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 snapshot storage")
		}
		snapshotRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Settings backups enabled")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	var publisher websocket.EventPublisher = hub

	// Initialize services
	settingsService := service.NewSettingsService(optionRepo, classRepo, zoneRepo, publisher, cfg.AdminBaseURL)
	rateFilterService := service.NewRateFilterService(settingsService)
	backupService := service.NewBackupService(optionRepo, snapshotRepo, publisher)

	// Rate limiter for the checkout-facing endpoint
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"wsClients": hub.ClientCount(),
		})
	})

	// Register API routes
	handler.RegisterRoutes(e, handler.Handlers{
		Settings:   handler.NewSettingsHandler(settingsService),
		RateFilter: handler.NewRateFilterHandler(rateFilterService),
		Backup:     handler.NewBackupHandler(backupService),
		WebSocket:  handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	}, rateLimiter)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
