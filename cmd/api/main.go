package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/api/handlers"
	"github.com/gikai-viz/backend/internal/cache/redis"
	"github.com/gikai-viz/backend/internal/extract"
	"github.com/gikai-viz/backend/internal/ingestion"
	"github.com/gikai-viz/backend/internal/metrics"
	"github.com/gikai-viz/backend/internal/middleware/ratelimit"
	"github.com/gikai-viz/backend/internal/middleware/security"
	"github.com/gikai-viz/backend/internal/middleware/validation"
	"github.com/gikai-viz/backend/internal/storage/objectstore"
	"github.com/gikai-viz/backend/internal/storage/sqlite"
	"github.com/gikai-viz/backend/pkg/config"
	appLogger "github.com/gikai-viz/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting council minutes API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	store, err := objectstore.NewStore(cfg.Storage.Dir)
	if err != nil {
		appLogger.Fatal("Failed to create object store", zap.Error(err))
	}

	// Redis is optional; the card list just skips caching without it.
	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	extractor := extract.NewRegistry()
	processor := ingestion.NewProcessor(sqliteClient, store, extractor, cacheClient, cfg.Pipeline.MinKeywordLength)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))
	app.Use(validation.Middleware(validation.Config{
		MaxUploadSize: cfg.Server.BodyLimit,
		Logger:        appLogger.Log,
	}))

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxPerMin,
			WindowDuration:       time.Duration(cfg.RateLimit.Expiration) * time.Second,
			Logger:               appLogger.Log,
		})
		defer limiter.Stop()
		app.Use(limiter.Middleware())
	}

	cardsHandler := handlers.NewCardsHandler(sqliteClient, cacheClient, time.Duration(cfg.Pipeline.CacheTTLSec)*time.Second)
	meetingsHandler := handlers.NewMeetingsHandler(sqliteClient)
	minutesHandler := handlers.NewMinutesHandler(processor)
	importHandler := handlers.NewImportHandler(processor)
	wsHandler := handlers.NewWebSocketHandler(processor)

	api := app.Group("/api/v1")

	api.Get("/cards", cardsHandler.ListCards)
	api.Get("/cards/:id", cardsHandler.GetCard)
	api.Post("/cards/:id/view", cardsHandler.RecordView)

	api.Get("/meetings", meetingsHandler.ListMeetings)
	api.Get("/meetings/:id/topics", meetingsHandler.GetMeetingTopics)

	admin := api.Group("/admin")
	admin.Post("/minutes", minutesHandler.UploadMinutes)
	admin.Get("/minutes", minutesHandler.ListFiles)
	admin.Get("/minutes/:id/analysis", minutesHandler.GetFileAnalysis)
	admin.Post("/minutes/:id/reparse", minutesHandler.ReparseFile)
	admin.Post("/import", importHandler.ImportThemes)
	admin.Patch("/cards/:id/publish", cardsHandler.SetPublished)
	admin.Post("/meetings", meetingsHandler.CreateMeeting)

	admin.Use("/reparse/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	admin.Get("/reparse/ws", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
