package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/stockmeta/api/internal/config"
	"github.com/stockmeta/api/internal/credit"
	"github.com/stockmeta/api/internal/gateway"
	"github.com/stockmeta/api/internal/handler"
	"github.com/stockmeta/api/internal/ingest"
	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/notify"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := notify.NewHub()
	go hub.Run()

	// Initialize core components
	gw := gateway.NewHTTPGateway(gateway.Endpoints{
		Groq:   cfg.Providers.GroqBaseURL,
		Gemini: cfg.Providers.GeminiBaseURL,
		OpenAI: cfg.Providers.OpenAIBaseURL,
	})
	ledger := credit.NewRedisLedger(redisClient, cfg.Batch.DailyFreeCredits)
	ingestor := ingest.New(ingest.Options{
		MaxBatchSize: cfg.Batch.MaxSize,
		MaxDimension: cfg.Media.MaxDimension,
		MinLatency:   time.Duration(cfg.Batch.MinUploadMs) * time.Millisecond,
		FFmpegPath:   cfg.Media.FFmpegPath,
		Notifier:     hub,
	})

	// Initialize services
	kv := service.NewRedisKV(redisClient)
	settingsService := service.NewSettingsService(kv, gw)
	profileService := service.NewProfileService(kv, ledger)
	sessionService := service.NewSessionService(gw, ledger, hub, settingsService, profileService,
		service.AsynqDispatcher(asynqClient))

	// Initialize handlers
	assetHandler := handler.NewAssetHandler(sessionService, ingestor)
	metadataHandler := handler.NewMetadataHandler(sessionService, validate)
	queueHandler := handler.NewQueueHandler(sessionService)
	exportHandler := handler.NewExportHandler(sessionService, settingsService)
	settingsHandler := handler.NewSettingsHandler(settingsService, validate)
	profileHandler := handler.NewProfileHandler(profileService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    200 * 1024 * 1024, // batch uploads carry raw media
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Asset routes
	assets := api.Group("/assets")
	assets.Post("/", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), assetHandler.Upload)
	assets.Get("/", assetHandler.List)
	assets.Delete("/", assetHandler.Clear)
	assets.Get("/:id/preview", assetHandler.Preview)
	assets.Put("/:id/select", assetHandler.Select)
	assets.Delete("/:id", assetHandler.Remove)

	// Metadata editing routes
	assets.Patch("/:id/metadata", metadataHandler.UpdateField)
	assets.Post("/:id/snapshot", metadataHandler.Snapshot)
	assets.Post("/:id/undo", metadataHandler.Undo)
	assets.Post("/:id/redo", metadataHandler.Redo)

	// Queue routes
	queue := api.Group("/queue")
	queue.Post("/start", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), queueHandler.Start)
	queue.Post("/stop", queueHandler.Stop)
	queue.Post("/regenerate/:id", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), queueHandler.Regenerate)
	queue.Get("/status", queueHandler.Status)

	// Export routes
	export := api.Group("/export", rateLimiter.ExportLimit(cfg.RateLimit.ExportPerHour))
	export.Get("/standard", exportHandler.Standard)
	export.Get("/adobe", exportHandler.Adobe)
	export.Get("/xlsx", exportHandler.XLSX)

	// Settings and profile routes
	api.Get("/settings", settingsHandler.Get)
	api.Put("/settings", settingsHandler.Put)
	api.Post("/settings/keys/verify", settingsHandler.VerifyKey)
	api.Get("/profile", profileHandler.Get)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/batch", websocket.New(func(c *websocket.Conn) {
		claims, err := authMiddleware.Parse(c.Query("token"))
		if err != nil {
			c.Close()
			return
		}
		hub.HandleConnection(c, claims.UserID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, sessionService)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// startWorkerServer runs the in-process asynq server. Concurrency 1 on the
// generate queue keeps a single cooperative loop per process.
func startWorkerServer(cfg *config.Config, sessionService *service.SessionService) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"generate": 1,
			},
		},
	)

	generateWorker := worker.NewGenerateWorker(sessionService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeGenerate, generateWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
