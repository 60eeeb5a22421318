package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/api/handlers"
	rediscache "github.com/facultyinsight/backend/internal/cache/redis"
	"github.com/facultyinsight/backend/internal/ingestion"
	"github.com/facultyinsight/backend/internal/llm"
	"github.com/facultyinsight/backend/internal/mail"
	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/middleware/ratelimit"
	"github.com/facultyinsight/backend/internal/middleware/security"
	"github.com/facultyinsight/backend/internal/rag"
	"github.com/facultyinsight/backend/internal/review"
	"github.com/facultyinsight/backend/internal/roster"
	"github.com/facultyinsight/backend/internal/store/sqlite"
	"github.com/facultyinsight/backend/internal/vector/milvus"
	"github.com/facultyinsight/backend/pkg/config"
	appLogger "github.com/facultyinsight/backend/pkg/logger"
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

	appLogger.Info("Starting FacultyInsight API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	teacherRoster, err := roster.Load()
	if err != nil {
		appLogger.Fatal("Failed to load teacher roster", zap.Error(err))
	}

	llmClient, err := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	var cache *rediscache.Client
	cache, err = rediscache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
	}

	var vectorClient *milvus.Client
	var augmentor *rag.Augmentor
	var processor *ingestion.Processor
	if cfg.Vector.Endpoint != "" {
		vectorClient, err = milvus.NewClient(
			cfg.Vector.Endpoint,
			cfg.Vector.APIKey,
			cfg.Vector.CollectionName,
			cfg.Vector.VectorDim,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
		}
		defer vectorClient.Close()

		if err := vectorClient.CreateCollection(context.Background()); err != nil {
			appLogger.Fatal("Failed to create collection", zap.Error(err))
		}

		var embCache rag.EmbeddingCache
		if cache != nil {
			embCache = cache
		}
		augmentor = rag.NewAugmentor(llmClient, vectorClient, embCache, cfg.Vector.TopK, cfg.Vector.SpliceLimit)
		processor = ingestion.NewProcessor(sqliteClient, vectorClient, llmClient)
	} else {
		appLogger.Info("Vector index not configured; retrieval path disabled")
	}

	var sender *mail.Sender
	sender, err = mail.NewSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.Recipient)
	if err != nil {
		appLogger.Warn("Mail sender not configured; feedback route will report it", zap.Error(err))
		sender = nil
	}

	var summaryCache review.SummaryCache
	if cache != nil {
		summaryCache = cache
	}
	pipeline := review.NewPipeline(llmClient, sqliteClient, teacherRoster, summaryCache, augmentor)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 30,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	reviewHandler := handlers.NewReviewHandler(pipeline)
	chatHandler := handlers.NewChatHandler(pipeline)
	teacherHandler := handlers.NewTeacherHandler(sqliteClient, teacherRoster, invalidatorOrNil(cache))
	var feedbackSender handlers.FeedbackSender
	if sender != nil {
		feedbackSender = sender
	}
	feedbackHandler := handlers.NewFeedbackHandler(feedbackSender, sqliteClient)
	ingestHandler := handlers.NewIngestHandler(ingestorOrNil(processor), teacherRoster)
	wsHandler := handlers.NewWebSocketHandler(pipeline)

	api := app.Group("/api")

	api.Post("/review", limiter.Middleware(), reviewHandler.HandleReview)
	api.Post("/chat", limiter.Middleware(), chatHandler.HandleChat)
	api.Post("/send-feedback", feedbackHandler.HandleFeedback)
	api.Post("/waitlist", teacherHandler.JoinWaitlist)
	api.Get("/teachers", teacherHandler.ListTeachers)
	api.Get("/teachers/:key", teacherHandler.GetTeacher)
	api.Post("/teachers/:key/reviews", teacherHandler.SubmitReview)
	api.Post("/passages", ingestHandler.IngestPassages)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

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

// invalidatorOrNil keeps the nil check in one place: a typed nil pointer
// must not reach the handler as a non-nil interface.
func invalidatorOrNil(cache *rediscache.Client) handlers.SummaryInvalidator {
	if cache == nil {
		return nil
	}
	return cache
}

func ingestorOrNil(p *ingestion.Processor) handlers.PassageIngestor {
	if p == nil {
		return nil
	}
	return p
}
