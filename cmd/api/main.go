package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/core/catalog"
	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/jobs"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/llm"
	"github.com/essenzadelsur/support-agent-be/internal/core/respond"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
	"github.com/essenzadelsur/support-agent-be/internal/core/whatsapp"
	"github.com/essenzadelsur/support-agent-be/internal/modules/support/handlers"
	"github.com/essenzadelsur/support-agent-be/internal/modules/support/services"
	"github.com/essenzadelsur/support-agent-be/internal/shared/config"
	"github.com/essenzadelsur/support-agent-be/internal/shared/database"
	"github.com/essenzadelsur/support-agent-be/internal/shared/logger"
)

// @title Essenza del Sur Support API
// @version 1.0
// @description WhatsApp support assistant for the Essenza del Sur storefront
// @host localhost:8080
// @BasePath /
func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)

	for _, warning := range cfg.Warnings() {
		log.Warn().Msg(warning)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close(db)

	embedProvider, err := embedding.NewProvider(embedding.ProviderConfig{
		Type:          cfg.EmbeddingProvider,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
		OpenAIKey:     cfg.OpenAIKey,
		Dimensions:    cfg.EmbeddingDims,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("embedding provider init failed")
	}
	embedder := embedding.NewService(embedProvider, cfg.EmbeddingTimeout)

	llmProvider, err := llm.NewProvider(llm.ProviderConfig{
		Type:        llm.ProviderType(cfg.LLMProvider),
		OpenAIKey:   cfg.OpenAIKey,
		GroqKey:     cfg.GroqKey,
		DeepSeekKey: cfg.DeepSeekKey,
		Model:       cfg.LLMModel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("llm provider init failed")
	}

	sender, err := whatsapp.NewProvider(whatsapp.ProviderConfig{
		Type:        whatsapp.ProviderType(cfg.WhatsAppProvider),
		PhoneID:     cfg.WhatsAppPhoneID,
		AccessToken: cfg.WhatsAppAccessToken,
		APIVersion:  cfg.WhatsAppAPIVersion,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("whatsapp provider init failed")
	}

	knowledgeStore := knowledge.NewPgStore(db)
	sessions := session.NewManager(session.NewGormStore(db), cfg.SessionTTL)
	retriever := retrieval.NewRetriever(embedder, knowledgeStore, cfg.RetrievalTopK, cfg.RetrievalThreshold)
	generator := respond.NewGenerator(llmProvider, cfg.LLMTimeout)
	messageService := services.NewMessageService(sessions, retriever, generator, sender)

	// Scheduled catalog re-ingestion runs through the job queue, so every run
	// leaves a completed/failed record.
	entries, err := knowledge.LoadStaticEntries(cfg.FAQPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.FAQPath).Msg("static knowledge not loaded, ingesting catalog only")
	}
	ingestor := knowledge.NewIngestor(catalog.NewGormCatalog(db), embedder, knowledgeStore, nil, entries)

	queue := jobs.NewQueue(db)
	worker := jobs.NewWorker(queue, 5*time.Second)
	worker.Register(knowledge.NewIngestJobHandler(ingestor))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	worker.Start(ctx)

	var scheduler *cron.Cron
	if cfg.IngestCronSpec != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.IngestCronSpec, func() {
			if _, err := queue.Enqueue(context.Background(), knowledge.JobTypeIngest, nil, 3); err != nil {
				log.Error().Err(err).Msg("failed to enqueue ingestion run")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("spec", cfg.IngestCronSpec).Msg("invalid ingestion cron spec")
		}
		scheduler.Start()
		log.Info().Str("spec", cfg.IngestCronSpec).Msg("ingestion schedule active")
	}

	webhookHandler := handlers.NewWebhookHandler(messageService, cfg.WebhookAppSecret, cfg.WebhookVerifyToken)
	chatHandler := handlers.NewChatHandler(messageService)
	sessionHandler := handlers.NewSessionHandler(sessions)
	healthHandler := handlers.NewHealthHandler(db)

	app := fiber.New(fiber.Config{AppName: "essenza-support-agent"})
	app.Use(cors.New())

	app.Get("/health", healthHandler.Health)
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/webhook", webhookHandler.Verify)
	app.Post("/webhook", webhookHandler.Receive)
	app.Post("/chat", chatHandler.Chat)

	app.Get("/sessions", sessionHandler.List)
	app.Get("/sessions/:id/messages", sessionHandler.Messages)
	app.Put("/sessions/:id/bot", sessionHandler.ToggleBot)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("support agent listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	worker.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
