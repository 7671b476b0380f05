package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/core/catalog"
	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/shared/config"
	"github.com/essenzadelsur/support-agent-be/internal/shared/database"
	"github.com/essenzadelsur/support-agent-be/internal/shared/logger"
)

// One-shot knowledge ingestion: reads the product catalog plus the static
// FAQ/policy file, re-embeds everything, and swaps in the new generation.
// Run it after seeding products or editing the FAQ file.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close(db)

	provider, err := embedding.NewProvider(embedding.ProviderConfig{
		Type:          cfg.EmbeddingProvider,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
		OpenAIKey:     cfg.OpenAIKey,
		Dimensions:    cfg.EmbeddingDims,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("embedding provider init failed")
	}
	embedder := embedding.NewService(provider, cfg.EmbeddingTimeout)

	entries, err := knowledge.LoadStaticEntries(cfg.FAQPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.FAQPath).Msg("static knowledge not loaded, ingesting catalog only")
	}

	ingestor := knowledge.NewIngestor(
		catalog.NewGormCatalog(db),
		embedder,
		knowledge.NewPgStore(db),
		nil,
		entries,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	count, err := ingestor.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
	log.Info().Int("chunks", count).Msg("ingestion finished")
}
