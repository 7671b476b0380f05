package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the support agent.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	// Webhook authentication (WhatsApp Cloud API)
	WebhookAppSecret   string // HMAC secret for X-Hub-Signature-256
	WebhookVerifyToken string // Meta subscription handshake token

	// Embedding
	EmbeddingProvider string // "ollama" or "openai"
	OllamaBaseURL     string
	OllamaModel       string
	EmbeddingDims     int
	EmbeddingTimeout  time.Duration

	// LLM
	LLMProvider string
	LLMModel    string
	LLMTimeout  time.Duration
	OpenAIKey   string
	GroqKey     string
	DeepSeekKey string

	// WhatsApp Cloud API (outbound)
	WhatsAppProvider    string // "cloudapi" or "mock"
	WhatsAppPhoneID     string
	WhatsAppAccessToken string
	WhatsAppAPIVersion  string

	// Retrieval
	RetrievalTopK      int
	RetrievalThreshold float64

	// Session
	SessionTTL time.Duration

	// Ingestion
	IngestCronSpec string // empty disables the scheduled refresh
	FAQPath        string // static FAQ/policy source file (JSON)
}

// Load reads configuration from .env / environment with defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		WebhookAppSecret:   os.Getenv("WEBHOOK_APP_SECRET"),
		WebhookVerifyToken: os.Getenv("WEBHOOK_VERIFY_TOKEN"),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDims:     getEnvAsInt("EMBEDDING_DIMS", 768),
		EmbeddingTimeout:  getEnvAsDuration("EMBEDDING_TIMEOUT", 10*time.Second),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMModel:    os.Getenv("LLM_MODEL"),
		LLMTimeout:  getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		GroqKey:     os.Getenv("GROQ_API_KEY"),
		DeepSeekKey: os.Getenv("DEEPSEEK_API_KEY"),

		WhatsAppProvider:    getEnv("WHATSAPP_PROVIDER", "cloudapi"),
		WhatsAppPhoneID:     os.Getenv("WHATSAPP_PHONE_ID"),
		WhatsAppAccessToken: os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppAPIVersion:  getEnv("WHATSAPP_API_VERSION", "v18.0"),

		RetrievalTopK:      getEnvAsInt("RETRIEVAL_TOP_K", 3),
		RetrievalThreshold: getEnvAsFloat("RETRIEVAL_THRESHOLD", 0.35),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		IngestCronSpec: getEnv("INGEST_CRON", "0 3 * * *"),
		FAQPath:        getEnv("FAQ_PATH", "data/faq.json"),
	}

	return cfg
}

// Warnings reports configuration gaps that are tolerable in development but
// dangerous elsewhere, so the entrypoint can surface them at startup. An
// empty WEBHOOK_APP_SECRET keys the signature check with a known value,
// letting anyone forge valid webhook deliveries.
func (c *Config) Warnings() []string {
	if c.Env == "development" {
		return nil
	}

	var warnings []string
	if c.WebhookAppSecret == "" {
		warnings = append(warnings, "WEBHOOK_APP_SECRET is empty: webhook signatures are computed with a known key and anyone can forge deliveries")
	}
	if c.WebhookVerifyToken == "" {
		warnings = append(warnings, "WEBHOOK_VERIFY_TOKEN is empty: the Meta webhook subscription handshake will fail")
	}
	return warnings
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}
