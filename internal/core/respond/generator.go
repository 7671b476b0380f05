package respond

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/core/llm"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
)

// FallbackText is the safe static reply sent when the model cannot answer.
// The channel layer never sees a raw model error.
const FallbackText = "Disculpa, en este momento no puedo procesar tu mensaje. " +
	"Inténtalo de nuevo en unos minutos, por favor."

// historyWindow bounds how many prior turns go to the model.
const historyWindow = 10

// ProductSummary is the single structured card a reply may carry.
type ProductSummary struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
	Image string  `json:"image,omitempty"`
}

// Reply is the generator's output. Text is always usable on its own; Product
// is nil for general informational answers.
type Reply struct {
	Text    string          `json:"text"`
	Product *ProductSummary `json:"product,omitempty"`
}

// Generator turns a user message, history, and retrieved context into a
// reply. It never returns an error to callers: model failures degrade to
// FallbackText so the channel adapters always have something to send.
type Generator struct {
	provider llm.Provider
	timeout  time.Duration
}

func NewGenerator(provider llm.Provider, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{provider: provider, timeout: timeout}
}

// Generate produces the grounded reply for one user turn.
func (g *Generator) Generate(ctx context.Context, userQuery string, history []session.Turn, retrieved *retrieval.Result) *Reply {
	systemPrompt := BuildSystemPrompt(retrieved)
	messages := toChatHistory(history)

	text, err := g.chatOnce(ctx, systemPrompt, messages, userQuery)
	if err != nil && errors.Is(err, llm.ErrModelUnavailable) && ctx.Err() == nil {
		text, err = g.chatOnce(ctx, systemPrompt, messages, userQuery)
	}
	if err != nil {
		log.Error().Err(err).Str("provider", g.provider.GetProviderName()).Msg("chat completion failed, using fallback")
		return &Reply{Text: FallbackText}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &Reply{Text: FallbackText}
	}

	reply := &Reply{Text: text}
	if retrieved != nil {
		reply.Product = productSummaryFrom(retrieved.Product)
	}
	return reply
}

func (g *Generator) chatOnce(ctx context.Context, systemPrompt string, history []llm.Message, userMessage string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.provider.GenerateChat(callCtx, systemPrompt, history, userMessage)
}

func toChatHistory(history []session.Turn) []llm.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == session.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	return messages
}
