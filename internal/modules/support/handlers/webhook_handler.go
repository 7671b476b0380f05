package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/modules/support/services"
)

// processTimeout bounds one async inbound pipeline run.
const processTimeout = 2 * time.Minute

// WebhookHandler receives WhatsApp Cloud API webhook traffic: the GET
// verification handshake and POSTed message notifications.
type WebhookHandler struct {
	service     *services.MessageService
	appSecret   string
	verifyToken string
}

func NewWebhookHandler(service *services.MessageService, appSecret, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		service:     service,
		appSecret:   appSecret,
		verifyToken: verifyToken,
	}
}

// cloudAPIPayload mirrors the Cloud API webhook notification shape.
type cloudAPIPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Messages         []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text,omitempty"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Verify godoc
// @Summary Webhook verification handshake
// @Description Echoes hub.challenge when the verify token matches (Meta subscription handshake)
// @Tags Webhook
// @Produce plain
// @Param hub.mode query string true "Must be subscribe"
// @Param hub.verify_token query string true "Shared verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} map[string]interface{}
// @Router /webhook [get]
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		log.Info().Msg("webhook verification handshake accepted")
		return c.SendString(challenge)
	}

	log.Warn().Str("mode", mode).Msg("webhook verification rejected")
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "verification failed"})
}

// Receive godoc
// @Summary WhatsApp webhook receiver
// @Description Receives Cloud API message notifications; replies are generated asynchronously
// @Tags Webhook
// @Accept json
// @Produce json
// @Param X-Hub-Signature-256 header string true "HMAC SHA-256 of the raw body"
// @Param payload body map[string]interface{} true "Webhook payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()

	if !h.validSignature(body, c.Get("X-Hub-Signature-256")) {
		log.Warn().Msg("webhook signature mismatch")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	}

	var payload cloudAPIPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn().Err(err).Msg("malformed webhook payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	// Acknowledge fast; the pipeline runs in the background so Meta never
	// sees a slow response and starts retrying deliveries.
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil || msg.From == "" {
					continue
				}
				phone, text := msg.From, msg.Text.Body
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
					defer cancel()
					h.service.ProcessInbound(ctx, phone, text)
				}()
			}
		}
	}

	return c.JSON(fiber.Map{"status": "received"})
}

// validSignature checks the X-Hub-Signature-256 header: "sha256=" plus the
// hex HMAC SHA-256 of the raw body keyed by the app secret.
func (h *WebhookHandler) validSignature(body []byte, header string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	expected, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
