package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/essenzadelsur/support-agent-be/internal/core/respond"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
	"github.com/essenzadelsur/support-agent-be/internal/modules/support/services"
)

var validate = validator.New()

// ChatHandler is the mock chat channel: same pipeline as the webhook, but
// synchronous, sessionless, and without transport authentication. Used for
// testing retrieval and generation without WhatsApp in the loop.
type ChatHandler struct {
	service *services.MessageService
}

func NewChatHandler(service *services.MessageService) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatRequest is the mock chat input: the current message plus prior turns.
type ChatRequest struct {
	Message string     `json:"message" validate:"required,min=1,max=2000"`
	History []ChatTurn `json:"history" validate:"dive"`
}

// ChatTurn is one prior turn supplied by the caller.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatResponse is the synchronous reply.
type ChatResponse struct {
	Text    string                  `json:"text"`
	Product *respond.ProductSummary `json:"product,omitempty"`
}

// Chat godoc
// @Summary Mock chat endpoint
// @Description Runs the retrieval and generation pipeline synchronously, without a session
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Message and prior history"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} map[string]interface{}
// @Router /chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	history := make([]session.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, session.Turn{Role: turn.Role, Content: turn.Content})
	}

	reply := h.service.Answer(c.Context(), req.Message, history)
	return c.JSON(ChatResponse{Text: reply.Text, Product: reply.Product})
}
