package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/essenzadelsur/support-agent-be/internal/core/session"
)

// SessionHandler exposes session introspection for the admin dashboard.
type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List godoc
// @Summary List support sessions
// @Tags Sessions
// @Produce json
// @Success 200 {array} session.Session
// @Router /sessions [get]
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.sessions.ListSessions(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list sessions"})
	}
	return c.JSON(sessions)
}

// Messages godoc
// @Summary Get a session's message history
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} session.Turn
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id}/messages [get]
func (h *SessionHandler) Messages(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid session id"})
	}

	sess, err := h.sessions.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load session"})
	}
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	turns, err := h.sessions.Turns(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load messages"})
	}
	return c.JSON(turns)
}

type toggleBotRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ToggleBot godoc
// @Summary Toggle automated replies for a session
// @Description Switches a session between bot control and human control
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body toggleBotRequest true "Desired bot state"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id}/bot [put]
func (h *SessionHandler) ToggleBot(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid session id"})
	}

	var req toggleBotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sess, err := h.sessions.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load session"})
	}
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	if err := h.sessions.SetBotActive(c.Context(), id, *req.Active); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update session"})
	}
	return c.JSON(fiber.Map{"id": id, "is_bot_active": *req.Active})
}
