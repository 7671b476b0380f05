package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/respond"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
	"github.com/essenzadelsur/support-agent-be/internal/core/whatsapp"
)

// historyLimit bounds how many prior turns feed retrieval and generation.
const historyLimit = 10

// MessageService runs the inbound pipeline: session resolution, retrieval,
// generation, history bookkeeping, and outbound dispatch. Both channel
// adapters (webhook and mock chat) sit on top of it.
type MessageService struct {
	sessions  *session.Manager
	retriever *retrieval.Retriever
	generator *respond.Generator
	sender    whatsapp.Provider
}

func NewMessageService(
	sessions *session.Manager,
	retriever *retrieval.Retriever,
	generator *respond.Generator,
	sender whatsapp.Provider,
) *MessageService {
	return &MessageService{
		sessions:  sessions,
		retriever: retriever,
		generator: generator,
		sender:    sender,
	}
}

// Answer produces a reply for a message plus caller-supplied history, without
// touching any session. The mock chat endpoint uses it directly.
//
// Failures degrade instead of propagating: an unreachable embedding model
// yields the static fallback text, an unreachable knowledge store yields an
// ungrounded best-effort reply.
func (s *MessageService) Answer(ctx context.Context, text string, history []session.Turn) *respond.Reply {
	retrieved, err := s.retriever.Retrieve(ctx, text, history)
	if err != nil {
		if errors.Is(err, embedding.ErrModelUnavailable) {
			log.Error().Err(err).Msg("embedding unavailable, static fallback")
			return &respond.Reply{Text: respond.FallbackText}
		}
		if errors.Is(err, knowledge.ErrStoreUnavailable) {
			log.Error().Err(err).Msg("knowledge store unavailable, answering without context")
		} else {
			log.Error().Err(err).Msg("retrieval failed, answering without context")
		}
		retrieved = &retrieval.Result{}
	}

	return s.generator.Generate(ctx, text, history, retrieved)
}

// HandleInbound runs the full session-aware pipeline for one inbound
// customer message. It returns nil when no automated reply should be sent:
// the session is under human control, so the turn is only recorded.
func (s *MessageService) HandleInbound(ctx context.Context, phone, text string) (*respond.Reply, error) {
	sess, err := s.sessions.GetOrCreate(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	history, err := s.sessions.History(ctx, phone, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if _, err := s.sessions.AppendTurn(ctx, phone, session.RoleUser, text); err != nil {
		return nil, fmt.Errorf("record user turn: %w", err)
	}

	if !sess.IsBotActive {
		log.Info().Str("phone", phone).Msg("session under human control, reply suppressed")
		return nil, nil
	}

	reply := s.Answer(ctx, text, history)

	if _, err := s.sessions.AppendTurn(ctx, phone, session.RoleAssistant, reply.Text); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to record assistant turn")
	}
	return reply, nil
}

// Dispatch delivers a reply through the outbound channel: the text first,
// then the product image when the card carries one. Delivery failures are
// logged, not retried.
func (s *MessageService) Dispatch(ctx context.Context, phone string, reply *respond.Reply) {
	if reply == nil {
		return
	}

	if err := s.sender.SendText(ctx, phone, reply.Text); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to send reply text")
		return
	}

	if reply.Product != nil && reply.Product.Image != "" {
		caption := fmt.Sprintf("%s — %s", reply.Product.Name, respond.FormatPrice(reply.Product.Price))
		if err := s.sender.SendImage(ctx, phone, reply.Product.Image, caption); err != nil {
			log.Error().Err(err).Str("phone", phone).Msg("failed to send product image")
		}
	}
}

// ProcessInbound is the webhook's async entry point: generate a reply and
// dispatch it. Session-store failures are logged and swallowed here because
// the transport was already acknowledged.
func (s *MessageService) ProcessInbound(ctx context.Context, phone, text string) {
	reply, err := s.HandleInbound(ctx, phone, text)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("inbound processing failed, no reply sent")
		return
	}
	s.Dispatch(ctx, phone, reply)
}
