package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists sessions and their turn history.
//
// GetByPhone and GetByID return (nil, nil) when no record exists. AppendTurn
// assigns the next sequence number atomically at the storage layer; combined
// with the manager's per-phone locking this keeps history append-only and
// ordered even under concurrent inbound messages for one sender.
type Store interface {
	GetByPhone(ctx context.Context, phone string) (*Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Create(ctx context.Context, s *Session) error
	SetBotActive(ctx context.Context, id uuid.UUID, active bool) error
	Extend(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string) (*Turn, error)
	ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error)
	ClearTurns(ctx context.Context, sessionID uuid.UUID) error
	ListSessions(ctx context.Context) ([]Session, error)
}
