package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	byPhone map[string]*Session
	byID    map[uuid.UUID]*Session
	turns   map[uuid.UUID][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byPhone: make(map[string]*Session),
		byID:    make(map[uuid.UUID]*Session),
		turns:   make(map[uuid.UUID][]Turn),
	}
}

func (s *MemoryStore) GetByPhone(ctx context.Context, phone string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byPhone[phone]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[id]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPhone[sess.PhoneNumber]; exists {
		return fmt.Errorf("session for %s already exists", sess.PhoneNumber)
	}
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	now := time.Now()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	cp := *sess
	s.byPhone[sess.PhoneNumber] = &cp
	s.byID[sess.ID] = &cp
	return nil
}

func (s *MemoryStore) SetBotActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	sess.IsBotActive = active
	if active {
		sess.HandoverAt = nil
	} else {
		now := time.Now()
		sess.HandoverAt = &now
	}
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Extend(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	sess.ExpiresAt = expiresAt
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{
		ID:        uuid.New(),
		SessionID: sessionID,
		Seq:       len(s.turns[sessionID]) + 1,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return &turn, nil
}

func (s *MemoryStore) ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]Turn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	return turns, nil
}

func (s *MemoryStore) ClearTurns(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}

func (s *MemoryStore) ListSessions(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]Session, 0, len(s.byID))
	for _, sess := range s.byID {
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}
