package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// Manager coordinates session access for the channel adapters. It serializes
// history mutations per phone number (double webhook deliveries must not lose
// a turn) and keeps a short-lived cache of hot sessions in front of the store.
type Manager struct {
	store Store
	ttl   time.Duration

	cache *gocache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a session manager. ttl controls session expiry: a
// session past its expiresAt gets a fresh history window on next contact.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store: store,
		ttl:   ttl,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations for one phone number.
func (m *Manager) lockFor(phone string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[phone]
	if !ok {
		l = &sync.Mutex{}
		m.locks[phone] = l
	}
	return l
}

// GetOrCreate loads the session for a phone number, creating it in
// BOT_ACTIVE state on first contact. Calling it twice for the same unseen
// number yields the same record. Expired sessions get their history cleared
// and their window extended; the bot-active flag survives expiry.
func (m *Manager) GetOrCreate(ctx context.Context, phone string) (*Session, error) {
	l := m.lockFor(phone)
	l.Lock()
	defer l.Unlock()

	return m.getOrCreateLocked(ctx, phone)
}

func (m *Manager) getOrCreateLocked(ctx context.Context, phone string) (*Session, error) {
	if cached, found := m.cache.Get(phone); found {
		return cached.(*Session), nil
	}

	sess, err := m.store.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if sess == nil {
		sess = &Session{
			PhoneNumber: phone,
			IsBotActive: true,
			ExpiresAt:   time.Now().Add(m.ttl),
		}
		if err := m.store.Create(ctx, sess); err != nil {
			// Lost a race with another process; re-read instead of failing.
			existing, getErr := m.store.GetByPhone(ctx, phone)
			if getErr != nil || existing == nil {
				return nil, err
			}
			sess = existing
		}
		log.Info().Str("phone", phone).Msg("session created")
	} else if time.Now().After(sess.ExpiresAt) {
		if err := m.store.ClearTurns(ctx, sess.ID); err != nil {
			return nil, err
		}
		sess.ExpiresAt = time.Now().Add(m.ttl)
		if err := m.store.Extend(ctx, sess.ID, sess.ExpiresAt); err != nil {
			return nil, err
		}
		log.Info().Str("phone", phone).Msg("stale session reset")
	}

	m.cache.Set(phone, sess, gocache.DefaultExpiration)
	return sess, nil
}

// AppendTurn records a turn under the per-phone lock and extends the session
// window. Returns the stored turn with its assigned sequence number.
func (m *Manager) AppendTurn(ctx context.Context, phone, role, content string) (*Turn, error) {
	l := m.lockFor(phone)
	l.Lock()
	defer l.Unlock()

	sess, err := m.getOrCreateLocked(ctx, phone)
	if err != nil {
		return nil, err
	}

	turn, err := m.store.AppendTurn(ctx, sess.ID, role, content)
	if err != nil {
		return nil, err
	}

	sess.ExpiresAt = time.Now().Add(m.ttl)
	if err := m.store.Extend(ctx, sess.ID, sess.ExpiresAt); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("failed to extend session window")
	}
	return turn, nil
}

// History returns the session's turns in conversation order, bounded to the
// most recent limit turns when limit > 0.
func (m *Manager) History(ctx context.Context, phone string, limit int) ([]Turn, error) {
	sess, err := m.GetOrCreate(ctx, phone)
	if err != nil {
		return nil, err
	}

	turns, err := m.store.ListTurns(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// SetBotActive toggles automated replies for a session (operator action).
// It runs under the per-phone lock and drops the cached copy only after the
// store write commits, so a concurrent lookup can never re-cache the old
// flag and keep answering a handed-over conversation.
func (m *Manager) SetBotActive(ctx context.Context, id uuid.UUID, active bool) error {
	sess, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %s not found", id)
	}

	l := m.lockFor(sess.PhoneNumber)
	l.Lock()
	defer l.Unlock()

	if err := m.store.SetBotActive(ctx, id, active); err != nil {
		return err
	}
	m.cache.Delete(sess.PhoneNumber)

	log.Info().Str("session", id.String()).Bool("bot_active", active).Msg("bot flag toggled")
	return nil
}

// ListSessions exposes all sessions for the admin dashboard.
func (m *Manager) ListSessions(ctx context.Context) ([]Session, error) {
	return m.store.ListSessions(ctx)
}

// Turns exposes a session's messages for the admin dashboard.
func (m *Manager) Turns(ctx context.Context, id uuid.UUID) ([]Turn, error) {
	return m.store.ListTurns(ctx, id)
}

// GetByID loads a session by its identifier.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return m.store.GetByID(ctx, id)
}
