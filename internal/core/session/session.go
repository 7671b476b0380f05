package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStoreUnavailable indicates the session store could not be reached. The
// channel adapter still acknowledges the transport when this happens; only
// the reply is lost, and the incident is logged for operator follow-up.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session tracks one customer conversation keyed by phone number.
type Session struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PhoneNumber string     `gorm:"type:text;not null;uniqueIndex" json:"phone_number"`
	IsBotActive bool       `gorm:"not null;default:true" json:"is_bot_active"`
	HandoverAt  *time.Time `gorm:"" json:"handover_at,omitempty"` // set when escalated to a human
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Session) TableName() string {
	return "support_sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Turn is one message in a session's history. Seq defines conversation order
// and is assigned by the store, never by callers.
type Turn struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_turn_session_seq" json:"session_id"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_turn_session_seq" json:"seq"`
	Role      string    `gorm:"type:text;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Turn) TableName() string {
	return "support_session_turns"
}

func (t *Turn) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
