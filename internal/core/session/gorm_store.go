package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore is the Postgres implementation of Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetByPhone(ctx context.Context, phone string) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).Where("phone_number = ?", phone).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &sess, nil
}

func (s *GormStore) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &sess, nil
}

func (s *GormStore) Create(ctx context.Context, sess *Session) error {
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormStore) SetBotActive(ctx context.Context, id uuid.UUID, active bool) error {
	updates := map[string]interface{}{"is_bot_active": active}
	if active {
		updates["handover_at"] = nil
	} else {
		updates["handover_at"] = time.Now()
	}

	res := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

func (s *GormStore) Extend(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// AppendTurn assigns the next sequence number inside a transaction so two
// appends for the same session can never claim the same slot.
func (s *GormStore) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content string) (*Turn, error) {
	turn := &Turn{SessionID: sessionID, Role: role, Content: content}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&Turn{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		turn.Seq = maxSeq + 1
		return tx.Create(turn).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return turn, nil
}

func (s *GormStore) ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	var turns []Turn
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return turns, nil
}

func (s *GormStore) ClearTurns(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Turn{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormStore) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return sessions, nil
}
