package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"aichorus/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListRecent returns up to limit messages for the session, newest first.
func (r *MessageRepository) ListRecent(sessionID uint, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 5
	}

	var messages []model.Message
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	return messages, nil
}

// ListAsc returns the session history in chronological order.
func (r *MessageRepository) ListAsc(sessionID uint, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var messages []model.Message
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// ListByRoleAsc returns every message with the given role, oldest first.
func (r *MessageRepository) ListByRoleAsc(sessionID uint, role string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("session_id = ? AND role = ?", sessionID, role).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages by role failed: %w", err)
	}
	return messages, nil
}

// LatestByRole returns the most recent message with the given role, or nil.
func (r *MessageRepository) LatestByRole(sessionID uint, role string) (*model.Message, error) {
	var message model.Message
	err := r.db.Where("session_id = ? AND role = ?", sessionID, role).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest message by role failed: %w", err)
	}
	return &message, nil
}

// LatestByAuthorBusinessRole returns the most recent message authored by a
// persona carrying the given business role, or nil. Messages whose persona
// record has been deleted simply never match the join.
func (r *MessageRepository) LatestByAuthorBusinessRole(sessionID uint, role model.BusinessRole) (*model.Message, error) {
	var message model.Message
	err := r.db.Model(&model.Message{}).
		Select("messages.*").
		Joins("JOIN personas ON personas.id = messages.persona_id").
		Where("messages.session_id = ? AND personas.business_role = ?", sessionID, role).
		Order("messages.created_at DESC, messages.id DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest message by business role failed: %w", err)
	}
	return &message, nil
}
