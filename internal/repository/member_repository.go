package repository

import (
	"fmt"

	"gorm.io/gorm"

	"aichorus/internal/model"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Add inserts a membership row. A violation of the (session_id, persona_id)
// unique index surfaces as gorm.ErrDuplicatedKey, which the caller maps to
// its own conflict error; the index is what makes concurrent duplicate
// attempts resolve deterministically.
func (r *MemberRepository) Add(member *model.SessionMember) error {
	if err := r.db.Create(member).Error; err != nil {
		return err
	}
	return nil
}

func (r *MemberRepository) Exists(sessionID uint, personaID string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.SessionMember{}).
		Where("session_id = ? AND persona_id = ?", sessionID, personaID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check membership failed: %w", err)
	}
	return count > 0, nil
}

func (r *MemberRepository) Count(sessionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.SessionMember{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count members failed: %w", err)
	}
	return count, nil
}

// Remove deletes the pair and reports whether a row was actually removed.
func (r *MemberRepository) Remove(sessionID uint, personaID string) (bool, error) {
	result := r.db.Where("session_id = ? AND persona_id = ?", sessionID, personaID).
		Delete(&model.SessionMember{})
	if result.Error != nil {
		return false, fmt.Errorf("remove member failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListPersonas returns the personas on the session roster, join order by
// membership creation time.
func (r *MemberRepository) ListPersonas(sessionID uint) ([]model.Persona, error) {
	var personas []model.Persona
	err := r.db.Model(&model.Persona{}).
		Select("personas.*").
		Joins("JOIN session_members ON session_members.persona_id = personas.id").
		Where("session_members.session_id = ?", sessionID).
		Order("session_members.created_at ASC").
		Find(&personas).Error
	if err != nil {
		return nil, fmt.Errorf("list session personas failed: %w", err)
	}
	return personas, nil
}
