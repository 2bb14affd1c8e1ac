package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"aichorus/internal/model"
)

type PersonaRepository struct {
	db *gorm.DB
}

func NewPersonaRepository(db *gorm.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

func (r *PersonaRepository) Create(persona *model.Persona) error {
	if err := r.db.Create(persona).Error; err != nil {
		return fmt.Errorf("create persona failed: %w", err)
	}
	return nil
}

func (r *PersonaRepository) GetByID(personaID string) (*model.Persona, error) {
	var persona model.Persona
	if err := r.db.Where("id = ?", personaID).First(&persona).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get persona failed: %w", err)
	}
	return &persona, nil
}

func (r *PersonaRepository) List() ([]model.Persona, error) {
	var personas []model.Persona
	if err := r.db.Order("created_at ASC").Find(&personas).Error; err != nil {
		return nil, fmt.Errorf("list personas failed: %w", err)
	}
	return personas, nil
}

func (r *PersonaRepository) ListByIDs(personaIDs []string) ([]model.Persona, error) {
	if len(personaIDs) == 0 {
		return nil, nil
	}

	var personas []model.Persona
	if err := r.db.Where("id IN ?", personaIDs).Find(&personas).Error; err != nil {
		return nil, fmt.Errorf("list personas by ids failed: %w", err)
	}
	return personas, nil
}

func (r *PersonaRepository) Update(persona *model.Persona) error {
	if err := r.db.Save(persona).Error; err != nil {
		return fmt.Errorf("update persona failed: %w", err)
	}
	return nil
}

func (r *PersonaRepository) Delete(personaID string) error {
	if err := r.db.Where("id = ?", personaID).Delete(&model.Persona{}).Error; err != nil {
		return fmt.Errorf("delete persona failed: %w", err)
	}
	return nil
}
