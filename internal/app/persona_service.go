package app

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"aichorus/internal/model"
	"aichorus/internal/repository"
)

var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrBadBusinessRole = errors.New("unknown business role")
)

// DefaultResponseRule matches the OpenAI-compatible completion shape. It is
// only a default; each persona stores its own rule.
const DefaultResponseRule = "choices[0].message.content"

type PersonaService struct {
	personaRepo *repository.PersonaRepository
}

type PersonaInput struct {
	Name         string
	Description  string
	Personality  string
	BaseURL      string
	APIKey       string
	ModelName    string
	BusinessRole string
	ResponseRule string
}

func NewPersonaService(personaRepo *repository.PersonaRepository) *PersonaService {
	return &PersonaService{personaRepo: personaRepo}
}

func (s *PersonaService) Create(input PersonaInput) (*model.Persona, error) {
	if strings.TrimSpace(input.Name) == "" ||
		strings.TrimSpace(input.Personality) == "" ||
		strings.TrimSpace(input.ModelName) == "" {
		return nil, ErrInvalidInput
	}

	role := model.BusinessRole(input.BusinessRole)
	if input.BusinessRole == "" {
		role = model.RoleAnswer
	}
	if !model.ValidBusinessRole(role) {
		return nil, ErrBadBusinessRole
	}

	rule := strings.TrimSpace(input.ResponseRule)
	if rule == "" {
		rule = DefaultResponseRule
	}

	persona := &model.Persona{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Personality:  input.Personality,
		BaseURL:      strings.TrimSpace(input.BaseURL),
		APIKey:       strings.TrimSpace(input.APIKey),
		ModelName:    strings.TrimSpace(input.ModelName),
		BusinessRole: role,
		ResponseRule: rule,
	}
	if err := s.personaRepo.Create(persona); err != nil {
		return nil, err
	}
	return persona, nil
}

func (s *PersonaService) Get(personaID string) (*model.Persona, error) {
	persona, err := s.personaRepo.GetByID(personaID)
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, ErrPersonaNotFound
	}
	return persona, nil
}

func (s *PersonaService) List() ([]model.Persona, error) {
	return s.personaRepo.List()
}

// Update overwrites only the fields present in input.
func (s *PersonaService) Update(personaID string, input PersonaInput) (*model.Persona, error) {
	persona, err := s.Get(personaID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Name) != "" {
		persona.Name = strings.TrimSpace(input.Name)
	}
	if strings.TrimSpace(input.Description) != "" {
		persona.Description = strings.TrimSpace(input.Description)
	}
	if strings.TrimSpace(input.Personality) != "" {
		persona.Personality = input.Personality
	}
	if strings.TrimSpace(input.BaseURL) != "" {
		persona.BaseURL = strings.TrimSpace(input.BaseURL)
	}
	if strings.TrimSpace(input.APIKey) != "" {
		persona.APIKey = strings.TrimSpace(input.APIKey)
	}
	if strings.TrimSpace(input.ModelName) != "" {
		persona.ModelName = strings.TrimSpace(input.ModelName)
	}
	if input.BusinessRole != "" {
		role := model.BusinessRole(input.BusinessRole)
		if !model.ValidBusinessRole(role) {
			return nil, ErrBadBusinessRole
		}
		persona.BusinessRole = role
	}
	if strings.TrimSpace(input.ResponseRule) != "" {
		persona.ResponseRule = strings.TrimSpace(input.ResponseRule)
	}

	if err := s.personaRepo.Update(persona); err != nil {
		return nil, err
	}
	return persona, nil
}

// Delete removes the persona record. Historical messages keep their persona
// foreign key; reads tolerate the missing join.
func (s *PersonaService) Delete(personaID string) error {
	if _, err := s.Get(personaID); err != nil {
		return err
	}
	return s.personaRepo.Delete(personaID)
}
