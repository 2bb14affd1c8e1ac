package app

import (
	"errors"

	"gorm.io/gorm"

	"aichorus/internal/model"
	"aichorus/internal/repository"
)

var (
	ErrAlreadyMember = errors.New("persona is already a session member")
	ErrNotAMember    = errors.New("persona is not a session member")
	ErrCapExceeded   = errors.New("session member cap exceeded")
)

// DefaultMemberCap bounds how many personas a single session may hold.
const DefaultMemberCap = 40

// MemberService manages the session roster. The existence pre-checks are an
// optimization only; the unique index on (session_id, persona_id) decides
// races between concurrent adds.
type MemberService struct {
	sessionRepo *repository.SessionRepository
	personaRepo *repository.PersonaRepository
	memberRepo  *repository.MemberRepository
	cap         int
}

// BatchAddResult reports the outcome for one persona of a batch add.
type BatchAddResult struct {
	PersonaID string `json:"persona_id"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
}

func NewMemberService(
	sessionRepo *repository.SessionRepository,
	personaRepo *repository.PersonaRepository,
	memberRepo *repository.MemberRepository,
	memberCap int,
) *MemberService {
	if memberCap <= 0 {
		memberCap = DefaultMemberCap
	}
	return &MemberService{
		sessionRepo: sessionRepo,
		personaRepo: personaRepo,
		memberRepo:  memberRepo,
		cap:         memberCap,
	}
}

func (s *MemberService) AddMember(sessionID uint, personaID string) error {
	if sessionID == 0 || personaID == "" {
		return ErrInvalidInput
	}
	if err := s.checkSession(sessionID); err != nil {
		return err
	}
	persona, err := s.personaRepo.GetByID(personaID)
	if err != nil {
		return err
	}
	if persona == nil {
		return ErrPersonaNotFound
	}

	count, err := s.memberRepo.Count(sessionID)
	if err != nil {
		return err
	}
	if count >= int64(s.cap) {
		return ErrCapExceeded
	}

	return s.insert(sessionID, personaID)
}

// AddMembers rejects the whole batch up front when it would break the cap,
// then inserts per item so a duplicate does not abort the rest.
func (s *MemberService) AddMembers(sessionID uint, personaIDs []string) ([]BatchAddResult, error) {
	if sessionID == 0 || len(personaIDs) == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.checkSession(sessionID); err != nil {
		return nil, err
	}

	count, err := s.memberRepo.Count(sessionID)
	if err != nil {
		return nil, err
	}
	if count+int64(len(personaIDs)) > int64(s.cap) {
		return nil, ErrCapExceeded
	}

	results := make([]BatchAddResult, 0, len(personaIDs))
	for _, personaID := range personaIDs {
		item := BatchAddResult{PersonaID: personaID, Success: true}
		if err := s.insert(sessionID, personaID); err != nil {
			item.Success = false
			item.Reason = err.Error()
		}
		results = append(results, item)
	}
	return results, nil
}

func (s *MemberService) RemoveMember(sessionID uint, personaID string) error {
	if sessionID == 0 || personaID == "" {
		return ErrInvalidInput
	}

	removed, err := s.memberRepo.Remove(sessionID, personaID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotAMember
	}
	return nil
}

func (s *MemberService) ListMembers(sessionID uint) ([]model.Persona, error) {
	if err := s.checkSession(sessionID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListPersonas(sessionID)
}

func (s *MemberService) checkSession(sessionID uint) error {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return nil
}

func (s *MemberService) insert(sessionID uint, personaID string) error {
	exists, err := s.memberRepo.Exists(sessionID, personaID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyMember
	}

	err = s.memberRepo.Add(&model.SessionMember{
		SessionID: sessionID,
		PersonaID: personaID,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race against a concurrent add of the same pair.
		return ErrAlreadyMember
	}
	return err
}
