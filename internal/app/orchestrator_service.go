package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aichorus/internal/ai"
	"aichorus/internal/contextwindow"
	"aichorus/internal/model"
	"aichorus/internal/repository"
	"aichorus/internal/schedule"
)

var ErrUpstreamCall = errors.New("completion call failed")

// fillerPhrases replace a reply whose text could not be extracted from the
// completion response. The dispatcher never fails on extraction.
var fillerPhrases = []string{
	"Hmm, let me sit with that for a moment.",
	"That's an interesting way to put it.",
	"I see what you mean, go on.",
	"Could you say a bit more about that?",
	"Let's hear what the others think.",
}

// OrchestratorService drives the respond pipeline and turn-order planning.
type OrchestratorService struct {
	sessionRepo *repository.SessionRepository
	personaRepo *repository.PersonaRepository
	messageRepo *repository.MessageRepository
	memberRepo  *repository.MemberRepository

	client       *ai.Client
	defaults     ai.ChatConfig
	defaultRule  string
	windowSize   int
	creatorGap   int
	historyCache HistoryCache
	publisher    MessageEventPublisher
	logger       *zap.Logger
}

func NewOrchestratorService(
	sessionRepo *repository.SessionRepository,
	personaRepo *repository.PersonaRepository,
	messageRepo *repository.MessageRepository,
	memberRepo *repository.MemberRepository,
	client *ai.Client,
	defaults ai.ChatConfig,
	defaultRule string,
	windowSize int,
	creatorGap int,
	historyCache HistoryCache,
	publisher MessageEventPublisher,
	logger *zap.Logger,
) *OrchestratorService {
	if windowSize <= 0 {
		windowSize = 5
	}
	if defaultRule == "" {
		defaultRule = DefaultResponseRule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrchestratorService{
		sessionRepo:  sessionRepo,
		personaRepo:  personaRepo,
		messageRepo:  messageRepo,
		memberRepo:   memberRepo,
		client:       client,
		defaults:     defaults,
		defaultRule:  defaultRule,
		windowSize:   windowSize,
		creatorGap:   creatorGap,
		historyCache: historyCache,
		publisher:    publisher,
		logger:       logger,
	}
}

// Respond produces and persists the next AI turn for the given persona.
// Nothing is written if the context is canceled before the completion call
// returns.
func (s *OrchestratorService) Respond(ctx context.Context, sessionID uint, personaID string) (*model.Message, error) {
	if sessionID == 0 || personaID == "" {
		return nil, ErrInvalidInput
	}

	var (
		session *model.Session
		persona *model.Persona
		recent  []model.Message
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = s.sessionRepo.GetByID(sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		persona, err = s.personaRepo.GetByID(personaID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.messageRepo.ListRecent(sessionID, s.windowSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if persona == nil {
		return nil, ErrPersonaNotFound
	}

	authorRoles, err := s.authorRoles(recent)
	if err != nil {
		return nil, err
	}

	fallbackUser, fallbackCreator, err := s.loadFallbacks(sessionID, recent, authorRoles)
	if err != nil {
		return nil, err
	}

	window := contextwindow.Build(
		toTurns(recent, authorRoles),
		fallbackUser,
		fallbackCreator,
		persona.BusinessRole,
	)

	raw, err := s.client.Complete(ctx, s.resolveConfig(persona), persona.Personality, window)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamCall, err)
	}

	rule := persona.ResponseRule
	if rule == "" {
		rule = s.defaultRule
	}
	content, extractErr := ai.Extract(raw, rule)
	content = strings.TrimSpace(content)
	if extractErr != nil || content == "" {
		if extractErr != nil {
			s.logger.Warn("response extraction failed, using filler",
				zap.String("persona_id", persona.ID),
				zap.String("rule", rule),
				zap.Error(extractErr))
		}
		content = fillerPhrases[rand.Intn(len(fillerPhrases))]
	}

	reply := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleAI,
		PersonaID: &persona.ID,
		Content:   content,
	}
	if err := s.messageRepo.Create(reply); err != nil {
		return nil, err
	}
	s.afterAppend(ctx, *reply)

	return reply, nil
}

// ScheduleTurnOrder plans a speaking order of the requested length over the
// session roster. The plan is ephemeral; nothing is persisted.
func (s *OrchestratorService) ScheduleTurnOrder(sessionID uint, length int) ([]string, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	personas, err := s.memberRepo.ListPersonas(sessionID)
	if err != nil {
		return nil, err
	}
	roster := make([]schedule.Member, 0, len(personas))
	for _, p := range personas {
		roster = append(roster, schedule.Member{ID: p.ID, Role: p.BusinessRole})
	}

	return schedule.Plan(roster, length, s.creatorGap, nil)
}

// authorRoles resolves the business role of every persona that authored a
// message in the window. Deleted personas are simply absent from the map.
func (s *OrchestratorService) authorRoles(messages []model.Message) (map[string]model.BusinessRole, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.PersonaID == nil {
			continue
		}
		if _, ok := seen[*m.PersonaID]; ok {
			continue
		}
		seen[*m.PersonaID] = struct{}{}
		ids = append(ids, *m.PersonaID)
	}

	personas, err := s.personaRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	roles := make(map[string]model.BusinessRole, len(personas))
	for _, p := range personas {
		roles[p.ID] = p.BusinessRole
	}
	return roles, nil
}

// loadFallbacks pulls the deeper-history user and creator messages when the
// recent window lacks them. The two reads are independent.
func (s *OrchestratorService) loadFallbacks(
	sessionID uint,
	recent []model.Message,
	authorRoles map[string]model.BusinessRole,
) (*contextwindow.Turn, *contextwindow.Turn, error) {
	needUser := true
	for _, m := range recent {
		if m.Role == model.RoleUser {
			needUser = false
			break
		}
	}
	needCreator := true
	for _, m := range recent {
		if m.PersonaID != nil && authorRoles[*m.PersonaID] == model.RoleContentCreator {
			needCreator = false
			break
		}
	}

	var userMsg, creatorMsg *model.Message
	var g errgroup.Group
	if needUser {
		g.Go(func() error {
			var err error
			userMsg, err = s.messageRepo.LatestByRole(sessionID, model.RoleUser)
			return err
		})
	}
	if needCreator {
		g.Go(func() error {
			var err error
			creatorMsg, err = s.messageRepo.LatestByAuthorBusinessRole(sessionID, model.RoleContentCreator)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var fallbackUser, fallbackCreator *contextwindow.Turn
	if userMsg != nil {
		fallbackUser = &contextwindow.Turn{Role: userMsg.Role, Content: userMsg.Content}
	}
	if creatorMsg != nil {
		fallbackCreator = &contextwindow.Turn{
			Role:       creatorMsg.Role,
			Content:    creatorMsg.Content,
			AuthorRole: model.RoleContentCreator,
		}
	}
	return fallbackUser, fallbackCreator, nil
}

func (s *OrchestratorService) resolveConfig(persona *model.Persona) ai.ChatConfig {
	cfg := s.defaults
	if persona.BaseURL != "" {
		cfg.BaseURL = persona.BaseURL
	}
	if persona.APIKey != "" {
		cfg.APIKey = persona.APIKey
	}
	if persona.ModelName != "" {
		cfg.Model = persona.ModelName
	}
	return cfg
}

func (s *OrchestratorService) afterAppend(ctx context.Context, message model.Message) {
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, message.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, message.SessionID)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, message); err != nil {
			s.logger.Warn("publish message event failed",
				zap.Uint("session_id", message.SessionID), zap.Error(err))
		}
	}
}

func toTurns(messages []model.Message, authorRoles map[string]model.BusinessRole) []contextwindow.Turn {
	turns := make([]contextwindow.Turn, 0, len(messages))
	for _, m := range messages {
		turn := contextwindow.Turn{Role: m.Role, Content: m.Content}
		if m.PersonaID != nil {
			turn.AuthorRole = authorRoles[*m.PersonaID]
		}
		turns = append(turns, turn)
	}
	return turns
}
