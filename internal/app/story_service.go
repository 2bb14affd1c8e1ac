package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"aichorus/internal/ai"
	"aichorus/internal/model"
	"aichorus/internal/repository"
)

var (
	ErrNoUserMessages    = errors.New("no user messages in session")
	ErrStoryUnconfigured = errors.New("story personas are not configured")
)

// StoryService runs the two-stage pipeline over a session's user input: a
// keyword persona distills it, the keyword text is scrubbed of connective
// filler, and a creator persona turns it into a story.
type StoryService struct {
	messageRepo *repository.MessageRepository
	personaRepo *repository.PersonaRepository
	client      *ai.Client
	defaults    ai.ChatConfig
	defaultRule string

	keywordPersonaIDs []string
	storyPersonaIDs   []string
	scrubWords        []string
}

type StoryResult struct {
	Keywords string `json:"keywords"`
	Story    string `json:"story"`
}

func NewStoryService(
	messageRepo *repository.MessageRepository,
	personaRepo *repository.PersonaRepository,
	client *ai.Client,
	defaults ai.ChatConfig,
	defaultRule string,
	keywordPersonaIDs, storyPersonaIDs, scrubWords []string,
) *StoryService {
	if defaultRule == "" {
		defaultRule = DefaultResponseRule
	}
	return &StoryService{
		messageRepo:       messageRepo,
		personaRepo:       personaRepo,
		client:            client,
		defaults:          defaults,
		defaultRule:       defaultRule,
		keywordPersonaIDs: keywordPersonaIDs,
		storyPersonaIDs:   storyPersonaIDs,
		scrubWords:        scrubWords,
	}
}

func (s *StoryService) ProcessSession(ctx context.Context, sessionID uint) (*StoryResult, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	if len(s.keywordPersonaIDs) == 0 || len(s.storyPersonaIDs) == 0 {
		return nil, ErrStoryUnconfigured
	}

	userMessages, err := s.messageRepo.ListByRoleAsc(sessionID, model.RoleUser)
	if err != nil {
		return nil, err
	}
	if len(userMessages) == 0 {
		return nil, ErrNoUserMessages
	}

	input := make([]ai.ChatMessage, 0, len(userMessages))
	for _, m := range userMessages {
		input = append(input, ai.ChatMessage{Role: "user", Content: m.Content})
	}

	keywords, err := s.completeAs(ctx, pick(s.keywordPersonaIDs), input)
	if err != nil {
		return nil, err
	}

	storyInput := []ai.ChatMessage{{Role: "user", Content: s.scrub(keywords)}}
	story, err := s.completeAs(ctx, pick(s.storyPersonaIDs), storyInput)
	if err != nil {
		return nil, err
	}

	return &StoryResult{Keywords: keywords, Story: story}, nil
}

func (s *StoryService) completeAs(ctx context.Context, personaID string, conversation []ai.ChatMessage) (string, error) {
	persona, err := s.personaRepo.GetByID(personaID)
	if err != nil {
		return "", err
	}
	if persona == nil {
		return "", ErrPersonaNotFound
	}

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

	raw, err := s.client.Complete(ctx, cfg, persona.Personality, conversation)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamCall, err)
	}

	rule := persona.ResponseRule
	if rule == "" {
		rule = s.defaultRule
	}
	return ai.Extract(raw, rule)
}

func (s *StoryService) scrub(text string) string {
	for _, word := range s.scrubWords {
		text = strings.ReplaceAll(text, word, "")
	}
	return strings.TrimSpace(text)
}

func pick(ids []string) string {
	return ids[rand.Intn(len(ids))]
}
