package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"aichorus/internal/model"
	"aichorus/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageEmpty    = errors.New("message content is empty")
)

// MessageEventPublisher fans out appended messages; failures are logged, not
// surfaced, since persistence has already succeeded.
type MessageEventPublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// ChatService owns sessions and the append-only message log.
type ChatService struct {
	sessionRepo  *repository.SessionRepository
	messageRepo  *repository.MessageRepository
	historyCache HistoryCache
	publisher    MessageEventPublisher
	logger       *zap.Logger
}

func NewChatService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	historyCache HistoryCache,
	publisher MessageEventPublisher,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *ChatService) CreateSession(topic string) (*model.Session, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "New Conversation"
	}

	session := &model.Session{Topic: topic}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions() ([]model.Session, error) {
	return s.sessionRepo.List()
}

func (s *ChatService) UpdateTopic(sessionID uint, topic string) error {
	if sessionID == 0 || strings.TrimSpace(topic) == "" {
		return ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return s.sessionRepo.UpdateTopic(sessionID, strings.TrimSpace(topic))
}

// RecordUserMessage appends human input to the session log. personaID is
// accepted for callers that attribute input to a persona; it stays NULL for
// plain human turns.
func (s *ChatService) RecordUserMessage(ctx context.Context, sessionID uint, content string, personaID *string) (*model.Message, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	message := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleUser,
		PersonaID: personaID,
		Content:   content,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	s.afterAppend(ctx, *message)
	return message, nil
}

// GetHistory returns the session transcript oldest-first, served from the
// Redis store-aside cache when it is warm and clean.
func (s *ChatService) GetHistory(ctx context.Context, sessionID uint, limit int) ([]model.Message, error) {
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

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListAsc(sessionID, 0)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return trimMessages(messages, limit), nil
}

// afterAppend invalidates the local cache and notifies other instances.
func (s *ChatService) afterAppend(ctx context.Context, message model.Message) {
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

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
