package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/domain"
	"panchakarma/internal/repository"
)

type Deps struct {
	Repos  *repository.Repositories
	Logger *zap.Logger
	Config *config.Config
	// Now defaults to time.Now
	Now func() time.Time
}

type Services struct {
	Auth    AuthService
	Session SessionService
	Message MessageService

	session *SessionServiceImpl
	message *MessageServiceImpl
}

func NewServices(deps Deps) *Services {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	locker := NewKeyedLocker()

	sessions := NewSessionService(deps.Repos.Session, deps.Repos.User, locker, deps.Config.Session, deps.Config.Billing, deps.Logger, now)
	messages := NewMessageService(deps.Repos.Message, deps.Repos.Session, locker, deps.Config.Session, deps.Logger, now)

	return &Services{
		Auth:    NewAuthService(deps.Config.JWT, deps.Logger),
		Session: sessions,
		Message: messages,
		session: sessions,
		message: messages,
	}
}

// SetBroadcaster attaches the realtime gateway. It must be called before the
// services start handling requests.
func (s *Services) SetBroadcaster(b Broadcaster) {
	s.session.broadcaster = b
	s.message.broadcaster = b
}

type AuthService interface {
	ParseToken(ctx context.Context, token string) (int64, domain.UserRole, error)
	IssueToken(userID int64, role domain.UserRole, ttl time.Duration) (string, error)
}

type SessionService interface {
	CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.ChatSession, error)
	ActivateSession(ctx context.Context, sessionID string, actorID int64) (*domain.ChatSession, error)
	EndSession(ctx context.Context, sessionID string, actorID int64, reason domain.SessionStatus) (*domain.ChatSession, error)
	ExpireIdleSessions(ctx context.Context, now time.Time) ([]domain.ChatSession, error)
	RecordPayment(ctx context.Context, sessionID, transactionID string) (*domain.ChatSession, error)
	RateSession(ctx context.Context, sessionID string, actorID int64, rating int, review *string) (*domain.ChatSession, error)
	GetSession(ctx context.Context, sessionID string, actorID int64) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, actorID int64, filters domain.SessionFilters) ([]domain.ChatSession, int64, error)
}

type MessageService interface {
	SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.ChatMessage, error)
	MarkStatus(ctx context.Context, messageID string, status domain.MessageStatus) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID string, actorID int64, filters domain.MessageFilters) ([]domain.ChatMessage, int64, error)
	IterateMessages(ctx context.Context, sessionID string, actorID int64, filters domain.MessageFilters) iter.Seq2[domain.ChatMessage, error]
	EditMessage(ctx context.Context, messageID string, actorID int64, content string) (*domain.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID string, actorID int64) (*domain.ChatMessage, error)
	GetMessage(ctx context.Context, messageID string, actorID int64) (*domain.ChatMessage, error)
	MarkSessionRead(ctx context.Context, sessionID string, readerID int64) ([]domain.ChatMessage, error)
}

// Broadcaster pushes committed changes to connected clients. Calls are made
// while the session lock is held, so implementations must not call back into
// the services.
type Broadcaster interface {
	BroadcastMessage(sessionID string, message domain.ChatMessage) error
	BroadcastMessageStatus(sessionID string, message domain.ChatMessage)
	BroadcastMessageUpdate(sessionID string, message domain.ChatMessage)
	BroadcastSessionUpdate(sessionID string, update domain.SocketSessionData)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastMessage(string, domain.ChatMessage) error { return nil }
func (noopBroadcaster) BroadcastMessageStatus(string, domain.ChatMessage) {}
func (noopBroadcaster) BroadcastMessageUpdate(string, domain.ChatMessage) {}
func (noopBroadcaster) BroadcastSessionUpdate(string, domain.SocketSessionData) {}

// storageError passes domain errors through and wraps anything else as
// ErrStorageUnavailable.
func storageError(logger *zap.Logger, op string, err error, fields ...zap.Field) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, op, err)
}

func ptr[T any](v T) *T {
	return &v
}
