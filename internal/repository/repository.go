package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"panchakarma/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Message MessageRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Session: NewSessionRepository(db),
		Message: NewMessageRepository(db),
	}
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// SessionRepository persists chat sessions. Update is optimistic: it only
// succeeds when the stored version equals session.Version, and bumps it.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ChatSession) error
	GetByID(ctx context.Context, id string) (*domain.ChatSession, error)
	FindOpen(ctx context.Context, patientID, doctorID int64, sessionType domain.SessionType) (*domain.ChatSession, error)
	Update(ctx context.Context, session *domain.ChatSession) error
	List(ctx context.Context, query domain.SessionQuery) ([]domain.ChatSession, error)
	Count(ctx context.Context, query domain.SessionQuery) (int64, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]domain.ChatSession, error)
}

// MessageRepository persists chat messages.
//
// Append stores message and increments the owning session's total_messages in
// one transaction. It fails with domain.ErrSessionNotActive when the stored
// session is no longer active. When the (session, idempotency token) pair is
// already stored, the existing message is returned with created == false and
// nothing is written. On success session is refreshed with the stored
// counters and version.
type MessageRepository interface {
	Append(ctx context.Context, session *domain.ChatSession, message *domain.ChatMessage) (stored *domain.ChatMessage, created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.ChatMessage, error)
	GetByToken(ctx context.Context, sessionID, token string) (*domain.ChatMessage, error)
	Update(ctx context.Context, message *domain.ChatMessage) error
	List(ctx context.Context, query domain.MessageQuery) ([]domain.ChatMessage, error)
	Count(ctx context.Context, query domain.MessageQuery) (int64, error)
	ListUnreadFor(ctx context.Context, sessionID string, readerID int64) ([]domain.ChatMessage, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
