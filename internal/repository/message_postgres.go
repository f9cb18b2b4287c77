package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"panchakarma/internal/domain"
)

var messageColumns = []string{
	"id", "client_message_id", "session_id", "sender_id", "message_type", "direction",
	"content", "file_url", "file_name", "file_mime_type", "file_size",
	"status", "sent_at", "delivered_at", "read_at", "reply_to_message_id",
	"is_edited", "edited_at", "is_deleted", "deleted_at", "is_active",
	"created_at", "updated_at",
}

var messageSortColumns = map[string]string{
	domain.MessageSortBySentAt:    "sent_at",
	domain.MessageSortByCreatedAt: "created_at",
}

type MessageRepo struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{db: db}
}

func scanMessage(row rowScanner) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	err := row.Scan(
		&m.ID,
		&m.MessageID,
		&m.SessionID,
		&m.SenderID,
		&m.Type,
		&m.Direction,
		&m.Content,
		&m.FileURL,
		&m.FileName,
		&m.FileMimeType,
		&m.FileSize,
		&m.Status,
		&m.SentAt,
		&m.DeliveredAt,
		&m.ReadAt,
		&m.ReplyToMessageID,
		&m.IsEdited,
		&m.EditedAt,
		&m.IsDeleted,
		&m.DeletedAt,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) Append(ctx context.Context, session *domain.ChatSession, m *domain.ChatMessage) (*domain.ChatMessage, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status domain.SessionStatus
	err = tx.QueryRow(ctx, `SELECT status FROM chat_sessions WHERE id = $1 FOR UPDATE`, session.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("lock session %s: %w", session.ID, err)
	}

	existing, err := getMessageByToken(ctx, tx, session.ID, m.MessageID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	if status != domain.SessionStatusActive {
		return nil, false, domain.ErrSessionNotActive
	}

	query, args, err := psql.Insert("chat_messages").
		Columns(messageColumns...).
		Values(
			m.ID, m.MessageID, m.SessionID, m.SenderID, m.Type, m.Direction,
			m.Content, m.FileURL, m.FileName, m.FileMimeType, m.FileSize,
			m.Status, m.SentAt, m.DeliveredAt, m.ReadAt, m.ReplyToMessageID,
			m.IsEdited, m.EditedAt, m.IsDeleted, m.DeletedAt, m.IsActive,
			m.CreatedAt, m.UpdatedAt,
		).
		Suffix("ON CONFLICT (session_id, client_message_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build insert message: %w", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("insert message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := getMessageByToken(ctx, tx, session.ID, m.MessageID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	var total, version int64
	err = tx.QueryRow(ctx, `
		UPDATE chat_sessions
		SET total_messages = total_messages + 1,
			expires_at = $2,
			updated_at = $3,
			version = version + 1
		WHERE id = $1
		RETURNING total_messages, version`,
		session.ID, session.ExpiresAt, m.CreatedAt,
	).Scan(&total, &version)
	if err != nil {
		return nil, false, fmt.Errorf("bump session counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit append: %w", err)
	}

	session.TotalMessages = total
	session.Version = version
	session.UpdatedAt = m.CreatedAt

	stored := *m
	return &stored, true, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getMessageByToken(ctx context.Context, db queryRower, sessionID, token string) (*domain.ChatMessage, error) {
	query, args, err := psql.Select(messageColumns...).
		From("chat_messages").
		Where(sq.Eq{"session_id": sessionID, "client_message_id": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select message by token: %w", err)
	}

	m, err := scanMessage(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message by token: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) GetByToken(ctx context.Context, sessionID, token string) (*domain.ChatMessage, error) {
	return getMessageByToken(ctx, r.db, sessionID, token)
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	query, args, err := psql.Select(messageColumns...).
		From("chat_messages").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select message: %w", err)
	}

	m, err := scanMessage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return m, nil
}

func (r *MessageRepo) Update(ctx context.Context, m *domain.ChatMessage) error {
	query, args, err := psql.Update("chat_messages").
		SetMap(map[string]interface{}{
			"content":      m.Content,
			"status":       m.Status,
			"delivered_at": m.DeliveredAt,
			"read_at":      m.ReadAt,
			"is_edited":    m.IsEdited,
			"edited_at":    m.EditedAt,
			"is_deleted":   m.IsDeleted,
			"deleted_at":   m.DeletedAt,
			"is_active":    m.IsActive,
			"updated_at":   m.UpdatedAt,
		}).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update message: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update message %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func messageConditions(q domain.MessageQuery) sq.And {
	cond := sq.And{
		sq.Eq{"session_id": q.SessionID},
		sq.Eq{"is_deleted": false},
	}
	if q.MessageType != nil {
		cond = append(cond, sq.Eq{"message_type": *q.MessageType})
	}
	if q.Status != nil {
		cond = append(cond, sq.Eq{"status": *q.Status})
	}
	if q.From != nil {
		cond = append(cond, sq.GtOrEq{"sent_at": *q.From})
	}
	if q.To != nil {
		cond = append(cond, sq.LtOrEq{"sent_at": *q.To})
	}
	return cond
}

func (r *MessageRepo) List(ctx context.Context, q domain.MessageQuery) ([]domain.ChatMessage, error) {
	q.Normalize()

	column, ok := messageSortColumns[q.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort column %q", domain.ErrValidation, q.SortBy)
	}
	order := "ASC"
	if q.SortOrder == domain.SortOrderDesc {
		order = "DESC"
	}

	query, args, err := psql.Select(messageColumns...).
		From("chat_messages").
		Where(messageConditions(q)).
		OrderBy(column+" "+order, "id ASC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list messages: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *MessageRepo) Count(ctx context.Context, q domain.MessageQuery) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("chat_messages").
		Where(messageConditions(q)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count messages: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) ListUnreadFor(ctx context.Context, sessionID string, readerID int64) ([]domain.ChatMessage, error) {
	query, args, err := psql.Select(messageColumns...).
		From("chat_messages").
		Where(sq.And{
			sq.Eq{"session_id": sessionID},
			sq.NotEq{"sender_id": readerID},
			sq.Eq{"is_deleted": false},
			sq.NotEq{"status": []domain.MessageStatus{domain.MessageStatusRead, domain.MessageStatusFailed}},
		}).
		OrderBy("sent_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list unread: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *MessageRepo) query(ctx context.Context, query string, args ...interface{}) ([]domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}

	return messages, rows.Err()
}
