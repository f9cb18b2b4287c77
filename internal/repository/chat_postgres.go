package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"panchakarma/internal/domain"
)

const pgUniqueViolation = "23505"

var sessionColumns = []string{
	"id", "patient_id", "doctor_id", "session_type", "status",
	"total_cost", "cost_per_unit", "total_duration", "total_messages", "notes",
	"started_at", "ended_at", "expires_at", "end_reason",
	"is_paid", "payment_transaction_id", "paid_at",
	"is_rated", "rating", "review", "is_active", "version",
	"created_at", "updated_at",
}

var sessionSortColumns = map[string]string{
	domain.SessionSortByCreatedAt: "created_at",
	domain.SessionSortByStartedAt: "started_at",
	domain.SessionSortByTotalCost: "total_cost",
}

type SessionRepo struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{db: db}
}

func scanSession(row rowScanner) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := row.Scan(
		&s.ID,
		&s.PatientID,
		&s.DoctorID,
		&s.SessionType,
		&s.Status,
		&s.TotalCost,
		&s.CostPerUnit,
		&s.TotalDuration,
		&s.TotalMessages,
		&s.Notes,
		&s.StartedAt,
		&s.EndedAt,
		&s.ExpiresAt,
		&s.EndReason,
		&s.IsPaid,
		&s.PaymentTransactionID,
		&s.PaidAt,
		&s.IsRated,
		&s.Rating,
		&s.Review,
		&s.IsActive,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Create(ctx context.Context, s *domain.ChatSession) error {
	query, args, err := psql.Insert("chat_sessions").
		Columns(sessionColumns...).
		Values(
			s.ID, s.PatientID, s.DoctorID, s.SessionType, s.Status,
			s.TotalCost, s.CostPerUnit, s.TotalDuration, s.TotalMessages, s.Notes,
			s.StartedAt, s.EndedAt, s.ExpiresAt, s.EndReason,
			s.IsPaid, s.PaymentTransactionID, s.PaidAt,
			s.IsRated, s.Rating, s.Review, s.IsActive, s.Version,
			s.CreatedAt, s.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateActiveSession
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("chat_sessions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session: %w", err)
	}

	session, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return session, nil
}

func (r *SessionRepo) FindOpen(ctx context.Context, patientID, doctorID int64, sessionType domain.SessionType) (*domain.ChatSession, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("chat_sessions").
		Where(sq.Eq{
			"patient_id":   patientID,
			"doctor_id":    doctorID,
			"session_type": sessionType,
			"status":       []domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusActive},
			"is_active":    true,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select open session: %w", err)
	}

	session, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return session, nil
}

func (r *SessionRepo) Update(ctx context.Context, s *domain.ChatSession) error {
	query, args, err := psql.Update("chat_sessions").
		SetMap(map[string]interface{}{
			"status":                 s.Status,
			"total_cost":             s.TotalCost,
			"cost_per_unit":          s.CostPerUnit,
			"total_duration":         s.TotalDuration,
			"total_messages":         s.TotalMessages,
			"notes":                  s.Notes,
			"started_at":             s.StartedAt,
			"ended_at":               s.EndedAt,
			"expires_at":             s.ExpiresAt,
			"end_reason":             s.EndReason,
			"is_paid":                s.IsPaid,
			"payment_transaction_id": s.PaymentTransactionID,
			"paid_at":                s.PaidAt,
			"is_rated":               s.IsRated,
			"rating":                 s.Rating,
			"review":                 s.Review,
			"is_active":              s.IsActive,
			"version":                sq.Expr("version + 1"),
			"updated_at":             s.UpdatedAt,
		}).
		Where(sq.Eq{"id": s.ID, "version": s.Version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update session: %w", err)
	}

	var version int64
	err = r.db.QueryRow(ctx, query, args...).Scan(&version)
	if err == nil {
		s.Version = version
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}

	// zero rows: either the session is gone or someone bumped the version first
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check session %s: %w", s.ID, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConcurrentUpdate
}

func sessionConditions(q domain.SessionQuery) sq.And {
	cond := sq.And{
		sq.Or{sq.Eq{"patient_id": q.ParticipantID}, sq.Eq{"doctor_id": q.ParticipantID}},
		sq.Eq{"is_active": true},
	}
	if q.Status != nil {
		cond = append(cond, sq.Eq{"status": *q.Status})
	}
	if q.SessionType != nil {
		cond = append(cond, sq.Eq{"session_type": *q.SessionType})
	}
	if q.IsPaid != nil {
		cond = append(cond, sq.Eq{"is_paid": *q.IsPaid})
	}
	if q.From != nil {
		cond = append(cond, sq.GtOrEq{"created_at": *q.From})
	}
	if q.To != nil {
		cond = append(cond, sq.LtOrEq{"created_at": *q.To})
	}
	return cond
}

func (r *SessionRepo) List(ctx context.Context, q domain.SessionQuery) ([]domain.ChatSession, error) {
	q.Normalize()

	column, ok := sessionSortColumns[q.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort column %q", domain.ErrValidation, q.SortBy)
	}
	order := "DESC"
	if q.SortOrder == domain.SortOrderAsc {
		order = "ASC"
	}

	query, args, err := psql.Select(sessionColumns...).
		From("chat_sessions").
		Where(sessionConditions(q)).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", column, order), "id ASC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.ChatSession, 0, q.Limit)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

func (r *SessionRepo) Count(ctx context.Context, q domain.SessionQuery) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("chat_sessions").
		Where(sessionConditions(q)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sessions: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (r *SessionRepo) ListExpirable(ctx context.Context, now time.Time, limit int) ([]domain.ChatSession, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("chat_sessions").
		Where(sq.And{
			sq.Eq{"status": []domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusActive}},
			sq.NotEq{"expires_at": nil},
			sq.LtOrEq{"expires_at": now},
		}).
		OrderBy("expires_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expirable: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expirable sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}
