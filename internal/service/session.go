package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/domain"
	"panchakarma/internal/repository"
	"panchakarma/pkg/validator"
)

const expireBatchSize = 100

type SessionServiceImpl struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	locker      *KeyedLocker
	policy      config.SessionConfig
	billing     config.BillingConfig
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	locker *KeyedLocker,
	policy config.SessionConfig,
	billing config.BillingConfig,
	logger *zap.Logger,
	now func() time.Time,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		locker:      locker,
		policy:      policy,
		billing:     billing,
		broadcaster: noopBroadcaster{},
		logger:      logger,
		now:         now,
	}
}

// RateFor returns the configured cost per unit for a session type
func (s *SessionServiceImpl) RateFor(t domain.SessionType) decimal.Decimal {
	switch t {
	case domain.SessionTypeAudioCall:
		return s.billing.AudioCallRate
	case domain.SessionTypeVideoCall:
		return s.billing.VideoCallRate
	}
	return s.billing.ChatRate
}

func (s *SessionServiceImpl) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.ChatSession, error) {
	if !req.SessionType.Valid() {
		return nil, fmt.Errorf("%w: unknown session type %q", domain.ErrValidation, req.SessionType)
	}
	if req.PatientID == req.DoctorID {
		return nil, domain.ErrInvalidParticipant
	}
	for _, id := range []int64{req.PatientID, req.DoctorID} {
		if err := s.checkParticipant(ctx, id); err != nil {
			return nil, err
		}
	}

	// the open-pair check and the insert must not interleave for the same pair
	unlock := s.locker.Lock(fmt.Sprintf("pair:%d:%d:%s", req.PatientID, req.DoctorID, req.SessionType))
	defer unlock()

	_, err := s.sessionRepo.FindOpen(ctx, req.PatientID, req.DoctorID, req.SessionType)
	if err == nil {
		return nil, domain.ErrDuplicateActiveSession
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, storageError(s.logger, "find open session", err)
	}

	now := s.now().UTC()
	session := &domain.ChatSession{
		ID:          uuid.New().String(),
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		SessionType: req.SessionType,
		Status:      domain.SessionStatusPending,
		TotalCost:   decimal.Zero,
		CostPerUnit: s.RateFor(req.SessionType),
		Notes:       req.Notes,
		ExpiresAt:   ptr(now.Add(s.policy.PendingTTL)),
		IsActive:    true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, storageError(s.logger, "create session", err)
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.Int64("patient_id", session.PatientID),
		zap.Int64("doctor_id", session.DoctorID),
		zap.String("session_type", string(session.SessionType)),
	)

	return session, nil
}

func (s *SessionServiceImpl) checkParticipant(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidParticipant
		}
		return storageError(s.logger, "get user", err, zap.Int64("user_id", userID))
	}
	if !user.IsActive {
		return domain.ErrInvalidParticipant
	}
	return nil
}

func (s *SessionServiceImpl) ActivateSession(ctx context.Context, sessionID string, actorID int64) (*domain.ChatSession, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, domain.ErrForbidden
	}

	now := s.now().UTC()
	if err := settleLapsed(ctx, s.sessionRepo, s.broadcaster, s.logger, session, now); err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(domain.SessionStatusActive) {
		return nil, domain.ErrInvalidTransition
	}

	previous := session.Status
	session.Status = domain.SessionStatusActive
	session.StartedAt = ptr(now)
	session.ExpiresAt = ptr(s.activeExpiry(now))
	session.UpdatedAt = now

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, storageError(s.logger, "activate session", err, zap.String("session_id", sessionID))
	}

	s.logger.Info("session activated", zap.String("session_id", sessionID), zap.Int64("user_id", actorID))
	announce(s.broadcaster, session, previous, &actorID, now)

	return session, nil
}

// activeExpiry is the deadline an active session gets on activation
func (s *SessionServiceImpl) activeExpiry(now time.Time) time.Time {
	if s.policy.ExpiryPolicy == config.ExpiryPolicyIdle {
		return now.Add(s.policy.IdleTimeout)
	}
	return now.Add(s.policy.MaxDuration)
}

func (s *SessionServiceImpl) EndSession(ctx context.Context, sessionID string, actorID int64, reason domain.SessionStatus) (*domain.ChatSession, error) {
	if !reason.IsTerminal() {
		return nil, fmt.Errorf("%w: end reason must be completed, cancelled or expired", domain.ErrValidation)
	}

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, domain.ErrForbidden
	}
	if !session.Status.CanTransitionTo(reason) {
		return nil, domain.ErrInvalidTransition
	}

	previous := session.Status
	now := s.now().UTC()
	finalize(session, reason, now)

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, storageError(s.logger, "end session", err, zap.String("session_id", sessionID))
	}

	s.logger.Info("session ended",
		zap.String("session_id", sessionID),
		zap.Int64("user_id", actorID),
		zap.String("reason", string(reason)),
		zap.String("total_cost", session.TotalCost.StringFixed(2)),
	)
	announce(s.broadcaster, session, previous, &actorID, now)

	return session, nil
}

// finalize moves session into a terminal status and settles its usage and cost.
// Chat sessions bill per accepted message, calls bill per started second.
func finalize(session *domain.ChatSession, reason domain.SessionStatus, now time.Time) {
	session.Status = reason
	session.EndReason = ptr(reason)
	session.EndedAt = ptr(now)
	session.UpdatedAt = now

	if session.StartedAt != nil && now.After(*session.StartedAt) {
		session.TotalDuration = int64((now.Sub(*session.StartedAt) + time.Second - 1) / time.Second)
	}

	if session.SessionType.IsTimeBased() {
		session.TotalCost = decimal.NewFromInt(session.TotalDuration).Mul(session.CostPerUnit)
	} else {
		session.TotalCost = decimal.NewFromInt(session.TotalMessages).Mul(session.CostPerUnit)
	}
	session.TotalCost = session.TotalCost.Round(2)
}

func (s *SessionServiceImpl) ExpireIdleSessions(ctx context.Context, now time.Time) ([]domain.ChatSession, error) {
	now = now.UTC()
	expired := []domain.ChatSession{}
	seen := make(map[string]struct{})

	for {
		batch, err := s.sessionRepo.ListExpirable(ctx, now, expireBatchSize)
		if err != nil {
			return expired, storageError(s.logger, "list expirable sessions", err)
		}

		progressed := false
		for _, candidate := range batch {
			if _, ok := seen[candidate.ID]; ok {
				continue
			}
			seen[candidate.ID] = struct{}{}
			progressed = true

			session, err := s.expireOne(ctx, candidate.ID, now)
			if err != nil {
				if errors.Is(err, domain.ErrStorageUnavailable) {
					return expired, err
				}
				s.logger.Warn("skip session expiry", zap.String("session_id", candidate.ID), zap.Error(err))
				continue
			}
			if session != nil {
				expired = append(expired, *session)
			}
		}

		if !progressed || len(batch) < expireBatchSize {
			break
		}
	}

	if len(expired) > 0 {
		s.logger.Info("sessions expired", zap.Int("count", len(expired)), zap.Time("now", now))
	}
	return expired, nil
}

// expireOne re-reads the session under its lock; a concurrent end or
// activation that moved the deadline wins and nil is returned.
func (s *SessionServiceImpl) expireOne(ctx context.Context, sessionID string, now time.Time) (*domain.ChatSession, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsLapsed(now) {
		return nil, nil
	}
	if err := settleLapsed(ctx, s.sessionRepo, s.broadcaster, s.logger, session, now); err != nil {
		return nil, err
	}
	return session, nil
}

// settleLapsed expires session in place when its deadline has passed, so a
// late message or join never outruns the sweep. The caller holds the session lock.
func settleLapsed(ctx context.Context, repo repository.SessionRepository, broadcaster Broadcaster, logger *zap.Logger, session *domain.ChatSession, now time.Time) error {
	if !session.IsLapsed(now) {
		return nil
	}

	previous := session.Status
	finalize(session, domain.SessionStatusExpired, now)

	if err := repo.Update(ctx, session); err != nil {
		return storageError(logger, "expire session", err, zap.String("session_id", session.ID))
	}

	logger.Info("session expired", zap.String("session_id", session.ID), zap.String("previous_status", string(previous)))
	announce(broadcaster, session, previous, nil, now)
	return nil
}

func (s *SessionServiceImpl) RecordPayment(ctx context.Context, sessionID, transactionID string) (*domain.ChatSession, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", domain.ErrValidation)
	}

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsPaid {
		return nil, domain.ErrAlreadyPaid
	}

	now := s.now().UTC()
	session.IsPaid = true
	session.PaymentTransactionID = ptr(transactionID)
	session.PaidAt = ptr(now)
	session.UpdatedAt = now

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, storageError(s.logger, "record payment", err, zap.String("session_id", sessionID))
	}

	s.logger.Info("session paid", zap.String("session_id", sessionID), zap.String("transaction_id", transactionID))
	return session, nil
}

func (s *SessionServiceImpl) RateSession(ctx context.Context, sessionID string, actorID int64, rating int, review *string) (*domain.ChatSession, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}
	if review != nil {
		normalized := validator.NormalizeContent(*review)
		review = &normalized
	}

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PatientID != actorID {
		return nil, domain.ErrForbidden
	}
	if !session.Status.IsTerminal() || session.IsRated {
		return nil, domain.ErrInvalidState
	}

	session.IsRated = true
	session.Rating = ptr(rating)
	session.Review = review
	session.UpdatedAt = s.now().UTC()

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, storageError(s.logger, "rate session", err, zap.String("session_id", sessionID))
	}

	return session, nil
}

func (s *SessionServiceImpl) GetSession(ctx context.Context, sessionID string, actorID int64) (*domain.ChatSession, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, domain.ErrForbidden
	}
	if !session.IsLapsed(s.now().UTC()) {
		return session, nil
	}

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	session, err = s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := settleLapsed(ctx, s.sessionRepo, s.broadcaster, s.logger, session, s.now().UTC()); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionServiceImpl) ListSessions(ctx context.Context, actorID int64, filters domain.SessionFilters) ([]domain.ChatSession, int64, error) {
	if err := validator.Struct(filters); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	filters.Normalize()

	query := domain.SessionQuery{ParticipantID: actorID, SessionFilters: filters}

	sessions, err := s.sessionRepo.List(ctx, query)
	if err != nil {
		return nil, 0, storageError(s.logger, "list sessions", err, zap.Int64("user_id", actorID))
	}

	total, err := s.sessionRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, storageError(s.logger, "count sessions", err, zap.Int64("user_id", actorID))
	}

	return sessions, total, nil
}

func (s *SessionServiceImpl) load(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, storageError(s.logger, "get session", err, zap.String("session_id", sessionID))
	}
	if !session.IsActive {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func announce(broadcaster Broadcaster, session *domain.ChatSession, previous domain.SessionStatus, actorID *int64, at time.Time) {
	snapshot := *session
	broadcaster.BroadcastSessionUpdate(session.ID, domain.SocketSessionData{
		SessionID: session.ID,
		Status:    session.Status,
		Previous:  previous,
		ActorID:   actorID,
		Session:   &snapshot,
		At:        at,
	})
}
