package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/domain"
	"panchakarma/internal/repository"
	"panchakarma/pkg/validator"
)

const maxIdempotencyTokenLength = 128

type MessageServiceImpl struct {
	messageRepo repository.MessageRepository
	sessionRepo repository.SessionRepository
	locker      *KeyedLocker
	policy      config.SessionConfig
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	sessionRepo repository.SessionRepository,
	locker *KeyedLocker,
	policy config.SessionConfig,
	logger *zap.Logger,
	now func() time.Time,
) *MessageServiceImpl {
	return &MessageServiceImpl{
		messageRepo: messageRepo,
		sessionRepo: sessionRepo,
		locker:      locker,
		policy:      policy,
		broadcaster: noopBroadcaster{},
		logger:      logger,
		now:         now,
	}
}

func directionFor(session *domain.ChatSession, senderID int64) domain.MessageDirection {
	if senderID == session.PatientID {
		return domain.MessageDirectionInbound
	}
	return domain.MessageDirectionOutbound
}

func validateSend(req *domain.SendMessageRequest) error {
	if req.MessageID == "" || len(req.MessageID) > maxIdempotencyTokenLength {
		return fmt.Errorf("%w: message_id is required and at most %d characters", domain.ErrValidation, maxIdempotencyTokenLength)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, req.Type)
	}
	if !req.Type.ClientSendable() {
		return fmt.Errorf("%w: %s messages cannot be sent by participants", domain.ErrValidation, req.Type)
	}

	req.Content = validator.NormalizeContent(req.Content)
	if req.Type == domain.MessageTypeText && req.Content == "" {
		return fmt.Errorf("%w: text messages need content", domain.ErrValidation)
	}
	if req.Type.HasAttachment() && (req.FileURL == nil || *req.FileURL == "") {
		return fmt.Errorf("%w: %s messages need a file_url", domain.ErrValidation, req.Type)
	}
	if req.FileSize != nil && *req.FileSize < 0 {
		return fmt.Errorf("%w: file_size must not be negative", domain.ErrValidation)
	}
	return nil
}

func (s *MessageServiceImpl) SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.ChatMessage, error) {
	if err := validateSend(&req); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(req.SessionID)
	defer unlock()

	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(req.SenderID) {
		return nil, domain.ErrSenderNotParticipant
	}
	if err := settleLapsed(ctx, s.sessionRepo, s.broadcaster, s.logger, session, s.now().UTC()); err != nil {
		return nil, err
	}

	existing, err := s.messageRepo.GetByToken(ctx, req.SessionID, req.MessageID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, storageError(s.logger, "get message by token", err, zap.String("session_id", req.SessionID))
	}

	if session.Status != domain.SessionStatusActive {
		return nil, domain.ErrSessionNotActive
	}

	if req.ReplyToMessageID != nil {
		if err := s.checkReplyTarget(ctx, req.SessionID, *req.ReplyToMessageID); err != nil {
			return nil, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	now := s.now().UTC()
	message := &domain.ChatMessage{
		ID:               id.String(),
		MessageID:        req.MessageID,
		SessionID:        req.SessionID,
		SenderID:         req.SenderID,
		Type:             req.Type,
		Direction:        directionFor(session, req.SenderID),
		Content:          req.Content,
		FileURL:          req.FileURL,
		FileName:         req.FileName,
		FileMimeType:     req.FileMimeType,
		FileSize:         req.FileSize,
		Status:           domain.MessageStatusPending,
		SentAt:           now,
		ReplyToMessageID: req.ReplyToMessageID,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if s.policy.ExpiryPolicy == config.ExpiryPolicyIdle {
		session.ExpiresAt = ptr(now.Add(s.policy.IdleTimeout))
	}

	stored, created, err := s.messageRepo.Append(ctx, session, message)
	if err != nil {
		return nil, storageError(s.logger, "append message", err, zap.String("session_id", req.SessionID))
	}
	if !created {
		return stored, nil
	}

	next := domain.MessageStatusSent
	if err := s.broadcaster.BroadcastMessage(req.SessionID, *stored); err != nil {
		s.logger.Warn("message dispatch failed",
			zap.String("session_id", req.SessionID),
			zap.String("message_id", stored.ID),
			zap.Error(err),
		)
		next = domain.MessageStatusFailed
	}

	stored.Status = next
	stored.UpdatedAt = s.now().UTC()
	if err := s.messageRepo.Update(ctx, stored); err != nil {
		return nil, storageError(s.logger, "update message status", err, zap.String("message_id", stored.ID))
	}
	s.broadcaster.BroadcastMessageStatus(req.SessionID, *stored)

	s.logger.Debug("message accepted",
		zap.String("session_id", req.SessionID),
		zap.String("message_id", stored.ID),
		zap.Int64("user_id", req.SenderID),
		zap.Int64("total_messages", session.TotalMessages),
	)

	return stored, nil
}

// checkReplyTarget rejects replies to messages from another session. New
// messages are stamped with the current time, so an existing target is never
// newer than the reply.
func (s *MessageServiceImpl) checkReplyTarget(ctx context.Context, sessionID, targetID string) error {
	target, err := s.messageRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: reply target %s does not exist", domain.ErrValidation, targetID)
		}
		return storageError(s.logger, "get reply target", err, zap.String("message_id", targetID))
	}
	if target.SessionID != sessionID {
		return fmt.Errorf("%w: reply target belongs to another session", domain.ErrValidation)
	}
	return nil
}

func (s *MessageServiceImpl) MarkStatus(ctx context.Context, messageID string, status domain.MessageStatus) (*domain.ChatMessage, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown message status %q", domain.ErrValidation, status)
	}

	message, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(message.SessionID)
	defer unlock()

	// re-read under the lock, the first read only located the session
	message, err = s.loadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}

	if !s.advance(message, status) {
		return message, nil
	}

	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, storageError(s.logger, "mark message status", err, zap.String("message_id", messageID))
	}
	s.broadcaster.BroadcastMessageStatus(message.SessionID, *message)

	return message, nil
}

// advance applies next to message when it is a forward step and stamps the
// receipt times, never earlier than sentAt. It reports whether anything changed.
func (s *MessageServiceImpl) advance(message *domain.ChatMessage, next domain.MessageStatus) bool {
	if !message.Status.Advances(next) {
		return false
	}

	now := s.now().UTC()
	at := now
	if at.Before(message.SentAt) {
		at = message.SentAt
	}

	switch next {
	case domain.MessageStatusDelivered:
		message.DeliveredAt = ptr(at)
	case domain.MessageStatusRead:
		if message.DeliveredAt == nil {
			message.DeliveredAt = ptr(at)
		}
		message.ReadAt = ptr(at)
	}

	message.Status = next
	message.UpdatedAt = now
	return true
}

func (s *MessageServiceImpl) ListMessages(ctx context.Context, sessionID string, actorID int64, filters domain.MessageFilters) ([]domain.ChatMessage, int64, error) {
	if err := validator.Struct(filters); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	if err := s.authorize(ctx, sessionID, actorID); err != nil {
		return nil, 0, err
	}
	filters.Normalize()

	query := domain.MessageQuery{SessionID: sessionID, MessageFilters: filters}

	messages, err := s.messageRepo.List(ctx, query)
	if err != nil {
		return nil, 0, storageError(s.logger, "list messages", err, zap.String("session_id", sessionID))
	}

	total, err := s.messageRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, storageError(s.logger, "count messages", err, zap.String("session_id", sessionID))
	}

	return messages, total, nil
}

// IterateMessages walks the filtered history page by page starting at
// filters.Page. Nothing is read until the sequence is ranged over, and every
// range starts again from the first page.
func (s *MessageServiceImpl) IterateMessages(ctx context.Context, sessionID string, actorID int64, filters domain.MessageFilters) iter.Seq2[domain.ChatMessage, error] {
	return func(yield func(domain.ChatMessage, error) bool) {
		f := filters
		f.Normalize()

		for {
			if err := ctx.Err(); err != nil {
				yield(domain.ChatMessage{}, err)
				return
			}

			page, _, err := s.ListMessages(ctx, sessionID, actorID, f)
			if err != nil {
				yield(domain.ChatMessage{}, err)
				return
			}

			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}

			if len(page) < f.Limit {
				return
			}
			f.Page++
		}
	}
}

func (s *MessageServiceImpl) EditMessage(ctx context.Context, messageID string, actorID int64, content string) (*domain.ChatMessage, error) {
	content = validator.NormalizeContent(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", domain.ErrValidation)
	}

	return s.mutateOwn(ctx, messageID, actorID, func(m *domain.ChatMessage, now time.Time) {
		m.Content = content
		m.IsEdited = true
		m.EditedAt = ptr(now)
	})
}

// DeleteMessage hides the message from listings. Content is kept for audit.
func (s *MessageServiceImpl) DeleteMessage(ctx context.Context, messageID string, actorID int64) (*domain.ChatMessage, error) {
	return s.mutateOwn(ctx, messageID, actorID, func(m *domain.ChatMessage, now time.Time) {
		m.IsDeleted = true
		m.DeletedAt = ptr(now)
	})
}

func (s *MessageServiceImpl) mutateOwn(ctx context.Context, messageID string, actorID int64, apply func(*domain.ChatMessage, time.Time)) (*domain.ChatMessage, error) {
	message, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(message.SessionID)
	defer unlock()

	message, err = s.loadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, domain.ErrForbidden
	}
	if message.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}

	now := s.now().UTC()
	apply(message, now)
	message.UpdatedAt = now

	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, storageError(s.logger, "update message", err, zap.String("message_id", messageID))
	}
	s.broadcaster.BroadcastMessageUpdate(message.SessionID, *message)

	return message, nil
}

func (s *MessageServiceImpl) GetMessage(ctx context.Context, messageID string, actorID int64) (*domain.ChatMessage, error) {
	message, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, message.SessionID, actorID); err != nil {
		return nil, err
	}
	return message, nil
}

// MarkSessionRead advances every message the reader has not sent to read and
// returns the ones that changed.
func (s *MessageServiceImpl) MarkSessionRead(ctx context.Context, sessionID string, readerID int64) ([]domain.ChatMessage, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	if err := s.authorize(ctx, sessionID, readerID); err != nil {
		return nil, err
	}

	unread, err := s.messageRepo.ListUnreadFor(ctx, sessionID, readerID)
	if err != nil {
		return nil, storageError(s.logger, "list unread messages", err, zap.String("session_id", sessionID))
	}

	updated := make([]domain.ChatMessage, 0, len(unread))
	for i := range unread {
		m := &unread[i]
		if !s.advance(m, domain.MessageStatusRead) {
			continue
		}
		if err := s.messageRepo.Update(ctx, m); err != nil {
			return updated, storageError(s.logger, "mark message read", err, zap.String("message_id", m.ID))
		}
		s.broadcaster.BroadcastMessageStatus(sessionID, *m)
		updated = append(updated, *m)
	}

	return updated, nil
}

func (s *MessageServiceImpl) authorize(ctx context.Context, sessionID string, actorID int64) error {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsParticipant(actorID) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *MessageServiceImpl) loadSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, storageError(s.logger, "get session", err, zap.String("session_id", sessionID))
	}
	if !session.IsActive {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (s *MessageServiceImpl) loadMessage(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, storageError(s.logger, "get message", err, zap.String("message_id", messageID))
	}
	return message, nil
}
