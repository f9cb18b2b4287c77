// Package memory keeps users, sessions and messages in process memory.
// It backs STORAGE_DRIVER=memory and the service and transport tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"panchakarma/internal/domain"
	"panchakarma/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    map[int64]domain.User
	sessions map[string]domain.ChatSession
	messages map[string]domain.ChatMessage
	// session id -> idempotency token -> message id
	tokens map[string]map[string]string
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]domain.User),
		sessions: make(map[string]domain.ChatSession),
		messages: make(map[string]domain.ChatMessage),
		tokens:   make(map[string]map[string]string),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    &UserRepo{store: s},
		Session: &SessionRepo{store: s},
		Message: &MessageRepo{store: s},
	}
}

// PutUser inserts or replaces a user
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedUsers adds an active user per "id": "role" entry
func (s *Store) SeedUsers(seed map[string]string) error {
	now := time.Now().UTC()
	for rawID, role := range seed {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("seed user id %q: must be a positive integer", rawID)
		}
		switch domain.UserRole(role) {
		case domain.UserRolePatient, domain.UserRoleDoctor, domain.UserRoleAdmin:
		default:
			return fmt.Errorf("seed user %d: unknown role %q", id, role)
		}
		s.PutUser(domain.User{ID: id, Role: domain.UserRole(role), IsActive: true, CreatedAt: now, UpdatedAt: now})
	}
	return nil
}

type UserRepo struct {
	store *Store
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type SessionRepo struct {
	store *Store
}

func isOpen(s domain.ChatSession) bool {
	return s.IsActive && (s.Status == domain.SessionStatusPending || s.Status == domain.SessionStatusActive)
}

func (r *SessionRepo) Create(_ context.Context, session *domain.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	for _, other := range r.store.sessions {
		if isOpen(other) &&
			other.PatientID == session.PatientID &&
			other.DoctorID == session.DoctorID &&
			other.SessionType == session.SessionType {
			return domain.ErrDuplicateActiveSession
		}
	}

	r.store.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*domain.ChatSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *SessionRepo) FindOpen(_ context.Context, patientID, doctorID int64, sessionType domain.SessionType) (*domain.ChatSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.sessions {
		if isOpen(s) && s.PatientID == patientID && s.DoctorID == doctorID && s.SessionType == sessionType {
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *SessionRepo) Update(_ context.Context, session *domain.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.sessions[session.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != session.Version {
		return domain.ErrConcurrentUpdate
	}

	session.Version++
	r.store.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) filter(q domain.SessionQuery) []domain.ChatSession {
	var out []domain.ChatSession
	for _, s := range r.store.sessions {
		if !s.IsActive || !s.IsParticipant(q.ParticipantID) {
			continue
		}
		if q.Status != nil && s.Status != *q.Status {
			continue
		}
		if q.SessionType != nil && s.SessionType != *q.SessionType {
			continue
		}
		if q.IsPaid != nil && s.IsPaid != *q.IsPaid {
			continue
		}
		if q.From != nil && s.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && s.CreatedAt.After(*q.To) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *SessionRepo) List(_ context.Context, q domain.SessionQuery) ([]domain.ChatSession, error) {
	q.Normalize()

	r.store.mu.RLock()
	sessions := r.filter(q)
	r.store.mu.RUnlock()

	var less func(a, b domain.ChatSession) int
	switch q.SortBy {
	case domain.SessionSortByCreatedAt:
		less = func(a, b domain.ChatSession) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case domain.SessionSortByStartedAt:
		less = func(a, b domain.ChatSession) int { return compareTimePtr(a.StartedAt, b.StartedAt) }
	case domain.SessionSortByTotalCost:
		less = func(a, b domain.ChatSession) int { return a.TotalCost.Cmp(b.TotalCost) }
	default:
		return nil, fmt.Errorf("%w: unsupported sort column %q", domain.ErrValidation, q.SortBy)
	}

	desc := q.SortOrder == domain.SortOrderDesc
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if q.SortBy == domain.SessionSortByStartedAt && (a.StartedAt == nil) != (b.StartedAt == nil) {
			return b.StartedAt == nil
		}
		c := less(a, b)
		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	out := page(sessions, q.Offset(), q.Limit)
	if out == nil {
		out = []domain.ChatSession{}
	}
	return out, nil
}

func (r *SessionRepo) Count(_ context.Context, q domain.SessionQuery) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.filter(q))), nil
}

func (r *SessionRepo) ListExpirable(_ context.Context, now time.Time, limit int) ([]domain.ChatSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.ChatSession
	for _, s := range r.store.sessions {
		if s.Status != domain.SessionStatusPending && s.Status != domain.SessionStatusActive {
			continue
		}
		if s.ExpiresAt == nil || s.ExpiresAt.After(now) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MessageRepo struct {
	store *Store
}

func (r *MessageRepo) Append(_ context.Context, session *domain.ChatSession, m *domain.ChatMessage) (*domain.ChatMessage, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.sessions[session.ID]
	if !ok {
		return nil, false, domain.ErrNotFound
	}

	if id, ok := r.store.tokens[session.ID][m.MessageID]; ok {
		existing := r.store.messages[id]
		return &existing, false, nil
	}

	if stored.Status != domain.SessionStatusActive {
		return nil, false, domain.ErrSessionNotActive
	}

	r.store.messages[m.ID] = *m
	if r.store.tokens[session.ID] == nil {
		r.store.tokens[session.ID] = make(map[string]string)
	}
	r.store.tokens[session.ID][m.MessageID] = m.ID

	stored.TotalMessages++
	stored.ExpiresAt = session.ExpiresAt
	stored.UpdatedAt = m.CreatedAt
	stored.Version++
	r.store.sessions[session.ID] = stored

	session.TotalMessages = stored.TotalMessages
	session.Version = stored.Version
	session.UpdatedAt = stored.UpdatedAt

	out := *m
	return &out, true, nil
}

func (r *MessageRepo) GetByID(_ context.Context, id string) (*domain.ChatMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r *MessageRepo) GetByToken(_ context.Context, sessionID, token string) (*domain.ChatMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.tokens[sessionID][token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m := r.store.messages[id]
	return &m, nil
}

func (r *MessageRepo) Update(_ context.Context, m *domain.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.messages[m.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.messages[m.ID] = *m
	return nil
}

func (r *MessageRepo) filter(q domain.MessageQuery) []domain.ChatMessage {
	var out []domain.ChatMessage
	for _, m := range r.store.messages {
		if m.SessionID != q.SessionID || m.IsDeleted {
			continue
		}
		if q.MessageType != nil && m.Type != *q.MessageType {
			continue
		}
		if q.Status != nil && m.Status != *q.Status {
			continue
		}
		if q.From != nil && m.SentAt.Before(*q.From) {
			continue
		}
		if q.To != nil && m.SentAt.After(*q.To) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *MessageRepo) List(_ context.Context, q domain.MessageQuery) ([]domain.ChatMessage, error) {
	q.Normalize()

	r.store.mu.RLock()
	messages := r.filter(q)
	r.store.mu.RUnlock()

	var key func(m domain.ChatMessage) time.Time
	switch q.SortBy {
	case domain.MessageSortBySentAt:
		key = func(m domain.ChatMessage) time.Time { return m.SentAt }
	case domain.MessageSortByCreatedAt:
		key = func(m domain.ChatMessage) time.Time { return m.CreatedAt }
	default:
		return nil, fmt.Errorf("%w: unsupported sort column %q", domain.ErrValidation, q.SortBy)
	}

	desc := q.SortOrder == domain.SortOrderDesc
	sort.SliceStable(messages, func(i, j int) bool {
		c := key(messages[i]).Compare(key(messages[j]))
		if c == 0 {
			return messages[i].ID < messages[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	out := page(messages, q.Offset(), q.Limit)
	if out == nil {
		out = []domain.ChatMessage{}
	}
	return out, nil
}

func (r *MessageRepo) Count(_ context.Context, q domain.MessageQuery) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.filter(q))), nil
}

func (r *MessageRepo) ListUnreadFor(_ context.Context, sessionID string, readerID int64) ([]domain.ChatMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []domain.ChatMessage{}
	for _, m := range r.store.messages {
		if m.SessionID != sessionID || m.SenderID == readerID || m.IsDeleted {
			continue
		}
		if m.Status == domain.MessageStatusRead || m.Status == domain.MessageStatusFailed {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// nil sorts after any time, matching NULLS LAST
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
