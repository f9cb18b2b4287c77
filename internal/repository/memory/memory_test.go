package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panchakarma/internal/domain"
)

func newSession(id string, status domain.SessionStatus, createdAt time.Time) *domain.ChatSession {
	return &domain.ChatSession{
		ID:          id,
		PatientID:   1,
		DoctorID:    2,
		SessionType: domain.SessionTypeChat,
		Status:      status,
		IsActive:    true,
		Version:     1,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestSessionCreateRejectsSecondOpenPair(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repos.Session.Create(ctx, newSession("a", domain.SessionStatusPending, now)))
	assert.ErrorIs(t, repos.Session.Create(ctx, newSession("b", domain.SessionStatusPending, now)), domain.ErrDuplicateActiveSession)

	closed := newSession("c", domain.SessionStatusCompleted, now)
	assert.NoError(t, repos.Session.Create(ctx, closed))
}

func TestSessionUpdateIsOptimistic(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	require.NoError(t, repos.Session.Create(ctx, newSession("a", domain.SessionStatusPending, time.Now())))

	first, err := repos.Session.GetByID(ctx, "a")
	require.NoError(t, err)
	second, err := repos.Session.GetByID(ctx, "a")
	require.NoError(t, err)

	first.Status = domain.SessionStatusActive
	require.NoError(t, repos.Session.Update(ctx, first))
	assert.EqualValues(t, 2, first.Version)

	second.Status = domain.SessionStatusCancelled
	assert.ErrorIs(t, repos.Session.Update(ctx, second), domain.ErrConcurrentUpdate)

	missing := newSession("zzz", domain.SessionStatusPending, time.Now())
	assert.ErrorIs(t, repos.Session.Update(ctx, missing), domain.ErrNotFound)
}

func TestAppendIsIdempotentAndCounts(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	now := time.Now()
	session := newSession("s", domain.SessionStatusActive, now)
	require.NoError(t, repos.Session.Create(ctx, session))

	msg := &domain.ChatMessage{ID: "m1", MessageID: "tok", SessionID: "s", SenderID: 1, Type: domain.MessageTypeText, Content: "hi", SentAt: now, CreatedAt: now}
	stored, created, err := repos.Message.Append(ctx, session, msg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "m1", stored.ID)
	assert.EqualValues(t, 1, session.TotalMessages)

	dup := &domain.ChatMessage{ID: "m2", MessageID: "tok", SessionID: "s", SenderID: 1, Type: domain.MessageTypeText, Content: "hi again", SentAt: now, CreatedAt: now}
	stored, created, err = repos.Message.Append(ctx, session, dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "m1", stored.ID)

	reloaded, err := repos.Session.GetByID(ctx, "s")
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.TotalMessages)
	assert.Equal(t, session.Version, reloaded.Version)
}

func TestAppendRejectsInactiveSession(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	session := newSession("s", domain.SessionStatusPending, time.Now())
	require.NoError(t, repos.Session.Create(ctx, session))

	_, _, err := repos.Message.Append(ctx, session, &domain.ChatMessage{ID: "m", MessageID: "t", SessionID: "s"})
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)
}

func TestListExpirable(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	now := time.Now()

	due := newSession("due", domain.SessionStatusActive, now)
	due.ExpiresAt = &now
	later := newSession("later", domain.SessionStatusPending, now)
	later.SessionType = domain.SessionTypeAudioCall
	future := now.Add(time.Hour)
	later.ExpiresAt = &future

	require.NoError(t, repos.Session.Create(ctx, due))
	require.NoError(t, repos.Session.Create(ctx, later))

	sessions, err := repos.Session.ListExpirable(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "due", sessions[0].ID)
}

func TestListSessionsStartedAtNullsLast(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	now := time.Now()

	started := newSession("started", domain.SessionStatusActive, now)
	started.StartedAt = &now
	pending := newSession("pending", domain.SessionStatusPending, now)
	pending.SessionType = domain.SessionTypeVideoCall

	require.NoError(t, repos.Session.Create(ctx, started))
	require.NoError(t, repos.Session.Create(ctx, pending))

	for _, order := range []string{domain.SortOrderAsc, domain.SortOrderDesc} {
		sessions, err := repos.Session.List(ctx, domain.SessionQuery{
			ParticipantID:  1,
			SessionFilters: domain.SessionFilters{SortBy: domain.SessionSortByStartedAt, SortOrder: order},
		})
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "pending", sessions[1].ID, order)
	}
}

func TestSeedUsers(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.SeedUsers(map[string]string{"1": "patient", "2": "doctor"}))

	u, err := store.Repositories().User.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleDoctor, u.Role)
	assert.True(t, u.IsActive)

	assert.Error(t, store.SeedUsers(map[string]string{"x": "patient"}))
	assert.Error(t, store.SeedUsers(map[string]string{"3": "nurse"}))
}
