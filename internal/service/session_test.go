package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panchakarma/config"
	"panchakarma/internal/domain"
)

func (f *fixture) createSession(t *testing.T, sessionType domain.SessionType) *domain.ChatSession {
	t.Helper()
	session, err := f.services.Session.CreateSession(context.Background(), domain.CreateSessionRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		SessionType: sessionType,
	})
	require.NoError(t, err)
	return session
}

func (f *fixture) activeSession(t *testing.T, sessionType domain.SessionType) *domain.ChatSession {
	t.Helper()
	session := f.createSession(t, sessionType)
	session, err := f.services.Session.ActivateSession(context.Background(), session.ID, doctorID)
	require.NoError(t, err)
	return session
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	notes := "follow-up on abhyanga"

	session, err := f.services.Session.CreateSession(context.Background(), domain.CreateSessionRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		SessionType: domain.SessionTypeVideoCall,
		Notes:       &notes,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, domain.SessionStatusPending, session.Status)
	assert.True(t, session.CostPerUnit.Equal(decimal.RequireFromString("0.75")))
	assert.True(t, session.TotalCost.IsZero())
	assert.Nil(t, session.StartedAt)
	require.NotNil(t, session.ExpiresAt)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), *session.ExpiresAt)
	assert.Equal(t, &notes, session.Notes)
}

func TestCreateSessionRejectsInvalidParticipants(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		patient int64
		doctor  int64
	}{
		{"same user", patientID, patientID},
		{"unknown patient", 99, doctorID},
		{"unknown doctor", patientID, 99},
		{"inactive patient", inactiveUserID, doctorID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.services.Session.CreateSession(context.Background(), domain.CreateSessionRequest{
				PatientID:   tc.patient,
				DoctorID:    tc.doctor,
				SessionType: domain.SessionTypeChat,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidParticipant)
		})
	}
}

func TestCreateSessionRejectsDuplicateOpenSession(t *testing.T) {
	f := newFixture(t)
	f.createSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.CreateSession(context.Background(), domain.CreateSessionRequest{
		PatientID: patientID, DoctorID: doctorID, SessionType: domain.SessionTypeChat,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateActiveSession)

	// another type for the same pair is fine
	_, err = f.services.Session.CreateSession(context.Background(), domain.CreateSessionRequest{
		PatientID: patientID, DoctorID: doctorID, SessionType: domain.SessionTypeAudioCall,
	})
	assert.NoError(t, err)
}

func TestCreateSessionAllowedAfterPreviousEnded(t *testing.T) {
	f := newFixture(t)
	first := f.createSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.EndSession(context.Background(), first.ID, patientID, domain.SessionStatusCancelled)
	require.NoError(t, err)

	second := f.createSession(t, domain.SessionTypeChat)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestActivateSession(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.ActivateSession(context.Background(), session.ID, otherPatientID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.clock.Advance(time.Minute)
	active, err := f.services.Session.ActivateSession(context.Background(), session.ID, patientID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, active.Status)
	require.NotNil(t, active.StartedAt)
	assert.Equal(t, f.clock.Now(), *active.StartedAt)
	assert.Equal(t, f.clock.Now().Add(time.Hour), *active.ExpiresAt)

	_, err = f.services.Session.ActivateSession(context.Background(), session.ID, patientID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.Len(t, f.broadcaster.sessions, 1)
	assert.Equal(t, domain.SessionStatusActive, f.broadcaster.sessions[0].Status)
	assert.Equal(t, domain.SessionStatusPending, f.broadcaster.sessions[0].Previous)
}

func TestActivateUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.services.Session.ActivateSession(context.Background(), "missing", patientID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatSessionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session := f.createSession(t, domain.SessionTypeChat)
	assert.Equal(t, domain.SessionStatusPending, session.Status)

	session, err := f.services.Session.ActivateSession(ctx, session.ID, patientID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, session.Status)
	assert.NotNil(t, session.StartedAt)

	for i, token := range []string{"m-1", "m-2", "m-3"} {
		sender := patientID
		if i%2 == 1 {
			sender = doctorID
		}
		msg, err := f.services.Message.SendMessage(ctx, domain.SendMessageRequest{
			SessionID: session.ID,
			SenderID:  sender,
			MessageID: token,
			Type:      domain.MessageTypeText,
			Content:   "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MessageStatusSent, msg.Status)
	}

	session, err = f.services.Session.GetSession(ctx, session.ID, patientID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, session.TotalMessages)

	f.clock.Advance(10 * time.Minute)
	ended, err := f.services.Session.EndSession(ctx, session.ID, doctorID, domain.SessionStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, f.clock.Now(), *ended.EndedAt)
	assert.EqualValues(t, 600, ended.TotalDuration)
	assert.True(t, ended.TotalCost.Equal(decimal.NewFromInt(30)), "got %s", ended.TotalCost)
	require.NotNil(t, ended.EndReason)
	assert.Equal(t, domain.SessionStatusCompleted, *ended.EndReason)
}

func TestEndCallSessionBillsDuration(t *testing.T) {
	f := newFixture(t)
	session := f.activeSession(t, domain.SessionTypeAudioCall)

	f.clock.Advance(90 * time.Second)
	ended, err := f.services.Session.EndSession(context.Background(), session.ID, patientID, domain.SessionStatusCompleted)
	require.NoError(t, err)

	assert.EqualValues(t, 90, ended.TotalDuration)
	assert.True(t, ended.TotalCost.Equal(decimal.RequireFromString("45")), "got %s", ended.TotalCost)
}

func TestEndPendingSession(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.EndSession(context.Background(), session.ID, patientID, domain.SessionStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	ended, err := f.services.Session.EndSession(context.Background(), session.ID, patientID, domain.SessionStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCancelled, ended.Status)
	assert.Nil(t, ended.StartedAt)
	assert.Zero(t, ended.TotalDuration)
	assert.True(t, ended.TotalCost.IsZero())
}

func TestEndSessionRejectsNonTerminalReason(t *testing.T) {
	f := newFixture(t)
	session := f.activeSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.EndSession(context.Background(), session.ID, patientID, domain.SessionStatusActive)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTerminalSessionsAreAbsorbing(t *testing.T) {
	for _, reason := range []domain.SessionStatus{domain.SessionStatusCompleted, domain.SessionStatusCancelled, domain.SessionStatusExpired} {
		t.Run(string(reason), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			session := f.activeSession(t, domain.SessionTypeChat)

			ended, err := f.services.Session.EndSession(ctx, session.ID, patientID, reason)
			require.NoError(t, err)

			_, err = f.services.Session.ActivateSession(ctx, session.ID, patientID)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)

			for _, next := range []domain.SessionStatus{domain.SessionStatusCompleted, domain.SessionStatusCancelled, domain.SessionStatusExpired} {
				_, err = f.services.Session.EndSession(ctx, session.ID, doctorID, next)
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			}

			expired, err := f.services.Session.ExpireIdleSessions(ctx, f.clock.Now().Add(24*time.Hour))
			require.NoError(t, err)
			assert.Empty(t, expired)

			after, err := f.services.Session.GetSession(ctx, session.ID, patientID)
			require.NoError(t, err)
			assert.Equal(t, ended.Status, after.Status)
			assert.Equal(t, ended.EndedAt, after.EndedAt)
		})
	}
}

func TestExpireIdleSessionsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.createSession(t, domain.SessionTypeChat)
	active := f.activeSession(t, domain.SessionTypeVideoCall)

	// before any deadline nothing happens
	expired, err := f.services.Session.ExpireIdleSessions(ctx, f.clock.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, expired)

	now := f.clock.Now().Add(2 * time.Hour)
	expired, err = f.services.Session.ExpireIdleSessions(ctx, now)
	require.NoError(t, err)
	assert.Len(t, expired, 2)

	first := map[string]domain.ChatSession{}
	for _, id := range []string{pending.ID, active.ID} {
		s, err := f.services.Session.GetSession(ctx, id, patientID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusExpired, s.Status)
		require.NotNil(t, s.EndedAt)
		assert.Equal(t, now, *s.EndedAt)
		first[id] = *s
	}

	expired, err = f.services.Session.ExpireIdleSessions(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)

	for id, before := range first {
		s, err := f.services.Session.GetSession(ctx, id, patientID)
		require.NoError(t, err)
		assert.Equal(t, before, *s)
	}
}

func TestExpireAtDeadlineBoundary(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t, domain.SessionTypeChat)

	expired, err := f.services.Session.ExpireIdleSessions(context.Background(), *session.ExpiresAt)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, session.ID, expired[0].ID)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.createSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.RecordPayment(ctx, session.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	paid, err := f.services.Session.RecordPayment(ctx, session.ID, "txn-42")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "txn-42", *paid.PaymentTransactionID)
	assert.NotNil(t, paid.PaidAt)

	_, err = f.services.Session.RecordPayment(ctx, session.ID, "txn-43")
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestRateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.activeSession(t, domain.SessionTypeChat)
	review := "  very calming  "

	_, err := f.services.Session.RateSession(ctx, session.ID, patientID, 5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.services.Session.EndSession(ctx, session.ID, doctorID, domain.SessionStatusCompleted)
	require.NoError(t, err)

	_, err = f.services.Session.RateSession(ctx, session.ID, patientID, 6, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.services.Session.RateSession(ctx, session.ID, doctorID, 5, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	rated, err := f.services.Session.RateSession(ctx, session.ID, patientID, 4, &review)
	require.NoError(t, err)
	assert.True(t, rated.IsRated)
	assert.Equal(t, 4, *rated.Rating)
	assert.Equal(t, "very calming", *rated.Review)

	_, err = f.services.Session.RateSession(ctx, session.ID, patientID, 5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestGetSessionForbiddenForOutsider(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t, domain.SessionTypeChat)

	_, err := f.services.Session.GetSession(context.Background(), session.ID, otherPatientID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat := f.createSession(t, domain.SessionTypeChat)
	f.clock.Advance(time.Minute)
	f.createSession(t, domain.SessionTypeAudioCall)
	f.clock.Advance(time.Minute)
	_, err := f.services.Session.CreateSession(ctx, domain.CreateSessionRequest{
		PatientID: otherPatientID, DoctorID: doctorID, SessionType: domain.SessionTypeChat,
	})
	require.NoError(t, err)

	sessions, total, err := f.services.Session.ListSessions(ctx, patientID, domain.SessionFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, sessions, 2)
	assert.Equal(t, domain.SessionTypeAudioCall, sessions[0].SessionType, "newest first by default")

	sessions, total, err = f.services.Session.ListSessions(ctx, doctorID, domain.SessionFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, sessions, 3)

	chatType := domain.SessionTypeChat
	sessions, total, err = f.services.Session.ListSessions(ctx, patientID, domain.SessionFilters{SessionType: &chatType})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, sessions, 1)
	assert.Equal(t, chat.ID, sessions[0].ID)

	sessions, total, err = f.services.Session.ListSessions(ctx, doctorID, domain.SessionFilters{Page: 2, Limit: 2, SortOrder: domain.SortOrderAsc})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, sessions, 1)

	_, _, err = f.services.Session.ListSessions(ctx, patientID, domain.SessionFilters{SortBy: "patient_id"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.services.Session.ListSessions(ctx, patientID, domain.SessionFilters{Limit: 1000})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIdlePolicyActivationDeadline(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Session.ExpiryPolicy = config.ExpiryPolicyIdle })
	session := f.activeSession(t, domain.SessionTypeChat)

	require.NotNil(t, session.ExpiresAt)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), *session.ExpiresAt)
}

func TestActivateAfterPendingDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.createSession(t, domain.SessionTypeChat)

	// the deadline itself counts as lapsed
	f.clock.Advance(30 * time.Minute)
	_, err := f.services.Session.ActivateSession(ctx, session.ID, patientID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.services.Session.GetSession(ctx, session.ID, patientID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusExpired, stored.Status)
	assert.Nil(t, stored.StartedAt)
	require.NotNil(t, stored.EndedAt)
	assert.Equal(t, f.clock.Now(), *stored.EndedAt)
	assert.True(t, stored.TotalCost.IsZero())

	require.NotEmpty(t, f.broadcaster.sessions)
	last := f.broadcaster.sessions[len(f.broadcaster.sessions)-1]
	assert.Equal(t, domain.SessionStatusExpired, last.Status)
	assert.Equal(t, domain.SessionStatusPending, last.Previous)
	assert.Nil(t, last.ActorID)

	expired, err := f.services.Session.ExpireIdleSessions(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestGetSessionSettlesLapsedCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.activeSession(t, domain.SessionTypeAudioCall)

	f.clock.Advance(time.Hour + time.Minute)
	stored, err := f.services.Session.GetSession(ctx, session.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusExpired, stored.Status)
	assert.EqualValues(t, 3660, stored.TotalDuration)
	assert.True(t, stored.TotalCost.Equal(decimal.NewFromInt(1830)), "got %s", stored.TotalCost)

	_, err = f.services.Session.GetSession(ctx, session.ID, otherPatientID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCallDurationRoundsUpPartialSeconds(t *testing.T) {
	f := newFixture(t)
	session := f.activeSession(t, domain.SessionTypeVideoCall)

	f.clock.Advance(1900 * time.Millisecond)
	ended, err := f.services.Session.EndSession(context.Background(), session.ID, patientID, domain.SessionStatusCompleted)
	require.NoError(t, err)

	assert.EqualValues(t, 2, ended.TotalDuration)
	assert.True(t, ended.TotalCost.Equal(decimal.RequireFromString("1.5")), "got %s", ended.TotalCost)
}

