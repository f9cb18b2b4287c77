package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		allowed  bool
	}{
		{SessionStatusPending, SessionStatusActive, true},
		{SessionStatusPending, SessionStatusCancelled, true},
		{SessionStatusPending, SessionStatusExpired, true},
		{SessionStatusPending, SessionStatusCompleted, false},
		{SessionStatusActive, SessionStatusCompleted, true},
		{SessionStatusActive, SessionStatusCancelled, true},
		{SessionStatusActive, SessionStatusExpired, true},
		{SessionStatusActive, SessionStatusPending, false},
		{SessionStatusCompleted, SessionStatusActive, false},
		{SessionStatusCancelled, SessionStatusExpired, false},
		{SessionStatusExpired, SessionStatusCompleted, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestMessageStatusAdvances(t *testing.T) {
	assert.True(t, MessageStatusPending.Advances(MessageStatusSent))
	assert.True(t, MessageStatusPending.Advances(MessageStatusRead))
	assert.True(t, MessageStatusSent.Advances(MessageStatusDelivered))
	assert.True(t, MessageStatusRead.Advances(MessageStatusFailed))

	assert.False(t, MessageStatusRead.Advances(MessageStatusDelivered))
	assert.False(t, MessageStatusSent.Advances(MessageStatusSent))
	assert.False(t, MessageStatusDelivered.Advances(MessageStatusPending))
	assert.False(t, MessageStatusFailed.Advances(MessageStatusSent))
	assert.False(t, MessageStatusFailed.Advances(MessageStatusFailed))
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("activate session: %w", ErrInvalidTransition)

	assert.True(t, errors.Is(wrapped, ErrInvalidTransition))
	assert.Equal(t, "INVALID_TRANSITION", ErrorCode(wrapped))
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))
}

func TestFiltersNormalize(t *testing.T) {
	var mf MessageFilters
	mf.Normalize()
	assert.Equal(t, 1, mf.Page)
	assert.Equal(t, DefaultPageLimit, mf.Limit)
	assert.Equal(t, MessageSortBySentAt, mf.SortBy)
	assert.Equal(t, SortOrderAsc, mf.SortOrder)

	sf := SessionFilters{Page: 3, Limit: 500}
	sf.Normalize()
	assert.Equal(t, MaxPageLimit, sf.Limit)
	assert.Equal(t, 200, sf.Offset())
	assert.Equal(t, SortOrderDesc, sf.SortOrder)
}
