package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/domain"
	"panchakarma/internal/repository/memory"
)

const (
	patientID      int64 = 1
	doctorID       int64 = 2
	otherPatientID int64 = 3
	inactiveUserID int64 = 4
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
	statuses []domain.ChatMessage
	updates  []domain.ChatMessage
	sessions []domain.SocketSessionData
	fail     bool
}

func (b *recordingBroadcaster) BroadcastMessage(_ string, m domain.ChatMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("room closed")
	}
	b.messages = append(b.messages, m)
	return nil
}

func (b *recordingBroadcaster) BroadcastMessageStatus(_ string, m domain.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, m)
}

func (b *recordingBroadcaster) BroadcastMessageUpdate(_ string, m domain.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, m)
}

func (b *recordingBroadcaster) BroadcastSessionUpdate(_ string, u domain.SocketSessionData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = append(b.sessions, u)
}

type fixture struct {
	store       *memory.Store
	services    *Services
	clock       *testClock
	broadcaster *recordingBroadcaster
	cfg         *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{SigningKey: "test-signing-key"},
		Session: config.SessionConfig{
			ExpiryPolicy: config.ExpiryPolicyFixed,
			PendingTTL:   30 * time.Minute,
			MaxDuration:  time.Hour,
			IdleTimeout:  15 * time.Minute,
		},
		Billing: config.BillingConfig{
			ChatRate:      decimal.NewFromInt(10),
			AudioCallRate: decimal.RequireFromString("0.5"),
			VideoCallRate: decimal.RequireFromString("0.75"),
		},
	}
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	store := memory.NewStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.PutUser(domain.User{ID: patientID, FirstName: "Asha", Role: domain.UserRolePatient, IsActive: true, CreatedAt: now, UpdatedAt: now})
	store.PutUser(domain.User{ID: doctorID, FirstName: "Vaidya", Role: domain.UserRoleDoctor, IsActive: true, CreatedAt: now, UpdatedAt: now})
	store.PutUser(domain.User{ID: otherPatientID, FirstName: "Ravi", Role: domain.UserRolePatient, IsActive: true, CreatedAt: now, UpdatedAt: now})
	store.PutUser(domain.User{ID: inactiveUserID, FirstName: "Gone", Role: domain.UserRolePatient, IsActive: false, CreatedAt: now, UpdatedAt: now})

	clock := newTestClock()
	services := NewServices(Deps{
		Repos:  store.Repositories(),
		Logger: zap.NewNop(),
		Config: cfg,
		Now:    clock.Now,
	})
	broadcaster := &recordingBroadcaster{}
	services.SetBroadcaster(broadcaster)

	return &fixture{
		store:       store,
		services:    services,
		clock:       clock,
		broadcaster: broadcaster,
		cfg:         cfg,
	}
}
