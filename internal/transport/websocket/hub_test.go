package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/domain"
	"panchakarma/internal/repository/memory"
	"panchakarma/internal/service"
)

const (
	patientID  int64 = 1
	doctorID   int64 = 2
	outsiderID int64 = 3
)

type received struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type hubFixture struct {
	hub      *Hub
	services *service.Services
	skew     atomic.Int64
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	store := memory.NewStore()
	for _, u := range []domain.User{
		{ID: patientID, FirstName: "Asha", Role: domain.UserRolePatient, IsActive: true},
		{ID: doctorID, FirstName: "Vaidya", Role: domain.UserRoleDoctor, IsActive: true},
		{ID: outsiderID, FirstName: "Ravi", Role: domain.UserRolePatient, IsActive: true},
	} {
		store.PutUser(u)
	}

	cfg := &config.Config{
		JWT: config.JWTConfig{SigningKey: "hub-test-key"},
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

	f := &hubFixture{}
	f.services = service.NewServices(service.Deps{
		Repos:  store.Repositories(),
		Logger: zap.NewNop(),
		Config: cfg,
		Now:    func() time.Time { return time.Now().Add(time.Duration(f.skew.Load())) },
	})
	f.hub = NewHub(f.services, nil, zap.NewNop())
	f.services.SetBroadcaster(f.hub)

	return f
}

func (f *hubFixture) createSession(t *testing.T) *domain.ChatSession {
	t.Helper()
	session, err := f.services.Session.CreateSession(context.Background(), domain.CreateSessionRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		SessionType: domain.SessionTypeChat,
	})
	require.NoError(t, err)
	return session
}

func (f *hubFixture) connect(userID int64, buffer int) *Client {
	c := &Client{hub: f.hub, userID: userID, send: make(chan []byte, buffer)}
	f.hub.register(c)
	return c
}

// next returns the next queued frame or fails after a short wait
func next(t *testing.T, c *Client) received {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var r received
		require.NoError(t, json.Unmarshal(raw, &r))
		return r
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return received{}
	}
}

// waitFor skips frames until one of the given type arrives
func waitFor(t *testing.T, c *Client, eventType string) received {
	t.Helper()
	for {
		r := next(t, c)
		if r.Type == eventType {
			return r
		}
	}
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame %s", raw)
	default:
	}
}

func TestJoinActivatesPendingSession(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	patient := f.connect(patientID, 8)
	doctor := f.connect(doctorID, 8)

	joined, err := f.hub.Join(context.Background(), session.ID, patientID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, joined.Status)
	assert.NotNil(t, joined.StartedAt)

	joined, err = f.hub.Join(context.Background(), session.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, joined.Status)
	assert.Equal(t, 2, f.hub.RoomSize(session.ID))

	r := next(t, patient)
	assert.Equal(t, EventJoined, r.Type)
	var user domain.SocketUserData
	require.NoError(t, json.Unmarshal(r.Data, &user))
	assert.Equal(t, doctorID, user.UserID)

	assertQuiet(t, doctor)
}

func TestJoinRejectsOutsidersAndEndedSessions(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()

	_, err := f.hub.Join(ctx, session.ID, outsiderID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.hub.Join(ctx, "missing", patientID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.services.Session.EndSession(ctx, session.ID, doctorID, domain.SessionStatusCancelled)
	require.NoError(t, err)

	_, err = f.hub.Join(ctx, session.ID, patientID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.hub.RoomSize(session.ID))
}

func TestSendMessageFansOutToRoom(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()
	patient := f.connect(patientID, 8)
	doctor := f.connect(doctorID, 8)

	_, err := f.hub.Join(ctx, session.ID, patientID)
	require.NoError(t, err)
	_, err = f.hub.Join(ctx, session.ID, doctorID)
	require.NoError(t, err)
	waitFor(t, patient, EventJoined)

	sent, err := f.services.Message.SendMessage(ctx, domain.SendMessageRequest{
		SessionID: session.ID,
		SenderID:  patientID,
		MessageID: "m-1",
		Type:      domain.MessageTypeText,
		Content:   "namaste",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusSent, sent.Status)

	for _, c := range []*Client{patient, doctor} {
		r := next(t, c)
		assert.Equal(t, EventMessageNew, r.Type)
		var data domain.SocketMessageData
		require.NoError(t, json.Unmarshal(r.Data, &data))
		assert.Equal(t, sent.ID, data.Message.ID)
		assert.Equal(t, "namaste", data.Message.Content)

		r = next(t, c)
		assert.Equal(t, EventMessageStatus, r.Type)
		require.NoError(t, json.Unmarshal(r.Data, &data))
		assert.Equal(t, domain.MessageStatusSent, data.Message.Status)
	}
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	f := newHubFixture(t)
	assert.NoError(t, f.hub.BroadcastMessage("nobody-here", domain.ChatMessage{ID: "x"}))
	f.hub.BroadcastSessionUpdate("nobody-here", domain.SocketSessionData{Status: domain.SessionStatusExpired})
	f.hub.Leave("nobody-here", patientID)
}

func TestTerminalUpdateClosesRoom(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()
	patient := f.connect(patientID, 8)
	doctor := f.connect(doctorID, 8)

	_, err := f.hub.Join(ctx, session.ID, patientID)
	require.NoError(t, err)
	_, err = f.hub.Join(ctx, session.ID, doctorID)
	require.NoError(t, err)
	waitFor(t, patient, EventJoined)

	_, err = f.services.Session.EndSession(ctx, session.ID, doctorID, domain.SessionStatusCompleted)
	require.NoError(t, err)

	for _, c := range []*Client{patient, doctor} {
		r := next(t, c)
		assert.Equal(t, EventSessionUpdate, r.Type)
		var update domain.SocketSessionData
		require.NoError(t, json.Unmarshal(r.Data, &update))
		assert.Equal(t, domain.SessionStatusCompleted, update.Status)
		assert.Equal(t, domain.SessionStatusActive, update.Previous)
	}
	assert.Zero(t, f.hub.RoomSize(session.ID))

	f.hub.BroadcastMessageStatus(session.ID, domain.ChatMessage{ID: "late"})
	assertQuiet(t, patient)
	assertQuiet(t, doctor)
}

func TestLeaveIsIdempotent(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()
	patient := f.connect(patientID, 8)
	f.connect(doctorID, 8)

	_, err := f.hub.Join(ctx, session.ID, patientID)
	require.NoError(t, err)
	_, err = f.hub.Join(ctx, session.ID, doctorID)
	require.NoError(t, err)
	waitFor(t, patient, EventJoined)

	f.hub.Leave(session.ID, doctorID)
	f.hub.Leave(session.ID, doctorID)

	r := next(t, patient)
	assert.Equal(t, EventLeft, r.Type)
	assertQuiet(t, patient)
	assert.False(t, f.hub.IsMember(session.ID, doctorID))
	assert.True(t, f.hub.IsMember(session.ID, patientID))
}

func TestSlowClientIsDropped(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()
	slow := f.connect(patientID, 1)

	_, err := f.hub.Join(ctx, session.ID, patientID)
	require.NoError(t, err)

	require.NoError(t, f.hub.BroadcastMessage(session.ID, domain.ChatMessage{ID: "fills-buffer"}))
	err = f.hub.BroadcastMessage(session.ID, domain.ChatMessage{ID: "overflows"})
	assert.ErrorIs(t, err, ErrUndeliverable)

	assert.False(t, f.hub.IsUserConnected(patientID))
	assert.Zero(t, f.hub.RoomSize(session.ID))

	<-slow.send
	_, ok := <-slow.send
	assert.False(t, ok, "send channel should be closed")
}

func TestDispatchRoundTrip(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()
	patient := f.connect(patientID, 16)
	doctor := f.connect(doctorID, 16)

	f.hub.dispatch(ctx, patient, InboundEvent{Type: EventJoin, SessionID: session.ID, RequestID: "j1"})
	ack := next(t, patient)
	assert.Equal(t, EventJoined, ack.Type)
	assert.Equal(t, "j1", ack.RequestID)
	var joined domain.ChatSession
	require.NoError(t, json.Unmarshal(ack.Data, &joined))
	assert.Equal(t, domain.SessionStatusActive, joined.Status)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: EventJoin, SessionID: session.ID})
	waitFor(t, doctor, EventJoined)
	waitFor(t, patient, EventJoined)

	f.hub.dispatch(ctx, patient, InboundEvent{
		Type:      EventSendMessage,
		SessionID: session.ID,
		RequestID: "s1",
		Data:      json.RawMessage(`{"message_id":"c-1","message_type":"text","content":"pitta is high"}`),
	})
	r := waitFor(t, doctor, EventMessageNew)
	var data domain.SocketMessageData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, patientID, data.Message.SenderID)
	assert.Equal(t, domain.MessageDirectionInbound, data.Message.Direction)
	messageID := data.Message.ID

	ack = waitFor(t, patient, EventSendMessage)
	assert.Equal(t, "s1", ack.RequestID)

	// the sender may not acknowledge its own message
	f.hub.dispatch(ctx, patient, InboundEvent{Type: EventRead, SessionID: session.ID, Data: json.RawMessage(`{"message_id":"` + messageID + `"}`)})
	errEvent := waitFor(t, patient, EventError)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(errEvent.Data, &payload))
	assert.Equal(t, "FORBIDDEN", payload.Code)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: EventRead, SessionID: session.ID, Data: json.RawMessage(`{"message_id":"` + messageID + `"}`)})
	r = waitFor(t, patient, EventMessageStatus)
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, domain.MessageStatusRead, data.Message.Status)
	assert.NotNil(t, data.Message.DeliveredAt)
	assert.NotNil(t, data.Message.ReadAt)
}

func TestDispatchTypingAndErrors(t *testing.T) {
	f := newHubFixture(t)
	session := f.createSession(t)
	ctx := context.Background()
	patient := f.connect(patientID, 8)
	doctor := f.connect(doctorID, 8)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: EventTyping, SessionID: session.ID, Data: json.RawMessage(`{"is_typing":true}`)})
	r := next(t, doctor)
	assert.Equal(t, EventError, r.Type)

	_, err := f.hub.Join(ctx, session.ID, patientID)
	require.NoError(t, err)
	_, err = f.hub.Join(ctx, session.ID, doctorID)
	require.NoError(t, err)
	waitFor(t, patient, EventJoined)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: EventTyping, SessionID: session.ID, Data: json.RawMessage(`{"is_typing":true}`)})
	r = next(t, patient)
	assert.Equal(t, EventTyping, r.Type)
	var user domain.SocketUserData
	require.NoError(t, json.Unmarshal(r.Data, &user))
	require.NotNil(t, user.IsTyping)
	assert.True(t, *user.IsTyping)
	assert.Equal(t, doctorID, user.UserID)
	assertQuiet(t, doctor)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: "shout", SessionID: session.ID})
	r = next(t, doctor)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(r.Data, &payload))
	assert.Equal(t, "VALIDATION_FAILED", payload.Code)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: EventTyping})
	r = next(t, doctor)
	require.NoError(t, json.Unmarshal(r.Data, &payload))
	assert.Equal(t, "VALIDATION_FAILED", payload.Code)

	f.hub.dispatch(ctx, doctor, InboundEvent{Type: EventPing, RequestID: "p"})
	r = next(t, doctor)
	assert.Equal(t, EventPong, r.Type)
	assert.Equal(t, "p", r.RequestID)
}

func TestHandleWebSocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newHubFixture(t)

	router := gin.New()
	router.GET("/ws", f.hub.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := f.services.Auth.IssueToken(patientID, domain.UserRolePatient, time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": EventPing, "request_id": "hello"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var r received
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, EventPong, r.Type)
	assert.Equal(t, "hello", r.RequestID)
	assert.True(t, f.hub.IsUserConnected(patientID))
}

func TestJoinAfterDeadlineExpiresSession(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()
	session := f.createSession(t)

	f.skew.Store(int64(time.Hour))

	_, err := f.hub.Join(ctx, session.ID, patientID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.hub.RoomSize(session.ID))

	stored, err := f.services.Session.GetSession(ctx, session.ID, patientID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusExpired, stored.Status)
	assert.Nil(t, stored.StartedAt)
}

func TestActiveSessionPastDeadlineClosesRoom(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()
	session := f.createSession(t)

	doctor := f.connect(doctorID, 16)
	_, err := f.hub.Join(ctx, session.ID, doctorID)
	require.NoError(t, err)

	f.skew.Store(int64(2 * time.Hour))

	_, err = f.services.Message.SendMessage(ctx, domain.SendMessageRequest{
		SessionID: session.ID,
		SenderID:  doctorID,
		MessageID: "too-late",
		Type:      domain.MessageTypeText,
		Content:   "are you there?",
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	update := waitFor(t, doctor, EventSessionUpdate)
	var data domain.SocketSessionData
	require.NoError(t, json.Unmarshal(update.Data, &data))
	assert.Equal(t, domain.SessionStatusExpired, data.Status)
	assert.Equal(t, domain.SessionStatusActive, data.Previous)
	assert.Zero(t, f.hub.RoomSize(session.ID))
}
