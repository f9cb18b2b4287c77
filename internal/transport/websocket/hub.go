package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"panchakarma/internal/domain"
	"panchakarma/internal/service"
)

// ErrUndeliverable is returned by BroadcastMessage when the room has members
// but none of their connections accepted the frame.
var ErrUndeliverable = errors.New("message could not be queued for any room member")

// Hub maintains connected clients and per-session rooms. Room membership is
// by user; a user may hold several connections and all of them receive the
// room's traffic.
type Hub struct {
	auth     service.AuthService
	sessions service.SessionService
	messages service.MessageService
	upgrader websocket.Upgrader
	logger   *zap.Logger
	now      func() time.Time

	mutex   sync.RWMutex
	clients map[int64]map[*Client]struct{}
	rooms   map[string]map[int64]struct{}
}

var _ service.Broadcaster = (*Hub)(nil)

// NewHub builds the gateway. An empty allowedOrigins accepts any origin.
func NewHub(services *service.Services, allowedOrigins []string, logger *zap.Logger) *Hub {
	return &Hub{
		auth:     services.Auth,
		sessions: services.Session,
		messages: services.Message,
		upgrader: newUpgrader(allowedOrigins),
		logger:   logger.Named("hub"),
		now:      time.Now,
		clients:  make(map[int64]map[*Client]struct{}),
		rooms:    make(map[string]map[int64]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mutex.Lock()
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
	h.mutex.Unlock()

	h.logger.Info("client connected", zap.Int64("user_id", c.userID), zap.String("role", string(c.role)))
}

// unregister removes the connection and, when it was the user's last one,
// takes the user out of every room. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mutex.Lock()
	conns, ok := h.clients[c.userID]
	if !ok {
		h.mutex.Unlock()
		return
	}
	if _, ok := conns[c]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(conns, c)
	close(c.send)

	var left []string
	if len(conns) == 0 {
		delete(h.clients, c.userID)
		for sessionID, members := range h.rooms {
			if _, ok := members[c.userID]; ok {
				delete(members, c.userID)
				left = append(left, sessionID)
				if len(members) == 0 {
					delete(h.rooms, sessionID)
				}
			}
		}
	}
	h.mutex.Unlock()

	for _, sessionID := range left {
		h.broadcast(sessionID, newEvent(EventLeft, sessionID, domain.SocketUserData{SessionID: sessionID, UserID: c.userID}, h.now()), c.userID)
	}
	h.logger.Info("client disconnected", zap.Int64("user_id", c.userID))
}

// Join adds userID to the session's room. Only participants of a session that
// has not ended may join; the first join of a pending session activates it.
func (h *Hub) Join(ctx context.Context, sessionID string, userID int64) (*domain.ChatSession, error) {
	session, err := h.sessions.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, domain.ErrForbidden
	}

	if session.Status == domain.SessionStatusPending {
		session, err = h.sessions.ActivateSession(ctx, sessionID, userID)
		if errors.Is(err, domain.ErrInvalidTransition) {
			// lost the race to the other participant
			session, err = h.sessions.GetSession(ctx, sessionID, userID)
		}
		if err != nil {
			return nil, err
		}
	}

	h.mutex.Lock()
	members, ok := h.rooms[sessionID]
	if !ok {
		members = make(map[int64]struct{})
		h.rooms[sessionID] = members
	}
	members[userID] = struct{}{}
	h.mutex.Unlock()

	// the session may have ended between the check and the insert, in which
	// case its terminal update already closed the room we just reopened
	session, err = h.sessions.GetSession(ctx, sessionID, userID)
	if err != nil || session.Status.IsTerminal() {
		h.removeMember(sessionID, userID)
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrForbidden
	}

	h.broadcast(sessionID, newEvent(EventJoined, sessionID, domain.SocketUserData{SessionID: sessionID, UserID: userID}, h.now()), userID)
	h.logger.Debug("joined room", zap.String("session_id", sessionID), zap.Int64("user_id", userID))
	return session, nil
}

// Leave removes userID from the room. Leaving a room one is not in is a no-op.
func (h *Hub) Leave(sessionID string, userID int64) {
	if !h.removeMember(sessionID, userID) {
		return
	}
	h.broadcast(sessionID, newEvent(EventLeft, sessionID, domain.SocketUserData{SessionID: sessionID, UserID: userID}, h.now()), 0)
}

func (h *Hub) removeMember(sessionID string, userID int64) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	members, ok := h.rooms[sessionID]
	if !ok {
		return false
	}
	if _, ok := members[userID]; !ok {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(h.rooms, sessionID)
	}
	return true
}

// IsMember reports whether userID currently sits in the session's room
func (h *Hub) IsMember(sessionID string, userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.rooms[sessionID][userID]
	return ok
}

func (h *Hub) RoomSize(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) IsUserConnected(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) BroadcastMessage(sessionID string, message domain.ChatMessage) error {
	event := newEvent(EventMessageNew, sessionID, domain.SocketMessageData{SessionID: sessionID, Message: message}, h.now())
	members, delivered, err := h.fanout(sessionID, event, 0)
	if err != nil {
		return err
	}
	if members > 0 && delivered == 0 {
		return fmt.Errorf("%w: session %s", ErrUndeliverable, sessionID)
	}
	return nil
}

func (h *Hub) BroadcastMessageStatus(sessionID string, message domain.ChatMessage) {
	h.broadcast(sessionID, newEvent(EventMessageStatus, sessionID, domain.SocketMessageData{SessionID: sessionID, Message: message}, h.now()), 0)
}

func (h *Hub) BroadcastMessageUpdate(sessionID string, message domain.ChatMessage) {
	h.broadcast(sessionID, newEvent(EventMessageUpdate, sessionID, domain.SocketMessageData{SessionID: sessionID, Message: message}, h.now()), 0)
}

// BroadcastSessionUpdate fans the transition out and closes the room once the
// session reaches a terminal status. Frames already queued are still written.
func (h *Hub) BroadcastSessionUpdate(sessionID string, update domain.SocketSessionData) {
	h.broadcast(sessionID, newEvent(EventSessionUpdate, sessionID, update, h.now()), 0)

	if update.Status.IsTerminal() {
		h.mutex.Lock()
		delete(h.rooms, sessionID)
		h.mutex.Unlock()
		h.logger.Info("room closed", zap.String("session_id", sessionID), zap.String("status", string(update.Status)))
	}
}

// BroadcastTyping relays a typing signal to the other members of the room
func (h *Hub) BroadcastTyping(sessionID string, userID int64, isTyping bool) {
	data := domain.SocketUserData{SessionID: sessionID, UserID: userID, IsTyping: &isTyping}
	h.broadcast(sessionID, newEvent(EventTyping, sessionID, data, h.now()), userID)
}

func (h *Hub) broadcast(sessionID string, event Event, exclude int64) {
	if _, _, err := h.fanout(sessionID, event, exclude); err != nil {
		h.logger.Error("broadcast failed", zap.String("session_id", sessionID), zap.String("type", event.Type), zap.Error(err))
	}
}

// fanout queues event on every connection of every room member except
// exclude. Connections whose buffer is full are dropped.
func (h *Hub) fanout(sessionID string, event Event, exclude int64) (members, delivered int, err error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	var slow []*Client

	h.mutex.RLock()
	for userID := range h.rooms[sessionID] {
		if userID == exclude {
			continue
		}
		members++
		for c := range h.clients[userID] {
			select {
			case c.send <- data:
				delivered++
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mutex.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", zap.Int64("user_id", c.userID), zap.String("session_id", sessionID))
		h.unregister(c)
	}
	return members, delivered, nil
}

// reply sends event to a single connection
func (h *Hub) reply(c *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal reply", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mutex.RLock()
	_, registered := h.clients[c.userID][c]
	queued := false
	if registered {
		select {
		case c.send <- data:
			queued = true
		default:
		}
	}
	h.mutex.RUnlock()

	if registered && !queued {
		h.logger.Warn("dropping slow client", zap.Int64("user_id", c.userID))
		h.unregister(c)
	}
}

func (h *Hub) replyError(c *Client, in InboundEvent, err error) {
	code := domain.ErrorCode(err)
	message := err.Error()
	if code == "INTERNAL" {
		message = "internal error"
	}
	event := newEvent(EventError, in.SessionID, errorPayload{Code: code, Message: message}, h.now())
	event.RequestID = in.RequestID
	h.reply(c, event)
}

// dispatch handles one inbound frame from c
func (h *Hub) dispatch(ctx context.Context, c *Client, in InboundEvent) {
	if in.Type != EventPing && in.SessionID == "" {
		h.replyError(c, in, fmt.Errorf("%w: session_id is required", domain.ErrValidation))
		return
	}

	var (
		data any
		err  error
	)

	switch in.Type {
	case EventPing:
		event := newEvent(EventPong, in.SessionID, nil, h.now())
		event.RequestID = in.RequestID
		h.reply(c, event)
		return

	case EventJoin:
		var session *domain.ChatSession
		if session, err = h.Join(ctx, in.SessionID, c.userID); err == nil {
			data = session
		}

	case EventLeave:
		h.Leave(in.SessionID, c.userID)
		return

	case EventTyping:
		var p typingPayload
		if err = decode(in.Data, &p); err == nil {
			if !h.IsMember(in.SessionID, c.userID) {
				err = domain.ErrForbidden
				break
			}
			h.BroadcastTyping(in.SessionID, c.userID, p.IsTyping)
			return
		}

	case EventSendMessage:
		var req domain.SendMessageRequest
		if err = decode(in.Data, &req); err == nil {
			req.SessionID = in.SessionID
			req.SenderID = c.userID
			var message *domain.ChatMessage
			if message, err = h.messages.SendMessage(ctx, req); err == nil {
				data = message
			}
		}

	case EventDelivered, EventRead:
		data, err = h.markStatus(ctx, c, in)

	default:
		err = fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, in.Type)
	}

	if err != nil {
		h.replyError(c, in, err)
		return
	}

	// acknowledgements go only to the requester; room traffic flows through the broadcaster
	if in.RequestID != "" || in.Type == EventJoin {
		event := newEvent(in.Type, in.SessionID, data, h.now())
		event.RequestID = in.RequestID
		if in.Type == EventJoin {
			event.Type = EventJoined
		}
		h.reply(c, event)
	}
}

func (h *Hub) markStatus(ctx context.Context, c *Client, in InboundEvent) (any, error) {
	var p statusPayload
	if err := decode(in.Data, &p); err != nil {
		return nil, err
	}

	if p.MessageID == "" {
		if in.Type != EventRead {
			return nil, fmt.Errorf("%w: message_id is required", domain.ErrValidation)
		}
		read, err := h.messages.MarkSessionRead(ctx, in.SessionID, c.userID)
		if err != nil {
			return nil, err
		}
		return read, nil
	}

	message, err := h.messages.GetMessage(ctx, p.MessageID, c.userID)
	if err != nil {
		return nil, err
	}
	if message.SessionID != in.SessionID || message.SenderID == c.userID {
		return nil, domain.ErrForbidden
	}

	status := domain.MessageStatusDelivered
	if in.Type == EventRead {
		status = domain.MessageStatusRead
	}
	updated, err := h.messages.MarkStatus(ctx, p.MessageID, status)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed payload: %s", domain.ErrValidation, err.Error())
	}
	return nil
}
