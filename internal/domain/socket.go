package domain

import "time"

// SocketMessageData is pushed to room members for new messages and status changes
type SocketMessageData struct {
	SessionID string      `json:"session_id"`
	Message   ChatMessage `json:"message"`
}

// SocketSessionData announces a lifecycle transition of a session
type SocketSessionData struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Previous  SessionStatus `json:"previous_status,omitempty"`
	ActorID   *int64        `json:"actor_id,omitempty"`
	Session   *ChatSession  `json:"session,omitempty"`
	At        time.Time     `json:"at"`
}

// SocketUserData carries presence and typing signals; never persisted
type SocketUserData struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	IsTyping  *bool  `json:"is_typing,omitempty"`
}
