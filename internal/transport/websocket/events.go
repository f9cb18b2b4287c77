package websocket

import (
	"encoding/json"
	"time"
)

// Inbound event types
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventTyping      = "typing"
	EventSendMessage = "send_message"
	EventDelivered   = "delivered"
	EventRead        = "read"
	EventPing        = "ping"
)

// Outbound event types; typing is echoed to the room under its inbound name
const (
	EventMessageNew    = "message:new"
	EventMessageStatus = "message:status"
	EventMessageUpdate = "message:update"
	EventSessionUpdate = "session:update"
	EventJoined        = "joined"
	EventLeft          = "left"
	EventError         = "error"
	EventPong          = "pong"
)

// InboundEvent is a frame received from a client
type InboundEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Event is a frame pushed to a client
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func newEvent(eventType, sessionID string, data any, at time.Time) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
}

type typingPayload struct {
	IsTyping bool `json:"is_typing"`
}

// statusPayload addresses one message by its server id. A read event
// without message_id marks the whole session read.
type statusPayload struct {
	MessageID string `json:"message_id"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
