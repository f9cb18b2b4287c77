package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionType is the kind of consultation a session was booked for
type SessionType string

const (
	SessionTypeChat      SessionType = "chat"
	SessionTypeAudioCall SessionType = "audio_call"
	SessionTypeVideoCall SessionType = "video_call"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeChat, SessionTypeAudioCall, SessionTypeVideoCall:
		return true
	}
	return false
}

// IsTimeBased reports whether the session is billed by duration rather than by message count
func (t SessionType) IsTimeBased() bool {
	return t == SessionTypeAudioCall || t == SessionTypeVideoCall
}

// SessionStatus represents the lifecycle state of a chat session
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusExpired   SessionStatus = "expired"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPending, SessionStatusActive, SessionStatusCompleted, SessionStatusCancelled, SessionStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions may leave this status
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled || s == SessionStatusExpired
}

// CanTransitionTo encodes the session state machine:
//
//	pending --activate--> active --end--> completed|cancelled|expired
//	pending --end--> cancelled|expired
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusPending:
		return next == SessionStatusActive || next == SessionStatusCancelled || next == SessionStatusExpired
	case SessionStatusActive:
		return next.IsTerminal()
	}
	return false
}

// MessageType represents the type of a chat message
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeAudio  MessageType = "audio"
	MessageTypeVideo  MessageType = "video"
	MessageTypeSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeAudio, MessageTypeVideo, MessageTypeSystem:
		return true
	}
	return false
}

// ClientSendable reports whether participants may post messages of this type.
// System notices are written by the clinic, never by a participant.
func (t MessageType) ClientSendable() bool {
	return t.Valid() && t != MessageTypeSystem
}

// HasAttachment reports whether messages of this type carry file metadata
func (t MessageType) HasAttachment() bool {
	return t == MessageTypeImage || t == MessageTypeFile || t == MessageTypeAudio || t == MessageTypeVideo
}

// MessageDirection is relative to the clinic: patients write inbound, doctors write outbound
type MessageDirection string

const (
	MessageDirectionInbound  MessageDirection = "inbound"
	MessageDirectionOutbound MessageDirection = "outbound"
	MessageDirectionSystem   MessageDirection = "system"
)

// MessageStatus represents the delivery state of a chat message
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

var messageStatusRank = map[MessageStatus]int{
	MessageStatusPending:   0,
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

func (s MessageStatus) Valid() bool {
	if s == MessageStatusFailed {
		return true
	}
	_, ok := messageStatusRank[s]
	return ok
}

// Advances reports whether moving from s to next is a forward step.
// Any non-failed status may move to failed; failed is absorbing.
func (s MessageStatus) Advances(next MessageStatus) bool {
	if s == MessageStatusFailed {
		return false
	}
	if next == MessageStatusFailed {
		return true
	}
	cur, ok := messageStatusRank[s]
	if !ok {
		return false
	}
	nxt, ok := messageStatusRank[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// ChatSession represents one booked consultation between a patient and a doctor
type ChatSession struct {
	ID                   string          `json:"id" db:"id"`
	PatientID            int64           `json:"patient_id" db:"patient_id"`
	DoctorID             int64           `json:"doctor_id" db:"doctor_id"`
	SessionType          SessionType     `json:"session_type" db:"session_type"`
	Status               SessionStatus   `json:"status" db:"status"`
	TotalCost            decimal.Decimal `json:"total_cost" db:"total_cost"`
	CostPerUnit          decimal.Decimal `json:"cost_per_unit" db:"cost_per_unit"`
	TotalDuration        int64           `json:"total_duration" db:"total_duration"`
	TotalMessages        int64           `json:"total_messages" db:"total_messages"`
	Notes                *string         `json:"notes,omitempty" db:"notes"`
	StartedAt            *time.Time      `json:"started_at,omitempty" db:"started_at"`
	EndedAt              *time.Time      `json:"ended_at,omitempty" db:"ended_at"`
	ExpiresAt            *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	EndReason            *SessionStatus  `json:"end_reason,omitempty" db:"end_reason"`
	IsPaid               bool            `json:"is_paid" db:"is_paid"`
	PaymentTransactionID *string         `json:"payment_transaction_id,omitempty" db:"payment_transaction_id"`
	PaidAt               *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	IsRated              bool            `json:"is_rated" db:"is_rated"`
	Rating               *int            `json:"rating,omitempty" db:"rating"`
	Review               *string         `json:"review,omitempty" db:"review"`
	IsActive             bool            `json:"is_active" db:"is_active"`
	Version              int64           `json:"-" db:"version"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// IsParticipant reports whether userID is the patient or the doctor of the session
func (s *ChatSession) IsParticipant(userID int64) bool {
	return s.PatientID == userID || s.DoctorID == userID
}

// IsLapsed reports whether a live session has reached its deadline at now
func (s *ChatSession) IsLapsed(now time.Time) bool {
	return !s.Status.IsTerminal() && s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// ChatMessage represents a message in a chat session
type ChatMessage struct {
	ID               string           `json:"id" db:"id"`
	MessageID        string           `json:"message_id" db:"client_message_id"`
	SessionID        string           `json:"session_id" db:"session_id"`
	SenderID         int64            `json:"sender_id" db:"sender_id"`
	Type             MessageType      `json:"message_type" db:"message_type"`
	Direction        MessageDirection `json:"direction" db:"direction"`
	Content          string           `json:"content" db:"content"`
	FileURL          *string          `json:"file_url,omitempty" db:"file_url"`
	FileName         *string          `json:"file_name,omitempty" db:"file_name"`
	FileMimeType     *string          `json:"file_mime_type,omitempty" db:"file_mime_type"`
	FileSize         *int64           `json:"file_size,omitempty" db:"file_size"`
	Status           MessageStatus    `json:"status" db:"status"`
	SentAt           time.Time        `json:"sent_at" db:"sent_at"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty" db:"delivered_at"`
	ReadAt           *time.Time       `json:"read_at,omitempty" db:"read_at"`
	ReplyToMessageID *string          `json:"reply_to_message_id,omitempty" db:"reply_to_message_id"`
	IsEdited         bool             `json:"is_edited" db:"is_edited"`
	EditedAt         *time.Time       `json:"edited_at,omitempty" db:"edited_at"`
	IsDeleted        bool             `json:"is_deleted" db:"is_deleted"`
	DeletedAt        *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
	IsActive         bool             `json:"is_active" db:"is_active"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// CreateSessionRequest represents the data required to book a session
type CreateSessionRequest struct {
	PatientID   int64       `json:"patient_id" binding:"required"`
	DoctorID    int64       `json:"doctor_id" binding:"required"`
	SessionType SessionType `json:"session_type" binding:"required,oneof=chat audio_call video_call"`
	Notes       *string     `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

// SendMessageRequest represents a message submission
type SendMessageRequest struct {
	SessionID        string      `json:"-"`
	SenderID         int64       `json:"-"`
	MessageID        string      `json:"message_id" binding:"required,max=128"`
	Type             MessageType `json:"message_type" binding:"required,oneof=text image file audio video"`
	Content          string      `json:"content" binding:"max=10000"`
	FileURL          *string     `json:"file_url,omitempty"`
	FileName         *string     `json:"file_name,omitempty"`
	FileMimeType     *string     `json:"file_mime_type,omitempty"`
	FileSize         *int64      `json:"file_size,omitempty" binding:"omitempty,min=0"`
	ReplyToMessageID *string     `json:"reply_to_message_id,omitempty"`
}

type EndSessionRequest struct {
	Reason SessionStatus `json:"reason" binding:"required,oneof=completed cancelled expired"`
}

type RecordPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,max=255"`
}

type RateSessionRequest struct {
	Rating int     `json:"rating" binding:"required,min=1,max=5"`
	Review *string `json:"review,omitempty" binding:"omitempty,max=5000"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type MarkStatusRequest struct {
	Status MessageStatus `json:"status" binding:"required,oneof=pending sent delivered read failed"`
}
