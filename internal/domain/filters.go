package domain

import "time"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Whitelisted sort columns; anything else is rejected at the boundary
const (
	MessageSortBySentAt    = "sent_at"
	MessageSortByCreatedAt = "created_at"

	SessionSortByCreatedAt = "created_at"
	SessionSortByStartedAt = "started_at"
	SessionSortByTotalCost = "total_cost"
)

// MessageFilters is the GetMessagesQuery accepted by listMessages
type MessageFilters struct {
	Page        int            `form:"page" json:"page" binding:"omitempty,min=1" validate:"omitempty,min=1"`
	Limit       int            `form:"limit" json:"limit" binding:"omitempty,min=1,max=100" validate:"omitempty,min=1,max=100"`
	MessageType *MessageType   `form:"message_type" json:"message_type" binding:"omitempty,oneof=text image file audio video system" validate:"omitempty,oneof=text image file audio video system"`
	Status      *MessageStatus `form:"status" json:"status" binding:"omitempty,oneof=pending sent delivered read failed" validate:"omitempty,oneof=pending sent delivered read failed"`
	From        *time.Time     `form:"from" json:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time     `form:"to" json:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy      string         `form:"sort_by" json:"sort_by" binding:"omitempty,oneof=sent_at created_at" validate:"omitempty,oneof=sent_at created_at"`
	SortOrder   string         `form:"sort_order" json:"sort_order" binding:"omitempty,oneof=asc desc" validate:"omitempty,oneof=asc desc"`
}

// Normalize fills defaults for unset paging and ordering fields
func (f *MessageFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.SortBy == "" {
		f.SortBy = MessageSortBySentAt
	}
	if f.SortOrder == "" {
		f.SortOrder = SortOrderAsc
	}
}

func (f MessageFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// MessageQuery is what the repository receives: filters bound to one session
type MessageQuery struct {
	SessionID string
	MessageFilters
}

// SessionFilters is the GetSessionsQuery accepted by listSessions
type SessionFilters struct {
	Page        int            `form:"page" json:"page" binding:"omitempty,min=1" validate:"omitempty,min=1"`
	Limit       int            `form:"limit" json:"limit" binding:"omitempty,min=1,max=100" validate:"omitempty,min=1,max=100"`
	Status      *SessionStatus `form:"status" json:"status" binding:"omitempty,oneof=pending active completed cancelled expired" validate:"omitempty,oneof=pending active completed cancelled expired"`
	SessionType *SessionType   `form:"session_type" json:"session_type" binding:"omitempty,oneof=chat audio_call video_call" validate:"omitempty,oneof=chat audio_call video_call"`
	IsPaid      *bool          `form:"is_paid" json:"is_paid"`
	From        *time.Time     `form:"from" json:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time     `form:"to" json:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy      string         `form:"sort_by" json:"sort_by" binding:"omitempty,oneof=created_at started_at total_cost" validate:"omitempty,oneof=created_at started_at total_cost"`
	SortOrder   string         `form:"sort_order" json:"sort_order" binding:"omitempty,oneof=asc desc" validate:"omitempty,oneof=asc desc"`
}

func (f *SessionFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.SortBy == "" {
		f.SortBy = SessionSortByCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = SortOrderDesc
	}
}

func (f SessionFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// SessionQuery restricts SessionFilters to the sessions a user participates in
type SessionQuery struct {
	ParticipantID int64
	SessionFilters
}
