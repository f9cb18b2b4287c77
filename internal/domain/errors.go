package domain

import "errors"

// Error is a failure with a stable machine-readable code
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrInvalidParticipant     = newError("INVALID_PARTICIPANT", "participant does not resolve to an active user")
	ErrDuplicateActiveSession = newError("DUPLICATE_ACTIVE_SESSION", "an open session of this type already exists for these participants")
	ErrInvalidTransition      = newError("INVALID_TRANSITION", "session status transition is not allowed")
	ErrForbidden              = newError("FORBIDDEN", "access denied")
	ErrSessionNotActive       = newError("SESSION_NOT_ACTIVE", "session is not active")
	ErrSenderNotParticipant   = newError("SENDER_NOT_PARTICIPANT", "sender is not a participant of the session")
	ErrAlreadyPaid            = newError("ALREADY_PAID", "session is already paid")
	ErrInvalidState           = newError("INVALID_STATE", "operation is not allowed in the current state")
	ErrAlreadyDeleted         = newError("ALREADY_DELETED", "message is deleted")
	ErrNotFound               = newError("NOT_FOUND", "not found")
	ErrStorageUnavailable     = newError("STORAGE_UNAVAILABLE", "storage is unavailable")
	ErrValidation             = newError("VALIDATION_FAILED", "invalid request")
	ErrConcurrentUpdate       = newError("CONCURRENT_UPDATE", "record was modified concurrently, refetch and retry")
)

// ErrorCode returns the stable code carried by err, or INTERNAL for unknown errors
func ErrorCode(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
