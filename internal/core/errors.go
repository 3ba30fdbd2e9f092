package core

import "errors"

// Error codes for domain errors reported back to clients.
const (
	ErrCodeRoomNotFound        = "room_not_found"
	ErrCodeNotAMember          = "not_a_member"
	ErrCodeEmptyContent        = "empty_content"
	ErrCodeBadRequest          = "bad_request"
	ErrCodeDuplicateConnection = "duplicate_connection"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotAMember          = errors.New("not a member of the room")
	ErrEmptyContent        = errors.New("message content is empty")
	ErrNameTooLong         = errors.New("room name too long")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrDuplicateConnection = errors.New("connection id already registered")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// errorFor maps a domain error to the CoreError sent to the originating
// connection. Unknown errors map to bad_request rather than leaking details.
func errorFor(err error) *CoreError {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return coreError(ErrCodeRoomNotFound, "room not found")
	case errors.Is(err, ErrNotAMember):
		return coreError(ErrCodeNotAMember, "you are not a member of this room")
	case errors.Is(err, ErrEmptyContent):
		return coreError(ErrCodeEmptyContent, "message content must not be empty")
	case errors.Is(err, ErrNameTooLong):
		return coreError(ErrCodeBadRequest, "room name too long")
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}
