package relay

import (
	"fmt"

	"musicquiz/internal/event"
)

// ErrorCode 是回发给客户端的错误原因码。
type ErrorCode string

const (
	CodeValidation    ErrorCode = "validation_error"
	CodeRateLimited   ErrorCode = "rate_limited"
	CodeUnauthorized  ErrorCode = "not_in_room"
	CodeNotRegistered ErrorCode = "not_registered"
)

// Error 是协调器终止事件处理时回发的结构化错误，
// 只发给事件来源连接，绝不广播。
type Error struct {
	Code    ErrorCode `json:"code"`
	Reason  string    `json:"reason,omitempty"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func validationError(f *event.Failure) *Error {
	return &Error{
		Code:    CodeValidation,
		Reason:  string(f.Code),
		Message: fmt.Sprintf("invalid field %q", f.Field),
	}
}

func rateLimitError(kind event.Kind) *Error {
	return &Error{
		Code:    CodeRateLimited,
		Reason:  string(kind),
		Message: "too many events of this kind, slow down",
	}
}

func identityError() *Error {
	return &Error{
		Code:    CodeValidation,
		Reason:  string(event.CodeInvalidFormat),
		Message: "userId does not match the authenticated session",
	}
}

func authorizationError(roomCode string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: fmt.Sprintf("connection is not a member of room %s", roomCode),
	}
}

func notRegisteredError() *Error {
	return &Error{
		Code:    CodeNotRegistered,
		Message: "connection has not joined a room",
	}
}
