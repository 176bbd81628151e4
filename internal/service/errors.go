package service

import "errors"

// 业务层通用错误，handler 可根据错误类型映射到合适的 HTTP 状态码。
var (
	ErrGameNotFound    = errors.New("game not found")
	ErrInvalidPasscode = errors.New("invalid passcode")
	ErrCodeExhausted   = errors.New("could not allocate a unique game code")
)
