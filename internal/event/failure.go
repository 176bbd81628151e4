package event

import "fmt"

// FailureCode 是校验失败的机器可读原因码。
type FailureCode string

const (
	CodeMissingField  FailureCode = "missing_field"
	CodeInvalidType   FailureCode = "invalid_type"
	CodeInvalidFormat FailureCode = "invalid_format"
	CodeTooLong       FailureCode = "too_long"
)

// Failure 描述一次校验拒绝，作为值返回而非 panic。
type Failure struct {
	Code  FailureCode
	Field string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Field)
}

func missing(field string) *Failure {
	return &Failure{Code: CodeMissingField, Field: field}
}

func badType(field string) *Failure {
	return &Failure{Code: CodeInvalidType, Field: field}
}

func badFormat(field string) *Failure {
	return &Failure{Code: CodeInvalidFormat, Field: field}
}

func tooLong(field string) *Failure {
	return &Failure{Code: CodeTooLong, Field: field}
}
