package offer

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "VALIDATION"
	ErrorCodeAuth       ErrorCode = "AUTH_FAILED"
	ErrorCodeUpstream   ErrorCode = "UPSTREAM_FAILED"
	ErrorCodeParse      ErrorCode = "PARSE_FAILED"
)

// AppError is the error shape every core operation fails with.
// UpstreamStatus and Body are set for upstream failures so operators can
// see what the provider actually returned.
type AppError struct {
	Code           ErrorCode
	Message        string
	UpstreamStatus int
	Body           string
	Err            error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: ErrorCodeValidation, Message: msg}
}

func NewAuthError(msg string, err error) *AppError {
	return &AppError{Code: ErrorCodeAuth, Message: msg, Err: err}
}

func NewUpstreamError(msg string, status int, body string) *AppError {
	return &AppError{Code: ErrorCodeUpstream, Message: msg, UpstreamStatus: status, Body: body}
}

func NewParseError(msg string, err error) *AppError {
	return &AppError{Code: ErrorCodeParse, Message: msg, Err: err}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
