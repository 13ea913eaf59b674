package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Kind classifies the errors returned by domain operations.
type Kind string

const (
	KindUnknown          Kind = ""
	KindInvalidInput     Kind = "invalid_input"
	KindNotAuthorized    Kind = "not_authorized"
	KindNotJuror         Kind = "not_juror"
	KindEditWindowClosed Kind = "edit_window_closed"
	KindInvalidValue     Kind = "invalid_value"
	KindNotFound         Kind = "not_found"
)

var (
	ErrInvalidInput     = NewError(KindInvalidInput, "invalid input")
	ErrNotAuthorized    = NewError(KindNotAuthorized, "you are not allowed to perform this action")
	ErrNotJuror         = NewError(KindNotJuror, "only jury members can grade this deliverable")
	ErrEditWindowClosed = NewError(KindEditWindowClosed, "the grading window for this deliverable is closed")
	ErrInvalidValue     = NewError(KindInvalidValue, "grade must be a number between 1 and 10 with at most 2 decimals")
	ErrNotFound         = NewError(KindNotFound, "not found")
)

// Error is a domain error carrying its Kind.
// Two errors match with errors.Is when their kinds are equal.
type Error struct {
	Kind Kind
	Msg  string
}

func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf reports the Kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindInvalidInput
	}
	if _, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		return KindInvalidInput
	}
	return KindUnknown
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindInvalidInput
}
