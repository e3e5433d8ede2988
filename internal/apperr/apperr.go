package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConfiguration:
		return "configuration"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to the status code the API answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code values are returned verbatim to API clients.
type Code string

const (
	CodeAuthRequired  Code = "AUTH_001"
	CodeInvalidToken  Code = "AUTH_002"
	CodeForbidden     Code = "AUTH_003"
	CodeInvalidRUT    Code = "VAL_001"
	CodeDuplicateRUT  Code = "VAL_002"
	CodeInvalidInput  Code = "VAL_003"
	CodeOutOfRange    Code = "VAL_004"
	CodeDatabase      Code = "DB_001"
	CodeNotFound      Code = "DB_003"
	CodeRateLimited   Code = "RATE_001"
	CodeConfiguration Code = "CFG_001"
)

type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Details any
	Err     error
}

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code and message, so copies made by
// WithDetails or Wrap still compare equal to the sentinel they came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func Validation(code Code, message string) *Error {
	return New(KindValidation, code, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeDatabase, Message: message, Err: err}
}

func Configuration(message string) *Error {
	return New(KindConfiguration, CodeConfiguration, message)
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
