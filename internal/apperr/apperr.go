package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error so callers can react without parsing messages.
type Kind string

const (
	KindNotFound              Kind = "NotFound"
	KindNotApplicable         Kind = "NotApplicable"
	KindValidation            Kind = "ValidationError"
	KindExpiredOrInvalidToken Kind = "ExpiredOrInvalidToken"
	KindTransport             Kind = "TransportError"
	KindConflict              Kind = "Conflict"
	KindUnauthorized          Kind = "Unauthorized"
)

// Error is a domain error with a stable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error      { return New(KindNotFound, message) }
func NotApplicable(message string) *Error { return New(KindNotApplicable, message) }
func Validation(message string) *Error    { return New(KindValidation, message) }
func InvalidToken(message string) *Error  { return New(KindExpiredOrInvalidToken, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Unauthorized(message string) *Error  { return New(KindUnauthorized, message) }

func Transport(message string, err error) *Error {
	return Wrap(KindTransport, message, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus maps an error kind to the status code exposed to API clients.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindNotApplicable, KindValidation, KindExpiredOrInvalidToken:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTransport:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
