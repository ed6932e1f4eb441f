// Package apperrors is the error taxonomy shared by the payment and shipment
// cores. Handlers translate a Kind into an HTTP status; services never do.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindAuthorization     Kind = "authorization_error"
	KindNotFound          Kind = "not_found"
	KindGateway           Kind = "gateway_error"
	KindGatewayTimeout    Kind = "gateway_timeout"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindPartialFailure    Kind = "partial_failure"
	KindIllegalTransition Kind = "illegal_transition"
	KindInternal          Kind = "internal_error"
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	// Unauthenticated distinguishes a missing identity (401) from a
	// resolved identity lacking rights (403) within KindAuthorization.
	Unauthenticated bool
	Err             error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, apperrors.ErrInsufficientFunds) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithDetail returns e with k=v recorded in Details.
func (e *Error) WithDetail(k string, v any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[k] = v
	return e
}

var (
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrIllegalTransition = &Error{Kind: KindIllegalTransition}
	ErrGatewayTimeout    = &Error{Kind: KindGatewayTimeout}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg, Unauthenticated: true}
}

func Forbidden(msg string) *Error { return New(KindAuthorization, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// KindOf reports the Kind of the first *Error in err's chain, or
// KindInternal for anything else.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As is a convenience over errors.As for *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Kind {
	case KindValidation, KindIllegalTransition:
		return http.StatusBadRequest
	case KindAuthorization:
		if appErr.Unauthenticated {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	case KindGateway:
		return http.StatusBadGateway
	case KindGatewayTimeout:
		return http.StatusGatewayTimeout
	case KindPartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}
