package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("resource not found")
	ErrMissingIdentifier  = errors.New("backend record has no identifier")
	ErrSessionExpired     = errors.New("session token expired")
)

// GatewayError is returned by every backend operation that did not yield a
// 2xx response. Status is zero when no server was reached.
type GatewayError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: backend responded %d: %s", e.Op, e.Status, e.Detail)
	default:
		return fmt.Sprintf("%s: backend responded %d", e.Op, e.Status)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Message is the text suitable for showing to the user.
func (e *GatewayError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Status == 0 {
		return "the service is unreachable, try again later"
	}
	return http.StatusText(e.Status)
}

// IsTransport reports whether err is a gateway failure where no server answered.
func IsTransport(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Status == 0
}

// IsAuthFailure reports whether the backend rejected the credentials or token.
func IsAuthFailure(err error) bool {
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthenticated) {
		return true
	}
	var ge *GatewayError
	return errors.As(err, &ge) &&
		(ge.Status == http.StatusUnauthorized || ge.Status == http.StatusForbidden)
}

// IsValidation reports whether the backend rejected the input as malformed.
func IsValidation(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) &&
		(ge.Status == http.StatusBadRequest || ge.Status == http.StatusUnprocessableEntity)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}
