// Package apperror defines the error kinds shared by every feature package.
// Packages wrap a kind with fmt.Errorf("%w: ...") and the HTTP layer maps the
// kind to a status code once.
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput                = errors.New("invalid input")
	ErrNotFound                    = errors.New("not found")
	ErrUnauthorized                = errors.New("unauthorized")
	ErrForbidden                   = errors.New("forbidden")
	ErrConflict                    = errors.New("conflict")
	ErrCapacityExceeded            = errors.New("capacity exceeded")
	ErrSignatureVerificationFailed = errors.New("signature verification failed")
	ErrUpstreamPayment             = errors.New("upstream payment error")
)

// StatusCode returns the HTTP status for err, 500 when no kind matches.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrSignatureVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamPayment):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err maps to a 4xx status.
func IsClientError(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}
