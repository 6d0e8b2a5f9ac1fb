package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalid         = errors.New("invalid")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")
	ErrTooMany         = errors.New("too many requests")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrPaymentRequired = errors.New("payment required")
	ErrDownstream      = errors.New("downstream unavailable")
	ErrInternal        = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}
