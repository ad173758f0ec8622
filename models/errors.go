// models/errors.go
package models

import "errors"

// Failures surfaced by the OTP subsystem and the auth provider adapter.
// Controllers map these to HTTP statuses; nothing below is retried here.
var (
	ErrOTPNotFound     = errors.New("no active OTP for this recipient")
	ErrInvalidCode     = errors.New("OTP code does not match")
	ErrTooManyAttempts = errors.New("too many failed OTP attempts")
	ErrDeliveryFailed  = errors.New("failed to deliver OTP")
	ErrNotRegistered   = errors.New("email is not registered")
	ErrUpstream        = errors.New("auth provider request failed")
)

// IsVerifyFailure reports whether err is one of the expected verification
// outcomes, as opposed to an infrastructure error from the store.
func IsVerifyFailure(err error) bool {
	return errors.Is(err, ErrOTPNotFound) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrTooManyAttempts)
}

// VerifyReason maps a verification failure to its stable wire label.
func VerifyReason(err error) string {
	switch {
	case errors.Is(err, ErrOTPNotFound):
		return "NotFound"
	case errors.Is(err, ErrTooManyAttempts):
		return "TooManyAttempts"
	default:
		return "InvalidCode"
	}
}
