package user

import "errors"

// Module errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")

	// OTP errors
	ErrOTPNotFound    = errors.New("verification code not found or expired")
	ErrOTPMismatch    = errors.New("verification code does not match")
	ErrOTPUnavailable = errors.New("verification is temporarily unavailable")

	// Token errors
	ErrInvalidToken = errors.New("invalid or expired token")
)
