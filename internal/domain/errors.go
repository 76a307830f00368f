package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidChannel is returned when a notification names a channel
	// outside the supported set (email, sms, push).
	ErrInvalidChannel = errors.New("invalid notification channel")

	// ErrInvalidPriority is returned when a notification priority is not
	// one of high, normal or low.
	ErrInvalidPriority = errors.New("invalid notification priority")

	// ErrInvalidStatus is returned when a notification status is not valid.
	ErrInvalidStatus = errors.New("invalid notification status")

	// ErrTerminalStatus is returned when a notification that already reached
	// sent or failed is asked to transition again.
	ErrTerminalStatus = errors.New("notification already in terminal status")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")
)
