package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrTimeConflict = errors.New("booking time conflicts with existing booking")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	ErrResourceNotFound = errors.New("resource not found")

	ErrInvalidInterval = errors.New("booking end time must be after start time")

	ErrStoreUnavailable = errors.New("booking store unavailable")
)
