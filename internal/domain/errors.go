package domain

import (
	"fmt"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors produced by
// WithError still satisfy errors.Is against the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Pre-defined errors
var (
	ErrPersistence = &AppError{
		Code:    "PERSISTENCE_ERROR",
		Message: "Descriptor store unavailable",
	}

	ErrCapture = &AppError{
		Code:    "CAPTURE_ERROR",
		Message: "Failed to capture frame from camera",
	}

	ErrDimensionMismatch = &AppError{
		Code:    "DIMENSION_MISMATCH",
		Message: "Descriptor dimensions do not match",
	}

	ErrExtractionEmpty = &AppError{
		Code:    "EXTRACTION_EMPTY",
		Message: "No face detected in the image",
	}

	ErrAudio = &AppError{
		Code:    "AUDIO_ERROR",
		Message: "Speech output failed",
	}

	ErrInvalidIdentity = &AppError{
		Code:    "INVALID_IDENTITY",
		Message: "Identity must be a non-empty label",
	}

	ErrInvalidDescriptor = &AppError{
		Code:    "INVALID_DESCRIPTOR",
		Message: "Descriptor is empty or malformed",
	}

	ErrInvalidConfig = &AppError{
		Code:    "INVALID_CONFIG",
		Message: "Invalid configuration",
	}
)
