package errors

import "fmt"

type ErrorCode string

const (
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"

	// ErrSlotUnavailable is returned when a requested booking slot is no
	// longer free or was lost to a concurrent booking. Callers should
	// re-query free slots and retry with a different slot.
	ErrSlotUnavailable ErrorCode = "SLOT_UNAVAILABLE"

	// ErrDataQuality marks malformed upstream data (e.g. an event whose
	// end is not after its start). Non-fatal to batch operations.
	ErrDataQuality ErrorCode = "DATA_QUALITY"

	// ErrProviderFailure marks a timeout or rejection from an external
	// calendar provider call.
	ErrProviderFailure ErrorCode = "PROVIDER_FAILURE"

	// ErrConfigurationGap marks a missing-but-tolerated configuration,
	// e.g. no availability rule for a requested weekday.
	ErrConfigurationGap ErrorCode = "CONFIGURATION_GAP"
)

// AppError carries an application error code alongside a human message
// and the wrapped cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
