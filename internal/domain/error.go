package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotReady            = errors.New("job not completed yet")
	ErrGone                = errors.New("artifact removed by retention policy")
	ErrJobTerminal         = errors.New("job already reached a terminal state")
	ErrProviderUnavailable = errors.New("synthesis provider unavailable")
	ErrCapabilityMismatch  = errors.New("requested capability not supported by provider")
	ErrQueueFull           = errors.New("job queue is full")
	ErrCanceled            = errors.New("job canceled")
)

// ErrorKind is the machine-readable classification carried on a failed job
// and in API error payloads.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindStageFailure        ErrorKind = "stage-failure"
	KindProviderUnavailable ErrorKind = "provider-unavailable"
	KindCapabilityMismatch  ErrorKind = "capability-mismatch"
	KindNotFound            ErrorKind = "not-found"
	KindNotReady            ErrorKind = "not-ready"
	KindGone                ErrorKind = "gone"
	KindCanceled            ErrorKind = "canceled"
)

// KindOf maps a domain error to its wire kind. Unrecognized errors are
// treated as stage failures, the catch-all for collaborator faults.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrQueueFull):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotReady):
		return KindNotReady
	case errors.Is(err, ErrGone):
		return KindGone
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, ErrCapabilityMismatch):
		return KindCapabilityMismatch
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	default:
		return KindStageFailure
	}
}
