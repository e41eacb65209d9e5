package rufus

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a job id does not resolve to a scheduled job.
	ErrNotFound = errors.New("no such job")

	// ErrInvalidArgument is returned for bad scheduling options or specs,
	// including periodic jobs whose period is below the scheduler tick.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrKilled is the cancellation cause delivered to workers interrupted
	// by Shutdown(ShutdownKill).
	ErrKilled = errors.New("job killed")
)

// InvalidDurationError reports a duration string that does not match the
// compact duration grammar.
type InvalidDurationError struct {
	Spec string
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration string %q", e.Spec)
}

// InvalidTimeStringError reports a point-in-time spec that could not be parsed.
type InvalidTimeStringError struct {
	Spec string
}

func (e *InvalidTimeStringError) Error() string {
	return fmt.Sprintf("invalid time string %q", e.Spec)
}

// TimeoutError is the cancellation cause delivered to a worker whose
// execution deadline elapsed. The timeout supervisor cancels the worker
// with it; the worker hands it to the scheduler's error handler after the
// callable returns.
type TimeoutError struct {
	JobID string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s timed out after %v", e.JobID, e.After)
}

// CallbackError wraps a failure raised by a job callable, including
// recovered panics. It is delivered to the scheduler's error handler and
// never propagates into the scheduler loop.
type CallbackError struct {
	JobID string
	Err   error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("job %s callable failed: %v", e.JobID, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
