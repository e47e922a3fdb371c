package booking

import (
	"errors"
	"fmt"
)

// Kind classifies a failed booking run for the caller.
type Kind string

const (
	// KindBusinessNegative: the slot or specialist cannot be booked. Never retried.
	KindBusinessNegative Kind = "business_negative"
	// KindNotFound: the specialist does not exist.
	KindNotFound Kind = "not_found"
	// KindTransient: a step kept failing until its retries ran out.
	KindTransient Kind = "transient"
	// KindPartialSuccess: the session row exists but no meeting link could be provisioned.
	KindPartialSuccess Kind = "partial_success"
	// KindConflict: the session id already belongs to a different booking.
	KindConflict Kind = "conflict"
)

var (
	ErrNotAvailable       = errors.New("not available")
	ErrSpecialistNotFound = errors.New("specialist not found")
	ErrRunNotFound        = errors.New("booking run not found")
	ErrSessionConflict    = errors.New("session id already used by another booking")
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked by Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// StepError is returned when a step exhausted its attempts.
type StepError struct {
	Step     string
	Attempts int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Step, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// cause strips the step wrapper so outcomes carry the last underlying reason.
func cause(err error) error {
	var se *StepError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err
	}
	return err
}
