package domain

import (
	"errors"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

// Job errors.
var (
	// ErrJobNotFound indicates the job does not exist.
	ErrJobNotFound = apperrors.Wrap(apperrors.ErrNotFound, "job not found")

	// ErrDuplicateJob indicates a pending or running job already holds the unique key.
	ErrDuplicateJob = apperrors.Wrap(apperrors.ErrConflict, "job already queued")

	// ErrNoHandler indicates no handler is registered for the job type.
	ErrNoHandler = errors.New("no handler registered for job type")
)

// PermanentError marks a failure that retrying cannot fix. The queue fails the job
// immediately instead of scheduling another attempt.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the queue does not retry it. Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or any error it wraps, is permanent.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
