package apperr

import "github.com/pkg/errors"

// Sentinel errors for the conversational core. Handlers classify failures
// with errors.Is and decide whether to re-prompt, surface a notice, or
// fall back to a different mode.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrBackendTimeout = errors.New("backend timeout")
	ErrBackendFailure = errors.New("backend failure")
	ErrPersistence    = errors.New("persistence error")
)

func Validation(msg string) error {
	return errors.Wrap(ErrValidation, msg)
}

func Validationf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func NotFound(msg string) error {
	return errors.Wrap(ErrNotFound, msg)
}

func Forbidden(msg string) error {
	return errors.Wrap(ErrForbidden, msg)
}

func Conflict(msg string) error {
	return errors.Wrap(ErrConflict, msg)
}

func BackendTimeout(msg string) error {
	return errors.Wrap(ErrBackendTimeout, msg)
}

func BackendFailure(err error, msg string) error {
	if err == nil {
		return errors.Wrap(ErrBackendFailure, msg)
	}
	return errors.Wrapf(ErrBackendFailure, "%s: %v", msg, err)
}

// Persistence wraps a database error so callers can treat it as transient.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrPersistence, "%v", err)
}

func IsRecoverable(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrBackendTimeout) ||
		errors.Is(err, ErrBackendFailure)
}
