package errorx

import (
	"errors"
	"fmt"
)

// GENERAL ERROR:

// GeneralError - General App Error.
type GeneralError struct {
	message string
	err     error
}

// NewGeneralError - GeneralError constructor.
func NewGeneralError(msg string, args ...any) *GeneralError {
	return &GeneralError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewGeneralErrorWrapper - GeneralError constructor for wrapper of another error.
func NewGeneralErrorWrapper(err error, msg string, args ...any) *GeneralError {
	return &GeneralError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ge *GeneralError) Error() string {
	if ge.err != nil {
		return fmt.Errorf("%s # Error wrap: %w", ge.message, ge.err).Error()
	}

	return ge.message
}

// Unwrap - return the wrapped error, if any.
func (ge *GeneralError) Unwrap() error {
	return ge.err
}

// DATABASE ERROR

// DatabaseError - error raised by the data access layer.
type DatabaseError struct {
	message string
	err     error
}

// NewDatabaseError - DatabaseError constructor.
func NewDatabaseError(msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewDatabaseErrorWrapper - DatabaseError constructor for wrapper of another error.
func NewDatabaseErrorWrapper(err error, msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (de *DatabaseError) Error() string {
	if de.err != nil {
		return fmt.Errorf("%s: %w", de.message, de.err).Error()
	}

	return de.message
}

// Unwrap - return the wrapped error, if any.
func (de *DatabaseError) Unwrap() error {
	return de.err
}

// CONFIGURATION ERROR

// ConfigurationError - the component was used before being configured properly.
type ConfigurationError struct {
	message string
	err     error
}

// NewConfigurationError - ConfigurationError constructor.
func NewConfigurationError(msg string, args ...any) *ConfigurationError {
	return &ConfigurationError{message: fmt.Sprintf(msg, args...)}
}

// NewConfigurationErrorWrapper - ConfigurationError constructor for wrapper of another error.
func NewConfigurationErrorWrapper(err error, msg string, args ...any) *ConfigurationError {
	return &ConfigurationError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ce *ConfigurationError) Error() string {
	if ce.err != nil {
		return fmt.Errorf("configuration error: %s: %w", ce.message, ce.err).Error()
	}

	return "configuration error: " + ce.message
}

// Unwrap - return the wrapped error, if any.
func (ce *ConfigurationError) Unwrap() error {
	return ce.err
}

// Sentinel errors, match them with errors.Is.
var (
	// ErrMissingStatements is returned when a database handle is requested before any statements were bound.
	ErrMissingStatements = NewConfigurationError("missing bound statements")
	// ErrTransactionEnded is returned when a transaction is used after commit or rollback.
	ErrTransactionEnded = NewDatabaseError("transaction already ended")
	// ErrStatementNotFound is returned when a bound statement group or name does not exist.
	ErrStatementNotFound = NewDatabaseError("statement not found")
	// ErrPoolClosed is returned by a pool adapter used after End.
	ErrPoolClosed = NewDatabaseError("connection pool closed")
)

// IsConfigurationError - true if err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
