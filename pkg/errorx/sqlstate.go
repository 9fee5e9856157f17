package errorx

import "errors"

// SQLSTATE codes the data access layer reacts to.
const (
	// SQLStateTooManyConnections - the server refused a new connection (too_many_connections).
	SQLStateTooManyConnections = "53300"
	// SQLStateDeadlockDetected - the statement was chosen as deadlock victim (deadlock_detected).
	SQLStateDeadlockDetected = "40P01"
	// SQLStateUniqueViolation - a unique constraint was violated (unique_violation).
	SQLStateUniqueViolation = "23505"
)

// sqlStater is implemented by driver errors carrying a SQLSTATE, like *pgconn.PgError.
type sqlStater interface {
	SQLState() string
}

// SQLState returns the SQLSTATE code carried by err or by any error it wraps.
// An empty string is returned when no code is found.
func SQLState(err error) string {
	var se sqlStater
	if errors.As(err, &se) {
		return se.SQLState()
	}

	return ""
}

// HasSQLState reports whether err carries exactly the given SQLSTATE code.
func HasSQLState(err error, code string) bool {
	return err != nil && SQLState(err) == code
}

// IsTooManyConnections - true for SQLSTATE 53300.
func IsTooManyConnections(err error) bool {
	return HasSQLState(err, SQLStateTooManyConnections)
}

// IsDeadlock - true for SQLSTATE 40P01.
func IsDeadlock(err error) bool {
	return HasSQLState(err, SQLStateDeadlockDetected)
}

// IsUniqueViolation - true for SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	return HasSQLState(err, SQLStateUniqueViolation)
}
