// Package repository is the persistence gateway of the booking core.  It
// exposes row reads and writes for venues, time slots, reservations,
// waiting entries, booking rules, recurring series and blocked intervals,
// plus row-level locking inside transactions.  Higher layers only see the
// Store and Tx interfaces and the sentinel errors below; the MySQL
// implementation lives in this package and an in-memory one in memstore.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  The MySQL
// implementation maps sql.ErrNoRows to it.
var ErrNotFound = errors.New("not found")

// ErrLockTimeout is returned when a row lock could not be acquired within
// the configured wait, or when the database resolved a deadlock by
// aborting the transaction.  Callers may retry the whole transaction.
var ErrLockTimeout = errors.New("lock wait timeout")

// ErrUnavailable is returned when the store cannot be reached.  Like
// ErrLockTimeout it is safe to retry.
var ErrUnavailable = errors.New("store unavailable")

// IsTransient reports whether err may succeed when the transaction is
// retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrUnavailable)
}
