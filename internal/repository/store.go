package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers that indicate lock contention rather than a
// logical failure.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same query
// code serves plain reads and transactional work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Queries and the write half of Tx on top of a querier.
// The per-table methods live in the *_repository.go files.
type queries struct {
	q querier
}

// SQLStore is the MySQL backed Store.
type SQLStore struct {
	queries
	db       *sql.DB
	lockWait time.Duration
}

// NewSQLStore returns a Store bound to db.  lockWait bounds how long a
// transaction waits for a row lock before failing with ErrLockTimeout;
// MySQL only honours whole seconds, so it is rounded up.
func NewSQLStore(db *sql.DB, lockWait time.Duration) *SQLStore {
	return &SQLStore{queries: queries{q: db}, db: db, lockWait: lockWait}
}

// DB exposes the underlying handle for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

type sqlTx struct {
	queries
}

// WithTx begins a transaction, applies the lock wait bound and runs fn.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if s.lockWait > 0 {
		secs := int((s.lockWait + time.Second - 1) / time.Second)
		if _, err := tx.ExecContext(ctx, "SET SESSION innodb_lock_wait_timeout = ?", secs); err != nil {
			return classify(err)
		}
	}
	if err := fn(&sqlTx{queries: queries{q: tx}}); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

// classify maps driver errors onto the package sentinels while keeping
// the original error reachable through errors.Is/As.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// notFound converts sql.ErrNoRows from a single-row scan.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return classify(err)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
