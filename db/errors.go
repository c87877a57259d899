package db

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrAppExists is returned when an app id is already taken, whether found by
// the existence check or reported by the primary key at insert time.
var ErrAppExists = errors.New("app id already exists")

// errNotVisible means the insert succeeded but the row could not be read back.
var errNotVisible = errors.New("row not found after insert")

// Phase identifies which storage step failed.
type Phase string

const (
	PhaseCheck  Phase = "check"
	PhaseInsert Phase = "insert"
	PhaseFetch  Phase = "fetch"
	PhaseLookup Phase = "lookup"
)

// StorageError is a failure talking to the database.
type StorageError struct {
	Op    string
	AppID string
	Phase Phase
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s (id=%s, phase=%s): %v", e.Op, e.AppID, e.Phase, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Written reports whether the row may exist even though the operation failed.
// This is true when the insert succeeded and reading it back did not.
func (e *StorageError) Written() bool {
	return e.Phase == PhaseFetch
}

const mysqlErrDupEntry = 1062

// isDuplicateKey reports whether err is a primary key or unique constraint violation.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDupEntry
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
