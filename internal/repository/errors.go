// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish a missing row from a uniqueness violation without looking
// at driver specific error codes.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete targets a row
// that does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// key (table name, payment transaction id).
var ErrDuplicate = errors.New("duplicate entry")

// mysqlDuplicateEntry is the server error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// translate maps driver errors onto the sentinels above.  Errors that
// carry no special meaning are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}
