package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Custom database errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrForeignKey   = errors.New("foreign key constraint violation")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable marks transient storage failures: a busy or locked
	// database, a dropped connection, or an expired deadline. Callers may retry.
	ErrUnavailable = errors.New("database temporarily unavailable")
)

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate checks if error is a duplicate error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsForeignKey checks if error is a foreign key constraint violation
func IsForeignKey(err error) bool {
	return errors.Is(err, ErrForeignKey)
}

// IsUnavailable checks if error is a transient storage failure
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

var (
	duplicateMarkers   = []string{"UNIQUE constraint", "unique constraint", "duplicate key"}
	foreignKeyMarkers  = []string{"FOREIGN KEY constraint", "foreign key constraint"}
	unavailableMarkers = []string{
		"database is locked",
		"database table is locked",
		"SQLITE_BUSY",
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"too many clients",
		"the database system is starting up",
		"the database system is shutting down",
	}
)

// MapGormError maps GORM and driver errors to the package's error values.
// Unrecognised errors are returned unchanged.
func MapGormError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, driver.ErrBadConn):
		return errors.Join(ErrUnavailable, err)
	}

	msg := err.Error()
	switch {
	case containsAny(msg, duplicateMarkers):
		return ErrDuplicate
	case containsAny(msg, foreignKeyMarkers):
		return ErrForeignKey
	case containsAny(msg, unavailableMarkers):
		return errors.Join(ErrUnavailable, err)
	}

	return err
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
