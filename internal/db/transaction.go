package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction executes a function within a database transaction.
// The transaction is committed if fn returns nil and rolled back if it
// returns an error or panics. Errors keep their identity for errors.Is.
func (db *DB) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
	if err != nil {
		return fmt.Errorf("transaction error: %w", MapGormError(err))
	}
	return nil
}
