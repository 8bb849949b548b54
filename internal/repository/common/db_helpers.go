package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetByID fetches one row by primary key, mapping sql.ErrNoRows to the
// caller's not-found error. Shared by the repositories to avoid repeating
// the same three-line scan.
func GetByID[T any](ctx context.Context, db *sqlx.DB, table string, id interface{}, notFoundErr error) (*T, error) {
	var entity T
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", table)

	if err := db.GetContext(ctx, &entity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("get by id from %s: %w", table, err)
	}

	return &entity, nil
}

// WithTransaction runs fn inside a transaction, rolling back on error or
// panic. Every multi-row offer write (negotiation update plus history rows,
// accept plus sibling rejection) goes through here so a failure leaves the
// offer in its prior state.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
