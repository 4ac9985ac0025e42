// Package repositories implements the domain repository interfaces on
// PostgreSQL.
package repositories

import (
	"context"
	"database/sql"

	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func withTx(ctx context.Context, conn *postgres.Connection, fn func(tx *sql.Tx) error) error {
	tx, err := conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to commit transaction")
	}
	return nil
}
