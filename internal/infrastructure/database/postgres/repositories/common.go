// Package repositories implements the domain repository interfaces on
// PostgreSQL.  Aggregate-internal collections (follow-ups, change logs,
// contacts) are stored as JSONB alongside the row.
package repositories

import (
	"context"
	"database/sql"

	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
)

type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type baseRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

func (r *baseRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}
