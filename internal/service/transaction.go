package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// txProvider opens database transactions for multi-step workflows. *sqlx.DB
// satisfies it directly.
type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}
