package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/config"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/scheduler"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same query methods work inside and outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	q      querier
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		q:      dbpool,
	}
}

// InTransaction runs fn with a Repository bound to a single transaction.
// Nested calls reuse the already open transaction.
func (r *Repository) InTransaction(ctx context.Context, fn func(tx scheduler.Store) error) error {
	if _, ok := r.q.(*sql.Tx); ok {
		return fn(r)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	txRepo := &Repository{
		cfg:    r.cfg,
		dbpool: r.dbpool,
		q:      tx,
	}

	if err := fn(txRepo); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}
