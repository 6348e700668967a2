package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey is the context key under which an open transaction is stored.
const DBTxKey contextKey = "db_tx"

// WithTx begins a transaction on the pool and returns a derived context
// carrying it. Repositories pick the transaction up via TxFromContext, so
// every query issued under the returned context joins the same transaction.
// The caller owns the transaction and must Commit or Rollback it.
func WithTx(ctx context.Context, pool *pgxpool.Pool) (context.Context, pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}

// TxFromContext retrieves the transaction stored in ctx, or nil if the
// context does not carry one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// TxRunner executes fn with an open transaction carried on the context, so
// every repository call inside fn joins the same transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PoolRunner returns a TxRunner backed by pool. The transaction commits when
// fn returns nil and rolls back otherwise.
func PoolRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		txCtx, tx, err := WithTx(ctx, pool)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if err := fn(txCtx); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}

// RunInTx invokes fn through runner, or directly when runner is nil. Service
// unit tests pass a nil runner so mock repositories never see transaction
// plumbing.
func RunInTx(ctx context.Context, runner TxRunner, fn func(ctx context.Context) error) error {
	if runner == nil {
		return fn(ctx)
	}
	return runner(ctx, fn)
}

// UniqueViolationCode is the Postgres SQLSTATE for unique constraint
// violations.
const UniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, which the API surfaces as an HTTP 409.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolationCode
}
