package postgres

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/config"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction. The transaction is
	// carried in the context so nested repository calls join it.
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// Querier returns the current transaction if in one, or the base pool
	Querier(ctx context.Context) sqlx.ExtContext

	// DB exposes the underlying pool for helpers that need it
	DB() *sqlx.DB
}

// Client wraps sqlx.DB to provide transaction management
type Client struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewDB opens the connection pool from config
func NewDB(cfg *config.Configuration) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to postgres").
			Mark(ierr.ErrDatabase)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	return db, nil
}

// NewClient creates a new postgres client
func NewClient(db *sqlx.DB, logger *logger.Logger) IClient {
	return &Client{db: db, logger: logger}
}

// WithTx runs fn inside a transaction. If the context already carries a
// transaction, fn joins it instead of opening a nested one.
func (c *Client) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to begin transaction").
			Mark(ierr.ErrDatabase)
	}

	ctx = context.WithValue(ctx, types.CtxDBTransaction, tx)

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Errorw("failed to rollback transaction after panic", "error", rbErr)
			}
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Errorw("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to commit transaction").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// Querier returns the transaction from context if present, else the pool
func (c *Client) Querier(ctx context.Context) sqlx.ExtContext {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return c.db
}

// DB returns the underlying pool
func (c *Client) DB() *sqlx.DB {
	return c.db
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
