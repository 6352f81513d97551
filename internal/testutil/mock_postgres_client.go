package testutil

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/jmoiron/sqlx"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient is a mock implementation of postgres client for testing.
// Tests run against in-memory stores, so no real queries ever reach it.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Querier returns nil; in-memory stores never issue SQL
func (c *MockPostgresClient) Querier(ctx context.Context) sqlx.ExtContext {
	return nil
}

// DB returns nil; in-memory stores never issue SQL
func (c *MockPostgresClient) DB() *sqlx.DB {
	return nil
}
