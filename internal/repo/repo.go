// Package repo holds the hand-written pgx persistence layer: line items,
// coupons, packages, and the item-event outbox.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("repo: not found")
	// ErrStaleWrite indicates the optimistic-concurrency token did not match;
	// the caller must reload and retry.
	ErrStaleWrite = errors.New("repo: stale write")
)

// Querier is the subset of pgxpool.Pool the stores need, kept narrow so
// tests can substitute fakes or transactions.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
