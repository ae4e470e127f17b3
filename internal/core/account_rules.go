package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRules resolves the account a billing line is booked to when the
// line does not name one.
type AccountRules interface {
	// DefaultAccount returns the first active account of typ by id.
	DefaultAccount(ctx context.Context, typ AccountType) (*Account, error)
	// DefaultAccountTx is DefaultAccount inside the caller's transaction.
	DefaultAccountTx(ctx context.Context, tx pgx.Tx, typ AccountType) (*Account, error)
}

type accountRules struct {
	pool *pgxpool.Pool
}

// NewAccountRules constructs AccountRules backed by the chart_of_accounts table.
func NewAccountRules(pool *pgxpool.Pool) AccountRules {
	return &accountRules{pool: pool}
}

func (r *accountRules) DefaultAccount(ctx context.Context, typ AccountType) (*Account, error) {
	return defaultAccount(ctx, r.pool, typ)
}

func (r *accountRules) DefaultAccountTx(ctx context.Context, tx pgx.Tx, typ AccountType) (*Account, error) {
	return defaultAccount(ctx, tx, typ)
}

func defaultAccount(ctx context.Context, q querier, typ AccountType) (*Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM chart_of_accounts
		WHERE type = $1 AND is_active = true
		ORDER BY id
		LIMIT 1
	`, typ))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &DomainError{
				Kind: ErrNotFound,
				Op:   "resolve default account",
				Msg:  fmt.Sprintf("no active %s account; seed the chart of accounts", typ),
			}
		}
		return nil, fmt.Errorf("resolve default %s account: %w", typ, err)
	}
	return a, nil
}
