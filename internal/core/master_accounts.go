package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultAccounts is the starter chart of accounts installed by SeedDefaults.
var DefaultAccounts = []struct {
	Name string
	Type AccountType
}{
	{"Cash", AccountAsset},
	{"Bank", AccountAsset},
	{"Debtors", AccountAsset},
	{"Inventory", AccountAsset},
	{"Creditors", AccountLiability},
	{"Sales Income", AccountIncome},
	{"Other Income", AccountIncome},
	{"Purchase Expense", AccountExpense},
	{"Freight Expense", AccountExpense},
	{"Capital", AccountEquity},
}

// AccountService manages the chart of accounts.
type AccountService interface {
	Create(ctx context.Context, name string, typ AccountType) (*Account, error)
	Get(ctx context.Context, id int) (*Account, error)
	// List returns active accounts ordered by name; typ "" means all types.
	List(ctx context.Context, typ AccountType) ([]Account, error)
	// SeedDefaults installs DefaultAccounts, skipping ones that already exist.
	// It returns how many were inserted.
	SeedDefaults(ctx context.Context) (int, error)
}

type accountService struct {
	pool *pgxpool.Pool
}

// NewAccountService constructs an AccountService backed by PostgreSQL.
func NewAccountService(pool *pgxpool.Pool) AccountService {
	return &accountService{pool: pool}
}

const accountColumns = `id, account_name, type, is_active, created_at`

func scanAccount(row rowScanner) (*Account, error) {
	a := &Account{}
	err := row.Scan(&a.ID, &a.AccountName, &a.Type, &a.IsActive, &a.CreatedAt)
	return a, err
}

func (s *accountService) Create(ctx context.Context, name string, typ AccountType) (*Account, error) {
	const op = "create account"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput(op, "account_name", "account name is required")
	}
	if !typ.Valid() {
		return nil, invalidInput(op, "type", "unknown account type %q", typ)
	}
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		INSERT INTO chart_of_accounts (account_name, type)
		VALUES ($1, $2)
		RETURNING `+accountColumns, name, typ))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalidInput(op, "account_name", "%s account %q already exists", typ, name)
		}
		return nil, fmt.Errorf("create account %q: %w", name, err)
	}
	return a, nil
}

func (s *accountService) Get(ctx context.Context, id int) (*Account, error) {
	return getAccount(ctx, s.pool, id)
}

func getAccount(ctx context.Context, q querier, id int) (*Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, "SELECT "+accountColumns+" FROM chart_of_accounts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get account", "account", id)
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (s *accountService) List(ctx context.Context, typ AccountType) ([]Account, error) {
	var w whereBuilder
	w.add("is_active = ?", true)
	if typ != "" {
		w.add("type = ?", typ)
	}
	rows, err := s.pool.Query(ctx, "SELECT "+accountColumns+" FROM chart_of_accounts"+w.sql()+" ORDER BY account_name", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *accountService) SeedDefaults(ctx context.Context) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, d := range DefaultAccounts {
		tag, err := tx.Exec(ctx, `
			INSERT INTO chart_of_accounts (account_name, type)
			VALUES ($1, $2)
			ON CONFLICT (account_name, type) DO NOTHING`, d.Name, d.Type)
		if err != nil {
			return 0, fmt.Errorf("seed account %q: %w", d.Name, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
