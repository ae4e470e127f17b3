package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TaxInput holds the fields required to create a tax.
type TaxInput struct {
	Name         string
	Method       TaxMethod
	Value        decimal.Decimal
	ApplicableOn TaxScope
}

// TaxService manages the tax master. It is also the TaxLookup used when
// pricing documents.
type TaxService interface {
	TaxLookup
	Create(ctx context.Context, in TaxInput) (*Tax, error)
	// List returns active taxes, optionally only those for one scope.
	List(ctx context.Context, scope TaxScope) ([]Tax, error)
}

type taxService struct {
	pool *pgxpool.Pool
}

// NewTaxService constructs a TaxService backed by PostgreSQL.
func NewTaxService(pool *pgxpool.Pool) TaxService {
	return &taxService{pool: pool}
}

const taxColumns = `id, name, method, value, applicable_on, is_active, created_at`

func scanTax(row rowScanner) (*Tax, error) {
	t := &Tax{}
	err := row.Scan(&t.ID, &t.Name, &t.Method, &t.Value, &t.ApplicableOn, &t.IsActive, &t.CreatedAt)
	return t, err
}

func (s *taxService) Create(ctx context.Context, in TaxInput) (*Tax, error) {
	const op = "create tax"
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidInput(op, "name", "name is required")
	}
	method, ok := ParseTaxMethod(string(in.Method))
	if !ok {
		return nil, invalidInput(op, "method", "method must be Percentage or Fixed, got %q", in.Method)
	}
	if in.Value.IsNegative() {
		return nil, invalidInput(op, "value", "value must not be negative")
	}
	if in.ApplicableOn != TaxOnSales && in.ApplicableOn != TaxOnPurchase {
		return nil, invalidInput(op, "applicable_on", "applicable_on must be Sales or Purchase, got %q", in.ApplicableOn)
	}

	t, err := scanTax(s.pool.QueryRow(ctx, `
		INSERT INTO taxes (name, method, value, applicable_on)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taxColumns,
		strings.TrimSpace(in.Name), method, in.Value, in.ApplicableOn,
	))
	if err != nil {
		return nil, fmt.Errorf("create tax %q: %w", in.Name, err)
	}
	return t, nil
}

func (s *taxService) GetTax(ctx context.Context, id int) (*Tax, error) {
	t, err := scanTax(s.pool.QueryRow(ctx, "SELECT "+taxColumns+" FROM taxes WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get tax", "tax", id)
		}
		return nil, fmt.Errorf("get tax %d: %w", id, err)
	}
	return t, nil
}

func (s *taxService) List(ctx context.Context, scope TaxScope) ([]Tax, error) {
	var w whereBuilder
	w.add("is_active = ?", true)
	if scope != "" {
		w.add("applicable_on = ?", scope)
	}
	rows, err := s.pool.Query(ctx, "SELECT "+taxColumns+" FROM taxes"+w.sql()+" ORDER BY name", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	defer rows.Close()

	taxes := []Tax{}
	for rows.Next() {
		t, err := scanTax(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tax: %w", err)
		}
		taxes = append(taxes, *t)
	}
	return taxes, rows.Err()
}
