package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService records goods movements. Reports read the ledger it writes.
type StockService interface {
	// Record appends one movement. Quantity must be positive; direction is
	// carried by Type.
	Record(ctx context.Context, productID int, typ StockMovement, qty decimal.Decimal, reference string) (*StockLedgerEntry, error)
	// OnHand returns Σ In − Σ Out for the product.
	OnHand(ctx context.Context, productID int) (decimal.Decimal, error)
	// Entries returns the ledger, newest first; productID 0 means all products.
	Entries(ctx context.Context, productID int) ([]StockLedgerEntry, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

// NewStockService constructs a StockService backed by PostgreSQL.
func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

const stockColumns = `id, product_id, type, quantity, reference, created_at`

func scanStockEntry(row rowScanner) (*StockLedgerEntry, error) {
	e := &StockLedgerEntry{}
	err := row.Scan(&e.ID, &e.ProductID, &e.Type, &e.Quantity, &e.Reference, &e.CreatedAt)
	return e, err
}

func (s *stockService) Record(ctx context.Context, productID int, typ StockMovement, qty decimal.Decimal, reference string) (*StockLedgerEntry, error) {
	const op = "record stock movement"
	if typ != StockIn && typ != StockOut {
		return nil, invalidInput(op, "type", "type must be In or Out, got %q", typ)
	}
	if !qty.IsPositive() {
		return nil, invalidInput(op, "quantity", "quantity must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := getProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if p.Type == ProductTypeService {
		return nil, invalidInput(op, "product_id", "product %d is a service and carries no stock", productID)
	}

	e, err := scanStockEntry(tx.QueryRow(ctx, `
		INSERT INTO stock_ledger (product_id, type, quantity, reference)
		VALUES ($1, $2, $3, $4)
		RETURNING `+stockColumns, productID, typ, qty, strings.TrimSpace(reference)))
	if err != nil {
		return nil, fmt.Errorf("insert stock movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

func (s *stockService) OnHand(ctx context.Context, productID int) (decimal.Decimal, error) {
	if _, err := getProduct(ctx, s.pool, productID); err != nil {
		return decimal.Zero, err
	}
	var onHand decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'In' THEN quantity ELSE -quantity END), 0)
		FROM stock_ledger
		WHERE product_id = $1`, productID).Scan(&onHand)
	if err != nil {
		return decimal.Zero, fmt.Errorf("on hand for product %d: %w", productID, err)
	}
	return onHand, nil
}

func (s *stockService) Entries(ctx context.Context, productID int) ([]StockLedgerEntry, error) {
	var w whereBuilder
	if productID != 0 {
		w.add("product_id = ?", productID)
	}
	rows, err := s.pool.Query(ctx, "SELECT "+stockColumns+" FROM stock_ledger"+w.sql()+" ORDER BY created_at DESC, id DESC", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list stock ledger: %w", err)
	}
	defer rows.Close()

	out := []StockLedgerEntry{}
	for rows.Next() {
		e, err := scanStockEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
