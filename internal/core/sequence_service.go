package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Series describes one document number series: the counter key it draws
// from and how an allocated value is rendered.
type Series struct {
	// Prefix is the counter key, or the key prefix when Yearly is set.
	Prefix string
	// Label is the printed prefix of the document number.
	Label  string
	Width  int
	Yearly bool
}

var (
	PurchaseOrderSeries   = Series{Prefix: "po", Label: "PO", Width: 5}
	SalesOrderSeries      = Series{Prefix: "so", Label: "SO", Width: 5}
	VendorBillSeries      = Series{Prefix: "vb", Label: "Bill", Width: 4, Yearly: true}
	CustomerInvoiceSeries = Series{Prefix: "ci", Label: "INV", Width: 4, Yearly: true}
)

// Key returns the counter key for a document dated at.
// Yearly series restart every calendar year (UTC).
func (s Series) Key(at time.Time) string {
	if !s.Yearly {
		return s.Prefix
	}
	return fmt.Sprintf("%s-%d", s.Prefix, at.UTC().Year())
}

// Format renders seq as a document number, e.g. PO00008 or Bill/2025/0001.
func (s Series) Format(seq int64, at time.Time) string {
	if s.Yearly {
		return fmt.Sprintf("%s/%d/%0*d", s.Label, at.UTC().Year(), s.Width, seq)
	}
	return fmt.Sprintf("%s%0*d", s.Label, s.Width, seq)
}

// SequenceService hands out gapless, strictly increasing values per key.
type SequenceService interface {
	// Next allocates the next value for key inside the caller's transaction.
	// The first allocation for a new key returns 1. If tx is rolled back the
	// value is released with it.
	Next(ctx context.Context, tx pgx.Tx, key string) (int64, error)

	// NextNumber allocates from the series and formats the result.
	NextNumber(ctx context.Context, tx pgx.Tx, series Series, at time.Time) (string, error)

	// Peek returns the last allocated value for key (0 if none) without allocating.
	Peek(ctx context.Context, key string) (int64, error)
}

type sequenceService struct {
	pool *pgxpool.Pool
}

func NewSequenceService(pool *pgxpool.Pool) SequenceService {
	return &sequenceService{pool: pool}
}

func (s *sequenceService) Next(ctx context.Context, tx pgx.Tx, key string) (int64, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, invalidInput("allocate sequence", "key", "counter key is required")
	}

	// Single statement: row-level lock on conflict serializes concurrent callers.
	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO counters (key, seq)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq
	`, key).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("allocate sequence %q: %w", key, err)
	}
	return seq, nil
}

func (s *sequenceService) NextNumber(ctx context.Context, tx pgx.Tx, series Series, at time.Time) (string, error) {
	seq, err := s.Next(ctx, tx, series.Key(at))
	if err != nil {
		return "", err
	}
	return series.Format(seq, at), nil
}

func (s *sequenceService) Peek(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx, "SELECT seq FROM counters WHERE key = $1", key).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter %q: %w", key, err)
	}
	return seq, nil
}
