package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"shiv-erp/internal/core"
)

func TestSequenceService_ContinuesFromStoredValue(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	if _, err := pool.Exec(ctx, "INSERT INTO counters (key, seq) VALUES ('po', 7)"); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	seq := core.NewSequenceService(pool)
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	number, err := seq.NextNumber(ctx, tx, core.PurchaseOrderSeries, time.Now())
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if number != "PO00008" {
		t.Errorf("expected PO00008, got %s", number)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := seq.Peek(ctx, "po")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if got != 8 {
		t.Errorf("expected counter at 8, got %d", got)
	}
}

func TestSequenceService_RollbackReleasesValue(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	seq := core.NewSequenceService(pool)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := seq.Next(ctx, tx, "so"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	_ = tx.Rollback(ctx)

	got, err := seq.Peek(ctx, "so")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if got != 0 {
		t.Errorf("rolled back allocation should leave counter at 0, got %d", got)
	}
}

func TestSequenceService_ConcurrentAllocation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	seq := core.NewSequenceService(pool)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan int64, n)
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := pool.Begin(ctx)
			if err != nil {
				errCh <- err
				return
			}
			defer tx.Rollback(ctx)
			v, err := seq.Next(ctx, tx, "vb-2025")
			if err != nil {
				errCh <- err
				return
			}
			if err := tx.Commit(ctx); err != nil {
				errCh <- err
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent allocation error: %v", err)
	}

	seen := map[int64]bool{}
	for v := range results {
		if seen[v] {
			t.Errorf("value %d allocated twice", v)
		}
		seen[v] = true
	}
	for i := int64(1); i <= n; i++ {
		if !seen[i] {
			t.Errorf("value %d never allocated (gap)", i)
		}
	}
}
