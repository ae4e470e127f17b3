package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"shiv-erp/internal/core"
	"shiv-erp/internal/db"
	"shiv-erp/migrations"
)

// Fixture ids seeded by setupTestDB.
const (
	customerID    = 1
	vendorID      = 2
	bothID        = 3
	productID     = 1 // purchase 100, sales 150
	serviceProdID = 2
	igstID        = 1 // IGST 18%, purchase
	cgstID        = 2 // CGST 9%, sales
	sgstID        = 3 // SGST 9%, sales
	incomeAcctID  = 1
	expenseAcctID = 2
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Integration tests wipe their tables, so they only run against a dedicated database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	if _, err := db.Migrate(ctx, pool, migrations.FS, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE customer_invoices, vendor_bills, sales_orders, purchase_orders,
		               stock_ledger, counters, chart_of_accounts, taxes, products, contacts
		RESTART IDENTITY CASCADE;

		INSERT INTO contacts (name, type, email) VALUES
		('Asha Interiors', 'Customer', 'asha@example.com'),
		('Timber Traders', 'Vendor',   'sales@timber.example.com'),
		('Oak & Co',       'Both',     'hello@oak.example.com');

		INSERT INTO products (name, type, sales_price, purchase_price, hsn_code, category) VALUES
		('Office Chair', 'Goods',   150.00, 100.00, '9403',   'Furniture'),
		('Assembly',     'Service',  50.00,   0.00, '998313', 'Services');

		INSERT INTO taxes (name, method, value, applicable_on) VALUES
		('IGST 18%', 'Percentage', 18, 'Purchase'),
		('CGST 9%',  'Percentage',  9, 'Sales'),
		('SGST 9%',  'Percentage',  9, 'Sales');

		INSERT INTO chart_of_accounts (account_name, type) VALUES
		('Sales Income',     'Income'),
		('Purchase Expense', 'Expense');
	`)
	if err != nil {
		pool.Close()
		t.Fatalf("seed test database: %v", err)
	}
	return pool
}

// services bundles the PostgreSQL-backed services used by integration tests.
type services struct {
	seq      core.SequenceService
	taxes    core.TaxService
	calc     *core.TaxCalculator
	po       core.OrderService
	so       core.OrderService
	bills    core.BillingService
	invoices core.BillingService
	reports  core.ReportingService
	stock    core.StockService
	contacts core.ContactService
	accounts core.AccountService
}

func newServices(pool *pgxpool.Pool, policy core.EnrichmentPolicy) services {
	log := zerolog.Nop()
	seq := core.NewSequenceService(pool)
	taxes := core.NewTaxService(pool)
	calc := core.NewTaxCalculator(taxes, policy, log)
	rules := core.NewAccountRules(pool)
	return services{
		seq:      seq,
		taxes:    taxes,
		calc:     calc,
		po:       core.NewPurchaseOrderService(pool, seq, calc, log),
		so:       core.NewSalesOrderService(pool, seq, calc, log),
		bills:    core.NewVendorBillService(pool, seq, rules, calc, 30, log),
		invoices: core.NewCustomerInvoiceService(pool, seq, rules, calc, 30, log),
		reports:  core.NewReportingService(pool, log),
		stock:    core.NewStockService(pool),
		contacts: core.NewContactService(pool),
		accounts: core.NewAccountService(pool),
	}
}

func intPtr(i int) *int { return &i }
