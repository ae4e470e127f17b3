package app

import (
	"github.com/shopspring/decimal"

	"shiv-erp/internal/core"
)

// SeedResult is returned by SeedDefaultAccounts. DefaultIncome and
// DefaultExpense are the accounts invoice and bill lines fall back to.
type SeedResult struct {
	Inserted       int           `json:"inserted"`
	Total          int           `json:"total"`
	DefaultIncome  *core.Account `json:"default_income"`
	DefaultExpense *core.Account `json:"default_expense"`
}

// StockLevelResult is returned by GetStockLevel.
type StockLevelResult struct {
	ProductID int                     `json:"product_id"`
	OnHand    decimal.Decimal         `json:"on_hand"`
	Entries   []core.StockLedgerEntry `json:"entries"`
}

// TaxCalculationResult is returned by CalculateTax.
type TaxCalculationResult struct {
	*core.OrderTaxCalculation
	Validation core.TaxValidation `json:"validation"`
}

// HSNResult is returned by LookupHSN: the known or default rate, the
// prefix-based suggestion and the code validation.
type HSNResult struct {
	Rate       core.GSTRate       `json:"rate"`
	Suggested  core.GSTRate       `json:"suggested"`
	Validation core.HSNValidation `json:"validation"`
}

// CounterResult is returned by PeekCounter.
type CounterResult struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}
