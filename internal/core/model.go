package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ContactType string

const (
	ContactCustomer ContactType = "Customer"
	ContactVendor   ContactType = "Vendor"
	ContactBoth     ContactType = "Both"
)

// Valid reports whether t is a known contact type.
func (t ContactType) Valid() bool {
	switch t {
	case ContactCustomer, ContactVendor, ContactBoth:
		return true
	}
	return false
}

// Contact is a customer or vendor (or both).
type Contact struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Type       ContactType `json:"type"`
	Email      string      `json:"email"`
	Mobile     *string     `json:"mobile,omitempty"`
	GSTNo      *string     `json:"gst_no,omitempty"`
	City       *string     `json:"address_city,omitempty"`
	State      *string     `json:"address_state,omitempty"`
	Pincode    *string     `json:"address_pincode,omitempty"`
	IsActive   bool        `json:"is_active"`
	ArchivedAt *time.Time  `json:"archived_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// CanBuy reports whether the contact may be used as a sales counterparty.
func (c *Contact) CanBuy() bool { return c.Type == ContactCustomer || c.Type == ContactBoth }

// CanSell reports whether the contact may be used as a purchase counterparty.
func (c *Contact) CanSell() bool { return c.Type == ContactVendor || c.Type == ContactBoth }

type ProductType string

const (
	ProductTypeGoods   ProductType = "Goods"
	ProductTypeService ProductType = "Service"
)

// Product is a catalog item. SalesPrice is the default unit price on sales
// documents, PurchasePrice on purchase documents and for stock valuation.
type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Type          ProductType     `json:"type"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	HSNCode       string          `json:"hsn_code"`
	Category      string          `json:"category"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

type TaxMethod string

const (
	TaxPercentage TaxMethod = "Percentage"
	TaxFixed      TaxMethod = "Fixed"
)

// ParseTaxMethod accepts the method case-insensitively.
func ParseTaxMethod(s string) (TaxMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage":
		return TaxPercentage, true
	case "fixed":
		return TaxFixed, true
	}
	return "", false
}

type TaxScope string

const (
	TaxOnSales    TaxScope = "Sales"
	TaxOnPurchase TaxScope = "Purchase"
)

// Tax is a flat percentage or fixed-amount tax.
type Tax struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Method       TaxMethod       `json:"method"`
	Value        decimal.Decimal `json:"value"`
	ApplicableOn TaxScope        `json:"applicable_on"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TaxCategory is the reporting bucket a tax falls into.
type TaxCategory string

const (
	CategoryCGST  TaxCategory = "cgst"
	CategorySGST  TaxCategory = "sgst"
	CategoryIGST  TaxCategory = "igst"
	CategoryCess  TaxCategory = "cess"
	CategoryOther TaxCategory = "other"
)

// Category buckets the tax by a case-insensitive substring match on its name.
func (t Tax) Category() TaxCategory {
	return Categorize(t.Name)
}

// Categorize maps a tax name to its bucket. First match wins in the order
// cgst, sgst, igst, cess.
func Categorize(name string) TaxCategory {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "cgst"):
		return CategoryCGST
	case strings.Contains(n, "sgst"):
		return CategorySGST
	case strings.Contains(n, "igst"):
		return CategoryIGST
	case strings.Contains(n, "cess"):
		return CategoryCess
	}
	return CategoryOther
}

type AccountType string

const (
	AccountAsset     AccountType = "Asset"
	AccountLiability AccountType = "Liability"
	AccountIncome    AccountType = "Income"
	AccountExpense   AccountType = "Expense"
	AccountEquity    AccountType = "Equity"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountIncome, AccountExpense, AccountEquity:
		return true
	}
	return false
}

// Account is a chart-of-accounts entry.
type Account struct {
	ID          int         `json:"id"`
	AccountName string      `json:"account_name"`
	Type        AccountType `json:"type"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

type StockMovement string

const (
	StockIn  StockMovement = "In"
	StockOut StockMovement = "Out"
)

// StockLedgerEntry is one goods movement for a product.
type StockLedgerEntry struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product_id"`
	Type      StockMovement   `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

// Page is the common shape of paged list results.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ListFilter narrows list queries. Zero values mean "no filter".
// Page is 1-based; Limit is clamped to [1, 100] and defaults to 10.
type ListFilter struct {
	Status         string
	CounterpartyID int
	Query          string
	Page           int
	Limit          int
}

// Normalize applies paging defaults and bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	f.Query = strings.TrimSpace(f.Query)
	return f
}

// Offset returns the row offset of the page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
