package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.RequireFromString("0.01")
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// TaxAmount is the tax due on base for a single tax.
func TaxAmount(base decimal.Decimal, t Tax) decimal.Decimal {
	if t.Method == TaxFixed {
		return t.Value
	}
	return base.Mul(t.Value).Div(hundred)
}

// TaxBreakdown buckets tax amounts by category.
type TaxBreakdown struct {
	CGST  decimal.Decimal `json:"cgst"`
	SGST  decimal.Decimal `json:"sgst"`
	IGST  decimal.Decimal `json:"igst"`
	Cess  decimal.Decimal `json:"cess"`
	Other decimal.Decimal `json:"other"`
}

func (b *TaxBreakdown) add(cat TaxCategory, amt decimal.Decimal) {
	switch cat {
	case CategoryCGST:
		b.CGST = b.CGST.Add(amt)
	case CategorySGST:
		b.SGST = b.SGST.Add(amt)
	case CategoryIGST:
		b.IGST = b.IGST.Add(amt)
	case CategoryCess:
		b.Cess = b.Cess.Add(amt)
	default:
		b.Other = b.Other.Add(amt)
	}
}

func (b *TaxBreakdown) merge(o TaxBreakdown) {
	b.CGST = b.CGST.Add(o.CGST)
	b.SGST = b.SGST.Add(o.SGST)
	b.IGST = b.IGST.Add(o.IGST)
	b.Cess = b.Cess.Add(o.Cess)
	b.Other = b.Other.Add(o.Other)
}

// Sum is the total over all buckets.
func (b TaxBreakdown) Sum() decimal.Decimal {
	return b.CGST.Add(b.SGST).Add(b.IGST).Add(b.Cess).Add(b.Other)
}

func (b TaxBreakdown) rounded() TaxBreakdown {
	return TaxBreakdown{
		CGST:  Round2(b.CGST),
		SGST:  Round2(b.SGST),
		IGST:  Round2(b.IGST),
		Cess:  Round2(b.Cess),
		Other: Round2(b.Other),
	}
}

// TaxDetail is the contribution of one tax to one line.
type TaxDetail struct {
	TaxID    int             `json:"tax_id"`
	Name     string          `json:"name"`
	Method   TaxMethod       `json:"method"`
	Value    decimal.Decimal `json:"value"`
	Amount   decimal.Decimal `json:"amount"`
	Category TaxCategory     `json:"category"`
}

// LineTaxResult is the tax computation for one line.
type LineTaxResult struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	Breakdown  TaxBreakdown    `json:"breakdown"`
	TaxDetails []TaxDetail     `json:"tax_details"`

	// TaxRate is the summed percentage of the Percentage taxes applied.
	TaxRate decimal.Decimal `json:"tax_rate"`
}

// ComputeLineTax computes subtotal and taxes for line with the already
// resolved taxes. Amounts are not rounded; callers round after summation.
func ComputeLineTax(line OrderLine, taxes []Tax) LineTaxResult {
	r := LineTaxResult{
		Subtotal:   line.Quantity.Mul(line.Price()),
		TaxDetails: make([]TaxDetail, 0, len(taxes)),
	}
	for _, t := range taxes {
		amt := TaxAmount(r.Subtotal, t)
		cat := t.Category()
		r.TaxAmount = r.TaxAmount.Add(amt)
		r.Breakdown.add(cat, amt)
		if t.Method == TaxPercentage {
			r.TaxRate = r.TaxRate.Add(t.Value)
		}
		r.TaxDetails = append(r.TaxDetails, TaxDetail{
			TaxID:    t.ID,
			Name:     t.Name,
			Method:   t.Method,
			Value:    t.Value,
			Amount:   amt,
			Category: cat,
		})
	}
	return r
}

// Rounded returns r with every money field rounded to 2dp.
func (r LineTaxResult) Rounded() LineTaxResult {
	out := r
	out.Subtotal = Round2(r.Subtotal)
	out.TaxAmount = Round2(r.TaxAmount)
	out.Breakdown = r.Breakdown.rounded()
	out.TaxDetails = make([]TaxDetail, len(r.TaxDetails))
	for i, d := range r.TaxDetails {
		d.Amount = Round2(d.Amount)
		out.TaxDetails[i] = d
	}
	return out
}

// OrderTaxCalculation is the priced result for a set of lines.
type OrderTaxCalculation struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Breakdown   TaxBreakdown    `json:"breakdown"`
	Lines       []LineTaxResult `json:"lines"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// SumLineTaxes totals unrounded line results and rounds once at the end.
func SumLineTaxes(lines []LineTaxResult) OrderTaxCalculation {
	var sub, tax decimal.Decimal
	var bd TaxBreakdown
	rounded := make([]LineTaxResult, len(lines))
	for i, l := range lines {
		sub = sub.Add(l.Subtotal)
		tax = tax.Add(l.TaxAmount)
		bd.merge(l.Breakdown)
		rounded[i] = l.Rounded()
	}
	return OrderTaxCalculation{
		Subtotal:    Round2(sub),
		TaxAmount:   Round2(tax),
		TotalAmount: Round2(sub.Add(tax)),
		Breakdown:   bd.rounded(),
		Lines:       rounded,
	}
}

// TaxValidation collects reconciliation problems. Errors are fatal,
// Warnings are reported alongside the result.
type TaxValidation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether no errors were found.
func (v TaxValidation) Valid() bool { return len(v.Errors) == 0 }

// Err returns an ErrCalculationInconsistency error when v has errors.
func (v TaxValidation) Err() error {
	if v.Valid() {
		return nil
	}
	return &DomainError{
		Kind: ErrCalculationInconsistency,
		Op:   "validate tax calculation",
		Msg:  fmt.Sprintf("%v", v.Errors),
	}
}

// ValidateTaxCalculation reconciles a calculation:
// subtotal + tax must equal total within 0.01, subtotal and tax must not be
// negative, and the breakdown buckets should add up to the tax amount.
func ValidateTaxCalculation(c OrderTaxCalculation) TaxValidation {
	v := TaxValidation{Errors: []string{}, Warnings: []string{}}

	if c.Subtotal.Add(c.TaxAmount).Sub(c.TotalAmount).Abs().GreaterThan(tolerance) {
		v.Errors = append(v.Errors, "Total amount calculation mismatch")
	}
	if c.Subtotal.IsNegative() {
		v.Errors = append(v.Errors, "Subtotal cannot be negative")
	}
	if c.TaxAmount.IsNegative() {
		v.Errors = append(v.Errors, "Tax amount cannot be negative")
	}
	if c.Breakdown.Sum().Sub(c.TaxAmount).Abs().GreaterThan(tolerance) {
		v.Warnings = append(v.Warnings, "Tax breakdown does not match total tax amount")
	}
	return v
}

// TaxLookup fetches a tax by id. A missing tax must be reported as an
// ErrNotFound error.
type TaxLookup interface {
	GetTax(ctx context.Context, id int) (*Tax, error)
}

// TaxCalculator resolves tax references and prices lines.
type TaxCalculator struct {
	lookup TaxLookup
	policy EnrichmentPolicy
	log    zerolog.Logger
}

func NewTaxCalculator(lookup TaxLookup, policy EnrichmentPolicy, log zerolog.Logger) *TaxCalculator {
	return &TaxCalculator{lookup: lookup, policy: policy, log: log}
}

// Policy returns the enrichment policy the calculator applies.
func (c *TaxCalculator) Policy() EnrichmentPolicy { return c.policy }

// resolveTaxes loads the taxes of a line. A line naming both the single
// tax field and the tax list is rejected outright. Lookup failures are
// returned as the enrichment outcome; the taxes that did resolve are kept.
func (c *TaxCalculator) resolveTaxes(ctx context.Context, idx int, line OrderLine) ([]Tax, LineEnrichment, error) {
	res := LineEnrichment{Index: idx, What: "tax"}
	if line.TaxID != nil && len(line.TaxIDs) > 0 {
		return nil, res, invalidInput("calculate tax", fmt.Sprintf("items[%d]", idx),
			"line %d specifies both tax_id and tax_ids", idx+1)
	}
	refs := line.TaxRefs()
	taxes := make([]Tax, 0, len(refs))
	for _, id := range refs {
		t, err := c.lookup.GetTax(ctx, id)
		if err != nil {
			res.Err = fmt.Errorf("tax %d: %w", id, err)
			continue
		}
		taxes = append(taxes, *t)
	}
	return taxes, res, nil
}

// CalculateLineTax prices a single line, rounded.
func (c *TaxCalculator) CalculateLineTax(ctx context.Context, line OrderLine) (LineTaxResult, error) {
	taxes, res, err := c.resolveTaxes(ctx, 0, line)
	if err != nil {
		return LineTaxResult{}, err
	}
	if _, err := c.policy.Decide("calculate line tax", []LineEnrichment{res}, c.log); err != nil {
		return LineTaxResult{}, err
	}
	return ComputeLineTax(line, taxes).Rounded(), nil
}

// CalculateOrderTax prices every line and totals the order. Tax lookup
// failures are decided once for the whole order by the enrichment policy.
// Taxes whose scope does not match the order kind are applied but flagged.
func (c *TaxCalculator) CalculateOrderTax(ctx context.Context, items []OrderLine, kind OrderKind) (*OrderTaxCalculation, error) {
	results := make([]LineTaxResult, 0, len(items))
	outcomes := make([]LineEnrichment, 0, len(items))
	var scopeWarnings []string

	want := TaxOnSales
	if kind == PurchaseOrderKind {
		want = TaxOnPurchase
	}

	for i, line := range items {
		taxes, res, err := c.resolveTaxes(ctx, i, line)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, res)
		for _, t := range taxes {
			if t.ApplicableOn != "" && t.ApplicableOn != want {
				scopeWarnings = append(scopeWarnings,
					fmt.Sprintf("line %d: tax %q applies to %s documents", i+1, t.Name, t.ApplicableOn))
			}
		}
		results = append(results, ComputeLineTax(line, taxes))
	}

	warnings, err := c.policy.Decide("calculate "+kind.String()+" tax", outcomes, c.log)
	if err != nil {
		return nil, err
	}

	calc := SumLineTaxes(results)
	calc.Warnings = append(warnings, scopeWarnings...)
	return &calc, nil
}

// ApplyLineTaxes writes the priced figures of calc back onto items.
func ApplyLineTaxes(items []OrderLine, calc *OrderTaxCalculation) {
	for i := range items {
		if i >= len(calc.Lines) {
			return
		}
		l := calc.Lines[i]
		items[i].Subtotal = l.Subtotal
		items[i].TaxAmount = l.TaxAmount
		items[i].TaxRate = l.TaxRate
		total := Round2(l.Subtotal.Add(l.TaxAmount))
		items[i].LineTotal = &total
	}
}
