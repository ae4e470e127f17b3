package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// linePricer fills line defaults from the product catalog and prices the
// lines. Sales documents default to the product's sales price, purchase
// documents to its purchase price.
type linePricer struct {
	kind  OrderKind
	taxes *TaxCalculator
	log   zerolog.Logger
}

// resolveLines validates and fills defaults on a copy of items. Input errors
// abort immediately; product lookup failures are returned per line for the
// enrichment policy to decide.
func (p linePricer) resolveLines(ctx context.Context, q querier, op string, items []OrderLine) ([]OrderLine, []LineEnrichment, error) {
	out := make([]OrderLine, len(items))
	outcomes := make([]LineEnrichment, 0, len(items))

	for i, in := range items {
		line := in
		field := fmt.Sprintf("items[%d]", i)

		if line.Quantity.IsNegative() {
			return nil, nil, invalidInput(op, field+".quantity", "line %d: quantity must not be negative", i+1)
		}
		if line.Quantity.IsZero() {
			line.Quantity = one
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, nil, invalidInput(op, field+".unit_price", "line %d: unit price must not be negative", i+1)
		}
		if line.TaxID != nil && len(line.TaxIDs) > 0 {
			return nil, nil, invalidInput(op, field, "line %d specifies both tax_id and tax_ids", i+1)
		}

		res := LineEnrichment{Index: i, What: "product"}
		if line.ProductID != nil {
			prod, err := getProduct(ctx, q, *line.ProductID)
			if err != nil {
				res.Err = err
			} else {
				if line.UnitPrice == nil {
					price := prod.PurchasePrice
					if p.kind == SalesOrderKind {
						price = prod.SalesPrice
					}
					line.UnitPrice = &price
				}
				if line.ProductName == "" {
					line.ProductName = prod.Name
				}
				if line.HSNCode == "" {
					line.HSNCode = prod.HSNCode
				}
			}
		}
		if line.UnitPrice == nil {
			zero := decimal.Zero
			line.UnitPrice = &zero
		}

		outcomes = append(outcomes, res)
		out[i] = line
	}
	return out, outcomes, nil
}

// price resolves (when resolve is set) and prices items, returning the
// priced lines and the reconciled totals. A calculation that fails
// reconciliation is an error; breakdown mismatches are only warnings.
func (p linePricer) price(ctx context.Context, q querier, op string, items []OrderLine, resolve bool) ([]OrderLine, *OrderTaxCalculation, error) {
	lines := make([]OrderLine, len(items))
	copy(lines, items)

	var warnings []string
	if resolve {
		resolved, outcomes, err := p.resolveLines(ctx, q, op, items)
		if err != nil {
			return nil, nil, err
		}
		warnings, err = p.taxes.Policy().Decide(op, outcomes, p.log)
		if err != nil {
			return nil, nil, err
		}
		lines = resolved
	}

	calc, err := p.taxes.CalculateOrderTax(ctx, lines, p.kind)
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) && de.Kind == ErrInvalidInput {
			de.Op = op
		}
		return nil, nil, err
	}

	v := ValidateTaxCalculation(*calc)
	for _, w := range v.Warnings {
		p.log.Warn().Str("op", op).Str("subtotal", calc.Subtotal.String()).
			Str("tax", calc.TaxAmount.String()).Msg(w)
	}
	if err := v.Err(); err != nil {
		p.log.Error().Str("op", op).Strs("errors", v.Errors).Msg("tax calculation failed reconciliation")
		return nil, nil, err
	}

	calc.Warnings = append(append(warnings, calc.Warnings...), v.Warnings...)
	ApplyLineTaxes(lines, calc)
	return lines, calc, nil
}
