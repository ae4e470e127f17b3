package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// GSTRate is a suggested GST split for an HSN code. Rates are percentages.
type GSTRate struct {
	HSNCode     string          `json:"hsn_code"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	CGST        decimal.Decimal `json:"cgst"`
	SGST        decimal.Decimal `json:"sgst"`
	IGST        decimal.Decimal `json:"igst"`
	Cess        decimal.Decimal `json:"cess"`
	TotalGST    decimal.Decimal `json:"total_gst"`
	Source      string          `json:"source"`
}

func gstSplit(total string) (cgst, sgst, igst decimal.Decimal) {
	igst = decimal.RequireFromString(total)
	half := igst.Div(decimal.NewFromInt(2))
	return half, half, igst
}

func newGSTRate(code, desc, category, total string) GSTRate {
	c, s, i := gstSplit(total)
	return GSTRate{
		HSNCode:     code,
		Description: desc,
		Category:    category,
		CGST:        c,
		SGST:        s,
		IGST:        i,
		Cess:        decimal.Zero,
		TotalGST:    i,
		Source:      "fallback",
	}
}

var goodsHSN = []GSTRate{
	newGSTRate("9403", "Other furniture and parts thereof", "Furniture", "18"),
	newGSTRate("8471", "Automatic data processing machines and units thereof", "Electronics", "18"),
	newGSTRate("6403", "Footwear with outer soles of rubber, plastics, leather", "Footwear", "18"),
	newGSTRate("6109", "T-shirts, singlets and other vests, knitted or crocheted", "Textiles", "12"),
	newGSTRate("1006", "Rice", "Food grains", "5"),
	newGSTRate("8517", "Telephone sets, including smartphones", "Electronics", "18"),
	newGSTRate("3004", "Medicaments consisting of mixed or unmixed products", "Pharmaceuticals", "12"),
}

var serviceHSN = []GSTRate{
	newGSTRate("998313", "Information technology software services", "IT Services", "18"),
	newGSTRate("997212", "Accounting and bookkeeping services", "Professional Services", "18"),
	newGSTRate("996511", "Transport of goods by road", "Transportation", "5"),
	newGSTRate("997331", "Advertising services", "Marketing", "18"),
}

// SuggestGSTRate returns an indicative GST rate from the HSN chapter prefix.
// It is advisory only; document taxes always come from the tax master.
func SuggestGSTRate(hsnCode string) GSTRate {
	code := strings.TrimSpace(hsnCode)
	total := "18"
	switch {
	case hasAnyPrefix(code, "10", "11", "07", "08"):
		total = "5"
	case hasAnyPrefix(code, "61", "62", "63"):
		total = "12"
	case hasAnyPrefix(code, "87", "85", "90"):
		total = "28"
	}
	r := newGSTRate(code, "", "", total)
	r.Source = "prefix"
	return r
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// LookupHSN returns the known details for code, or the standard 18% rate
// when the code is not in the built-in tables.
func LookupHSN(code string) GSTRate {
	code = strings.TrimSpace(code)
	for _, tbl := range [][]GSTRate{goodsHSN, serviceHSN} {
		for _, r := range tbl {
			if r.HSNCode == code {
				return r
			}
		}
	}
	r := newGSTRate(code, "Standard rate", "General", "18")
	r.Source = "default"
	return r
}

// SearchHSN matches query against description, category and (for goods)
// the code itself. limit <= 0 means 10.
func SearchHSN(query string, services bool, limit int) []GSTRate {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(strings.TrimSpace(query))
	tbl := goodsHSN
	if services {
		tbl = serviceHSN
	}
	out := []GSTRate{}
	for _, r := range tbl {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.Category), q) ||
			(!services && strings.Contains(r.HSNCode, q)) {
			out = append(out, r)
		}
	}
	return out
}

// HSNValidation is the outcome of ValidateHSNCode.
type HSNValidation struct {
	Valid     bool     `json:"is_valid"`
	CleanCode string   `json:"clean_code"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// ValidateHSNCode checks the code is numeric; a length other than 4, 6 or 8
// digits is only a warning.
func ValidateHSNCode(code string) HSNValidation {
	v := HSNValidation{Errors: []string{}, Warnings: []string{}}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
	v.CleanCode = clean
	if clean == "" {
		v.Errors = append(v.Errors, "HSN code is required")
		return v
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			v.Errors = append(v.Errors, "HSN code must contain only digits")
			break
		}
	}
	switch len(clean) {
	case 4, 6, 8:
	default:
		v.Warnings = append(v.Warnings, "HSN code should be 4, 6, or 8 digits long")
	}
	v.Valid = len(v.Errors) == 0
	return v
}
