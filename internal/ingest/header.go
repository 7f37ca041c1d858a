// Package ingest is the boundary between the extraction collaborator and the
// transform core. It reads a delimited file into raw rows keyed by canonical
// snake_case field names. Renaming is a pure lookup in a fixed table, with a
// mechanical snake_case fallback for headers the table does not know.
package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"salesmart/internal/schema"
)

// DisplayHeaders maps the display-form column names of the source dataset to
// canonical field names.
var DisplayHeaders = map[string]string{
	"Transaction ID":   schema.FieldTransactionID,
	"Date":             schema.FieldTransactionDate,
	"Transaction Date": schema.FieldTransactionDate,
	"Customer ID":      schema.FieldCustomerID,
	"Gender":           schema.FieldGender,
	"Age":              schema.FieldAge,
	"Product Category": schema.FieldProductCategory,
	"Quantity":         schema.FieldQuantity,
	"Price per Unit":   schema.FieldPricePerUnit,
	"Total Amount":     schema.FieldTotalAmount,
}

const utf8BOM = "\uFEFF"

// NormalizeHeaders returns canonical keys for a header row. Lookup order:
// overrides, DisplayHeaders, then SnakeCase. A UTF-8 BOM on the first cell is
// dropped.
func NormalizeHeaders(h []string, overrides map[string]string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if m, ok := overrides[c]; ok && m != "" {
			res[i] = m
			continue
		}
		if m, ok := DisplayHeaders[c]; ok {
			res[i] = m
			continue
		}
		res[i] = SnakeCase(c)
	}
	return res
}

// SnakeCase lowercases s, strips accents (NFD, drop Mn, NFC), turns runs of
// space, dash, dot and underscore into one underscore, and drops anything
// else that is not [a-z0-9].
func SnakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
