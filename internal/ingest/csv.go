package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"salesmart/internal/schema"
)

// Options configures ReadCSV. Zero values are usable.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// HeaderMap overrides header renaming for specific source headers.
	HeaderMap map[string]string
}

// ReadCSV reads a headered CSV stream into raw rows. Values are trimmed.
//
// Rows are never dropped here: a row with the wrong number of fields keeps
// the fields it has, and a row the CSV reader cannot parse is returned with
// no values and the parse error, so the cleaner can account for every input line.
func ReadCSV(r io.Reader, opt Options) ([]schema.Raw, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headers := NormalizeHeaders(h, opt.HeaderMap)
	if missing := missingFields(headers); len(missing) > 0 {
		return nil, fmt.Errorf("csv header: missing columns %s", strings.Join(missing, ", "))
	}

	var out []schema.Raw
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			out = append(out, schema.Raw{Line: pe.StartLine, Values: map[string]string{}, Err: pe})
			continue
		}
		line, _ := cr.FieldPos(0)

		vals := make(map[string]string, len(headers))
		for i, v := range row {
			if i >= len(headers) {
				break
			}
			vals[headers[i]] = strings.TrimSpace(v)
		}
		out = append(out, schema.Raw{Line: line, Values: vals})
	}
	return out, nil
}

func missingFields(headers []string) []string {
	have := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		have[h] = struct{}{}
	}
	var missing []string
	for _, f := range schema.RawFields {
		if _, ok := have[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
