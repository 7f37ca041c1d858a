// Package file writes the mart as flat files into one directory:
//
//	customers.csv, orders.csv, products.csv  dimension and fact rows
//	summary_metrics.json                     metric name -> value
//	audit_report.json                        audit checks of the run
//	rejected.csv                             rejection report (optional)
//
// Every file is written to a temporary name and renamed into place, so a
// reader never sees a partial file.
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"salesmart/internal/audit"
	"salesmart/internal/logging"
	"salesmart/internal/pipeline"
	"salesmart/internal/schema"
)

// Output file names.
const (
	CustomersFile = "customers.csv"
	OrdersFile    = "orders.csv"
	ProductsFile  = "products.csv"
	SummaryFile   = "summary_metrics.json"
	AuditFile     = "audit_report.json"
	RejectedFile  = "rejected.csv"
)

// RejectedColumns is the header of the rejection report.
var RejectedColumns = []string{"line", "transaction_id", "stage", "rule", "reason"}

// Writer is the flat-file sink.
type Writer struct {
	Dir           string
	WriteRejected bool
}

// Name implements sink.Sink.
func (w *Writer) Name() string { return "file" }

// AuditDocument is the content of audit_report.json.
type AuditDocument struct {
	RunID  string        `json:"run_id"`
	Job    string        `json:"job"`
	Passed bool          `json:"passed"`
	Checks []audit.Check `json:"checks"`
}

// Write writes every output file of res.
func (w *Writer) Write(ctx context.Context, res *pipeline.Result) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	customers := make([][]any, len(res.Customers))
	for i, c := range res.Customers {
		customers[i] = c.Values()
	}
	orders := make([][]any, len(res.Orders))
	for i, o := range res.Orders {
		orders[i] = o.Values()
	}
	products := make([][]any, len(res.Products))
	for i, p := range res.Products {
		products[i] = p.Values()
	}

	csvs := []struct {
		name    string
		columns []string
		rows    [][]any
	}{
		{CustomersFile, schema.CustomersTable.ColumnNames(), customers},
		{OrdersFile, schema.OrdersTable.ColumnNames(), orders},
		{ProductsFile, schema.ProductsTable.ColumnNames(), products},
	}
	if w.WriteRejected {
		rejected := make([][]any, len(res.Rejected))
		for i, r := range res.Rejected {
			rejected[i] = []any{r.Line, r.TransactionID, r.Stage, r.Rule, r.Reason()}
		}
		csvs = append(csvs, struct {
			name    string
			columns []string
			rows    [][]any
		}{RejectedFile, RejectedColumns, rejected})
	}

	log := logging.Ctx(ctx)
	for _, f := range csvs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeCSV(f.name, f.columns, f.rows); err != nil {
			return err
		}
		log.Debug().Str("file", f.name).Int("rows", len(f.rows)).Msg("file written")
	}

	summary := res.Summary
	if summary == nil {
		summary = schema.Summary{}
	}
	if err := w.writeJSON(SummaryFile, summary); err != nil {
		return err
	}
	doc := AuditDocument{RunID: res.RunID, Job: res.Job, Passed: res.Audit.Passed(), Checks: res.Audit.Checks}
	if doc.Checks == nil {
		doc.Checks = []audit.Check{}
	}
	return w.writeJSON(AuditFile, doc)
}

func (w *Writer) writeCSV(name string, columns []string, rows [][]any) error {
	return w.atomic(name, func(f *os.File) error {
		cw := csv.NewWriter(f)
		if err := cw.Write(columns); err != nil {
			return err
		}
		rec := make([]string, len(columns))
		for _, row := range rows {
			for i, v := range row {
				rec[i] = Format(v)
			}
			if err := cw.Write(rec[:len(row)]); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func (w *Writer) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return w.atomic(name, func(f *os.File) error {
		_, err := f.Write(append(b, '\n'))
		return err
	})
}

// atomic writes name through a temporary file in the same directory.
func (w *Writer) atomic(name string, fill func(*os.File) error) error {
	tmp, err := os.CreateTemp(w.Dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.Dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Format renders a cell value: dates as YYYY-MM-DD, floats in shortest form.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
