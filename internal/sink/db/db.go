// Package db loads the mart into a relational database through the storage
// registry. Tables are created when missing, optionally emptied, then loaded
// in foreign key order: customers, orders, products, summary_metrics.
package db

import (
	"context"
	"fmt"

	"salesmart/internal/ddl"
	"salesmart/internal/logging"
	"salesmart/internal/metrics"
	"salesmart/internal/pipeline"
	"salesmart/internal/schema"
	"salesmart/internal/storage"
)

// Loader is the relational sink.
type Loader struct {
	Kind         string
	DSN          string
	AutoCreate   bool
	Replace      bool
	BatchSize    int
	SchemaPrefix string
}

// newRepository is a test seam.
var newRepository = storage.New

// Name implements sink.Sink.
func (l *Loader) Name() string { return "db:" + l.Kind }

// Tables returns the mart tables with the configured schema prefix.
func (l *Loader) Tables() []ddl.TableDef {
	tables := schema.Tables()
	for i := range tables {
		tables[i] = tables[i].WithPrefix(l.SchemaPrefix)
	}
	return tables
}

// Write loads res.
func (l *Loader) Write(ctx context.Context, res *pipeline.Result) error {
	repo, err := newRepository(ctx, storage.Config{Kind: l.Kind, DSN: l.DSN})
	if err != nil {
		return err
	}
	defer repo.Close()

	tables := l.Tables()
	if l.AutoCreate {
		if err := storage.EnsureTables(ctx, l.Kind, repo, tables); err != nil {
			return err
		}
	}
	if l.Replace {
		if err := storage.ClearTables(ctx, l.Kind, repo, tables); err != nil {
			return err
		}
	}

	log := logging.Ctx(ctx)
	for i, rows := range martRows(res) {
		t := tables[i]
		n, batches, err := storage.LoadTable(ctx, repo, t.FQN, t.ColumnNames(), rows, l.BatchSize)
		metrics.RecordBatches(res.Job, batches)
		metrics.RecordRow(res.Job, "loaded", n)
		if err != nil {
			return fmt.Errorf("load %s: %w", t.FQN, err)
		}
		log.Info().Str("table", t.FQN).Int64("rows", n).Int64("batches", batches).Msg("table loaded")
	}
	return nil
}

// martRows returns the rows of each table in schema.Tables order.
func martRows(res *pipeline.Result) [][][]any {
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
	return [][][]any{customers, orders, products, res.Summary.Rows()}
}
