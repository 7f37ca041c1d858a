// Package pipeline runs one batch through the transform stages:
//
//	ingest -> clean -> validate -> derive -> split -> audit
//
// Stages run in order on immutable batches; each stage reads the previous
// stage's output and allocates its own. Record-scoped problems become
// rejections and the run continues. Run-scoped problems (a duplicate
// transaction_id or an inconsistent customer dimension reaching the
// splitter) stop the run with an error. The audit never stops the run; its
// report travels on the Result for the caller to judge.
//
// All logging and metrics for the stages happen here, not in the stage
// packages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"salesmart/internal/audit"
	"salesmart/internal/clean"
	"salesmart/internal/datasource"
	"salesmart/internal/derive"
	"salesmart/internal/ingest"
	"salesmart/internal/logging"
	"salesmart/internal/metrics"
	"salesmart/internal/schema"
	"salesmart/internal/split"
	"salesmart/internal/validate"
)

// Stage names used in logs and metrics besides the stage packages' own.
const (
	StageIngest = "ingest"
	StageAudit  = "audit"
)

// Options configures a run. Zero values are usable.
type Options struct {
	// Job labels logs and metrics.
	Job string
	// RunID identifies the run; a random UUID when empty.
	RunID string

	Ingest      ingest.Options
	DateLayouts []string
	Tolerance   float64
}

// Result is the outcome of one run. It is not modified after Run returns.
type Result struct {
	RunID string
	Job   string

	Raw      []schema.Raw
	Clean    []schema.Transaction // records handed to derivation
	Enriched []schema.Enriched

	Customers          []schema.Customer
	Orders             []schema.Order
	Products           []schema.Product
	Summary            schema.Summary
	HighValueThreshold float64

	// Rejected holds every stage's rejections in stage order.
	Rejected    []schema.Rejection
	CleanReport clean.Report
	Violations  []validate.Violation
	Audit       audit.Report

	Durations map[string]time.Duration
}

// RejectedBy returns the number of rejections carried by stage.
func (r *Result) RejectedBy(stage string) int {
	n := 0
	for _, rj := range r.Rejected {
		if rj.Stage == stage {
			n++
		}
	}
	return n
}

// openSourceFn is a test seam.
var openSourceFn = func(ctx context.Context, src datasource.Source) (io.ReadCloser, error) {
	return src.Open(ctx)
}

// Run reads src and processes it.
func Run(ctx context.Context, src datasource.Source, opt Options) (*Result, error) {
	opt = opt.withRunID()
	ctx = logging.WithRun(ctx, opt.RunID, opt.Job)
	log := logging.Ctx(ctx)

	start := time.Now()
	rc, err := openSourceFn(ctx, src)
	if err != nil {
		metrics.RecordStage(opt.Job, StageIngest, err, time.Since(start))
		return nil, fmt.Errorf("open input: %w", err)
	}
	raw, err := ingest.ReadCSV(rc, opt.Ingest)
	_ = rc.Close()
	d := time.Since(start)
	metrics.RecordStage(opt.Job, StageIngest, err, d)
	if err != nil {
		log.Error().Err(err).Str("stage", StageIngest).Msg("read input failed")
		return nil, fmt.Errorf("ingest: %w", err)
	}
	log.Info().Str("stage", StageIngest).Int("out", len(raw)).Dur("duration", d).Msg("stage done")

	res, err := process(ctx, raw, opt)
	if res != nil {
		res.Durations[StageIngest] = d
	}
	return res, err
}

// Process runs the transform stages over raw rows already in memory.
func Process(ctx context.Context, raw []schema.Raw, opt Options) (*Result, error) {
	opt = opt.withRunID()
	ctx = logging.WithRun(ctx, opt.RunID, opt.Job)
	return process(ctx, raw, opt)
}

func (o Options) withRunID() Options {
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	return o
}

func process(ctx context.Context, raw []schema.Raw, opt Options) (*Result, error) {
	log := logging.Ctx(ctx)
	res := &Result{
		RunID:     opt.RunID,
		Job:       opt.Job,
		Raw:       raw,
		Durations: make(map[string]time.Duration, 6),
	}
	metrics.RecordRow(opt.Job, "raw", int64(len(raw)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// clean
	t := time.Now()
	cleaned, rejected, report := clean.Clean(raw)
	res.CleanReport = report
	res.finish(ctx, clean.Stage, t, len(raw), len(cleaned), rejected, nil)

	// validate
	t = time.Now()
	res.Violations = validate.Transactions(cleaned)
	valid, rejected := validate.Partition(cleaned, res.Violations)
	res.Clean = valid
	res.finish(ctx, validate.Stage, t, len(cleaned), len(valid), rejected, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// derive
	t = time.Now()
	enriched, rejected := derive.Engine{DateLayouts: opt.DateLayouts}.Derive(valid)
	res.Enriched = enriched
	res.finish(ctx, derive.Stage, t, len(valid), len(enriched), rejected, nil)

	// split
	t = time.Now()
	mart, err := split.Split(enriched)
	if err != nil {
		res.finish(ctx, split.Stage, t, len(enriched), 0, nil, err)
		return nil, fmt.Errorf("split: %w", err)
	}
	res.Customers = mart.Customers
	res.Orders = mart.Orders
	res.Products = mart.Products
	res.Summary = mart.Summary
	res.HighValueThreshold = mart.HighValueThreshold
	res.finish(ctx, split.Stage, t, len(enriched), len(mart.Orders), mart.Rejected, nil)
	metrics.RecordRow(opt.Job, "customers", int64(len(mart.Customers)))
	metrics.RecordRow(opt.Job, "orders", int64(len(mart.Orders)))
	metrics.RecordRow(opt.Job, "products", int64(len(mart.Products)))
	log.Info().
		Int("customers", len(mart.Customers)).
		Int("orders", len(mart.Orders)).
		Int("products", len(mart.Products)).
		Float64("high_value_threshold", mart.HighValueThreshold).
		Msg("mart built")

	// audit
	t = time.Now()
	res.Audit = audit.Audit(audit.Input{
		Raw:       raw,
		Clean:     res.Clean,
		Rejected:  res.Rejected,
		Enriched:  res.Enriched,
		Customers: res.Customers,
		Orders:    res.Orders,
		Products:  res.Products,
		Summary:   res.Summary,
	}, audit.Options{Tolerance: opt.Tolerance})
	d := time.Since(t)
	res.Durations[StageAudit] = d
	failures := res.Audit.Failures()
	var auditErr error
	if len(res.Audit.Errors()) > 0 {
		auditErr = fmt.Errorf("%d audit checks failed", len(res.Audit.Errors()))
	}
	metrics.RecordStage(opt.Job, StageAudit, auditErr, d)
	metrics.RecordRow(opt.Job, "audit_failures", int64(len(failures)))
	for _, c := range failures {
		ev := log.Warn()
		if c.Severity == audit.SeverityError {
			ev = log.Error()
		}
		ev.Str("check", c.Name).Str("severity", string(c.Severity)).Str("detail", c.Detail).Msg("audit check failed")
	}
	log.Info().
		Str("stage", StageAudit).
		Int("checks", len(res.Audit.Checks)).
		Int("failed", len(failures)).
		Bool("passed", res.Audit.Passed()).
		Dur("duration", d).
		Msg("stage done")

	return res, nil
}

// finish records one stage: rejections, timing, metrics and the stage log
// line. Individual rejections are logged at debug level.
func (r *Result) finish(ctx context.Context, stage string, start time.Time, in, out int, rejected []schema.Rejection, err error) {
	d := time.Since(start)
	r.Durations[stage] = d
	r.Rejected = append(r.Rejected, rejected...)
	metrics.RecordStage(r.Job, stage, err, d)
	metrics.RecordRow(r.Job, "rejected_"+stage, int64(len(rejected)))

	log := logging.Ctx(ctx)
	if err != nil {
		log.Error().Err(err).Str("stage", stage).Int("in", in).Dur("duration", d).Msg("stage failed")
		return
	}
	for _, rj := range rejected {
		log.Debug().
			Str("stage", stage).
			Int("line", rj.Line).
			Int64("transaction_id", rj.TransactionID).
			Str("rule", rj.Rule).
			Str("reason", rj.Reason()).
			Msg("record rejected")
	}
	ev := log.Info()
	if len(rejected) > 0 {
		ev = log.Warn()
	}
	ev.Str("stage", stage).
		Int("in", in).
		Int("out", out).
		Int("rejected", len(rejected)).
		Dur("duration", d).
		Msg("stage done")
	if stage == derive.Stage {
		metrics.RecordRow(r.Job, "enriched", int64(out))
	}
}
