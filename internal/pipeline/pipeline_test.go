package pipeline

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"salesmart/internal/clean"
	"salesmart/internal/derive"
	"salesmart/internal/schema"
	"salesmart/internal/validate"
)

type stringSource string

func (s stringSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

type failingSource struct{ err error }

func (f failingSource) Open(ctx context.Context) (io.ReadCloser, error) { return nil, f.err }

const header = "Transaction ID,Date,Customer ID,Gender,Age,Product Category,Quantity,Price per Unit,Total Amount\n"

const sales = header +
	"1,2023-11-24,CUST001,Male,34,Beauty,3,50,150\n" +
	"2,2023-02-27,CUST002,Female,26,Clothing,2,500,1000\n" +
	"3,2023-01-13,CUST003,Male,50,Electronics,1,30,30\n" +
	"3,2023-01-13,CUST003,Male,50,Electronics,1,30,30\n" +
	"4,2023-05-21,CUST004,Male,,Beauty,1,50,50\n" +
	"5,2023-05-06,CUST005,Other,45,Beauty,1,25,25\n" +
	"6,2023-13-45,CUST006,Female,30,Books,1,10,10\n" +
	"7,2023-04-25,CUST001,Male,34,Clothing,2,25,50\n"

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), stringSource(sales), Options{Job: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("empty run id")
	}
	if len(res.Raw) != 8 || len(res.Clean) != 5 || len(res.Enriched) != 4 || len(res.Orders) != 4 {
		t.Fatalf("raw=%d clean=%d enriched=%d orders=%d", len(res.Raw), len(res.Clean), len(res.Enriched), len(res.Orders))
	}

	byStage := map[string]int{
		clean.Stage:    res.RejectedBy(clean.Stage),
		validate.Stage: res.RejectedBy(validate.Stage),
		derive.Stage:   res.RejectedBy(derive.Stage),
	}
	want := map[string]int{clean.Stage: 2, validate.Stage: 1, derive.Stage: 1}
	if !reflect.DeepEqual(byStage, want) {
		t.Fatalf("rejections by stage = %v, want %v", byStage, want)
	}
	if res.CleanReport.ByRule[clean.RuleDuplicate] != 1 || res.CleanReport.ByRule[clean.RuleMissingField] != 1 {
		t.Fatalf("clean report = %+v", res.CleanReport)
	}

	gotIDs := make([]string, len(res.Customers))
	for i, c := range res.Customers {
		gotIDs[i] = c.CustomerID
	}
	if !reflect.DeepEqual(gotIDs, []string{"CUST001", "CUST002", "CUST003"}) {
		t.Fatalf("customers = %v", gotIDs)
	}
	if res.HighValueThreshold != 600 {
		t.Fatalf("threshold = %v, want 600", res.HighValueThreshold)
	}
	for _, c := range res.Customers {
		if c.HighValueCustomer != (c.CustomerID == "CUST002") {
			t.Fatalf("customer %s high value = %v", c.CustomerID, c.HighValueCustomer)
		}
	}
	if res.Summary[schema.MetricTotalRevenue] != 1230 {
		t.Fatalf("total revenue = %v", res.Summary[schema.MetricTotalRevenue])
	}
	if !res.Audit.Passed() {
		t.Fatalf("audit failures: %+v", res.Audit.Failures())
	}
	for _, st := range []string{StageIngest, clean.Stage, validate.Stage, derive.Stage, StageAudit} {
		if _, ok := res.Durations[st]; !ok {
			t.Errorf("no duration for stage %s", st)
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := Run(context.Background(), stringSource(sales), Options{RunID: "r1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := Process(context.Background(), a.Raw, Options{RunID: "r2"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !reflect.DeepEqual(a.Customers, b.Customers) || !reflect.DeepEqual(a.Orders, b.Orders) ||
		!reflect.DeepEqual(a.Products, b.Products) || !reflect.DeepEqual(a.Summary, b.Summary) {
		t.Fatal("mart differs between identical runs")
	}
	if b.RunID != "r2" {
		t.Fatalf("run id = %q", b.RunID)
	}
}

func TestRun_RunScopedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{
			name: "inconsistent age segment",
			input: header +
				"1,2023-01-01,C1,Male,24,Beauty,1,10,10\n" +
				"2,2023-01-02,C1,Male,25,Beauty,1,10,10\n",
			check: func(err error) bool {
				var e *schema.InconsistentDimensionError
				return errors.As(err, &e)
			},
		},
		{
			name: "duplicate transaction id",
			input: header +
				"1,2023-01-01,C1,Male,30,Beauty,1,10,10\n" +
				"1,2023-01-02,C2,Female,40,Books,2,10,20\n",
			check: func(err error) bool {
				var e *schema.DuplicateKeyError
				return errors.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Run(context.Background(), stringSource(tt.input), Options{})
			if err == nil || !tt.check(err) {
				t.Fatalf("err = %v", err)
			}
			if res != nil {
				t.Fatal("result returned with a fatal error")
			}
		})
	}
}

func TestRun_InputErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	if _, err := Run(context.Background(), failingSource{boom}, Options{}); !errors.Is(err, boom) {
		t.Fatalf("open error = %v", err)
	}
	if _, err := Run(context.Background(), stringSource(""), Options{}); err == nil {
		t.Fatal("empty input accepted")
	}
	if _, err := Run(context.Background(), stringSource("a,b\n1,2\n"), Options{}); err == nil {
		t.Fatal("input without required columns accepted")
	}
}

func TestProcess_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Process(ctx, nil, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcess_EmptyBatch(t *testing.T) {
	t.Parallel()

	res, err := Process(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Orders) != 0 || !res.Audit.Passed() {
		t.Fatalf("orders=%d audit=%+v", len(res.Orders), res.Audit.Failures())
	}
}
