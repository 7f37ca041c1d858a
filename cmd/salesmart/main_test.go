package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sinkfile "salesmart/internal/sink/file"
)

const sales = "Transaction ID,Date,Customer ID,Gender,Age,Product Category,Quantity,Price per Unit,Total Amount\n" +
	"1,2023-11-24,CUST001,Male,34,Beauty,3,50,150\n" +
	"2,2023-02-27,CUST002,Female,26,Clothing,2,500,1000\n" +
	"3,2023-01-13,CUST003,Male,50,Electronics,1,30,30\n" +
	"3,2023-01-13,CUST003,Male,50,Electronics,1,30,30\n" +
	"4,2023-05-21,CUST004,Male,,Beauty,1,50,50\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sales.csv", sales)
	out := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "mart.db")
	cfg := writeFile(t, dir, "salesmart.yaml", "job: test\n"+
		"input:\n  path: "+input+"\n"+
		"output:\n  dir: "+out+"\n"+
		"storage:\n  kind: sqlite\n  dsn: "+dbPath+"\n"+
		"logging:\n  level: warn\n")

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", cfg}, &stderr); code != 0 {
		t.Fatalf("exit %d; stderr:\n%s", code, stderr.String())
	}

	for _, f := range []string{sinkfile.CustomersFile, sinkfile.OrdersFile, sinkfile.ProductsFile, sinkfile.SummaryFile, sinkfile.AuditFile, sinkfile.RejectedFile} {
		if _, err := os.Stat(filepath.Join(out, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n); err != nil || n != 3 {
		t.Fatalf("orders = %d, err %v", n, err)
	}

	// Rerunning replaces the mart instead of colliding on keys.
	if code := run(context.Background(), []string{"-config", cfg}, &stderr); code != 0 {
		t.Fatalf("rerun exit %d; stderr:\n%s", code, stderr.String())
	}
}

func TestRun_Validate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "input:\n  path: sales.csv\noutput:\n  dir: out\n")
	bad := writeFile(t, dir, "bad.yaml", "input:\n  comma: ';;'\n")

	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"valid", []string{"-config", good, "-validate"}, 0, "configuration is valid"},
		{"invalid", []string{"-config", bad, "-validate"}, 1, "input.path"},
		{"missing file", []string{"-config", filepath.Join(dir, "nope.yaml")}, 1, "load config"},
		{"bad metrics flag", []string{"-config", good, "-validate", "-metrics-backend", "statsd"}, 1, "metrics.backend"},
		{"unknown flag", []string{"-bogus"}, 2, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stderr); code != tt.code {
				t.Fatalf("exit %d, want %d; stderr:\n%s", code, tt.code, stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Fatalf("stderr %q does not contain %q", stderr.String(), tt.want)
			}
		})
	}
}

func TestRun_MissingInputFails(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.yaml", "input:\n  path: "+filepath.Join(dir, "absent.csv")+"\noutput:\n  dir: "+dir+"\nlogging:\n  level: disabled\n")

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", cfg}, &stderr); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
}
