package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if !reflect.DeepEqual(cfg.Input.DateLayouts, want.Input.DateLayouts) {
		t.Fatalf("date layouts = %v", cfg.Input.DateLayouts)
	}
	if cfg.Job != want.Job || cfg.Storage.BatchSize != 5000 || !cfg.Audit.FailOnError || cfg.Audit.Tolerance != 1e-6 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.Storage.Replace || cfg.Input.HTTP.Timeout != want.Input.HTTP.Timeout || cfg.Input.HTTP.MaxRetries != 3 {
		t.Fatalf("storage/http defaults = %+v %+v", cfg.Storage, cfg.Input.HTTP)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "salesmart.yaml", `
job: daily-sales
input:
  path: data/sales.csv
  comma: ";"
  date_layouts: ["02.01.2006"]
  header_map:
    Txn: transaction_id
storage:
  kind: postgres
  dsn: postgres://from-file
  batch_size: 100
`)
	t.Setenv("SALESMART_STORAGE__DSN", "postgres://from-env")
	t.Setenv("SALESMART_AUDIT__FAIL_ON_ERROR", "false")

	cfg, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Job != "daily-sales" || cfg.Input.Path != "data/sales.csv" || cfg.Input.CommaRune() != ';' {
		t.Fatalf("file layer not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Input.DateLayouts, []string{"02.01.2006"}) {
		t.Fatalf("date layouts = %v", cfg.Input.DateLayouts)
	}
	if cfg.Input.HeaderMap["Txn"] != "transaction_id" {
		t.Fatalf("header map = %v", cfg.Input.HeaderMap)
	}
	if cfg.Storage.DSN != "postgres://from-env" {
		t.Fatalf("env did not override file: dsn = %q", cfg.Storage.DSN)
	}
	if cfg.Storage.BatchSize != 100 || cfg.Audit.FailOnError {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Audit.Tolerance != 1e-6 {
		t.Fatalf("default tolerance lost: %v", cfg.Audit.Tolerance)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, "test.env", "SALESMART_JOB=from-dotenv\nSALESMART_LOGGING__LEVEL=debug\n")
	t.Cleanup(func() {
		os.Unsetenv("SALESMART_JOB")
		os.Unsetenv("SALESMART_LOGGING__LEVEL")
	})

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Job != "from-dotenv" || cfg.Logging.Level != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("missing config file accepted")
	}
	if _, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")}); err == nil {
		t.Fatal("missing env file accepted")
	}
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"SALESMART_JOB":                      "job",
		"SALESMART_STORAGE__BATCH_SIZE":      "storage.batch_size",
		"SALESMART_METRICS__PUSHGATEWAY_URL": "metrics.pushgateway_url",
	}
	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
