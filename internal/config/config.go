// Package config defines the salesmart run configuration and loads it from
// layered sources.
//
// Layers, lowest to highest priority:
//
//  1. Defaults (Default)
//  2. A YAML (or JSON) file, when a path is given
//  3. Environment variables prefixed SALESMART_, with "__" separating
//     sections: SALESMART_STORAGE__DSN -> storage.dsn
//
// A dotenv file is read into the process environment before layer 3.
//
// Example (trimmed):
//
//	job: daily-sales
//	input:
//	  path: data/retail_sales.csv
//	output:
//	  dir: out/
//	storage:
//	  kind: postgres
//	  dsn: postgres://etl@localhost/mart
package config

import (
	"time"
	"unicode/utf8"

	"salesmart/internal/derive"
)

// Config is the full run configuration.
type Config struct {
	// Job names the run in logs and metrics.
	Job     string  `koanf:"job"`
	Input   Input   `koanf:"input"`
	Output  Output  `koanf:"output"`
	Storage Storage `koanf:"storage"`
	Audit   Audit   `koanf:"audit"`
	Logging Logging `koanf:"logging"`
	Metrics Metrics `koanf:"metrics"`
}

// Input describes the raw transaction file.
type Input struct {
	// Path is a local file (optionally .gz) or an http(s) URL.
	Path string `koanf:"path"`
	// Comma is the single-character field delimiter.
	Comma string `koanf:"comma"`
	// DateLayouts are Go time layouts tried in order for transaction_date.
	DateLayouts []string `koanf:"date_layouts"`
	// HeaderMap maps source header text to canonical field names.
	HeaderMap map[string]string `koanf:"header_map"`
	HTTP      HTTP              `koanf:"http"`
}

// HTTP tunes fetching of a remote input.
type HTTP struct {
	Timeout            time.Duration `koanf:"timeout"`
	MaxRetries         int           `koanf:"max_retries"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`
}

// CommaRune returns the delimiter as a rune, or ',' when Comma is not a
// single character.
func (in Input) CommaRune() rune {
	if utf8.RuneCountInString(in.Comma) != 1 {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(in.Comma)
	return r
}

// Output configures the flat-file sink. An empty Dir disables it.
type Output struct {
	Dir           string `koanf:"dir"`
	WriteRejected bool   `koanf:"write_rejected"`
}

// Storage configures the relational sink. An empty Kind disables it.
type Storage struct {
	// Kind selects a registered backend: postgres, sqlite, mssql, mysql, duckdb.
	Kind string `koanf:"kind"`
	DSN  string `koanf:"dsn"`
	// AutoCreate issues CREATE TABLE IF NOT EXISTS for the mart tables.
	AutoCreate bool `koanf:"auto_create"`
	BatchSize  int  `koanf:"batch_size"`
	// SchemaPrefix qualifies table names, e.g. "mart" -> mart.customers.
	SchemaPrefix string `koanf:"schema_prefix"`
	// Replace empties the mart tables before loading so reruns do not
	// collide on primary keys.
	Replace bool `koanf:"replace"`
}

// Audit tunes the integrity audit.
type Audit struct {
	Tolerance float64 `koanf:"tolerance"`
	// FailOnError makes any error-severity audit failure fail the run.
	FailOnError bool `koanf:"fail_on_error"`
}

// Logging mirrors logging.Config.
type Logging struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Metrics selects the metrics backend: "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string `koanf:"backend"`
	PushgatewayURL string `koanf:"pushgateway_url"`
	// DatadogAddr is the DogStatsD address, e.g. 127.0.0.1:8125.
	DatadogAddr string   `koanf:"datadog_addr"`
	Tags        []string `koanf:"tags"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Job: "salesmart",
		Input: Input{
			Comma:       ",",
			DateLayouts: append([]string(nil), derive.DefaultDateLayouts...),
			HTTP:        HTTP{Timeout: 30 * time.Second, MaxRetries: 3},
		},
		Output: Output{WriteRejected: true},
		Storage: Storage{
			AutoCreate: true,
			BatchSize:  5000,
			Replace:    true,
		},
		Audit: Audit{
			Tolerance:   1e-6,
			FailOnError: true,
		},
		Logging: Logging{Level: "info", Format: "json"},
		Metrics: Metrics{Backend: "none"},
	}
}
