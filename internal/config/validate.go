package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"salesmart/internal/logging"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "input.date_layouts[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// KnownStorageKinds lists the backends shipped with salesmart.
var KnownStorageKinds = []string{"postgres", "sqlite", "mssql", "mysql", "duckdb"}

// ValidateConfig lints c without mutating it. Callers decide whether
// warnings are fatal.
func ValidateConfig(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics for the run",
		})
	}
	issues = append(issues, validateInput(c.Input)...)
	issues = append(issues, validateSinks(c.Output, c.Storage)...)
	issues = append(issues, validateAudit(c.Audit)...)
	issues = append(issues, validateLogging(c.Logging)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

func validateInput(in Input) []Issue {
	var issues []Issue

	if strings.TrimSpace(in.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.path",
			Message:  "input.path must not be empty",
		})
	}
	if n := utf8.RuneCountInString(in.Comma); n != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", in.Comma),
		})
	} else if in.Comma == "\"" || in.Comma == "\n" || in.Comma == "\r" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.comma",
			Message:  fmt.Sprintf("comma %q cannot be used as a CSV delimiter", in.Comma),
		})
	}

	if len(in.DateLayouts) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.date_layouts",
			Message:  "at least one date layout is required",
		})
	}
	for i, l := range in.DateLayouts {
		if !strings.Contains(l, "2006") || !strings.Contains(l, "02") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("input.date_layouts[%d]", i),
				Message:  fmt.Sprintf("layout %q has no year or day reference; dates may not parse", l),
			})
		}
	}

	for src, dst := range in.HeaderMap {
		if strings.TrimSpace(dst) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("input.header_map[%s]", src),
				Message:  "header mapping target must not be empty",
			})
		}
	}

	if in.HTTP.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.http.max_retries",
			Message:  "max_retries must be >= 0",
		})
	}
	if in.HTTP.Timeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.http.timeout",
			Message:  "timeout must be >= 0",
		})
	}
	if in.HTTP.InsecureSkipVerify {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "input.http.insecure_skip_verify",
			Message:  "TLS verification is disabled for remote input",
		})
	}

	return issues
}

func validateSinks(out Output, s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(out.Dir) == "" && strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output",
			Message:  "neither output.dir nor storage.kind is set; results will not be persisted",
		})
	}
	if strings.TrimSpace(s.Kind) == "" {
		return issues
	}

	known := false
	for _, k := range KnownStorageKinds {
		if s.Kind == k {
			known = true
			break
		}
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if s.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; each table will be loaded in a single batch", s.BatchSize),
		})
	}
	if strings.ContainsAny(s.SchemaPrefix, " .;\"`") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.schema_prefix",
			Message:  fmt.Sprintf("schema_prefix %q must be a bare identifier", s.SchemaPrefix),
		})
	}

	return issues
}

func validateAudit(a Audit) []Issue {
	switch {
	case a.Tolerance < 0:
		return []Issue{{
			Severity: SeverityError,
			Path:     "audit.tolerance",
			Message:  "tolerance must not be negative",
		}}
	case a.Tolerance > 1e-2:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "audit.tolerance",
			Message:  fmt.Sprintf("tolerance %g is loose; reconciliation mismatches may go unreported", a.Tolerance),
		}}
	}
	return nil
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	if l.Level != "" && !logging.ValidLevel(l.Level) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "logging.level",
			Message:  fmt.Sprintf("unknown level %q; falling back to info", l.Level),
		})
	}
	if l.Format != "" && l.Format != "json" && l.Format != "console" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "logging.format",
			Message:  fmt.Sprintf("unknown format %q; expected json or console", l.Format),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			}}
		}
		return nil
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			}}
		}
		return nil
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; expected none, pushgateway or datadog", m.Backend),
		}}
	}
}
