// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

import "strings"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:mart.db?_pragma=busy_timeout(5000)"
	//   "mart.db"
	//   ":memory:"
	DSN string
}

// inMemory reports whether the DSN names a private in-memory database, which
// only exists for the lifetime of a single connection.
func (c Config) inMemory() bool {
	return c.DSN == ":memory:" || strings.Contains(c.DSN, "mode=memory")
}
