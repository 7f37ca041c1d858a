// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE statements from that model.
//
// Backends describe their dialect (identifier quoting, type mapping, the
// "create if missing" wrapper) with a Dialect value; the column, primary key
// and foreign key layout is rendered here once for every backend.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures what differs between SQL backends when rendering DDL.
type Dialect struct {
	// Name is used in error messages, e.g. "postgres".
	Name string

	// QuoteIdent quotes a single identifier. Nil emits identifiers verbatim.
	QuoteIdent func(string) string

	// MapType maps a logical Kind to a SQL type.
	MapType func(Kind) string

	// Wrap turns the bare CREATE TABLE statement into an idempotent script.
	// It receives the quoted FQN. Nil prefixes IF NOT EXISTS.
	Wrap func(quotedFQN, createStmt string) string
}

// Generic is the plain dialect: no quoting, no IF NOT EXISTS.
var Generic = Dialect{
	Name:    "ddl",
	MapType: func(k Kind) string { return strings.ToUpper(string(k)) },
	Wrap:    func(_, stmt string) string { return stmt },
}

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef using
// the given dialect.
//
// A column is rendered as:
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// Columns with PrimaryKey == true are collected into a trailing PRIMARY KEY
// clause, followed by one FOREIGN KEY clause per t.ForeignKeys entry.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	name := d.Name
	if name == "" {
		name = "ddl"
	}
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", name)
	}

	quote := d.QuoteIdent
	if quote == nil {
		quote = func(s string) string { return s }
	}
	quoteList := func(cols []string) string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = quote(c)
		}
		return strings.Join(out, ", ")
	}

	cols := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		cname := strings.TrimSpace(c.Name)
		if cname == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && d.MapType != nil && c.Kind != KindUnknown {
			typ = d.MapType(c.Kind)
		}
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", name, cname)
		}

		var sb strings.Builder
		sb.WriteString(quote(cname))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, cname)
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(pks)))
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) || fk.RefTable == "" {
			return "", fmt.Errorf("%s: malformed foreign key on table %s", name, fqn)
		}
		cols = append(cols, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteList(fk.Columns), QuoteFQN(fk.RefTable, quote), quoteList(fk.RefColumns)))
	}

	qfqn := QuoteFQN(fqn, quote)
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", qfqn, strings.Join(cols, ",\n  "))

	if d.Wrap != nil {
		return d.Wrap(qfqn, stmt), nil
	}
	return strings.Replace(stmt, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1) + ";", nil
}

// QuoteFQN quotes each dotted segment of fqn with quote.
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// DoubleQuote quotes an identifier ANSI-style: "col", escaping embedded quotes.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
