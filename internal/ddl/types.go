package ddl

// Kind is the logical column type. Backends map it to a concrete SQL type.
type Kind string

const (
	KindText    Kind = "text"
	KindBigInt  Kind = "bigint"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindBool    Kind = "bool"
	KindDate    Kind = "date"
	KindUnknown Kind = ""
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical type, mapped by the dialect
//   - SQLType: explicit SQL type; when set it wins over Kind
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	Kind       Kind
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// ForeignKey references columns of another table in the same schema.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table") and will
// be quoted by renderers as needed.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// WithPrefix returns a copy of t whose FQN and foreign key targets carry the
// given schema prefix (e.g. "mart" turns "orders" into "mart.orders").
func (t TableDef) WithPrefix(prefix string) TableDef {
	if prefix == "" {
		return t
	}
	out := t
	out.FQN = prefix + "." + t.FQN
	out.ForeignKeys = make([]ForeignKey, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		fk.RefTable = prefix + "." + fk.RefTable
		out.ForeignKeys[i] = fk
	}
	return out
}
