package ddl

import (
	"strings"
	"testing"
)

// TestBuildCreateTableSQL verifies rendering and error reporting for the
// generic builder. Table-driven subtests keep each scenario readable.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		dialect     Dialect
		wantSQL     string
		wantErr     bool
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			dialect:     Generic,
			wantErr:     true,
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "public.t"},
			dialect:     Generic,
			wantErr:     true,
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "", SQLType: "INT"}}},
			dialect:     Generic,
			wantErr:     true,
			errContains: "column with empty name",
		},
		{
			name:        "column without type or kind returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			dialect:     Generic,
			wantErr:     true,
			errContains: "missing SQLType",
		},
		{
			name: "generic dialect renders kinds and primary key",
			def: TableDef{
				FQN: "t",
				Columns: []ColumnDef{
					{Name: "id", Kind: KindBigInt, PrimaryKey: true},
					{Name: "note", SQLType: "TEXT", Nullable: true, Default: "'x'"},
				},
			},
			dialect: Generic,
			wantSQL: "CREATE TABLE t (\n  id BIGINT NOT NULL,\n  note TEXT DEFAULT 'x',\n  PRIMARY KEY (id)\n)",
		},
		{
			name: "quoted dialect renders foreign keys and IF NOT EXISTS",
			def: TableDef{
				FQN:     "mart.orders",
				Columns: []ColumnDef{{Name: "id", Kind: KindInt, PrimaryKey: true}, {Name: "cid", Kind: KindText}},
				ForeignKeys: []ForeignKey{
					{Columns: []string{"cid"}, RefTable: "mart.customers", RefColumns: []string{"id"}},
				},
			},
			dialect: Dialect{
				Name:       "test",
				QuoteIdent: DoubleQuote,
				MapType:    func(k Kind) string { return strings.ToUpper(string(k)) },
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"mart\".\"orders\" (\n  \"id\" INT NOT NULL,\n  \"cid\" TEXT NOT NULL,\n" +
				"  PRIMARY KEY (\"id\"),\n  FOREIGN KEY (\"cid\") REFERENCES \"mart\".\"customers\" (\"id\")\n);",
		},
		{
			name: "malformed foreign key returns error",
			def: TableDef{
				FQN:         "t",
				Columns:     []ColumnDef{{Name: "id", Kind: KindInt}},
				ForeignKeys: []ForeignKey{{Columns: []string{"id"}, RefTable: "u"}},
			},
			dialect:     Generic,
			wantErr:     true,
			errContains: "malformed foreign key",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tc.def, tc.dialect)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (sql=%q)", got)
				}
				if tc.errContains != "" && !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("error %q does not contain %q", err.Error(), tc.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantSQL {
				t.Fatalf("sql mismatch:\n got: %q\nwant: %q", got, tc.wantSQL)
			}
		})
	}
}

func TestColumnNames(t *testing.T) {
	t.Parallel()

	td := TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a"}, {Name: "b"}}}
	if got := strings.Join(td.ColumnNames(), ","); got != "a,b" {
		t.Fatalf("ColumnNames = %q", got)
	}
}
