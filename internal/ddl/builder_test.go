package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable(t *testing.T) {
	tests := []struct {
		name    string
		def     TableDef
		want    string
		wantErr string
	}{
		{
			name: "inline_primary_key",
			def: TableDef{
				Name: "items",
				Columns: []ColumnDef{
					{Name: "id", Type: "INTEGER", PrimaryKey: true},
					{Name: "name", Type: "VARCHAR"},
				},
			},
			want: `CREATE TABLE "items" ("id" INTEGER PRIMARY KEY, "name" VARCHAR)`,
		},
		{
			name: "if_not_exists",
			def: TableDef{
				Name:        "items",
				IfNotExists: true,
				Columns:     []ColumnDef{{Name: "number", Type: "INTEGER"}},
			},
			want: `CREATE TABLE IF NOT EXISTS "items" ("number" INTEGER)`,
		},
		{
			name: "default_and_constraints",
			def: TableDef{
				Name: "items",
				Columns: []ColumnDef{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, Default: "nextval('seq_items_id')"},
					{Name: "name", Type: "VARCHAR", NotNull: true, Unique: true},
					{Name: "qty", Type: "INTEGER", Default: "0", Check: "qty >= 0"},
					{Name: "owner_id", Type: "INTEGER", References: &Reference{Table: "owners", Column: "id"}},
				},
			},
			want: `CREATE TABLE "items" (` +
				`"id" INTEGER DEFAULT nextval('seq_items_id') PRIMARY KEY, ` +
				`"name" VARCHAR NOT NULL UNIQUE, ` +
				`"qty" INTEGER DEFAULT 0 CHECK (qty >= 0), ` +
				`"owner_id" INTEGER REFERENCES "owners" ("id"))`,
		},
		{
			name: "flagged_columns_become_composite",
			def: TableDef{
				Name: "pairs",
				Columns: []ColumnDef{
					{Name: "a", Type: "INTEGER", PrimaryKey: true},
					{Name: "b", Type: "INTEGER", PrimaryKey: true},
				},
			},
			want: `CREATE TABLE "pairs" ("a" INTEGER, "b" INTEGER, PRIMARY KEY ("a", "b"))`,
		},
		{
			name: "table_level_primary_key",
			def: TableDef{
				Name:       "pairs",
				PrimaryKey: []string{"a", "b"},
				Columns: []ColumnDef{
					{Name: "a", Type: "INTEGER"},
					{Name: "b", Type: "INTEGER"},
				},
			},
			want: `CREATE TABLE "pairs" ("a" INTEGER, "b" INTEGER, PRIMARY KEY ("a", "b"))`,
		},
		{
			name: "schema_qualified",
			def: TableDef{
				Name:    "main.items",
				Columns: []ColumnDef{{Name: "id", Type: "BIGINT"}},
			},
			want: `CREATE TABLE "main"."items" ("id" BIGINT)`,
		},
		{
			name:    "no_columns",
			def:     TableDef{Name: "items"},
			wantErr: "at least one column is required",
		},
		{
			name:    "invalid_table",
			def:     TableDef{Name: "bad-name", Columns: []ColumnDef{{Name: "id", Type: "INTEGER"}}},
			wantErr: "invalid table name",
		},
		{
			name:    "invalid_column_type",
			def:     TableDef{Name: "items", Columns: []ColumnDef{{Name: "id", Type: "INTEGER; DROP"}}},
			wantErr: "invalid column type",
		},
		{
			name: "duplicate_column",
			def: TableDef{Name: "items", Columns: []ColumnDef{
				{Name: "id", Type: "INTEGER"},
				{Name: "id", Type: "INTEGER"},
			}},
			wantErr: "duplicate column",
		},
		{
			name: "unknown_primary_key_column",
			def: TableDef{
				Name:       "items",
				PrimaryKey: []string{"missing"},
				Columns:    []ColumnDef{{Name: "id", Type: "INTEGER"}},
			},
			wantErr: "is not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTable(tt.def)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDropTable(t *testing.T) {
	got, err := DropTable("items", false)
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE "items"`, got)

	got, err = DropTable("items", true)
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE IF EXISTS "items"`, got)

	_, err = DropTable("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestSequenceStatements(t *testing.T) {
	got, err := CreateSequence("seq_items_id", false)
	require.NoError(t, err)
	assert.Equal(t, `CREATE SEQUENCE "seq_items_id"`, got)

	got, err = CreateSequence("seq_items_id", true)
	require.NoError(t, err)
	assert.Equal(t, `CREATE SEQUENCE IF NOT EXISTS "seq_items_id"`, got)

	got, err = DropSequence("seq_items_id", true)
	require.NoError(t, err)
	assert.Equal(t, `DROP SEQUENCE IF EXISTS "seq_items_id"`, got)

	got, err = DropSequence("seq_items_id", false)
	require.NoError(t, err)
	assert.Equal(t, `DROP SEQUENCE "seq_items_id"`, got)

	got, err = CreateSequence("s.seq_items_id", false)
	require.NoError(t, err)
	assert.Equal(t, `CREATE SEQUENCE "s"."seq_items_id"`, got)

	got, err = DropSequence("s.seq_items_id", true)
	require.NoError(t, err)
	assert.Equal(t, `DROP SEQUENCE IF EXISTS "s"."seq_items_id"`, got)

	_, err = CreateSequence("seq;drop", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sequence name")

	assert.Equal(t, `nextval('seq_items_id')`, NextVal("seq_items_id"))
	assert.Equal(t, `nextval('s.seq_items_id')`, NextVal("s.seq_items_id"))
}

func TestDescribe(t *testing.T) {
	got, err := Describe("items")
	require.NoError(t, err)
	assert.Equal(t, `DESCRIBE "items"`, got)

	_, err = Describe("a.b.c")
	require.Error(t, err)
}

func TestJoinStatements(t *testing.T) {
	assert.Equal(t, `CREATE SEQUENCE "s"; CREATE TABLE "t" ("id" INTEGER)`,
		JoinStatements([]string{`CREATE SEQUENCE "s"`, `CREATE TABLE "t" ("id" INTEGER)`}))
	assert.Equal(t, "", JoinStatements(nil))
}

func TestPrimaryKeyColumns(t *testing.T) {
	def := TableDef{Columns: []ColumnDef{{Name: "id", PrimaryKey: true}, {Name: "x"}}}
	assert.Equal(t, []string{"id"}, def.PrimaryKeyColumns())

	def.PrimaryKey = []string{"x", "id"}
	assert.Equal(t, []string{"x", "id"}, def.PrimaryKeyColumns())
}
