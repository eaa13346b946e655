package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-adapter/internal/domain"
)

type noLockDialect struct{ StandardDialect }

func (noLockDialect) SelectLockSQL(Lock) string { return "" }

func TestSelectSQL(t *testing.T) {
	tests := []struct {
		name     string
		ds       *Dataset
		dialect  Dialect
		want     string
		wantArgs []any
		wantErr  string
	}{
		{
			name: "star",
			ds:   From("items"),
			want: `SELECT * FROM "items"`,
		},
		{
			name: "alias_and_qualified",
			ds:   From("items").Select(As(Ident("number"), "b"), Qualify("items", "name")),
			want: `SELECT "number" AS "b", "items"."name" FROM "items"`,
		},
		{
			name:     "where_order_limit",
			ds:       From("items").Where(Gt("number", 1)).Where(Eq("name", "x")).Order(Desc(Ident("number"))).Limit(2).Offset(1),
			want:     `SELECT * FROM "items" WHERE (("number" > ?) AND ("name" = ?)) ORDER BY "number" DESC LIMIT 2 OFFSET 1`,
			wantArgs: []any{1, "x"},
		},
		{
			name: "is_null",
			ds:   From("items").Where(Eq("name", nil)),
			want: `SELECT * FROM "items" WHERE ("name" IS NULL)`,
		},
		{
			name: "join",
			ds:   From("a").Join("b", Raw(`"a"."id" = "b"."a_id"`)),
			want: `SELECT * FROM "a" INNER JOIN "b" ON "a"."id" = "b"."a_id"`,
		},
		{
			name:     "raw_with_args",
			ds:       From("items").Select(Raw("number * ?", 2)),
			want:     `SELECT number * ? FROM "items"`,
			wantArgs: []any{2},
		},
		{
			name: "for_update",
			ds:   From("items").ForUpdate(),
			want: `SELECT * FROM "items" FOR UPDATE`,
		},
		{
			name:    "for_update_dropped",
			ds:      From("items").ForUpdate(),
			dialect: noLockDialect{},
			want:    `SELECT * FROM "items"`,
		},
		{
			name: "schema_qualified",
			ds:   From("main.items"),
			want: `SELECT * FROM "main"."items"`,
		},
		{
			name:    "no_source",
			ds:      From(),
			wantErr: "no source table",
		},
		{
			name:    "raw_arg_mismatch",
			ds:      From("items").Select(Raw("? + ?", 1)),
			wantErr: "2 placeholders but 1 args",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			if d == nil {
				d = StandardDialect{}
			}
			got, args, err := tt.ds.SelectSQL(d)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestDatasetIsImmutable(t *testing.T) {
	base := From("items")
	filtered := base.Where(Eq("id", 1)).Select(Ident("id")).ForUpdate()

	got, _, err := base.SelectSQL(StandardDialect{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "items"`, got)
	assert.Equal(t, LockNone, base.Lock())
	assert.Equal(t, LockForUpdate, filtered.Lock())
	assert.True(t, base.SelectsAll())
	assert.False(t, filtered.SelectsAll())
}

func TestSources(t *testing.T) {
	ds := From("a", "b").Join("c", nil)
	assert.Equal(t, []string{"a", "b", "c"}, ds.Sources())
	assert.Equal(t, "a", ds.FirstSource())
	assert.Equal(t, "", From().FirstSource())
	assert.True(t, From("a").Select(AllColumns()).SelectsAll())
	assert.False(t, From("a").Select(Star{Table: "a"}).SelectsAll())
}

func TestWriteSQL(t *testing.T) {
	d := StandardDialect{}

	got, args, err := From("items").InsertSQL(d, Values{"name": "a", "number": 3}, "id")
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "items" ("name", "number") VALUES (?, ?) RETURNING "id"`, got)
	assert.Equal(t, []any{"a", 3}, args)

	got, args, err = From("items").InsertSQL(d, nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "items" DEFAULT VALUES`, got)
	assert.Empty(t, args)

	got, args, err = From("items").Where(Eq("id", 1)).UpdateSQL(d, Values{"name": "b"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "items" SET "name" = ? WHERE ("id" = ?)`, got)
	assert.Equal(t, []any{"b", 1}, args)

	got, args, err = From("items").Where(Lt("id", 5)).DeleteSQL(d)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "items" WHERE ("id" < ?)`, got)
	assert.Equal(t, []any{5}, args)

	_, _, err = From("a", "b").DeleteSQL(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one source table")

	_, _, err = From("items").UpdateSQL(d, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no values")
}

func TestResultColumnName(t *testing.T) {
	tests := []struct {
		name   string
		expr   Expression
		want   string
		wantOK bool
	}{
		{name: "alias", expr: As(Raw("1 + 1"), "two"), want: "two", wantOK: true},
		{name: "identifier", expr: Ident("number"), want: "number", wantOK: true},
		{name: "qualified", expr: Ident("items.number"), want: "number", wantOK: true},
		{name: "raw", expr: Raw("count(*)")},
		{name: "literal", expr: Lit(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResultColumnName(tt.expr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenericTypeOf(t *testing.T) {
	tests := []struct {
		dbType string
		want   domain.GenericType
	}{
		{"INTEGER", domain.TypeInteger},
		{"BIGINT", domain.TypeInteger},
		{"HUGEINT", domain.TypeInteger},
		{"UTINYINT", domain.TypeInteger},
		{"UINTEGER", domain.TypeInteger},
		{"int", domain.TypeInteger},
		{"DECIMAL(10,0)", domain.TypeInteger},
		{"DECIMAL(18,3)", domain.TypeDecimal},
		{"NUMERIC", domain.TypeDecimal},
		{"VARCHAR", domain.TypeString},
		{"VARCHAR(255)", domain.TypeString},
		{"TEXT", domain.TypeString},
		{"DATE", domain.TypeDate},
		{"TIMESTAMP", domain.TypeDatetime},
		{"TIMESTAMP_NS", domain.TypeDatetime},
		{"TIMESTAMP WITH TIME ZONE", domain.TypeDatetime},
		{"TIME", domain.TypeTime},
		{"BOOLEAN", domain.TypeBoolean},
		{"DOUBLE", domain.TypeFloat},
		{"FLOAT", domain.TypeFloat},
		{"INTERVAL", domain.TypeInterval},
		{"BLOB", domain.TypeBlob},
		{"UUID", domain.TypeUUID},
		{"INTEGER[]", domain.TypeUnknown},
		{"STRUCT(a INTEGER)", domain.TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			assert.Equal(t, tt.want, GenericTypeOf(tt.dbType))
		})
	}
}

func TestSchemaCache(t *testing.T) {
	ctx := context.Background()
	var loads atomic.Int32
	load := func(_ context.Context, table string) ([]domain.Column, error) {
		loads.Add(1)
		return []domain.Column{{Name: "id"}}, nil
	}

	c := NewSchemaCache(8, time.Minute)
	cols, err := c.Get(ctx, "items", load)
	require.NoError(t, err)
	assert.Equal(t, []domain.Column{{Name: "id"}}, cols)

	_, err = c.Get(ctx, "ITEMS", load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load(), "second lookup served from cache")

	cols[0].Name = "mutated"
	cols, err = c.Get(ctx, "items", load)
	require.NoError(t, err)
	assert.Equal(t, "id", cols[0].Name)

	c.Purge()
	_, err = c.Get(ctx, "items", load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestSchemaCacheErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	calls := 0
	boom := errors.New("boom")
	load := func(context.Context, string) ([]domain.Column, error) {
		calls++
		return nil, boom
	}

	c := NewSchemaCache(8, 0)
	_, err := c.Get(ctx, "items", load)
	require.ErrorIs(t, err, boom)
	_, err = c.Get(ctx, "items", load)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestSchemaCacheDisabled(t *testing.T) {
	ctx := context.Background()
	calls := 0
	load := func(context.Context, string) ([]domain.Column, error) {
		calls++
		return nil, nil
	}
	c := NewSchemaCache(0, 0)
	for range 3 {
		_, err := c.Get(ctx, "items", load)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	c.Purge()
}

func TestSchemaCacheCollapsesConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context, string) ([]domain.Column, error) {
		loads.Add(1)
		<-release
		return []domain.Column{{Name: "id"}}, nil
	}

	c := NewSchemaCache(8, 0)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cols, err := c.Get(ctx, "items", load)
			assert.NoError(t, err)
			assert.Len(t, cols, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	before := loads.Load()
	assert.LessOrEqual(t, before, int32(8))
	_, err := c.Get(ctx, "items", load)
	require.NoError(t, err)
	assert.Equal(t, before, loads.Load(), "loaded entry is cached")
}

func TestSchemaCachePurgeSeparatesInFlightLoads(t *testing.T) {
	ctx := context.Background()
	var loads atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(context.Context, string) ([]domain.Column, error) {
		if loads.Add(1) == 1 {
			close(started)
			<-release
			return []domain.Column{{Name: "old"}}, nil
		}
		return []domain.Column{{Name: "new"}}, nil
	}

	c := NewSchemaCache(8, 0)
	stale := make(chan []domain.Column, 1)
	go func() {
		cols, err := c.Get(ctx, "items", load)
		assert.NoError(t, err)
		stale <- cols
	}()
	<-started

	c.Purge()
	cols, err := c.Get(ctx, "items", load)
	require.NoError(t, err)
	assert.Equal(t, "new", cols[0].Name, "lookup after purge does not join the older load")

	close(release)
	assert.Equal(t, "old", (<-stale)[0].Name)

	cols, err = c.Get(ctx, "items", load)
	require.NoError(t, err)
	assert.Equal(t, "new", cols[0].Name)
	assert.Equal(t, int32(2), loads.Load())
}
