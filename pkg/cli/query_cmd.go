package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"duck-adapter/internal/adapter"
	"duck-adapter/internal/dataset"
)

// collect drains rs into a resultSet and closes it.
func collect(rs *adapter.Records) (resultSet, error) {
	out := resultSet{Columns: rs.Columns(), Rows: [][]any{}}
	for rs.Next() {
		out.Rows = append(out.Rows, append([]any(nil), rs.Record().Values...))
	}
	if err := rs.Err(); err != nil {
		_ = rs.Close()
		return resultSet{}, err
	}
	return out, rs.Close()
}

func toArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func newQueryCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Run a SQL query and print its rows",
		Example: `  duckadapter query "SELECT * FROM items WHERE qty > ?" 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sess.database()
			if err != nil {
				return err
			}
			rs, err := db.Query(cmd.Context(), args[0], toArgs(args[1:])...)
			if err != nil {
				return err
			}
			result, err := collect(rs)
			if err != nil {
				return err
			}
			return printResult(os.Stdout, getOutputFormat(cmd), result)
		},
	}
}

func newExecCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql> [args...]",
		Short: "Run a SQL statement and print the rows affected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sess.database()
			if err != nil {
				return err
			}
			n, err := db.Exec(cmd.Context(), args[0], toArgs(args[1:])...)
			if err != nil {
				return err
			}
			return render(os.Stdout, getOutputFormat(cmd), map[string]int64{"rows_affected": n}, func() {
				_, _ = fmt.Fprintf(os.Stdout, "%d rows affected\n", n)
			})
		},
	}
}

func newSelectCmd(sess *session) *cobra.Command {
	var (
		columns   []string
		where     []string
		order     []string
		limit     int
		offset    int
		forUpdate bool
	)

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Fetch named rows from one table",
		Long: `Builds a dataset over one table and fetches it through the row materializer.
Without --columns every column is returned in schema order.`,
		Example: `  duckadapter select items
  duckadapter select items --columns id,name --where name=apple --order -id --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := buildSelect(args[0], columns, where, order)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				ds = ds.Limit(limit)
			}
			if cmd.Flags().Changed("offset") {
				ds = ds.Offset(offset)
			}
			if forUpdate {
				ds = ds.ForUpdate()
			}

			db, err := sess.database()
			if err != nil {
				return err
			}
			rs, err := db.FetchRows(cmd.Context(), ds)
			if err != nil {
				return err
			}
			result, err := collect(rs)
			if err != nil {
				return err
			}
			return printResult(os.Stdout, getOutputFormat(cmd), result)
		},
	}

	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Columns to select; name:alias renames")
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Equality filter column=value (repeatable)")
	cmd.Flags().StringSliceVar(&order, "order", nil, "Order columns; prefix with - for descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&forUpdate, "for-update", false, "Request a row lock (DuckDB ignores it)")

	return cmd
}

func buildSelect(table string, columns, where, order []string) (*dataset.Dataset, error) {
	ds := dataset.From(table)

	var selects []dataset.Expression
	for _, c := range columns {
		name, alias, ok := strings.Cut(c, ":")
		var e dataset.Expression = dataset.Ident(name)
		if name == "*" {
			e = dataset.AllColumns()
		}
		if ok {
			e = dataset.As(e, alias)
		}
		selects = append(selects, e)
	}
	if len(selects) > 0 {
		ds = ds.Select(selects...)
	}

	for _, w := range where {
		col, val, ok := strings.Cut(w, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --where %q: expected column=value", w)
		}
		ds = ds.Where(dataset.Eq(col, val))
	}

	var terms []dataset.Expression
	for _, o := range order {
		if name, desc := strings.CutPrefix(o, "-"); desc {
			terms = append(terms, dataset.Desc(dataset.Ident(name)))
		} else {
			terms = append(terms, dataset.Asc(dataset.Ident(o)))
		}
	}
	if len(terms) > 0 {
		ds = ds.Order(terms...)
	}
	return ds, nil
}
