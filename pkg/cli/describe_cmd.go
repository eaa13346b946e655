package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"duck-adapter/internal/domain"
)

func newDescribeCmd(sess *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show a table's schema descriptor",
		Long: `Shows what the adapter derives from DESCRIBE: engine type, generic type,
nullability, primary key, the raw default and its parsed value.`,
		Example: `  # Columns of a table
  duckadapter describe items

  # Schema-qualified, as YAML
  duckadapter describe main.items --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sess.database()
			if err != nil {
				return err
			}
			cols, err := db.SchemaParseTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(os.Stdout, getOutputFormat(cmd), cols, func() {
				PrintTable(os.Stdout, []string{"name", "db_type", "type", "null", "pk", "default"}, describeRows(cols))
			})
		},
	}
	return cmd
}

func describeRows(cols []domain.Column) [][]string {
	rows := make([][]string, len(cols))
	for i, c := range cols {
		def := ""
		if c.Default != nil {
			def = *c.Default
		}
		rows[i] = []string{
			c.Name,
			c.DBType,
			c.Type.String(),
			strconv.FormatBool(c.AllowNull),
			strconv.FormatBool(c.PrimaryKey),
			def,
		}
	}
	return rows
}
