package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newTablesCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sess.database()
			if err != nil {
				return err
			}
			tables, err := db.Tables(cmd.Context())
			if err != nil {
				return err
			}
			if tables == nil {
				tables = []string{}
			}
			return render(os.Stdout, getOutputFormat(cmd), tables, func() {
				rows := make([][]string, len(tables))
				for i, t := range tables {
					rows[i] = []string{t}
				}
				PrintTable(os.Stdout, []string{"table"}, rows)
			})
		},
	}
}
