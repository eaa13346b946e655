package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newVersionCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and DuckDB versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sess.database()
			if err != nil {
				return err
			}
			engineVersion, err := db.Version(cmd.Context())
			if err != nil {
				return err
			}
			v := map[string]interface{}{
				"version": version,
				"commit":  commit,
				"duckdb":  engineVersion,
			}
			return render(os.Stdout, getOutputFormat(cmd), v, func() {
				PrintDetail(os.Stdout, v)
			})
		},
	}
}
