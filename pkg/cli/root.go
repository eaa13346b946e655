// Package cli implements the duckadapter developer command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"duck-adapter/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd, sess := newRootCmd()
	err := rootCmd.Execute()
	if cerr := sess.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var dbErr *domain.DatabaseError
			if errors.As(err, &dbErr) {
				errObj["kind"] = dbErr.Kind.String()
				if dbErr.SQL != "" {
					errObj["sql"] = dbErr.SQL
				}
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() (*cobra.Command, *session) {
	sess := &session{}
	var output string

	rootCmd := &cobra.Command{
		Use:           "duckadapter",
		Short:         "Inspect and query a DuckDB database through the adapter",
		Long:          "Command-line interface for poking at a DuckDB file with the adapter's schema introspection, row materializer and table lifecycle.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			return sess.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&sess.dbPath, "db", "", "DuckDB database file (default $DUCKDB_PATH, in-memory when unset)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&sess.envFile, "env-file", ".env", "Environment file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&sess.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL)")

	rootCmd.AddCommand(newVersionCmd(sess))
	rootCmd.AddCommand(newTablesCmd(sess))
	rootCmd.AddCommand(newDescribeCmd(sess))
	rootCmd.AddCommand(newSelectCmd(sess))
	rootCmd.AddCommand(newQueryCmd(sess))
	rootCmd.AddCommand(newExecCmd(sess))
	rootCmd.AddCommand(newCreateTableCmd(sess))
	rootCmd.AddCommand(newDropTableCmd(sess))

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd, sess
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
