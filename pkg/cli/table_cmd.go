package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"duck-adapter/internal/adapter"
	"duck-adapter/internal/ddl"
)

// loadTableDef reads a YAML table definition.
func loadTableDef(path string) (ddl.TableDef, error) {
	var def ddl.TableDef
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return def, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parse %s: %w", path, err)
	}
	if def.Name == "" {
		return def, fmt.Errorf("%s: table name is required", path)
	}
	return def, nil
}

func newCreateTableCmd(sess *session) *cobra.Command {
	var (
		file        string
		ifNotExists bool
		force       bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "create-table -f <table.yaml>",
		Short: "Create a table from a YAML definition",
		Long: `Creates a table described in YAML. A single auto-increment integer primary
key gets a seq_<table>_<column> sequence and a nextval default.`,
		Example: `  # items.yaml
  name: items
  columns:
    - {name: id, type: INTEGER, primary_key: true, auto_increment: true}
    - {name: name, type: VARCHAR, not_null: true}

  duckadapter create-table -f items.yaml
  duckadapter create-table -f items.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ifNotExists && force {
				return errors.New("--if-not-exists and --force are mutually exclusive")
			}
			def, err := loadTableDef(file)
			if err != nil {
				return err
			}
			if ifNotExists {
				def.IfNotExists = true
			}

			if dryRun {
				stmts, err := adapter.CreateTableSQL(def)
				if err != nil {
					return err
				}
				return render(os.Stdout, getOutputFormat(cmd), stmts, func() {
					for _, s := range stmts {
						_, _ = fmt.Fprintln(os.Stdout, s+";")
					}
				})
			}

			db, err := sess.database()
			if err != nil {
				return err
			}
			if force {
				err = db.CreateTableBang(cmd.Context(), def)
			} else {
				err = db.CreateTable(cmd.Context(), def)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stderr, "created %s\n", def.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML table definition")
	cmd.Flags().BoolVar(&ifNotExists, "if-not-exists", false, "Do nothing when the table exists")
	cmd.Flags().BoolVar(&force, "force", false, "Drop the table first if it exists")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements without running them")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newDropTableCmd(sess *session) *cobra.Command {
	var ifExists bool

	cmd := &cobra.Command{
		Use:   "drop-table <table>",
		Short: "Drop a table and its key sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sess.database()
			if err != nil {
				return err
			}
			if ifExists {
				err = db.DropTableIfExists(cmd.Context(), args[0])
			} else {
				err = db.DropTable(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stderr, "dropped %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&ifExists, "if-exists", false, "Do nothing when the table is absent")

	return cmd
}
