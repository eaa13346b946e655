package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// PrintTable writes rows under upper-cased column headers, separated by two
// spaces. Nothing is written when columns is empty.
func PrintTable(w io.Writer, columns []string, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintYAML writes v as YAML.
func PrintYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintDetail writes "key: value" lines in key order.
func PrintDetail(w io.Writer, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s: %s\n", k, formatValue(fields[k]))
	}
}

// render writes v as json or yaml, or calls table for table output.
func render(w io.Writer, format string, v interface{}, table func()) error {
	switch format {
	case "json":
		return PrintJSON(w, v)
	case "yaml":
		return PrintYAML(w, v)
	default:
		table()
		return nil
	}
}

// resultSet is the structured form of a query result. Rows stay positional
// so column order survives encoding.
type resultSet struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

func printResult(w io.Writer, format string, rs resultSet) error {
	return render(w, format, rs, func() {
		cells := make([][]string, len(rs.Rows))
		for i, row := range rs.Rows {
			cells[i] = make([]string, len(row))
			for j, v := range row {
				cells[i][j] = formatValue(v)
			}
		}
		PrintTable(w, rs.Columns, cells)
	})
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return fmt.Sprintf("\\x%x", x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case *string:
		if x == nil {
			return "NULL"
		}
		return *x
	default:
		return fmt.Sprint(x)
	}
}
