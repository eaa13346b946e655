package domain

// Record is one fetched row: values paired positionally with column names.
type Record struct {
	Columns []string
	Values  []any
}

// NewRecord zips names with values. Both slices are retained, not copied.
func NewRecord(columns []string, values []any) Record {
	return Record{Columns: columns, Values: values}
}

// Get returns the value for the named column and whether the column exists.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the record as a column name to value map. When two columns
// share a name the later one wins.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}
