package domain

import "strconv"

// GenericType is the engine-neutral type tag derived from a column's db type.
type GenericType int

const (
	TypeUnknown GenericType = iota
	TypeInteger
	TypeString
	TypeBoolean
	TypeFloat
	TypeDecimal
	TypeDate
	TypeDatetime
	TypeTime
	TypeInterval
	TypeBlob
	TypeUUID
)

var genericTypeNames = map[GenericType]string{
	TypeUnknown:  "unknown",
	TypeInteger:  "integer",
	TypeString:   "string",
	TypeBoolean:  "boolean",
	TypeFloat:    "float",
	TypeDecimal:  "decimal",
	TypeDate:     "date",
	TypeDatetime: "datetime",
	TypeTime:     "time",
	TypeInterval: "interval",
	TypeBlob:     "blob",
	TypeUUID:     "uuid",
}

func (t GenericType) String() string {
	if s, ok := genericTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the tag by name for JSON and YAML output.
func (t GenericType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DefaultKind tags the variant held by a DefaultValue.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultInteger
	DefaultString
	DefaultCurrentTimestamp
	DefaultCurrentDate
)

// DefaultValue is a column default translated out of the engine's literal.
// Only the field matching Kind is meaningful.
type DefaultValue struct {
	Kind DefaultKind
	Int  int64
	Str  string
}

// Value returns the Go value of the default: int64, string, or the marker
// strings "CURRENT_TIMESTAMP" / "CURRENT_DATE". It returns nil for DefaultNone.
func (d DefaultValue) Value() any {
	switch d.Kind {
	case DefaultInteger:
		return d.Int
	case DefaultString:
		return d.Str
	case DefaultCurrentTimestamp:
		return "CURRENT_TIMESTAMP"
	case DefaultCurrentDate:
		return "CURRENT_DATE"
	default:
		return nil
	}
}

// MarshalText renders the default the way it would read in SQL output.
func (d DefaultValue) MarshalText() ([]byte, error) {
	switch v := d.Value().(type) {
	case int64:
		return []byte(strconv.FormatInt(v, 10)), nil
	case string:
		return []byte(v), nil
	default:
		return []byte{}, nil
	}
}

// Column is one entry of a table's schema descriptor.
type Column struct {
	// Name is the lower-cased column name used as the record key.
	Name string `json:"name" yaml:"name"`
	// DBType is the engine type string as reported by DESCRIBE.
	DBType    string      `json:"db_type" yaml:"db_type"`
	Type      GenericType `json:"type" yaml:"type"`
	AllowNull bool        `json:"allow_null" yaml:"allow_null"`
	// Default is the raw default literal; nil when the column has none.
	Default       *string      `json:"default,omitempty" yaml:"default,omitempty"`
	ParsedDefault DefaultValue `json:"parsed_default" yaml:"parsed_default"`
	PrimaryKey    bool         `json:"primary_key" yaml:"primary_key"`
	AutoIncrement bool         `json:"auto_increment" yaml:"auto_increment"`
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeyColumns returns the columns flagged as primary key, in order.
func PrimaryKeyColumns(cols []Column) []Column {
	var pks []Column
	for _, c := range cols {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}
