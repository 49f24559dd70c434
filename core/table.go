package core

type ColumnType int

const (
	StringType ColumnType = iota
	IntType
	FloatType
	BoolType
	TextType
	TimestampType
	BlobType
)

func (t ColumnType) String() string {
	switch t {
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case BoolType:
		return "bool"
	case TextType:
		return "text"
	case TimestampType:
		return "timestamp"
	case BlobType:
		return "blob"
	default:
		return "string"
	}
}

type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	PrimaryKey bool       `json:"primaryKey"`
	AutoAssign bool       `json:"autoAssign,omitempty"` // engine assigns the value on insert
	NotNull    bool       `json:"notNull,omitempty"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// PrimaryKey returns the table's primary key column, if one is defined.
func (t Table) PrimaryKey() (Column, bool) {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return Column{}, false
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in definition order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
