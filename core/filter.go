package core

// Filter selects rows by exact match on a single column. A nil *Filter
// matches all rows.
type Filter struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

func Match(column string, value any) *Filter {
	return &Filter{Column: column, Value: value}
}
