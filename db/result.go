package db

import (
	"fmt"
	"os"
	"strings"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

type Result interface {
	Type() ResultType
	Display()
}

// QueryResult holds a fully scanned result set. Values are rendered as
// display strings; NULL is the empty string.
type QueryResult struct {
	Columns          []string
	Data             [][]string
	RecordsRead      int
	ExecutionTimeSec float64
}

// CommitResult reports the outcome of a non-query statement. Committed
// is false while the change is still waiting in an open transaction.
type CommitResult struct {
	RowsAffected     int64
	LastInsertID     int64
	Committed        bool
	ExecutionTimeSec float64
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	switch {
	case secs < 0.001:
		return "<1ms"
	case secs < 0.01:
		return fmt.Sprintf("%.1fms", secs*1000)
	case secs < 1:
		return fmt.Sprintf("%dms", int(secs*1000))
	case secs < 10:
		return fmt.Sprintf("%.1fs", secs)
	case secs < 60:
		return fmt.Sprintf("%ds", int(secs))
	default:
		mins := int(secs) / 60
		rem := int(secs) % 60
		if rem == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, rem)
	}
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommitResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display() {
	if len(result.Data) > 0 {
		table := NewTable(os.Stdout)
		table.Header(result.Columns)
		table.Bulk(result.Data)
		table.Render()
	}

	fmt.Printf("%d rows (%s)\n", result.RecordsRead, result.ExecutionTime())
}

func (result CommitResult) Display() {
	var parts []string

	if result.RowsAffected > 0 {
		parts = append(parts, fmt.Sprintf("%d row(s) affected", result.RowsAffected))
	}
	if !result.Committed {
		parts = append(parts, "not committed")
	}

	if len(parts) == 0 {
		fmt.Printf("OK (%s)\n", result.ExecutionTime())
		return
	}
	fmt.Printf("%s (%s)\n", strings.Join(parts, ", "), result.ExecutionTime())
}
