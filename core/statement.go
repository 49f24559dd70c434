package core

import "strings"

// Kind classifies a statement by its leading keyword.
type Kind int

const (
	// KindQuery statements return rows and leave the database unchanged.
	KindQuery Kind = iota
	// KindMutation statements change table data (INSERT, UPDATE, DELETE).
	KindMutation
	// KindSchema statements change the schema (CREATE, ALTER, DROP).
	KindSchema
	// KindOther covers everything else the engine accepts.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindMutation:
		return "mutation"
	case KindSchema:
		return "schema"
	default:
		return "other"
	}
}

var keywordKinds = map[string]Kind{
	"SELECT":   KindQuery,
	"WITH":     KindQuery,
	"VALUES":   KindQuery,
	"SHOW":     KindQuery,
	"DESCRIBE": KindQuery,
	"EXPLAIN":  KindQuery,
	"PRAGMA":   KindQuery,
	"INSERT":   KindMutation,
	"UPDATE":   KindMutation,
	"DELETE":   KindMutation,
	"REPLACE":  KindMutation,
	"CREATE":   KindSchema,
	"ALTER":    KindSchema,
	"DROP":     KindSchema,
}

// Statement is a single SQL command plus the values bound to its
// positional placeholders.
type Statement struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`
}

func NewStatement(sql string, args ...any) Statement {
	return Statement{SQL: sql, Args: args}
}

// Kind classifies the statement by its leading keyword.
func (s Statement) Kind() Kind {
	if k, ok := keywordKinds[firstKeyword(s.SQL)]; ok {
		return k
	}
	return KindOther
}

// Mutating reports whether the statement can change database state.
func (s Statement) Mutating() bool {
	k := s.Kind()
	return k == KindMutation || k == KindSchema
}

// firstKeyword returns the first keyword of the statement, upper-cased,
// skipping leading whitespace and comments.
func firstKeyword(sql string) string {
	for {
		sql = strings.TrimLeft(sql, " \t\r\n;")
		if strings.HasPrefix(sql, "--") {
			idx := strings.IndexByte(sql, '\n')
			if idx < 0 {
				return ""
			}
			sql = sql[idx+1:]
			continue
		}
		if strings.HasPrefix(sql, "/*") {
			idx := strings.Index(sql, "*/")
			if idx < 0 {
				return ""
			}
			sql = sql[idx+2:]
			continue
		}
		break
	}
	end := 0
	for end < len(sql) {
		ch := sql[end]
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' {
			end++
			continue
		}
		break
	}
	return strings.ToUpper(sql[:end])
}
