package core

import "strings"

// Script is an ordered list of statements, executed strictly in the
// order they were added.
type Script struct {
	Statements []Statement `json:"statements"`
}

func NewScript(statements ...Statement) *Script {
	return &Script{Statements: statements}
}

// Add appends a statement with its placeholder values.
func (s *Script) Add(sql string, args ...any) {
	s.Statements = append(s.Statements, NewStatement(sql, args...))
}

func (s *Script) Len() int {
	return len(s.Statements)
}

// Parse splits raw SQL text into a script, one statement per entry.
// Text form carries no placeholder values.
func Parse(text string) *Script {
	script := &Script{}
	for _, stmt := range Split(text) {
		script.Add(stmt)
	}
	return script
}

// Split breaks SQL text into individual statements. Semicolons inside
// string literals do not split, doubled quotes escape themselves, and
// -- comments run to end of line.
func Split(text string) []string {
	var statements []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if quote != 0 {
			current.WriteByte(ch)
			if ch == quote {
				if i+1 < len(text) && text[i+1] == quote {
					current.WriteByte(text[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"':
			quote = ch
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(text) && text[i+1] == '-':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()

	return statements
}
