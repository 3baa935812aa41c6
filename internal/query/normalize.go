package query

import (
	"fmt"
	"strings"
	"unicode"
)

// normalized is a filter expression rewritten into HCL expression syntax.
// Every column reference is replaced by a generated identifier so that names
// with spaces, dots or HCL keywords resolve the same way as plain ones.
type normalized struct {
	source  string
	columns map[string]string // generated identifier -> column name
}

var keywords = map[string]string{
	"and":   "&&",
	"or":    "||",
	"not":   "!",
	"True":  "true",
	"False": "false",
	"true":  "true",
	"false": "false",
}

// normalize rewrites the query-language conveniences users type into HCL:
// and/or/not, single & and |, ~ for negation, single-quoted strings and
// backtick-quoted column names.
func normalize(expr string) (*normalized, error) {
	n := &normalized{columns: make(map[string]string)}
	byName := make(map[string]string)
	ident := func(column string) string {
		if id, ok := byName[column]; ok {
			return id
		}
		id := fmt.Sprintf("col_%d", len(byName))
		byName[column] = id
		n.columns[id] = column
		return id
	}

	var out strings.Builder
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			end, err := writeString(&out, runes, i)
			if err != nil {
				return nil, err
			}
			i = end

		case r == '`':
			end := i + 1
			for end < len(runes) && runes[end] != '`' {
				end++
			}
			if end == len(runes) {
				return nil, fmt.Errorf("unterminated backtick at position %d", i)
			}
			name := string(runes[i+1 : end])
			if name == "" {
				return nil, fmt.Errorf("empty column name at position %d", i)
			}
			fmt.Fprintf(&out, " %s ", ident(name))
			i = end + 1

		case r == '_' || unicode.IsLetter(r):
			end := i + 1
			for end < len(runes) && (runes[end] == '_' || unicode.IsLetter(runes[end]) || unicode.IsDigit(runes[end])) {
				end++
			}
			word := string(runes[i:end])
			if kw, ok := keywords[word]; ok {
				fmt.Fprintf(&out, " %s ", kw)
			} else {
				fmt.Fprintf(&out, " %s ", ident(word))
			}
			i = end

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			end := scanNumber(runes, i)
			if r == '.' {
				out.WriteRune('0')
			}
			out.WriteString(string(runes[i:end]))
			i = end

		case r == '&' || r == '|':
			if i+1 < len(runes) && runes[i+1] == r {
				i++
			}
			out.WriteRune(r)
			out.WriteRune(r)
			i++

		case r == '~':
			out.WriteRune('!')
			i++

		default:
			out.WriteRune(r)
			i++
		}
	}

	n.source = strings.TrimSpace(out.String())
	return n, nil
}

// writeString copies a quoted literal starting at runes[start] as an HCL
// double-quoted string with template sequences escaped, and returns the index
// just past the closing quote.
func writeString(out *strings.Builder, runes []rune, start int) (int, error) {
	quote := runes[start]
	out.WriteRune('"')
	for i := start + 1; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == quote:
			out.WriteRune('"')
			return i + 1, nil
		case r == '\\' && i+1 < len(runes):
			next := runes[i+1]
			if next == '\'' {
				out.WriteRune('\'')
			} else {
				out.WriteRune('\\')
				out.WriteRune(next)
			}
			i++
		case r == '"':
			out.WriteString(`\"`)
		case (r == '$' || r == '%') && i+1 < len(runes) && runes[i+1] == '{':
			out.WriteRune(r)
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	return 0, fmt.Errorf("unterminated string starting at position %d", start)
}

// scanNumber returns the end of a decimal literal such as 12, 1.5, .5 or 2e-3
func scanNumber(runes []rune, i int) int {
	for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
		i++
	}
	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && unicode.IsDigit(runes[j]) {
			i = j
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		}
	}
	return i
}
