package meta

import (
	"regexp"
	"strings"
)

// Escape doubles every apostrophe in s so it can be placed between single
// quotes in generated SQL. It is not idempotent: escape each value exactly
// once per interpolation.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Quote escapes s and wraps it in single quotes.
func Quote(s string) string {
	return "'" + Escape(s) + "'"
}

// Unquote strips one pair of identifier quotes (backticks, double quotes or
// brackets) and surrounding whitespace. Doubled quote characters inside a
// quoted name collapse to one.
func Unquote(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 2 {
		first, last := name[0], name[len(name)-1]
		switch {
		case first == '`' && last == '`':
			return strings.ReplaceAll(name[1:len(name)-1], "``", "`")
		case first == '"' && last == '"':
			return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
		case first == '[' && last == ']':
			return name[1 : len(name)-1]
		}
	}
	return name
}

// identifier matches one possibly quoted SQL name.
const identifier = "(\"(?:[^\"]|\"\")+\"|`(?:[^`]|``)+`|\\[[^\\]]+\\]|[^\\s(,]+)"

var (
	// CONSTRAINT <name> PRIMARY KEY (<columns>)
	pkNamedPattern = regexp.MustCompile(`(?is)CONSTRAINT\s+` + identifier + `\s+PRIMARY\s+KEY\s*\(([^)]*)\)`)
	// PRIMARY KEY (<columns>)
	pkUnnamedPattern = regexp.MustCompile(`(?is)PRIMARY\s+KEY\s*\(([^)]*)\)`)
	// CONSTRAINT <name>? FOREIGN KEY (<columns>)
	fkNamedPattern = regexp.MustCompile(`(?is)CONSTRAINT\s+(?:` + identifier + `\s+)?FOREIGN\s+KEY\s*\((.*?)\)`)
	// trailing ordering or collation inside a key column list
	keyColumnSuffix = regexp.MustCompile(`(?is)\s+(COLLATE\s+\S+.*|ASC|DESC)$`)
)

// splitKeyColumns splits a key column list and normalises each entry.
func splitKeyColumns(list string) []string {
	parts := strings.Split(list, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		col := strings.TrimSpace(part)
		col = keyColumnSuffix.ReplaceAllString(col, "")
		col = Unquote(col)
		if col != "" {
			columns = append(columns, col)
		}
	}
	return columns
}

func isSystemTable(name string) bool {
	return strings.EqualFold(name, "sqlite_schema") || strings.EqualFold(name, "sqlite_master")
}
