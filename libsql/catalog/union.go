package catalog

import (
	"strconv"
	"strings"

	"github.com/tomyedwab/libsqlhttp/libsql/meta"
)

// unionQuery assembles a row set out of literal SELECTs joined by UNION ALL.
// Each row holds one SQL expression per column; the first SELECT carries the
// column aliases.
type unionQuery struct {
	columns []string
	rows    [][]string
	orderBy []string
}

func newUnion(columns ...string) *unionQuery {
	return &unionQuery{columns: columns}
}

func (u *unionQuery) add(exprs ...string) {
	if len(exprs) != len(u.columns) {
		panic("catalog: union row has " + strconv.Itoa(len(exprs)) + " values, expected " + strconv.Itoa(len(u.columns)))
	}
	u.rows = append(u.rows, exprs)
}

func (u *unionQuery) order(columns ...string) *unionQuery {
	u.orderBy = columns
	return u
}

// compoundTerms bounds the SELECTs joined in one compound statement. SQLite
// rejects compounds of more than 500 terms.
const compoundTerms = 400

// SQL renders the statement. Without rows it selects NULL for every column
// and adds LIMIT 0, so the result still has the full column shape. Larger row
// sets are split into groups of compoundTerms rows, each wrapped as
// SELECT * FROM (...), and the groups are joined by UNION ALL.
func (u *unionQuery) SQL() string {
	var b strings.Builder
	if len(u.rows) == 0 {
		b.WriteString("SELECT ")
		for i, col := range u.columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("NULL AS ")
			b.WriteString(col)
		}
		b.WriteString(" LIMIT 0")
		return b.String()
	}

	if len(u.rows) <= compoundTerms {
		u.writeGroup(&b, u.rows, true)
	} else {
		for start := 0; start < len(u.rows); start += compoundTerms {
			end := min(start+compoundTerms, len(u.rows))
			if start > 0 {
				b.WriteString(" UNION ALL ")
			}
			b.WriteString("SELECT * FROM (")
			u.writeGroup(&b, u.rows[start:end], start == 0)
			b.WriteString(")")
		}
	}

	if len(u.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(u.orderBy, ", "))
	}
	return b.String()
}

// writeGroup writes rows as one compound SELECT. aliases puts the column
// names on its first term.
func (u *unionQuery) writeGroup(b *strings.Builder, rows [][]string, aliases bool) {
	for r, row := range rows {
		if r > 0 {
			b.WriteString(" UNION ALL ")
		}
		b.WriteString("SELECT ")
		for i, expr := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(expr)
			if aliases && r == 0 {
				b.WriteString(" AS ")
				b.WriteString(u.columns[i])
			}
		}
	}
}

// lit renders s as an escaped SQL string literal.
func lit(s string) string {
	return meta.Quote(s)
}

// litOrNull renders s as a literal, or NULL when s is empty.
func litOrNull(s string) string {
	if s == "" {
		return "NULL"
	}
	return lit(s)
}

func num(n int) string {
	return strconv.Itoa(n)
}
