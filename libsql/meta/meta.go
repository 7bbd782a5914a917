// Package meta reconstructs primary key, foreign key and index metadata for a
// remote libSQL database that only offers SQL execution.
//
// The service has no structured catalog API, so the finders combine PRAGMA
// results with regular-expression parsing of the CREATE TABLE text stored in
// sqlite_schema. Everything is derived from the live schema on each call;
// nothing is cached.
package meta

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// Executor runs one statement. *client.Client implements it.
type Executor interface {
	Execute(ctx context.Context, stmt client.Statement) (*client.Result, error)
}

// PrimaryKey describes a table's primary key. Name is empty for unnamed keys.
type PrimaryKey struct {
	Table   string   `yaml:"table" json:"table"`
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Columns []string `yaml:"columns" json:"columns"` // key sequence order
}

// Rule is a foreign key update/delete action.
type Rule int

const (
	RuleNoAction Rule = iota
	RuleCascade
	RuleRestrict
	RuleSetNull
	RuleSetDefault
)

// ParseRule maps the action text reported by PRAGMA foreign_key_list.
func ParseRule(s string) (Rule, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO ACTION":
		return RuleNoAction, nil
	case "CASCADE":
		return RuleCascade, nil
	case "RESTRICT":
		return RuleRestrict, nil
	case "SET NULL":
		return RuleSetNull, nil
	case "SET DEFAULT":
		return RuleSetDefault, nil
	}
	return 0, fmt.Errorf("meta: unknown foreign key rule %q", s)
}

func (r Rule) String() string {
	switch r {
	case RuleNoAction:
		return "NO ACTION"
	case RuleCascade:
		return "CASCADE"
	case RuleRestrict:
		return "RESTRICT"
	case RuleSetNull:
		return "SET NULL"
	case RuleSetDefault:
		return "SET DEFAULT"
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// MarshalText lets rules print by name in YAML and JSON output.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ColumnPair maps one child column to the parent column it references.
// Parent is empty when the constraint references the parent's primary key
// implicitly.
type ColumnPair struct {
	Child  string `yaml:"child" json:"child"`
	Parent string `yaml:"parent" json:"parent"`
}

// ForeignKey describes one (possibly composite) foreign key constraint.
type ForeignKey struct {
	Name        string       `yaml:"name,omitempty" json:"name,omitempty"`
	ParentTable string       `yaml:"parent_table" json:"parent_table"`
	ChildTable  string       `yaml:"child_table" json:"child_table"`
	Columns     []ColumnPair `yaml:"columns" json:"columns"`
	OnUpdate    Rule         `yaml:"on_update" json:"on_update"`
	OnDelete    Rule         `yaml:"on_delete" json:"on_delete"`
	Match       string       `yaml:"match,omitempty" json:"match,omitempty"`
}

// IndexColumn is one entry of an index. Expression is set (and Name empty)
// for expression index terms.
type IndexColumn struct {
	Position   int    `yaml:"position" json:"position"` // 1-based
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	Expression bool   `yaml:"expression,omitempty" json:"expression,omitempty"`
}

// Index describes one index of a table.
type Index struct {
	Name    string        `yaml:"name" json:"name"`
	Unique  bool          `yaml:"unique" json:"unique"`
	Origin  string        `yaml:"origin,omitempty" json:"origin,omitempty"` // c, u or pk
	Partial bool          `yaml:"partial,omitempty" json:"partial,omitempty"`
	Columns []IndexColumn `yaml:"columns" json:"columns"`
}

// TableDescription bundles the keys of one table.
type TableDescription struct {
	Table       string       `yaml:"table" json:"table"`
	PrimaryKey  *PrimaryKey  `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys" json:"foreign_keys"`
}

// Describer returns the keys of a table. The regex/pragma Inspector is the
// only implementation; callers should depend on this interface.
type Describer interface {
	DescribeTable(ctx context.Context, table string) (*TableDescription, error)
}

func validateTableName(table string) error {
	if strings.TrimSpace(table) == "" {
		return client.NewValidationError(fmt.Sprintf("invalid table name: '%s'", table))
	}
	return nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// tableDDL returns the CREATE statement stored for a table, matching the name
// case-insensitively. kinds limits the sqlite_schema types considered; empty
// means any.
func tableDDL(ctx context.Context, exec Executor, table string, kinds ...string) (string, bool, error) {
	query := "SELECT sql FROM sqlite_schema WHERE lower(name) = lower(" + Quote(table) + ")"
	if len(kinds) > 0 {
		quoted := make([]string, len(kinds))
		for i, k := range kinds {
			quoted[i] = Quote(k)
		}
		query += " AND type IN (" + strings.Join(quoted, ", ") + ")"
	}

	res, err := exec.Execute(ctx, client.Query(query))
	if err != nil {
		return "", false, fmt.Errorf("meta: failed to read schema of %s: %w", table, err)
	}
	cur := res.Cursor()
	if !cur.Next() {
		return "", false, nil
	}
	ddl, err := cur.String("sql")
	if err != nil {
		return "", false, err
	}
	return ddl, true, nil
}
