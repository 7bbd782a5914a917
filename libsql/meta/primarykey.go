package meta

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// PrimaryKeyFinder reads a table's primary key from its DDL, falling back to
// PRAGMA table_info for keys the DDL patterns cannot see (for example
// "id INTEGER PRIMARY KEY").
type PrimaryKeyFinder struct {
	exec   Executor
	logger *slog.Logger
}

// NewPrimaryKeyFinder creates a finder. A nil logger uses slog.Default.
func NewPrimaryKeyFinder(exec Executor, logger *slog.Logger) *PrimaryKeyFinder {
	return &PrimaryKeyFinder{exec: exec, logger: loggerOrDefault(logger)}
}

// Find returns the primary key of table, or nil when it has none.
func (f *PrimaryKeyFinder) Find(ctx context.Context, table string) (*PrimaryKey, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	if isSystemTable(table) {
		return nil, nil
	}

	ddl, found, err := tableDDL(ctx, f.exec, table, "table", "view")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, client.NewNotFoundError(fmt.Sprintf("table not found: '%s'", table))
	}

	if pk := parsePrimaryKey(table, ddl); pk != nil {
		return pk, nil
	}

	columns, err := f.pragmaKeyColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil
	}
	f.logger.Debug("primary key taken from table_info", "table", table, "columns", columns)
	return &PrimaryKey{Table: table, Columns: columns}, nil
}

// parsePrimaryKey applies the named pattern, then the unnamed one.
func parsePrimaryKey(table, ddl string) *PrimaryKey {
	if m := pkNamedPattern.FindStringSubmatch(ddl); m != nil {
		return &PrimaryKey{
			Table:   table,
			Name:    Unquote(m[1]),
			Columns: splitKeyColumns(m[2]),
		}
	}
	if m := pkUnnamedPattern.FindStringSubmatch(ddl); m != nil {
		return &PrimaryKey{
			Table:   table,
			Columns: splitKeyColumns(m[1]),
		}
	}
	return nil
}

// pragmaKeyColumns returns the columns flagged by table_info, in key order.
func (f *PrimaryKeyFinder) pragmaKeyColumns(ctx context.Context, table string) ([]string, error) {
	res, err := f.exec.Execute(ctx, client.Query("PRAGMA table_info("+Quote(table)+")"))
	if err != nil {
		return nil, fmt.Errorf("meta: table_info for %s failed: %w", table, err)
	}

	type keyColumn struct {
		seq  int64
		name string
	}
	var keys []keyColumn
	cur := res.Cursor()
	for cur.Next() {
		seq, err := cur.Int64("pk")
		if err != nil {
			return nil, err
		}
		if seq <= 0 {
			continue
		}
		name, err := cur.String("name")
		if err != nil {
			return nil, err
		}
		keys = append(keys, keyColumn{seq: seq, name: Unquote(name)})
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].seq < keys[j].seq })
	columns := make([]string, len(keys))
	for i, k := range keys {
		columns[i] = k.name
	}
	return columns, nil
}
