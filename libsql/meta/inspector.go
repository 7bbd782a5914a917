package meta

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// Inspector bundles the finders behind one Executor.
type Inspector struct {
	exec        Executor
	PrimaryKeys *PrimaryKeyFinder
	ForeignKeys *ForeignKeyFinder
	Indexes     *IndexFinder
}

// NewInspector creates an Inspector. A nil logger uses slog.Default.
func NewInspector(exec Executor, logger *slog.Logger) *Inspector {
	return &Inspector{
		exec:        exec,
		PrimaryKeys: NewPrimaryKeyFinder(exec, logger),
		ForeignKeys: NewForeignKeyFinder(exec, logger),
		Indexes:     NewIndexFinder(exec),
	}
}

// DescribeTable implements Describer.
func (i *Inspector) DescribeTable(ctx context.Context, table string) (*TableDescription, error) {
	pk, err := i.PrimaryKeys.Find(ctx, table)
	if err != nil {
		return nil, err
	}
	fks, err := i.ForeignKeys.Find(ctx, table)
	if err != nil {
		return nil, err
	}
	return &TableDescription{Table: table, PrimaryKey: pk, ForeignKeys: fks}, nil
}

// TableNames returns the names of all user tables, sorted.
func (i *Inspector) TableNames(ctx context.Context) ([]string, error) {
	res, err := i.exec.Execute(ctx, client.Query(
		"SELECT name FROM sqlite_schema WHERE type = 'table' ORDER BY name"))
	if err != nil {
		return nil, fmt.Errorf("meta: failed to list tables: %w", err)
	}

	var names []string
	cur := res.Cursor()
	for cur.Next() {
		name, err := cur.String("name")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// ReferencingKeys returns the foreign keys of every table whose parent is
// table (compared case-insensitively), in table name order.
func (i *Inspector) ReferencingKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	names, err := i.TableNames(ctx)
	if err != nil {
		return nil, err
	}

	var refs []ForeignKey
	for _, name := range names {
		fks, err := i.ForeignKeys.Find(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, fk := range fks {
			if strings.EqualFold(fk.ParentTable, table) {
				refs = append(refs, fk)
			}
		}
	}
	return refs, nil
}
