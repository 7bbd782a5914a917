package meta

import (
	"context"
	"fmt"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// IndexFinder lists a table's indexes through PRAGMA index_list and
// PRAGMA index_info.
type IndexFinder struct {
	exec Executor
}

// NewIndexFinder creates an index finder.
func NewIndexFinder(exec Executor) *IndexFinder {
	return &IndexFinder{exec: exec}
}

// Find returns the indexes of table in index_list order. When uniqueOnly is
// set non-unique indexes are skipped.
func (f *IndexFinder) Find(ctx context.Context, table string, uniqueOnly bool) ([]Index, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	res, err := f.exec.Execute(ctx, client.Query("PRAGMA index_list("+Quote(table)+")"))
	if err != nil {
		return nil, fmt.Errorf("meta: index_list for %s failed: %w", table, err)
	}

	var indexes []Index
	cur := res.Cursor()
	for cur.Next() {
		name, err := cur.String("name")
		if err != nil {
			return nil, err
		}
		unique, err := cur.Bool("unique")
		if err != nil {
			return nil, err
		}
		if uniqueOnly && !unique {
			continue
		}
		origin, _, err := cur.NullString("origin")
		if err != nil {
			return nil, err
		}
		partial, err := cur.Bool("partial")
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, Index{Name: name, Unique: unique, Origin: origin, Partial: partial})
	}

	for i := range indexes {
		columns, err := f.indexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
	}
	return indexes, nil
}

func (f *IndexFinder) indexColumns(ctx context.Context, index string) ([]IndexColumn, error) {
	res, err := f.exec.Execute(ctx, client.Query("PRAGMA index_info("+Quote(index)+")"))
	if err != nil {
		return nil, fmt.Errorf("meta: index_info for %s failed: %w", index, err)
	}

	var columns []IndexColumn
	cur := res.Cursor()
	for cur.Next() {
		seqno, err := cur.Int64("seqno")
		if err != nil {
			return nil, err
		}
		name, ok, err := cur.NullString("name")
		if err != nil {
			return nil, err
		}
		columns = append(columns, IndexColumn{
			Position:   int(seqno) + 1,
			Name:       name,
			Expression: !ok,
		})
	}
	return columns, nil
}
