package meta

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// ForeignKeyFinder lists the foreign keys a table declares, combining PRAGMA
// foreign_key_list with constraint names parsed from the table's DDL.
type ForeignKeyFinder struct {
	exec   Executor
	logger *slog.Logger
}

// NewForeignKeyFinder creates a finder. A nil logger uses slog.Default.
func NewForeignKeyFinder(exec Executor, logger *slog.Logger) *ForeignKeyFinder {
	return &ForeignKeyFinder{exec: exec, logger: loggerOrDefault(logger)}
}

// Find returns the foreign keys of table in PRAGMA order.
func (f *ForeignKeyFinder) Find(ctx context.Context, table string) ([]ForeignKey, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	names, err := f.constraintNames(ctx, table)
	if err != nil {
		return nil, err
	}

	res, err := f.exec.Execute(ctx, client.Query("PRAGMA foreign_key_list("+Quote(table)+")"))
	if err != nil {
		return nil, fmt.Errorf("meta: foreign_key_list for %s failed: %w", table, err)
	}
	return groupForeignKeys(table, names, res)
}

// constraintNames returns the declared FOREIGN KEY constraint names in reverse
// document order, which is the order the pragma enumerates keys in.
func (f *ForeignKeyFinder) constraintNames(ctx context.Context, table string) ([]string, error) {
	ddl, found, err := tableDDL(ctx, f.exec, table)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	matches := fkNamedPattern.FindAllStringSubmatch(ddl, -1)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[len(matches)-1-i] = Unquote(m[1])
	}
	return names, nil
}

// groupForeignKeys folds pragma rows into descriptors. A change of the id
// column starts a new key, which takes the next constraint name by position.
func groupForeignKeys(table string, names []string, res *client.Result) ([]ForeignKey, error) {
	var keys []ForeignKey
	var current *ForeignKey
	var prevID int64 = -1

	cur := res.Cursor()
	for cur.Next() {
		id, err := cur.Int64("id")
		if err != nil {
			return nil, err
		}
		parent, err := cur.String("table")
		if err != nil {
			return nil, err
		}
		from, err := cur.String("from")
		if err != nil {
			return nil, err
		}
		to, err := cur.String("to")
		if err != nil {
			return nil, err
		}

		if current == nil || id != prevID {
			onUpdate, err := ruleColumn(cur, "on_update")
			if err != nil {
				return nil, err
			}
			onDelete, err := ruleColumn(cur, "on_delete")
			if err != nil {
				return nil, err
			}
			match, _, err := cur.NullString("match")
			if err != nil {
				return nil, err
			}

			var name string
			if len(keys) < len(names) {
				name = names[len(keys)]
			}
			keys = append(keys, ForeignKey{
				Name:        name,
				ParentTable: parent,
				ChildTable:  table,
				OnUpdate:    onUpdate,
				OnDelete:    onDelete,
				Match:       match,
			})
			current = &keys[len(keys)-1]
			prevID = id
		}
		current.Columns = append(current.Columns, ColumnPair{Child: from, Parent: to})
	}
	return keys, nil
}

func ruleColumn(cur *client.Cursor, column string) (Rule, error) {
	text, err := cur.String(column)
	if err != nil {
		return 0, err
	}
	return ParseRule(text)
}
