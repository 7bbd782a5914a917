// Package catalog renders schema metadata as catalog-shaped row sets.
//
// Every view is a generated SELECT executed through the one primitive the
// remote service offers. Rows produced by the meta finders are turned into
// literal SELECTs joined with UNION ALL; an empty view becomes a
// "SELECT NULL AS ... LIMIT 0" statement with the same columns.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
	"github.com/tomyedwab/libsqlhttp/libsql/meta"
)

// Conn is what the builder needs from a connection. *client.Client
// implements it.
type Conn interface {
	meta.Executor
	Version(ctx context.Context) (string, error)
}

// Builder produces catalog views for one connection. It holds no state
// between calls.
type Builder struct {
	conn      Conn
	inspector *meta.Inspector
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for swallowed lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a catalog builder on top of conn.
func New(conn Conn, options ...Option) *Builder {
	b := &Builder{
		conn:   conn,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(b)
	}
	b.inspector = meta.NewInspector(conn, b.logger)
	return b
}

var versionPattern = regexp.MustCompile(`^(\w+)\s+([0-9.]+)\s+(.+)$`)

// ProductName returns the server's version line as reported by /version.
func (b *Builder) ProductName(ctx context.Context) (string, error) {
	return b.conn.Version(ctx)
}

// ProductVersion returns the version number from the server's version line,
// or the whole line when it does not look like "<product> <version> <extra>".
func (b *Builder) ProductVersion(ctx context.Context) (string, error) {
	line, err := b.conn.Version(ctx)
	if err != nil {
		return "", err
	}
	if m := versionPattern.FindStringSubmatch(line); m != nil {
		return m[2], nil
	}
	return line, nil
}

// Describe returns the primary and foreign keys of table.
func (b *Builder) Describe(ctx context.Context, table string) (*meta.TableDescription, error) {
	return b.inspector.DescribeTable(ctx, table)
}

func (b *Builder) query(ctx context.Context, sql string) (*client.Result, error) {
	b.logger.Debug("catalog query", "sql", sql)
	return b.conn.Execute(ctx, client.Query(sql))
}

// Tables lists tables and views. types filters on the schema type ("table",
// "view", case-insensitive); no types means tables only.
func (b *Builder) Tables(ctx context.Context, types ...string) (*client.Result, error) {
	if len(types) == 0 {
		types = []string{"table"}
	}
	kinds := make([]string, len(types))
	for i, t := range types {
		kinds[i] = lit(strings.ToLower(strings.TrimSpace(t)))
	}

	sql := "SELECT NULL AS TABLE_CAT, NULL AS TABLE_SCHEM, name AS TABLE_NAME, upper(type) AS TABLE_TYPE, " +
		"NULL AS REMARKS, NULL AS TYPE_CAT, NULL AS TYPE_SCHEM, NULL AS TYPE_NAME " +
		"FROM sqlite_schema WHERE type IN (" + strings.Join(kinds, ", ") + ") " +
		"AND name NOT LIKE 'sqlite\\_%' ESCAPE '\\' ORDER BY TABLE_TYPE, TABLE_NAME"
	return b.query(ctx, sql)
}

// dataTypeExpr derives a type code from the declared type, following the
// SQLite column affinity rules.
const dataTypeExpr = "CASE" +
	" WHEN upper(type) LIKE '%INT%' THEN 4" +
	" WHEN upper(type) LIKE '%CHAR%' OR upper(type) LIKE '%CLOB%' OR upper(type) LIKE '%TEXT%' THEN 12" +
	" WHEN type = '' OR upper(type) LIKE '%BLOB%' THEN 2004" +
	" WHEN upper(type) LIKE '%REAL%' OR upper(type) LIKE '%FLOA%' OR upper(type) LIKE '%DOUB%' THEN 8" +
	" ELSE 2 END"

// Columns lists the columns of table in declaration order.
func (b *Builder) Columns(ctx context.Context, table string) (*client.Result, error) {
	if strings.TrimSpace(table) == "" {
		return nil, client.NewValidationError(fmt.Sprintf("invalid table name: '%s'", table))
	}
	sql := "SELECT NULL AS TABLE_CAT, NULL AS TABLE_SCHEM, " + lit(table) + " AS TABLE_NAME, " +
		"name AS COLUMN_NAME, " + dataTypeExpr + " AS DATA_TYPE, type AS TYPE_NAME, 0 AS COLUMN_SIZE, " +
		"CASE WHEN \"notnull\" THEN 0 ELSE 1 END AS NULLABLE, NULL AS REMARKS, dflt_value AS COLUMN_DEF, " +
		"cid + 1 AS ORDINAL_POSITION " +
		"FROM pragma_table_info(" + lit(table) + ") ORDER BY cid"
	return b.query(ctx, sql)
}

// PrimaryKeys lists the primary key columns of table, one row per column,
// ordered by column name.
func (b *Builder) PrimaryKeys(ctx context.Context, table string) (*client.Result, error) {
	pk, err := b.inspector.PrimaryKeys.Find(ctx, table)
	if err != nil {
		return nil, err
	}

	u := newUnion("TABLE_CAT", "TABLE_SCHEM", "TABLE_NAME", "COLUMN_NAME", "KEY_SEQ", "PK_NAME").
		order("COLUMN_NAME")
	if pk != nil {
		for i, col := range pk.Columns {
			u.add("NULL", "NULL", lit(table), lit(col), num(i+1), litOrNull(pk.Name))
		}
	}
	return b.query(ctx, u.SQL())
}

// IndexInfo lists the columns of every index on table. With uniqueOnly set
// only unique indexes are listed. Expression terms have a NULL COLUMN_NAME.
func (b *Builder) IndexInfo(ctx context.Context, table string, uniqueOnly bool) (*client.Result, error) {
	indexes, err := b.inspector.Indexes.Find(ctx, table, uniqueOnly)
	if err != nil {
		return nil, err
	}

	u := newUnion("TABLE_CAT", "TABLE_SCHEM", "TABLE_NAME", "NON_UNIQUE", "INDEX_QUALIFIER", "INDEX_NAME",
		"TYPE", "ORDINAL_POSITION", "COLUMN_NAME", "ASC_OR_DESC", "CARDINALITY", "PAGES", "FILTER_CONDITION")
	for _, idx := range indexes {
		nonUnique := 1
		if idx.Unique {
			nonUnique = 0
		}
		for _, col := range idx.Columns {
			name := "NULL"
			if !col.Expression {
				name = lit(col.Name)
			}
			u.add("NULL", "NULL", lit(table), num(nonUnique), "NULL", lit(idx.Name),
				num(TableIndexOther), num(col.Position), name, "NULL", "0", "0", "NULL")
		}
	}
	return b.query(ctx, u.SQL())
}

var keyColumns = []string{
	"PKTABLE_CAT", "PKTABLE_SCHEM", "PKTABLE_NAME", "PKCOLUMN_NAME",
	"FKTABLE_CAT", "FKTABLE_SCHEM", "FKTABLE_NAME", "FKCOLUMN_NAME",
	"KEY_SEQ", "UPDATE_RULE", "DELETE_RULE", "FK_NAME", "PK_NAME", "DEFERRABILITY",
}

// parentKey resolves the primary key of a referenced table. Failures are
// logged and yield nil so one broken reference does not fail a listing.
func (b *Builder) parentKey(ctx context.Context, table string) *meta.PrimaryKey {
	pk, err := b.inspector.PrimaryKeys.Find(ctx, table)
	if err != nil {
		b.logger.Debug("parent primary key lookup failed", "table", table, "error", err)
		return nil
	}
	return pk
}

// addKeyRows appends one row per column pair of fk.
func addKeyRows(u *unionQuery, fk meta.ForeignKey, parent *meta.PrimaryKey) {
	pkName := ""
	if parent != nil {
		pkName = parent.Name
	}
	for i, pair := range fk.Columns {
		parentColumn := pair.Parent
		if parentColumn == "" && parent != nil && i < len(parent.Columns) {
			parentColumn = parent.Columns[i]
		}
		u.add("NULL", "NULL", lit(fk.ParentTable), lit(parentColumn),
			"NULL", "NULL", lit(fk.ChildTable), lit(pair.Child),
			num(i+1), num(RuleCode(fk.OnUpdate)), num(RuleCode(fk.OnDelete)),
			lit(fk.Name), lit(pkName), num(KeyNotDeferrable))
	}
}

// ImportedKeys lists the foreign key columns declared by table, ordered by
// parent table and key sequence.
func (b *Builder) ImportedKeys(ctx context.Context, table string) (*client.Result, error) {
	fks, err := b.inspector.ForeignKeys.Find(ctx, table)
	if err != nil {
		return nil, err
	}

	u := newUnion(keyColumns...).order("PKTABLE_NAME", "KEY_SEQ")
	for _, fk := range fks {
		addKeyRows(u, fk, b.parentKey(ctx, fk.ParentTable))
	}
	return b.query(ctx, u.SQL())
}

// ExportedKeys lists the foreign key columns of other tables that reference
// table, ordered by child table and key sequence. It scans the foreign keys
// of every table.
func (b *Builder) ExportedKeys(ctx context.Context, table string) (*client.Result, error) {
	fks, err := b.inspector.ReferencingKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	u := newUnion(keyColumns...).order("FKTABLE_NAME", "KEY_SEQ")
	if len(fks) > 0 {
		parent := b.parentKey(ctx, table)
		for _, fk := range fks {
			addKeyRows(u, fk, parent)
		}
	}
	return b.query(ctx, u.SQL())
}

// CrossReference lists the foreign key columns of child that reference
// parent. An empty parent lists all keys imported by child; an empty child
// lists all keys exported by parent.
func (b *Builder) CrossReference(ctx context.Context, parent, child string) (*client.Result, error) {
	switch {
	case strings.TrimSpace(parent) == "" && strings.TrimSpace(child) == "":
		return nil, client.NewValidationError("cross reference needs a parent or a child table")
	case strings.TrimSpace(parent) == "":
		return b.ImportedKeys(ctx, child)
	case strings.TrimSpace(child) == "":
		return b.ExportedKeys(ctx, parent)
	}

	fks, err := b.inspector.ForeignKeys.Find(ctx, child)
	if err != nil {
		return nil, err
	}

	u := newUnion(keyColumns...).order("FKTABLE_NAME", "KEY_SEQ")
	var parentPK *meta.PrimaryKey
	resolved := false
	for _, fk := range fks {
		if !strings.EqualFold(fk.ParentTable, parent) {
			continue
		}
		if !resolved {
			parentPK = b.parentKey(ctx, parent)
			resolved = true
		}
		addKeyRows(u, fk, parentPK)
	}
	return b.query(ctx, u.SQL())
}
