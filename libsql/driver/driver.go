package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tomyedwab/libsqlhttp/libsql/catalog"
	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// DriverName is the name the driver registers under.
const DriverName = "libsql"

// ErrTxNotSupported is returned by Begin and BeginTx.
var ErrTxNotSupported = errors.New("libsql: transactions are not supported")

func init() {
	sql.Register(DriverName, &Driver{})
}

var (
	_ driver.DriverContext      = (*Driver)(nil)
	_ driver.Connector          = (*Connector)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
	_ driver.StmtExecContext    = (*Stmt)(nil)
	_ driver.StmtQueryContext   = (*Stmt)(nil)
)

// --- Driver implementation ---

// Driver is the database/sql driver for libSQL HTTP endpoints.
type Driver struct {
	// Options are applied to every client the driver creates, after the
	// options carried by the connection URL.
	Options []client.ClientOption
}

// Open returns a new connection for the connection URL name.
func (d *Driver) Open(name string) (driver.Conn, error) {
	connector, err := d.OpenConnector(name)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector parses name once and returns a connector for it.
func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	cfg, err := ParseDSN(name)
	if err != nil {
		return nil, err
	}
	options := append(cfg.Options(), d.Options...)
	return &Connector{client: client.New(cfg.URL, options...), driver: d}, nil
}

// Connector hands out connections sharing one client.
type Connector struct {
	client *client.Client
	driver *Driver
}

// NewConnector returns a connector for an existing client, for use with
// sql.OpenDB.
func NewConnector(c *client.Client) *Connector {
	return &Connector{client: c, driver: &Driver{}}
}

// Connect implements driver.Connector.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	return &Conn{client: c.client}, nil
}

// Driver implements driver.Connector.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// --- Connection implementation ---

// Conn implements driver.Conn. Every statement is sent as its own batch.
type Conn struct {
	client *client.Client
	closed bool
}

// Client returns the underlying HTTP client.
func (c *Conn) Client() *client.Client {
	return c.client
}

// Catalog returns a catalog builder for this connection. Reach it through
// sql.Conn.Raw.
func (c *Conn) Catalog() *catalog.Builder {
	return catalog.New(c.client)
}

// Prepare returns a statement. Nothing is sent until it is executed.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	return &Stmt{conn: c, query: query}, nil
}

// Close marks the connection closed. There is no server-side state.
func (c *Conn) Close() error {
	c.closed = true
	return nil
}

// Begin always fails: the HTTP endpoint has no transaction support.
func (c *Conn) Begin() (driver.Tx, error) {
	return nil, ErrTxNotSupported
}

// BeginTx implements driver.ConnBeginTx.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, ErrTxNotSupported
}

// Ping checks the server through its version endpoint.
func (c *Conn) Ping(ctx context.Context) error {
	if c.closed {
		return driver.ErrBadConn
	}
	if _, err := c.client.Version(ctx); err != nil {
		return fmt.Errorf("libsql: ping failed: %w", err)
	}
	return nil
}

// QueryContext implements driver.QueryerContext.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	res, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return &libsqlRows{columns: res.Columns, rows: res.Rows}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	res, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return &libsqlResult{rowsAffected: res.UpdateCount()}, nil
}

// CheckNamedValue implements driver.NamedValueChecker so any value the
// client can bind is accepted as an argument. Decimals bypass their Valuer
// so integral values bind as integers.
func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	v := nv.Value
	_, isDecimal := v.(decimal.Decimal)
	if valuer, ok := v.(driver.Valuer); ok && !isDecimal {
		var err error
		if v, err = valuer.Value(); err != nil {
			return err
		}
	}
	val, err := client.ValueOf(v)
	if err != nil {
		return err
	}
	nv.Value = val.Interface()
	return nil
}

func (c *Conn) execute(ctx context.Context, query string, args []driver.NamedValue) (*client.Result, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	params, err := bindArgs(args)
	if err != nil {
		return nil, err
	}
	return c.client.Execute(ctx, client.Statement{SQL: query, Params: params})
}

// bindArgs turns database/sql arguments into statement parameters. Named
// arguments without a prefix are sent as ":name".
func bindArgs(args []driver.NamedValue) (client.Params, error) {
	var params client.Params
	for _, arg := range args {
		if arg.Name != "" {
			name := arg.Name
			if !strings.ContainsAny(name[:1], ":@$") {
				name = ":" + name
			}
			if err := params.BindName(name, arg.Value); err != nil {
				return client.Params{}, err
			}
			continue
		}
		if err := params.BindIndex(arg.Ordinal, arg.Value); err != nil {
			return client.Params{}, err
		}
	}
	return params, nil
}

// --- Statement implementation ---

// Stmt implements driver.Stmt.
type Stmt struct {
	conn  *Conn
	query string
}

// Close closes the statement.
func (s *Stmt) Close() error {
	return nil
}

// NumInput returns -1: placeholders are counted by the server.
func (s *Stmt) NumInput() int {
	return -1
}

// Exec executes the statement with ordinal arguments.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), toNamed(args))
}

// Query executes the statement with ordinal arguments.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), toNamed(args))
}

// ExecContext implements driver.StmtExecContext.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

// QueryContext implements driver.StmtQueryContext.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func toNamed(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

// --- Result implementation ---

type libsqlResult struct {
	rowsAffected int64
}

// LastInsertId is not reported by the batch protocol.
func (r *libsqlResult) LastInsertId() (int64, error) {
	return 0, errors.New("libsql: LastInsertId is not supported, use RETURNING or last_insert_rowid()")
}

// RowsAffected returns the number of rows written by the statement.
func (r *libsqlResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// --- Rows implementation ---

// libsqlRows walks a fully fetched result.
type libsqlRows struct {
	columns []string
	rows    []client.Row
	pos     int
}

// Columns returns the names of the columns.
func (r *libsqlRows) Columns() []string {
	return r.columns
}

// Close releases the fetched rows.
func (r *libsqlRows) Close() error {
	r.rows = nil
	r.pos = 0
	return nil
}

// Next populates dest with the next row and returns io.EOF after the last.
func (r *libsqlRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.pos]
	if len(row) != len(dest) {
		return fmt.Errorf("libsql: column count mismatch. Expected %d, got %d", len(dest), len(row))
	}
	for i, v := range row {
		dest[i] = v.Interface()
	}
	r.pos++
	return nil
}
