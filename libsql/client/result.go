package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

// Row is one result row, aligned with Result.Columns.
type Row []Value

// Result is the outcome of one executed statement.
type Result struct {
	Columns     []string
	Rows        []Row
	RowsRead    int64
	RowsWritten int64
	Duration    time.Duration

	index map[string]int
}

// NewResult builds a result and checks that every row matches the column
// count.
func NewResult(columns []string, rows []Row) (*Result, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, NewProtocolError(fmt.Sprintf("row %d has %d values, expected %d", i, len(row), len(columns)), nil)
		}
	}
	return &Result{Columns: columns, Rows: rows}, nil
}

func decodeResult(wire *types.ExecutionResults) (*Result, error) {
	if wire == nil {
		return &Result{}, nil
	}
	rows := make([]Row, len(wire.Rows))
	for i, wireRow := range wire.Rows {
		row := make(Row, len(wireRow))
		for j, cell := range wireRow {
			if err := json.Unmarshal(cell, &row[j]); err != nil {
				return nil, NewProtocolError(fmt.Sprintf("invalid value at row %d column %d", i, j), err)
			}
		}
		rows[i] = row
	}
	res, err := NewResult(wire.Columns, rows)
	if err != nil {
		return nil, err
	}
	res.RowsRead = wire.RowsRead
	res.RowsWritten = wire.RowsWritten
	res.Duration = time.Duration(wire.QueryDurationMS * float64(time.Millisecond))
	return res, nil
}

// UpdateCount returns the number of rows written by the statement.
func (r *Result) UpdateCount() int64 {
	return r.RowsWritten
}

// ColumnIndex returns the 0-based index of the named column. Lookup ignores
// case; with duplicate names the first occurrence wins.
func (r *Result) ColumnIndex(name string) (int, error) {
	if r.index == nil {
		r.index = make(map[string]int, len(r.Columns))
		for i, col := range r.Columns {
			key := strings.ToUpper(col)
			if _, exists := r.index[key]; !exists {
				r.index[key] = i
			}
		}
	}
	i, ok := r.index[strings.ToUpper(name)]
	if !ok {
		return -1, NewNotFoundError(fmt.Sprintf("column '%s' is not present in result set", name))
	}
	return i, nil
}

// Value returns the cell at the given row and named column.
func (r *Result) Value(row int, column string) (Value, error) {
	if row < 0 || row >= len(r.Rows) {
		return Value{}, NewValidationError(fmt.Sprintf("row %d out of range", row))
	}
	i, err := r.ColumnIndex(column)
	if err != nil {
		return Value{}, err
	}
	return r.Rows[row][i], nil
}

// Cursor returns a forward-only cursor over the rows.
func (r *Result) Cursor() *Cursor {
	return &Cursor{result: r}
}

// Cursor walks a Result row by row. Call Next before reading the first row.
type Cursor struct {
	result *Result
	pos    int // 1-based; 0 before the first Next
}

// Next advances to the next row and reports whether one exists.
func (c *Cursor) Next() bool {
	if c.pos > len(c.result.Rows) {
		return false
	}
	c.pos++
	return c.pos <= len(c.result.Rows)
}

func (c *Cursor) row() (Row, error) {
	if c.pos < 1 {
		return nil, NewValidationError("fetch not started")
	}
	if c.pos > len(c.result.Rows) {
		return nil, NewValidationError("fetch ended")
	}
	return c.result.Rows[c.pos-1], nil
}

// At returns the value of the 0-based column index in the current row.
func (c *Cursor) At(i int) (Value, error) {
	row, err := c.row()
	if err != nil {
		return Value{}, err
	}
	if i < 0 || i >= len(row) {
		return Value{}, NewValidationError(fmt.Sprintf("column index %d out of range", i))
	}
	return row[i], nil
}

// Get returns the value of the named column in the current row.
func (c *Cursor) Get(column string) (Value, error) {
	i, err := c.result.ColumnIndex(column)
	if err != nil {
		return Value{}, err
	}
	return c.At(i)
}

// String returns the named column as text.
func (c *Cursor) String(column string) (string, error) {
	v, err := c.Get(column)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// NullString returns the named column as text and whether it was non-null.
func (c *Cursor) NullString(column string) (string, bool, error) {
	v, err := c.Get(column)
	if err != nil {
		return "", false, err
	}
	return v.String(), !v.IsNull(), nil
}

// Int64 returns the named column as an integer.
func (c *Cursor) Int64(column string) (int64, error) {
	v, err := c.Get(column)
	if err != nil {
		return 0, err
	}
	return v.Int64()
}

// Bool returns the named column as a boolean.
func (c *Cursor) Bool(column string) (bool, error) {
	v, err := c.Get(column)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}
