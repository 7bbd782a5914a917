package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

// Params holds the bound values of one statement. A set is either ordinal
// (1-based positions) or named, fixed by the first bind; mixing the two is
// rejected.
type Params struct {
	ordinal map[int]Value
	named   map[string]Value
	names   []string // bind order of named keys
}

// Args builds ordinal parameters 1..n from plain Go values.
func Args(values ...any) (Params, error) {
	var p Params
	for i, v := range values {
		if err := p.BindIndex(i+1, v); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}

// Named builds named parameters from a map. Keys are sent as given, so the
// caller chooses the prefix (":name", "@name", "$name").
func Named(values map[string]any) (Params, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var p Params
	for _, k := range keys {
		if err := p.BindName(k, values[k]); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}

// BindIndex binds v at the 1-based position pos, replacing any earlier value.
func (p *Params) BindIndex(pos int, v any) error {
	if pos < 1 {
		return NewValidationError(fmt.Sprintf("invalid parameter index %d", pos))
	}
	if len(p.named) > 0 {
		return NewValidationError("cannot mix positional and named parameters")
	}
	val, err := ValueOf(v)
	if err != nil {
		return err
	}
	if p.ordinal == nil {
		p.ordinal = make(map[int]Value)
	}
	p.ordinal[pos] = val
	return nil
}

// BindName binds v to the parameter name, replacing any earlier value.
func (p *Params) BindName(name string, v any) error {
	if name == "" {
		return NewValidationError("empty parameter name")
	}
	if len(p.ordinal) > 0 {
		return NewValidationError("cannot mix positional and named parameters")
	}
	val, err := ValueOf(v)
	if err != nil {
		return err
	}
	if p.named == nil {
		p.named = make(map[string]Value)
	}
	if _, exists := p.named[name]; !exists {
		p.names = append(p.names, name)
	}
	p.named[name] = val
	return nil
}

// Clear drops every bound value.
func (p *Params) Clear() {
	*p = Params{}
}

// Len returns the number of bound values.
func (p Params) Len() int {
	return len(p.ordinal) + len(p.named)
}

// IsIndexed reports whether the set is ordinal. An empty set is not.
func (p Params) IsIndexed() bool {
	return len(p.ordinal) > 0
}

// Values returns ordinal values sorted by position. Gaps are not filled.
func (p Params) Values() []Value {
	positions := make([]int, 0, len(p.ordinal))
	for pos := range p.ordinal {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	values := make([]Value, len(positions))
	for i, pos := range positions {
		values[i] = p.ordinal[pos]
	}
	return values
}

// MarshalJSON renders a JSON array for ordinal sets and a JSON object, in
// bind order, for named sets.
func (p Params) MarshalJSON() ([]byte, error) {
	if p.IsIndexed() {
		return json.Marshal(p.Values())
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := p.named[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Statement is one SQL text plus its parameters.
type Statement struct {
	SQL    string
	Params Params
}

// NewStatement builds a statement with ordinal parameters taken from args.
func NewStatement(sql string, args ...any) (Statement, error) {
	params, err := Args(args...)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: sql, Params: params}, nil
}

// Query builds a statement without parameters.
func Query(sql string) Statement {
	return Statement{SQL: sql}
}

// MarshalJSON renders a bare string when there are no parameters, otherwise
// the {"q": ..., "params": ...} object.
func (s Statement) MarshalJSON() ([]byte, error) {
	if s.Params.Len() == 0 {
		return json.Marshal(s.SQL)
	}
	params, err := s.Params.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(types.ParameterizedStatement{Q: s.SQL, Params: params})
}

func encodeBatch(stmts []Statement) ([]byte, error) {
	req := types.BatchRequest{Statements: make([]json.RawMessage, len(stmts))}
	for i, stmt := range stmts {
		raw, err := stmt.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("client: failed to encode statement %d: %w", i, err)
		}
		req.Statements[i] = raw
	}
	return json.Marshal(req)
}
