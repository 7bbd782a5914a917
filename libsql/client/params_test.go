package client

import (
	"encoding/json"
	"testing"
)

func TestStatementMarshalJSON(t *testing.T) {
	ordered := Params{}
	if err := ordered.BindIndex(2, "b"); err != nil {
		t.Fatalf("BindIndex failed: %v", err)
	}
	if err := ordered.BindIndex(1, int64(7)); err != nil {
		t.Fatalf("BindIndex failed: %v", err)
	}

	named := Params{}
	if err := named.BindName(":name", "O'Brien"); err != nil {
		t.Fatalf("BindName failed: %v", err)
	}
	if err := named.BindName(":age", 42); err != nil {
		t.Fatalf("BindName failed: %v", err)
	}

	blob := Params{}
	if err := blob.BindIndex(1, []byte("hi")); err != nil {
		t.Fatalf("BindIndex failed: %v", err)
	}

	tests := []struct {
		name string
		stmt Statement
		want string
	}{
		{
			name: "no params is a bare string",
			stmt: Query("SELECT 1"),
			want: `"SELECT 1"`,
		},
		{
			name: "ordinal params sorted by position",
			stmt: Statement{SQL: "SELECT ?, ?", Params: ordered},
			want: `{"q":"SELECT ?, ?","params":[7,"b"]}`,
		},
		{
			name: "named params keep bind order",
			stmt: Statement{SQL: "SELECT :name, :age", Params: named},
			want: `{"q":"SELECT :name, :age","params":{":name":"O'Brien",":age":42}}`,
		},
		{
			name: "bytes as base64 blob",
			stmt: Statement{SQL: "SELECT ?", Params: blob},
			want: `{"q":"SELECT ?","params":[{"base64":"aGk="}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.stmt)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParamsRejectsMixedBinding(t *testing.T) {
	var p Params
	if err := p.BindIndex(1, "a"); err != nil {
		t.Fatalf("BindIndex failed: %v", err)
	}
	if err := p.BindName(":a", "b"); !IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	p.Clear()
	if err := p.BindName(":a", "b"); err != nil {
		t.Fatalf("BindName after Clear failed: %v", err)
	}
	if err := p.BindIndex(1, "a"); !IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParamsInvalidIndex(t *testing.T) {
	var p Params
	if err := p.BindIndex(0, "a"); !IsValidationError(err) {
		t.Errorf("expected validation error for index 0, got %v", err)
	}
}

func TestParamsRebindReplaces(t *testing.T) {
	var p Params
	_ = p.BindIndex(1, "first")
	_ = p.BindIndex(1, "second")
	if p.Len() != 1 {
		t.Fatalf("expected 1 value, got %d", p.Len())
	}
	if got := p.Values()[0].String(); got != "second" {
		t.Errorf("expected rebind to replace value, got %q", got)
	}
}

func TestNamedSortsKeys(t *testing.T) {
	p, err := Named(map[string]any{":b": 2, ":a": 1})
	if err != nil {
		t.Fatalf("Named failed: %v", err)
	}
	got, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(got) != `{":a":1,":b":2}` {
		t.Errorf("unexpected params encoding: %s", got)
	}
}
