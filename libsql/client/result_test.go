package client

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestColumnIndexIgnoresCase(t *testing.T) {
	res, err := NewResult([]string{"Name", "name", "Age"}, []Row{{Text("a"), Text("b"), Integer(3)}})
	if err != nil {
		t.Fatalf("NewResult failed: %v", err)
	}

	for _, key := range []string{"Name", "name", "NAME"} {
		i, err := res.ColumnIndex(key)
		if err != nil {
			t.Fatalf("ColumnIndex(%q) failed: %v", key, err)
		}
		if i != 0 {
			t.Errorf("ColumnIndex(%q) = %d, want first occurrence 0", key, i)
		}
	}

	_, err = res.ColumnIndex("missing")
	if !IsNotFoundError(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err.Error() != "column 'missing' is not present in result set" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNewResultRejectsRaggedRows(t *testing.T) {
	_, err := NewResult([]string{"a", "b"}, []Row{{Integer(1)}})
	if !IsProtocolError(err) {
		t.Errorf("expected protocol error, got %v", err)
	}
}

func TestCursor(t *testing.T) {
	res, err := NewResult([]string{"id", "label"}, []Row{
		{Integer(1), Text("one")},
		{Integer(2), Null()},
	})
	if err != nil {
		t.Fatalf("NewResult failed: %v", err)
	}

	cur := res.Cursor()
	if _, err := cur.Get("id"); !IsValidationError(err) {
		t.Errorf("expected fetch not started error, got %v", err)
	}

	if !cur.Next() {
		t.Fatal("expected first row")
	}
	id, err := cur.Int64("ID")
	if err != nil || id != 1 {
		t.Errorf("Int64 = %d, %v", id, err)
	}
	label, ok, err := cur.NullString("label")
	if err != nil || !ok || label != "one" {
		t.Errorf("NullString = %q, %v, %v", label, ok, err)
	}

	if !cur.Next() {
		t.Fatal("expected second row")
	}
	_, ok, err = cur.NullString("label")
	if err != nil || ok {
		t.Errorf("expected null label, got ok=%v err=%v", ok, err)
	}

	if cur.Next() {
		t.Fatal("expected end of rows")
	}
	if cur.Next() {
		t.Fatal("Next after end must stay false")
	}
	if _, err := cur.At(0); !IsValidationError(err) {
		t.Errorf("expected fetch ended error, got %v", err)
	}
}

func TestValueUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind Kind
		text string
	}{
		{"null", `null`, KindNull, ""},
		{"integer", `42`, KindInteger, "42"},
		{"negative integer", `-7`, KindInteger, "-7"},
		{"float", `1.5`, KindFloat, "1.5"},
		{"exponent", `1e3`, KindFloat, "1000"},
		{"true", `true`, KindBoolean, "true"},
		{"text", `"hello"`, KindText, "hello"},
		{"blob", `{"base64":"aGk="}`, KindBytes, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", v.Kind(), tt.kind)
			}
			if v.String() != tt.text {
				t.Errorf("text = %q, want %q", v.String(), tt.text)
			}
		})
	}

	var v Value
	if err := json.Unmarshal([]byte(`[1]`), &v); err == nil {
		t.Error("expected error for array value")
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, `null`},
		{"int", 5, `5`},
		{"large uint", uint64(math.MaxUint64), `18446744073709552000`},
		{"float", 2.5, `2.5`},
		{"bool", false, `false`},
		{"string", "a\"b", `"a\"b"`},
		{"bytes", []byte{0, 1}, `{"base64":"AAE="}`},
		{"integral decimal", decimal.RequireFromString("12"), `12`},
		{"fractional decimal", decimal.RequireFromString("1.25"), `1.25`},
		{"NaN", math.NaN(), `"NaN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValueOf(tt.in)
			if err != nil {
				t.Fatalf("ValueOf failed: %v", err)
			}
			got, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValueDecimal(t *testing.T) {
	d, err := Text("10.125").Decimal()
	if err != nil {
		t.Fatalf("Decimal failed: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("10.125")) {
		t.Errorf("unexpected decimal %s", d)
	}
}
