package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindText
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single parameter or result cell. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

func Null() Value { return Value{} }
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func Text(v string) Value { return Value{kind: KindText, s: v} }
func Bytes(v []byte) Value { return Value{kind: KindBytes, b: v} }
func Boolean(v bool) Value {
	if v {
		return Value{kind: KindBoolean, i: 1}
	}
	return Value{kind: KindBoolean}
}

// ValueOf converts a Go value into a Value. Readers are drained and bound as
// text; unknown types fall back to their fmt representation.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint:
		return unsignedValue(uint64(x)), nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint64:
		return unsignedValue(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case bool:
		return Boolean(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Bytes(x), nil
	case time.Time:
		return Text(x.Format(time.RFC3339Nano)), nil
	case decimal.Decimal:
		if x.IsInteger() && x.Cmp(decimal.NewFromInt(math.MaxInt64)) <= 0 && x.Cmp(decimal.NewFromInt(math.MinInt64)) >= 0 {
			return Integer(x.IntPart()), nil
		}
		return Float(x.InexactFloat64()), nil
	case io.Reader:
		data, err := io.ReadAll(x)
		if err != nil {
			return Value{}, fmt.Errorf("client: failed to read stream parameter: %w", err)
		}
		return Text(string(data)), nil
	case fmt.Stringer:
		return Text(x.String()), nil
	default:
		return Text(fmt.Sprint(x)), nil
	}
}

func unsignedValue(v uint64) Value {
	if v > math.MaxInt64 {
		return Float(float64(v))
	}
	return Integer(int64(v))
}

// Kind returns the tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String returns the textual form of the value. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.i != 0)
	case KindText:
		return v.s
	case KindBytes:
		return string(v.b)
	default:
		return ""
	}
}

// Int64 converts the value to an integer. Null converts to 0.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindInteger, KindBoolean:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	case KindText, KindBytes:
		s := strings.TrimSpace(v.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("client: cannot convert %q to integer", s)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("client: cannot convert %s to integer", v.kind)
}

// Float64 converts the value to a float. Null converts to 0.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindInteger, KindBoolean:
		return float64(v.i), nil
	case KindFloat:
		return v.f, nil
	case KindText, KindBytes:
		s := strings.TrimSpace(v.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("client: cannot convert %q to float", s)
		}
		return f, nil
	}
	return 0, fmt.Errorf("client: cannot convert %s to float", v.kind)
}

// Bool converts the value to a boolean. Non-zero numbers and the texts
// "true" and "1" are true.
func (v Value) Bool() bool {
	switch v.kind {
	case KindInteger, KindBoolean:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindText, KindBytes:
		s := strings.TrimSpace(v.String())
		return strings.EqualFold(s, "true") || s == "1"
	default:
		return false
	}
}

// Bytes returns the raw bytes of a Bytes value or the UTF-8 text of any other
// non-null value.
func (v Value) Bytes() []byte {
	switch v.kind {
	case KindNull:
		return nil
	case KindBytes:
		return v.b
	default:
		return []byte(v.String())
	}
}

// Decimal converts the value to an exact decimal.
func (v Value) Decimal() (decimal.Decimal, error) {
	switch v.kind {
	case KindNull:
		return decimal.Zero, nil
	case KindInteger, KindBoolean:
		return decimal.NewFromInt(v.i), nil
	case KindFloat:
		return decimal.NewFromFloat(v.f), nil
	default:
		return decimal.NewFromString(strings.TrimSpace(v.String()))
	}
}

// Interface returns the value as one of nil, int64, float64, bool, string or
// []byte, which is also the set database/sql/driver accepts.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBoolean:
		return v.i != 0
	case KindText:
		return v.s
	case KindBytes:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON renders the value in its wire form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInteger:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		return json.Marshal(v.f)
	case KindBoolean:
		return []byte(strconv.FormatBool(v.i != 0)), nil
	case KindText:
		return json.Marshal(v.s)
	case KindBytes:
		return json.Marshal(types.BlobValue{Base64: base64.StdEncoding.EncodeToString(v.b)})
	}
	return nil, fmt.Errorf("client: unknown value kind %d", v.kind)
}

// UnmarshalJSON decodes a wire cell. Integral numbers become Integer, other
// numbers Float, and {"base64": ...} objects Bytes.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("client: empty value")
	}
	switch data[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Boolean(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '{':
		var blob types.BlobValue
		if err := json.Unmarshal(data, &blob); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(blob.Base64)
		if err != nil {
			return fmt.Errorf("client: invalid base64 blob: %w", err)
		}
		*v = Bytes(decoded)
		return nil
	case '[':
		return fmt.Errorf("client: unsupported array value %s", data)
	}

	num := string(data)
	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		*v = Integer(n)
		return nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return fmt.Errorf("client: invalid number %s: %w", num, err)
	}
	*v = Float(f)
	return nil
}
