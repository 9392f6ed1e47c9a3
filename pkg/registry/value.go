package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParamType is the declared type of a template parameter.
type ParamType string

const (
	TypeNumber  ParamType = "number"
	TypeString  ParamType = "string"
	TypeBoolean ParamType = "boolean"
)

// Valid reports whether t is a supported parameter type.
func (t ParamType) Valid() bool {
	switch t {
	case TypeNumber, TypeString, TypeBoolean:
		return true
	}
	return false
}

// Value is a parameter value tagged with its resolved type. Exactly one of
// Number, Str or Bool is meaningful, selected by Type.
type Value struct {
	Type   ParamType
	Number float64
	Str    string
	Bool   bool
}

func NumberValue(n float64) Value { return Value{Type: TypeNumber, Number: n} }
func StringValue(s string) Value  { return Value{Type: TypeString, Str: s} }
func BoolValue(b bool) Value      { return Value{Type: TypeBoolean, Bool: b} }

// Interface returns the plain Go value.
func (v Value) Interface() interface{} {
	switch v.Type {
	case TypeNumber:
		return v.Number
	case TypeBoolean:
		return v.Bool
	default:
		return v.Str
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// TypeError describes a raw value that does not satisfy a parameter type.
type TypeError struct {
	Expected ParamType
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

// Coerce resolves raw against t. Numbers must be finite. Numeric text is
// parsed, and boolean text must be exactly "true" or "false".
func (t ParamType) Coerce(raw interface{}) (Value, error) {
	switch t {
	case TypeNumber:
		n, ok := toNumber(raw)
		if !ok {
			return Value{}, &TypeError{Expected: t, Actual: describe(raw)}
		}
		return NumberValue(n), nil
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return BoolValue(v), nil
		case string:
			switch strings.TrimSpace(v) {
			case "true":
				return BoolValue(true), nil
			case "false":
				return BoolValue(false), nil
			}
		}
		return Value{}, &TypeError{Expected: t, Actual: describe(raw)}
	case TypeString:
		if s, ok := raw.(string); ok {
			return StringValue(s), nil
		}
		return Value{}, &TypeError{Expected: t, Actual: describe(raw)}
	}
	return Value{}, fmt.Errorf("unsupported parameter type %q", t)
}

func toNumber(raw interface{}) (float64, bool) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func describe(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", v)
	case bool:
		return "boolean"
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite number"
		}
		return "number"
	case float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	}
	return fmt.Sprintf("%T", raw)
}
