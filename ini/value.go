package ini

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DataType is the type detected for a stored value.
type DataType int

const (
	TypeString DataType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeEmpty
)

func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeEmpty:
		return "empty"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// ParseDataType maps the names returned by DataType.String back to a DataType.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(name) {
	case "string":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "empty":
		return TypeEmpty, nil
	}
	return 0, fmt.Errorf("data type %q: %w", name, ErrUnsupportedType)
}

// DetectType returns the type a value with the given text is stored as.
func DetectType(s string) DataType {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeEmpty
	}
	if isTrue(s) || isFalse(s) {
		return TypeBool
	}
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return TypeString
		}
	}
	switch {
	case digits == 0:
		return TypeString
	case dots == 0:
		return TypeInt
	case dots == 1:
		return TypeFloat
	default:
		return TypeString
	}
}

func isTrue(s string) bool {
	return s == "true" || s == "TRUE" || s == "True"
}

func isFalse(s string) bool {
	return s == "false" || s == "FALSE" || s == "False"
}

// A Value is the stored text of a property together with its detected type.
type Value struct {
	raw string
	typ DataType
}

func newValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	return Value{raw: raw, typ: DetectType(raw)}
}

// Raw returns the value exactly as it is stored.
func (v Value) Raw() string { return v.raw }

// Type returns the detected type of the value.
func (v Value) Type() DataType { return v.typ }

func (v Value) mismatch(want DataType) error {
	return fmt.Errorf("stored value %q is %s, not %s: %w", v.raw, v.typ, want, ErrTypeMismatch)
}

// AsInt returns the value as an int.
func (v Value) AsInt() (int, error) {
	if v.typ != TypeInt {
		return 0, v.mismatch(TypeInt)
	}
	n, err := strconv.Atoi(v.raw)
	if err != nil {
		return 0, fmt.Errorf("stored value %q: %w", v.raw, err)
	}
	return n, nil
}

// AsFloat returns the value as a float64.
func (v Value) AsFloat() (float64, error) {
	if v.typ != TypeFloat {
		return 0, v.mismatch(TypeFloat)
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	if err != nil {
		return 0, fmt.Errorf("stored value %q: %w", v.raw, err)
	}
	return f, nil
}

// AsBool returns the value as a bool.
func (v Value) AsBool() (bool, error) {
	if v.typ != TypeBool {
		return false, v.mismatch(TypeBool)
	}
	return isTrue(v.raw), nil
}

// AsString returns the value as a string. Empty values read as "".
func (v Value) AsString() (string, error) {
	if v.typ != TypeString && v.typ != TypeEmpty {
		return "", v.mismatch(TypeString)
	}
	return v.raw, nil
}

// Interface returns the value converted to its detected Go type:
// int, float64, bool or string.
func (v Value) Interface() interface{} {
	switch v.typ {
	case TypeInt:
		if n, err := v.AsInt(); err == nil {
			return n
		}
	case TypeFloat:
		if f, err := v.AsFloat(); err == nil {
			return f
		}
	case TypeBool:
		b, _ := v.AsBool()
		return b
	}
	return v.raw
}

// stringify converts a Go value to the text stored in the buffer.
func stringify(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if strings.ContainsAny(s, ";#\r\n") {
			return "", fmt.Errorf("%q: comment characters and line breaks are not allowed: %w", v, ErrInvalidValue)
		}
		return s, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return formatInt(int64(v))
	case int64:
		return formatInt(v)
	case uint:
		return formatUint(uint64(v))
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return formatUint(uint64(v))
	case uint64:
		return formatUint(v)
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	}
	return "", fmt.Errorf("%T: %w", value, ErrUnsupportedType)
}

// formatInt and formatUint reject integers outside the int range.
func formatInt(n int64) (string, error) {
	if n < math.MinInt || n > math.MaxInt {
		return "", fmt.Errorf("%d: %w: %w", n, strconv.ErrRange, ErrInvalidValue)
	}
	return strconv.FormatInt(n, 10), nil
}

func formatUint(n uint64) (string, error) {
	if n > math.MaxInt {
		return "", fmt.Errorf("%d: %w: %w", n, strconv.ErrRange, ErrInvalidValue)
	}
	return strconv.FormatUint(n, 10), nil
}

// formatFloat always keeps a decimal point so the text is detected as a
// float again.
func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%v: %w", f, ErrInvalidValue)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}
