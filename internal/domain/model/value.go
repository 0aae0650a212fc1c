package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a vendor metric value: either a number or a string.
// The zero Value is unset and encodes as JSON null.
type Value struct {
	num   float64
	str   string
	isNum bool
	set   bool
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{num: f, isNum: true, set: true} }

// Text returns a string Value.
func Text(s string) Value { return Value{str: s, set: true} }

// IsSet reports whether v holds anything.
func (v Value) IsSet() bool { return v.set }

// IsNumber reports whether v was given as a number.
func (v Value) IsNumber() bool { return v.isNum }

// Float returns v as a float64. Numeric strings such as "42.5" convert;
// other strings report false.
func (v Value) Float() (float64, bool) {
	if v.isNum {
		return v.num, true
	}
	if !v.set {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders v the way it was received.
func (v Value) String() string {
	switch {
	case !v.set:
		return ""
	case v.isNum:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return v.str
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case v.isNum:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("metric value must be a number or string, got %s", data)
		}
		*v = Number(f)
		return nil
	}
}
