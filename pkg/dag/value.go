// ABOUTME: TypedValue union carried by attribute nodes
// ABOUTME: Accessors are conservative: the wrong variant yields absent, never an error

package dag

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueType tags the variant held by a Value
type ValueType string

const (
	TypeText     ValueType = "text"
	TypeInteger  ValueType = "integer"
	TypeShort    ValueType = "short"
	TypeDouble   ValueType = "double"
	TypeBoolean  ValueType = "boolean"
	TypeDateTime ValueType = "datetime"
	TypeGeometry ValueType = "geometry"
)

// Coordinate is a longitude (X) / latitude (Y) pair
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rectangle is the protocol's geographic reference box
type Rectangle struct {
	UpperLeft  Coordinate `json:"upper_left"`
	LowerRight Coordinate `json:"lower_right"`
}

// Value is a closed union of the attribute types the protocol defines
type Value struct {
	typ  ValueType
	text string
	num  int64
	real float64
	flag bool
	when time.Time
	rect Rectangle
}

// Text creates a text value
func Text(s string) Value { return Value{typ: TypeText, text: s} }

// Integer creates a 32-bit integer value
func Integer(i int32) Value { return Value{typ: TypeInteger, num: int64(i)} }

// Short creates a 16-bit integer value
func Short(i int16) Value { return Value{typ: TypeShort, num: int64(i)} }

// Double creates a floating point value
func Double(f float64) Value { return Value{typ: TypeDouble, real: f} }

// Boolean creates a boolean value
func Boolean(b bool) Value { return Value{typ: TypeBoolean, flag: b} }

// DateTime creates a timestamp value, normalized to UTC
func DateTime(t time.Time) Value { return Value{typ: TypeDateTime, when: t.UTC()} }

// Geometry creates a rectangle value
func Geometry(r Rectangle) Value { return Value{typ: TypeGeometry, rect: r} }

// Type returns the variant tag
func (v Value) Type() ValueType { return v.typ }

// AsText returns the text variant
func (v Value) AsText() (string, bool) {
	if v.typ != TypeText {
		return "", false
	}
	return v.text, true
}

// AsInteger returns the integer variant
func (v Value) AsInteger() (int32, bool) {
	if v.typ != TypeInteger {
		return 0, false
	}
	return int32(v.num), true
}

// AsShort returns the short variant
func (v Value) AsShort() (int16, bool) {
	if v.typ != TypeShort {
		return 0, false
	}
	return int16(v.num), true
}

// AsDouble returns the double variant
func (v Value) AsDouble() (float64, bool) {
	if v.typ != TypeDouble {
		return 0, false
	}
	return v.real, true
}

// AsBoolean returns the boolean variant
func (v Value) AsBoolean() (bool, bool) {
	if v.typ != TypeBoolean {
		return false, false
	}
	return v.flag, true
}

// AsDateTime returns the timestamp variant
func (v Value) AsDateTime() (time.Time, bool) {
	if v.typ != TypeDateTime {
		return time.Time{}, false
	}
	return v.when, true
}

// AsGeometry returns the rectangle variant
func (v Value) AsGeometry() (Rectangle, bool) {
	if v.typ != TypeGeometry {
		return Rectangle{}, false
	}
	return v.rect, true
}

// String renders the value for diagnostics
func (v Value) String() string {
	switch v.typ {
	case TypeText:
		return v.text
	case TypeInteger, TypeShort:
		return strconv.FormatInt(v.num, 10)
	case TypeDouble:
		return strconv.FormatFloat(v.real, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.flag)
	case TypeDateTime:
		return v.when.Format(time.RFC3339)
	case TypeGeometry:
		return fmt.Sprintf("[(%g,%g),(%g,%g)]", v.rect.UpperLeft.X, v.rect.UpperLeft.Y, v.rect.LowerRight.X, v.rect.LowerRight.Y)
	default:
		return ""
	}
}

type wireValue struct {
	Type  ValueType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.typ {
	case TypeText:
		payload = v.text
	case TypeInteger, TypeShort:
		payload = v.num
	case TypeDouble:
		payload = v.real
	case TypeBoolean:
		payload = v.flag
	case TypeDateTime:
		payload = v.when
	case TypeGeometry:
		payload = v.rect
	default:
		return []byte("null"), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Type: v.typ, Value: raw})
}

// UnmarshalJSON decodes the {"type": ..., "value": ...} form
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}

	var err error
	switch w.Type {
	case TypeText:
		var s string
		err = json.Unmarshal(w.Value, &s)
		*v = Text(s)
	case TypeInteger:
		var i int32
		err = json.Unmarshal(w.Value, &i)
		*v = Integer(i)
	case TypeShort:
		var i int16
		err = json.Unmarshal(w.Value, &i)
		*v = Short(i)
	case TypeDouble:
		var f float64
		err = json.Unmarshal(w.Value, &f)
		*v = Double(f)
	case TypeBoolean:
		var b bool
		err = json.Unmarshal(w.Value, &b)
		*v = Boolean(b)
	case TypeDateTime:
		var t time.Time
		err = json.Unmarshal(w.Value, &t)
		*v = DateTime(t)
	case TypeGeometry:
		var r Rectangle
		err = json.Unmarshal(w.Value, &r)
		*v = Geometry(r)
	default:
		return fmt.Errorf("unknown value type %q", w.Type)
	}
	if err != nil {
		return fmt.Errorf("decode %s value: %w", w.Type, err)
	}
	return nil
}
