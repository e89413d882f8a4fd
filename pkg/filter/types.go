// ABOUTME: Generic filter expression tree consumed by the query translator
// ABOUTME: Relational, boolean, temporal and spatial node kinds with typed literals

package filter

import (
	"strconv"
	"time"
)

// Kind identifies a filter node
type Kind string

const (
	And            Kind = "and"
	Or             Kind = "or"
	Not            Kind = "not"
	Equal          Kind = "equal"
	NotEqual       Kind = "not_equal"
	Less           Kind = "less"
	LessOrEqual    Kind = "less_or_equal"
	Greater        Kind = "greater"
	GreaterOrEqual Kind = "greater_or_equal"
	Between        Kind = "between"
	IsNull         Kind = "is_null"
	Like           Kind = "like"
	Before         Kind = "before"
	After          Kind = "after"
	During         Kind = "during"
	Within         Kind = "within"
	Disjoint       Kind = "disjoint"
	Intersects     Kind = "intersects"
	DWithin        Kind = "dwithin"
	Beyond         Kind = "beyond"
)

// LiteralType tags a Literal
type LiteralType string

const (
	StringLiteral  LiteralType = "string"
	IntegerLiteral LiteralType = "integer"
	NumberLiteral  LiteralType = "number"
	BooleanLiteral LiteralType = "boolean"
	TimeLiteral    LiteralType = "time"
	WKTLiteral     LiteralType = "wkt"
)

// Literal is an operand value
type Literal struct {
	Type    LiteralType `json:"type"`
	String  string      `json:"string,omitempty"`
	Integer int64       `json:"integer,omitempty"`
	Number  float64     `json:"number,omitempty"`
	Boolean bool        `json:"boolean,omitempty"`
	Time    time.Time   `json:"time,omitzero"`
}

// Str creates a string literal
func Str(s string) Literal { return Literal{Type: StringLiteral, String: s} }

// Int creates an integer literal
func Int(i int64) Literal { return Literal{Type: IntegerLiteral, Integer: i} }

// Num creates a floating point literal
func Num(f float64) Literal { return Literal{Type: NumberLiteral, Number: f} }

// Bool creates a boolean literal
func Bool(b bool) Literal { return Literal{Type: BooleanLiteral, Boolean: b} }

// At creates a timestamp literal
func At(t time.Time) Literal { return Literal{Type: TimeLiteral, Time: t} }

// WKT creates a geometry literal from well-known text
func WKT(s string) Literal { return Literal{Type: WKTLiteral, String: s} }

// Text renders the literal without quoting
func (l Literal) Text() string {
	switch l.Type {
	case IntegerLiteral:
		return strconv.FormatInt(l.Integer, 10)
	case NumberLiteral:
		return strconv.FormatFloat(l.Number, 'f', -1, 64)
	case BooleanLiteral:
		return strconv.FormatBool(l.Boolean)
	case TimeLiteral:
		return l.Time.UTC().Format(time.RFC3339)
	default:
		return l.String
	}
}

// Filter is one node of a filter tree
type Filter struct {
	Kind     Kind      `json:"kind"`
	Property string    `json:"property,omitempty"`
	Literals []Literal `json:"literals,omitempty"`
	Children []Filter  `json:"children,omitempty"`
	// Distance is the dwithin/beyond radius in meters
	Distance float64 `json:"distance,omitempty"`
}

// Literal returns the i-th operand
func (f Filter) Literal(i int) (Literal, bool) {
	if i < 0 || i >= len(f.Literals) {
		return Literal{}, false
	}
	return f.Literals[i], true
}
