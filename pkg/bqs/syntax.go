// ABOUTME: Boolean Query Syntax tokens and literal formatting
// ABOUTME: Shared by the translator and the parser

package bqs

import (
	"strconv"
	"strings"
	"time"

	"github.com/nainya/nsilibridge/pkg/geo"
)

// Operators as they appear on the wire
const (
	opEqual     = " = "
	opLess      = " < "
	opGreater   = " > "
	opLessEq    = " <= "
	opGreaterEq = " >= "
	opBetween   = " <> "
	opLike      = " like "
	opAnd       = " and "
	opOr        = " or "
	opNot       = "not "
	opExists    = " exists"
	opIntersect = " intersect "
	opOutside   = " outside "
	opInside    = " inside "
	opWithin    = " within "
	opBeyond    = " beyond "
	opMetersOf  = " meters of "
)

// DateLayout is the timestamp format of date literals, always UTC
const DateLayout = "2006/01/02 15:04:05"

const wildcard = "%"

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatTime(t time.Time) string {
	return quote(t.UTC().Format(DateLayout))
}

func formatBool(b bool) string {
	if b {
		return quote("TRUE")
	}
	return quote("FALSE")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// likePattern rewrites * and ? to the protocol wildcard and anchors both ends
func likePattern(pattern string) string {
	p := strings.NewReplacer("*", wildcard, "?", wildcard).Replace(pattern)
	if !strings.HasPrefix(p, wildcard) {
		p = wildcard + p
	}
	if !strings.HasSuffix(p, wildcard) {
		p += wildcard
	}
	return p
}

// stripWildcards removes every wildcard character from a pattern
func stripWildcards(pattern string) string {
	return strings.NewReplacer("*", "", "?", "", wildcard, "").Replace(pattern)
}

// geometry encodes WKT as GEOMTYPE(lat,lon,...). Unparsable or empty geometry yields "".
func geometry(wkt string) string {
	g, err := geo.Parse(wkt)
	if err != nil {
		return ""
	}
	coords := geo.Coordinates(g)
	parts := make([]string, 0, len(coords)*2)
	for _, c := range coords {
		parts = append(parts, formatNumber(c.Y()), formatNumber(c.X()))
	}
	return geo.TypeName(g) + "(" + strings.Join(parts, ",") + ")"
}

// join drops blank operands; one survivor is returned as is, several are parenthesized
func join(op string, operands []string) string {
	kept := make([]string, 0, len(operands))
	for _, o := range operands {
		if strings.TrimSpace(o) != "" {
			kept = append(kept, o)
		}
	}
	switch len(kept) {
	case 0:
		return ""
	case 1:
		return kept[0]
	default:
		return "(" + strings.Join(kept, op) + ")"
	}
}

func predicate(property, op, value string) string {
	return "(" + property + op + value + ")"
}
