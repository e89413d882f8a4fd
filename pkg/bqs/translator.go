// ABOUTME: Translates generic filter trees into BQS strings
// ABOUTME: Remaps property names and checks eligibility against the view schema

package bqs

import (
	"strings"

	"github.com/nainya/nsilibridge/pkg/filter"
	"github.com/nainya/nsilibridge/pkg/nsili"
)

// AnyText is the generic full-text property
const AnyText = "anyText"

// AnyGeo is the generic any-geometry property
const AnyGeo = "anyGeo"

// DefaultPropertyMap maps generic record fields to protocol attributes
var DefaultPropertyMap = map[string][]string{
	AnyGeo:         {nsili.Key(nsili.Coverage, nsili.AttrSpatialRefBox)},
	"modified":     {nsili.Key(nsili.Card, nsili.AttrDateTimeModified)},
	"created":      {nsili.Key(nsili.Card, nsili.AttrSourceDateTimeModified)},
	"id":           {nsili.Key(nsili.Card, nsili.AttrIdentifier)},
	"title":        {nsili.Key(nsili.File, nsili.AttrTitle)},
	"description":  {nsili.Key(nsili.Common, nsili.AttrDescriptionAbstract)},
	"effective":    {nsili.Key(nsili.Coverage, nsili.AttrTemporalEnd)},
	"resource-uri": {nsili.Key(nsili.File, nsili.AttrProductURL)},
	"datatype":     {nsili.Key(nsili.Common, nsili.AttrType)},
}

// Translator renders filters for one view. It holds no mutable state and is safe for concurrent use.
type Translator struct {
	schema     *nsili.Schema
	view       string
	properties map[string][]string
}

// NewTranslator creates a translator over a schema and view using DefaultPropertyMap
func NewTranslator(schema *nsili.Schema, view string) *Translator {
	return &Translator{schema: schema, view: view, properties: DefaultPropertyMap}
}

// WithPropertyMap returns a copy that remaps properties through m
func (t *Translator) WithPropertyMap(m map[string][]string) *Translator {
	c := *t
	c.properties = m
	return &c
}

// View returns the active view name
func (t *Translator) View() string {
	return t.view
}

// Translate renders f as BQS. Filters that cannot be expressed for the view render as "".
func (t *Translator) Translate(f filter.Filter) string {
	switch f.Kind {
	case filter.And:
		return join(opAnd, t.children(f))
	case filter.Or:
		return join(opOr, t.children(f))
	case filter.Not:
		if len(f.Children) == 0 {
			return ""
		}
		return negate(t.Translate(f.Children[0]))
	case filter.Equal:
		return t.compare(f, opEqual)
	case filter.NotEqual:
		return negate(t.compare(f, opEqual))
	case filter.Less:
		return t.compare(f, opLess)
	case filter.LessOrEqual:
		return t.compare(f, opLessEq)
	case filter.Greater:
		return t.compare(f, opGreater)
	case filter.GreaterOrEqual:
		return t.compare(f, opGreaterEq)
	case filter.Between:
		return t.between(f)
	case filter.IsNull:
		return t.each(f.Property, false, func(p string) string {
			return negate(predicate(p, opExists, ""))
		})
	case filter.Like:
		return t.like(f)
	case filter.Before:
		return t.temporal(f, 0, opLessEq)
	case filter.After:
		return t.temporal(f, 0, opGreaterEq)
	case filter.During:
		return join(opAnd, []string{t.temporal(f, 0, opGreaterEq), t.temporal(f, 1, opLessEq)})
	case filter.Intersects:
		return t.spatial(f, opIntersect)
	case filter.Within:
		return t.spatial(f, opInside)
	case filter.Disjoint:
		return t.spatial(f, opOutside)
	case filter.DWithin:
		return t.distance(f, opWithin)
	case filter.Beyond:
		return t.distance(f, opBeyond)
	default:
		return ""
	}
}

func (t *Translator) children(f filter.Filter) []string {
	out := make([]string, 0, len(f.Children))
	for _, c := range f.Children {
		out = append(out, t.Translate(c))
	}
	return out
}

func negate(s string) string {
	if s == "" {
		return ""
	}
	return opNot + s
}

// mapProperty applies the property map; unmapped names pass through unchanged
func (t *Translator) mapProperty(property string) []string {
	if mapped, ok := t.properties[property]; ok {
		return mapped
	}
	return []string{property}
}

// Queryable reports whether the property maps to at least one attribute the view can query
func (t *Translator) Queryable(property string) bool {
	for _, p := range t.mapProperty(property) {
		if t.queryable(p) {
			return true
		}
	}
	return false
}

func (t *Translator) queryable(property string) bool {
	return t.schema != nil && t.schema.IsQueryable(t.view, property)
}

// each renders one clause per mapped property and ors them together
func (t *Translator) each(property string, requireQueryable bool, render func(p string) string) string {
	var clauses []string
	for _, p := range t.mapProperty(property) {
		if requireQueryable && !t.queryable(p) {
			continue
		}
		clauses = append(clauses, render(p))
	}
	return join(opOr, clauses)
}

// value formats a literal operand
func value(l filter.Literal) string {
	switch l.Type {
	case filter.StringLiteral:
		return quote(l.String)
	case filter.BooleanLiteral:
		return formatBool(l.Boolean)
	case filter.TimeLiteral:
		return formatTime(l.Time)
	case filter.WKTLiteral:
		return geometry(l.String)
	default:
		return l.Text()
	}
}

func (t *Translator) compare(f filter.Filter, op string) string {
	lit, ok := f.Literal(0)
	if !ok {
		return ""
	}
	v := value(lit)
	if v == "" {
		return ""
	}
	return t.each(f.Property, false, func(p string) string { return predicate(p, op, v) })
}

func (t *Translator) between(f filter.Filter) string {
	lo, ok := f.Literal(0)
	if !ok {
		return ""
	}
	hi, ok := f.Literal(1)
	if !ok {
		return ""
	}
	operands := value(lo) + "," + value(hi)
	return t.each(f.Property, false, func(p string) string { return predicate(p, opBetween, operands) })
}

func (t *Translator) like(f filter.Filter) string {
	lit, ok := f.Literal(0)
	if !ok {
		return ""
	}
	pattern := lit.Text()

	props := t.mapProperty(f.Property)
	direct := f.Property != AnyText
	if direct {
		direct = false
		for _, p := range props {
			if t.queryable(p) {
				direct = true
				break
			}
		}
	}
	if !direct {
		return t.anyText(pattern)
	}

	v := quote(likePattern(pattern))
	return t.each(f.Property, true, func(p string) string { return predicate(p, opLike, v) })
}

// anyText expands a text match into one clause per text attribute of the view
func (t *Translator) anyText(pattern string) string {
	if t.schema == nil {
		return ""
	}
	likeValue := quote(likePattern(pattern))
	exactValue := quote(stripWildcards(pattern))

	var clauses []string
	for _, a := range t.schema.Queryable(t.view) {
		if !a.IsText() || strings.HasSuffix(a.Name, "."+nsili.AttrType) || strings.Contains(a.Name, nsili.AttrAdvancedGeoSpatial) {
			continue
		}
		if a.Domain == nsili.List {
			clauses = append(clauses, predicate(a.Name, opEqual, exactValue))
		} else {
			clauses = append(clauses, predicate(a.Name, opLike, likeValue))
		}
	}
	return join(opOr, clauses)
}

func (t *Translator) temporal(f filter.Filter, operand int, op string) string {
	lit, ok := f.Literal(operand)
	if !ok {
		return ""
	}
	v := value(lit)
	return t.each(f.Property, true, func(p string) string { return predicate(p, op, v) })
}

func (t *Translator) spatial(f filter.Filter, op string) string {
	lit, ok := f.Literal(0)
	if !ok {
		return ""
	}
	g := geometry(lit.String)
	if g == "" {
		return ""
	}
	return t.each(f.Property, true, func(p string) string { return predicate(p, op, g) })
}

func (t *Translator) distance(f filter.Filter, op string) string {
	lit, ok := f.Literal(0)
	if !ok {
		return ""
	}
	g := geometry(lit.String)
	if g == "" {
		return ""
	}
	operand := formatNumber(f.Distance) + opMetersOf + g
	return t.each(f.Property, true, func(p string) string { return predicate(p, op, operand) })
}
