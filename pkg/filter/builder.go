// ABOUTME: Constructors and a fluent builder for filter trees
// ABOUTME: Mirrors the relational/temporal/spatial vocabulary of the translator

package filter

import "time"

func compare(kind Kind, property string, lit Literal) Filter {
	return Filter{Kind: kind, Property: property, Literals: []Literal{lit}}
}

// Eq matches property == lit
func Eq(property string, lit Literal) Filter { return compare(Equal, property, lit) }

// Ne matches property != lit
func Ne(property string, lit Literal) Filter { return compare(NotEqual, property, lit) }

// Lt matches property < lit
func Lt(property string, lit Literal) Filter { return compare(Less, property, lit) }

// Lte matches property <= lit
func Lte(property string, lit Literal) Filter { return compare(LessOrEqual, property, lit) }

// Gt matches property > lit
func Gt(property string, lit Literal) Filter { return compare(Greater, property, lit) }

// Gte matches property >= lit
func Gte(property string, lit Literal) Filter { return compare(GreaterOrEqual, property, lit) }

// Range matches lower <= property <= upper
func Range(property string, lower, upper Literal) Filter {
	return Filter{Kind: Between, Property: property, Literals: []Literal{lower, upper}}
}

// Null matches records without the property
func Null(property string) Filter { return Filter{Kind: IsNull, Property: property} }

// Matches is a wildcard text match using * and ?
func Matches(property, pattern string) Filter { return compare(Like, property, Str(pattern)) }

// BeforeTime matches property before t
func BeforeTime(property string, t time.Time) Filter { return compare(Before, property, At(t)) }

// AfterTime matches property after t
func AfterTime(property string, t time.Time) Filter { return compare(After, property, At(t)) }

// DuringPeriod matches property within [start, end]
func DuringPeriod(property string, start, end time.Time) Filter {
	return Filter{Kind: During, Property: property, Literals: []Literal{At(start), At(end)}}
}

// Spatial builds a within/disjoint/intersects predicate
func Spatial(kind Kind, property, wkt string) Filter { return compare(kind, property, WKT(wkt)) }

// Distance builds a dwithin/beyond predicate
func Distance(kind Kind, property, wkt string, meters float64) Filter {
	f := compare(kind, property, WKT(wkt))
	f.Distance = meters
	return f
}

// All joins filters with and
func All(children ...Filter) Filter { return Filter{Kind: And, Children: children} }

// Any joins filters with or
func Any(children ...Filter) Filter { return Filter{Kind: Or, Children: children} }

// Negate wraps a filter with not
func Negate(child Filter) Filter { return Filter{Kind: Not, Children: []Filter{child}} }

// Builder provides a fluent interface for conjunctive filters
type Builder struct {
	terms []Filter
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Where adds an equality term
func (b *Builder) Where(property string, lit Literal) *Builder {
	b.terms = append(b.terms, Eq(property, lit))
	return b
}

// Like adds a wildcard term
func (b *Builder) Like(property, pattern string) *Builder {
	b.terms = append(b.terms, Matches(property, pattern))
	return b
}

// ModifiedSince adds an after term on the generic modified field
func (b *Builder) ModifiedSince(t time.Time) *Builder {
	b.terms = append(b.terms, AfterTime("modified", t))
	return b
}

// Intersecting adds a spatial intersects term on any geometry
func (b *Builder) Intersecting(wkt string) *Builder {
	b.terms = append(b.terms, Spatial(Intersects, "anyGeo", wkt))
	return b
}

// With adds an arbitrary term
func (b *Builder) With(f Filter) *Builder {
	b.terms = append(b.terms, f)
	return b
}

// Build returns the conjunction of all terms; a single term is returned unwrapped
func (b *Builder) Build() Filter {
	if len(b.terms) == 1 {
		return b.terms[0]
	}
	return All(b.terms...)
}
