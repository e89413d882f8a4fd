// ABOUTME: Parses BQS strings back into filter trees
// ABOUTME: Grammar covers comparison, like, exists, between and spatial predicates

package bqs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/nainya/nsilibridge/pkg/filter"
)

// ErrSyntax is returned for queries that do not follow the grammar
var ErrSyntax = errors.New("bqs syntax error")

type bqsQuery struct {
	Terms []*bqsTerm `parser:"@@ ( 'or' @@ )*"`
}

type bqsTerm struct {
	Factors []*bqsFactor `parser:"@@ ( 'and' @@ )*"`
}

type bqsFactor struct {
	Not     bool        `parser:"@'not'?"`
	Primary *bqsPrimary `parser:"@@"`
}

type bqsPrimary struct {
	Sub  *bqsQuery     `parser:"  '(' @@ ')'"`
	Pred *bqsPredicate `parser:"| @@"`
}

type bqsPredicate struct {
	Attribute string       `parser:"@Ident"`
	Exists    bool         `parser:"( @'exists'"`
	Like      *string      `parser:"| 'like' @String"`
	Between   *bqsBetween  `parser:"| '<>' @@"`
	Compare   *bqsCompare  `parser:"| @@"`
	Spatial   *bqsSpatial  `parser:"| @@"`
	Distance  *bqsDistance `parser:"| @@ )"`
}

type bqsBetween struct {
	Lower *bqsConstant `parser:"@@ ','"`
	Upper *bqsConstant `parser:"@@"`
}

type bqsCompare struct {
	Op    string       `parser:"@( '<=' | '>=' | '=' | '<' | '>' )"`
	Value *bqsConstant `parser:"@@"`
}

type bqsSpatial struct {
	Op       string       `parser:"@( 'intersect' | 'inside' | 'outside' )"`
	Geometry *bqsGeometry `parser:"@@"`
}

type bqsDistance struct {
	Op       string       `parser:"@( 'within' | 'beyond' )"`
	Meters   string       `parser:"@Number 'meters' 'of'"`
	Geometry *bqsGeometry `parser:"@@"`
}

type bqsConstant struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
}

type bqsGeometry struct {
	Type   string   `parser:"@Ident"`
	Coords []string `parser:"'(' @Number ( ',' @Number )* ')'"`
}

var bqsLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`},
	{Name: "Keyword", Pattern: `(?i)(?:and|or|not|like|exists|intersect|inside|outside|within|beyond|meters|of)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`},
	{Name: "Operator", Pattern: `<=|>=|<>|=|<|>`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var bqsParser = participle.MustBuild[bqsQuery](
	participle.Lexer(bqsLexer),
	participle.Elide("Whitespace"),
	participle.Map(lowerKeyword, "Keyword"),
	participle.UseLookahead(2),
)

func lowerKeyword(t lexer.Token) (lexer.Token, error) {
	t.Value = strings.ToLower(t.Value)
	return t, nil
}

// Parse reads a BQS string into a filter tree
func Parse(query string) (filter.Filter, error) {
	ast, err := bqsParser.ParseString("", query)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return ast.filter()
}

// Validate reports whether query follows the grammar
func Validate(query string) error {
	_, err := Parse(query)
	return err
}

func (q *bqsQuery) filter() (filter.Filter, error) {
	out := make([]filter.Filter, 0, len(q.Terms))
	for _, t := range q.Terms {
		f, err := t.filter()
		if err != nil {
			return filter.Filter{}, err
		}
		out = append(out, f)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return filter.Any(out...), nil
}

func (t *bqsTerm) filter() (filter.Filter, error) {
	out := make([]filter.Filter, 0, len(t.Factors))
	for _, fa := range t.Factors {
		f, err := fa.filter()
		if err != nil {
			return filter.Filter{}, err
		}
		out = append(out, f)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return filter.All(out...), nil
}

func (fa *bqsFactor) filter() (filter.Filter, error) {
	var (
		f   filter.Filter
		err error
	)
	if fa.Primary.Sub != nil {
		f, err = fa.Primary.Sub.filter()
	} else {
		f, err = fa.Primary.Pred.filter()
	}
	if err != nil || !fa.Not {
		return f, err
	}
	return negateFilter(f), nil
}

func negateFilter(f filter.Filter) filter.Filter {
	if f.Kind == filter.Not && len(f.Children) == 1 {
		return f.Children[0]
	}
	return filter.Negate(f)
}

var compareKinds = map[string]filter.Kind{
	"=":  filter.Equal,
	"<":  filter.Less,
	">":  filter.Greater,
	"<=": filter.LessOrEqual,
	">=": filter.GreaterOrEqual,
}

func (p *bqsPredicate) filter() (filter.Filter, error) {
	attr := p.Attribute
	switch {
	case p.Exists:
		return filter.Negate(filter.Null(attr)), nil
	case p.Like != nil:
		return filter.Matches(attr, unquote(*p.Like)), nil
	case p.Between != nil:
		return filter.Range(attr, p.Between.Lower.literal(), p.Between.Upper.literal()), nil
	case p.Compare != nil:
		return filter.Filter{Kind: compareKinds[p.Compare.Op], Property: attr, Literals: []filter.Literal{p.Compare.Value.literal()}}, nil
	case p.Spatial != nil:
		g, err := p.Spatial.Geometry.wkt()
		if err != nil {
			return filter.Filter{}, err
		}
		kind := map[string]filter.Kind{"intersect": filter.Intersects, "inside": filter.Within, "outside": filter.Disjoint}[strings.ToLower(p.Spatial.Op)]
		return filter.Spatial(kind, attr, g), nil
	case p.Distance != nil:
		g, err := p.Distance.Geometry.wkt()
		if err != nil {
			return filter.Filter{}, err
		}
		meters, err := strconv.ParseFloat(p.Distance.Meters, 64)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("%w: distance %q", ErrSyntax, p.Distance.Meters)
		}
		kind := filter.DWithin
		if strings.EqualFold(p.Distance.Op, "beyond") {
			kind = filter.Beyond
		}
		return filter.Distance(kind, attr, g, meters), nil
	default:
		return filter.Filter{}, fmt.Errorf("%w: incomplete predicate on %s", ErrSyntax, attr)
	}
}

func unquote(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "'"), "'")
	return strings.ReplaceAll(s, "''", "'")
}

func (c *bqsConstant) literal() filter.Literal {
	if c.String != nil {
		s := unquote(*c.String)
		if t, err := time.Parse(DateLayout, s); err == nil {
			return filter.At(t)
		}
		return filter.Str(s)
	}
	raw := *c.Number
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return filter.Int(i)
	}
	f, _ := strconv.ParseFloat(raw, 64)
	return filter.Num(f)
}

// wkt rebuilds well-known text from lat,lon pairs
func (g *bqsGeometry) wkt() (string, error) {
	if len(g.Coords)%2 != 0 {
		return "", fmt.Errorf("%w: odd coordinate count in %s", ErrSyntax, g.Type)
	}
	points := make([]orb.Point, 0, len(g.Coords)/2)
	for i := 0; i < len(g.Coords); i += 2 {
		lat, err := strconv.ParseFloat(g.Coords[i], 64)
		if err != nil {
			return "", fmt.Errorf("%w: coordinate %q", ErrSyntax, g.Coords[i])
		}
		lon, err := strconv.ParseFloat(g.Coords[i+1], 64)
		if err != nil {
			return "", fmt.Errorf("%w: coordinate %q", ErrSyntax, g.Coords[i+1])
		}
		points = append(points, orb.Point{lon, lat})
	}

	var geom orb.Geometry
	switch strings.ToUpper(g.Type) {
	case "POINT":
		if len(points) != 1 {
			return "", fmt.Errorf("%w: point needs one coordinate", ErrSyntax)
		}
		geom = points[0]
	case "LINESTRING":
		geom = orb.LineString(points)
	case "POLYGON":
		geom = orb.Polygon{orb.Ring(points)}
	case "MULTIPOINT":
		geom = orb.MultiPoint(points)
	default:
		return "", fmt.Errorf("%w: unsupported geometry %s", ErrSyntax, g.Type)
	}
	return wkt.MarshalString(geom), nil
}
