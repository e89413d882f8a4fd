package bqs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/nsilibridge/pkg/filter"
	"github.com/nainya/nsilibridge/pkg/nsili"
)

func TestParsePredicates(t *testing.T) {
	f, err := Parse("(NSIL_FILE.title like '%bridge%')")
	require.NoError(t, err)
	assert.Equal(t, filter.Matches("NSIL_FILE.title", "%bridge%"), f)

	f, err = Parse("(NSIL_CARD.dateTimeModified >= '2024/01/02 03:04:05')")
	require.NoError(t, err)
	assert.Equal(t, filter.GreaterOrEqual, f.Kind)
	lit, _ := f.Literal(0)
	assert.Equal(t, filter.TimeLiteral, lit.Type)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), lit.Time)

	f, err = Parse("(NSIL_IMAGERY.NIIRS <> 2,5.5)")
	require.NoError(t, err)
	assert.Equal(t, filter.Range("NSIL_IMAGERY.NIIRS", filter.Int(2), filter.Num(5.5)), f)

	f, err = Parse("(NSIL_FILE.title = 'O''Brien')")
	require.NoError(t, err)
	assert.Equal(t, filter.Eq("NSIL_FILE.title", filter.Str("O'Brien")), f)

	f, err = Parse("not (NSIL_FILE.title exists)")
	require.NoError(t, err)
	assert.Equal(t, filter.Null("NSIL_FILE.title"), f)

	f, err = Parse("NSIL_FILE.title exists")
	require.NoError(t, err)
	assert.Equal(t, filter.Negate(filter.Null("NSIL_FILE.title")), f)

	f, err = Parse("(NSIL_COVERAGE.spatialGeographicReferenceBox within 500 meters of POINT(20,10))")
	require.NoError(t, err)
	assert.Equal(t, filter.DWithin, f.Kind)
	assert.Equal(t, 500.0, f.Distance)
	lit, _ = f.Literal(0)
	assert.Equal(t, "POINT(10 20)", lit.String)
}

func TestParseBoolean(t *testing.T) {
	f, err := Parse("((NSIL_FILE.title = 'a') and (NSIL_CARD.status = 'NEW') or (NSIL_FILE.title = 'b'))")
	require.NoError(t, err)
	require.Equal(t, filter.Or, f.Kind)
	require.Len(t, f.Children, 2)
	assert.Equal(t, filter.And, f.Children[0].Kind)
	assert.Len(t, f.Children[0].Children, 2)
	assert.Equal(t, filter.Equal, f.Children[1].Kind)

	f, err = Parse("NSIL_FILE.title LIKE '%x%' AND NSIL_CARD.status = 'NEW'")
	require.NoError(t, err)
	assert.Equal(t, filter.And, f.Kind)
}

func TestParseErrors(t *testing.T) {
	for _, q := range []string{
		"",
		"(NSIL_FILE.title = )",
		"(NSIL_FILE.title like 5)",
		"(NSIL_FILE.title = 'a'",
		"(NSIL_COVERAGE.spatialGeographicReferenceBox intersect POINT(1,2,3))",
		"(NSIL_COVERAGE.spatialGeographicReferenceBox intersect CIRCLE(1,2))",
		"(NSIL_COVERAGE.spatialGeographicReferenceBox intersect POINT(1,2,3,4))",
	} {
		t.Run(q, func(t *testing.T) {
			_, err := Parse(q)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.Error(t, Validate(q))
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tr := NewTranslator(nsili.DefaultSchema(), nsili.AllView)
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	polygon := "POLYGON((1 2, 3 2, 3 4, 1 4, 1 2))"

	filters := []filter.Filter{
		filter.Eq("title", filter.Str("it's")),
		filter.Ne("NSIL_CARD.status", filter.Str("OBSOLETE")),
		filter.Eq("NSIL_FILE.archived", filter.Bool(false)),
		filter.Range("NSIL_IMAGERY.cloudCoverPercentage", filter.Int(0), filter.Int(20)),
		filter.Null("description"),
		filter.Matches("title", "*bridge*"),
		filter.DuringPeriod("modified", at, at.Add(time.Hour)),
		filter.Spatial(filter.Intersects, AnyGeo, polygon),
		filter.Spatial(filter.Disjoint, AnyGeo, "LINESTRING(1 2, 3 4)"),
		filter.Distance(filter.Beyond, AnyGeo, "POINT(1 2)", 12.5),
		filter.All(
			filter.Gte("NSIL_IMAGERY.NIIRS", filter.Num(3)),
			filter.Any(filter.Eq("id", filter.Str("a")), filter.Eq("id", filter.Str("b"))),
		),
	}

	for _, f := range filters {
		first := tr.Translate(f)
		require.NotEmpty(t, first)
		t.Run(first, func(t *testing.T) {
			parsed, err := Parse(first)
			require.NoError(t, err)
			assert.Equal(t, first, tr.Translate(parsed))
		})
	}
}
