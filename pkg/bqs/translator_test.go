package bqs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nainya/nsilibridge/pkg/filter"
	"github.com/nainya/nsilibridge/pkg/nsili"
)

const testView = "TEST_VIEW"

func testSchema() *nsili.Schema {
	return nsili.NewSchema(map[string][]nsili.AttributeInfo{
		testView: {
			{Name: "NSIL_FILE.title", Type: nsili.TextAttribute, Domain: nsili.FreeText, Queryable: true},
			{Name: "NSIL_COMMON.language", Type: nsili.TextAttribute, Domain: nsili.List, Queryable: true},
			{Name: "NSIL_COMMON.type", Type: nsili.TextAttribute, Domain: nsili.List, Queryable: true},
			{Name: "NSIL_COVERAGE.advancedGeoSpatial", Type: nsili.TextAttribute, Domain: nsili.FreeText, Queryable: true},
			{Name: "NSIL_FILE.creator", Type: nsili.TextAttribute, Domain: nsili.FreeText},
			{Name: "NSIL_CARD.dateTimeModified", Type: nsili.DateTimeAttribute, Domain: nsili.Time, Queryable: true},
			{Name: "NSIL_COVERAGE.spatialGeographicReferenceBox", Type: nsili.RectangleAttribute, Domain: nsili.Geo, Queryable: true},
		},
	})
}

func newTestTranslator() *Translator {
	return NewTranslator(testSchema(), testView)
}

func TestTranslateComparisons(t *testing.T) {
	tr := newTestTranslator()

	tests := []struct {
		name string
		f    filter.Filter
		want string
	}{
		{"mapped equal", filter.Eq("title", filter.Str("abc")), "(NSIL_FILE.title = 'abc')"},
		{"quote doubling", filter.Eq("title", filter.Str("O'Brien")), "(NSIL_FILE.title = 'O''Brien')"},
		{"passthrough boolean", filter.Eq("NSIL_FILE.archived", filter.Bool(true)), "(NSIL_FILE.archived = 'TRUE')"},
		{"integer less", filter.Lt("NSIL_IMAGERY.NIIRS", filter.Int(4)), "(NSIL_IMAGERY.NIIRS < 4)"},
		{"float greater", filter.Gt("NSIL_VIDEO.frameRate", filter.Num(29.97)), "(NSIL_VIDEO.frameRate > 29.97)"},
		{"not equal", filter.Ne("title", filter.Str("a")), "not (NSIL_FILE.title = 'a')"},
		{"between", filter.Range("NSIL_IMAGERY.NIIRS", filter.Int(2), filter.Int(5)), "(NSIL_IMAGERY.NIIRS <> 2,5)"},
		{"is null", filter.Null("title"), "not (NSIL_FILE.title exists)"},
		{
			"time equal",
			filter.Eq("modified", filter.At(time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)))),
			"(NSIL_CARD.dateTimeModified = '2024/01/02 02:04:05')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Translate(tt.f))
		})
	}
}

func TestTranslateBoolean(t *testing.T) {
	tr := newTestTranslator()
	a := filter.Eq("title", filter.Str("a"))
	b := filter.Eq("NSIL_COMMON.language", filter.Str("en"))
	blank := filter.Spatial(filter.Intersects, AnyGeo, "garbage")

	assert.Equal(t, "((NSIL_FILE.title = 'a') and (NSIL_COMMON.language = 'en'))", tr.Translate(filter.All(a, b)))
	assert.Equal(t, "((NSIL_FILE.title = 'a') or (NSIL_COMMON.language = 'en'))", tr.Translate(filter.Any(a, b)))

	// blank operands disappear and a lone survivor is not wrapped
	assert.Equal(t, "(NSIL_FILE.title = 'a')", tr.Translate(filter.All(a, blank)))
	assert.Equal(t, "", tr.Translate(filter.Any(blank, blank)))
	assert.Equal(t, "", tr.Translate(filter.Negate(blank)))
	assert.Equal(t, "not ((NSIL_FILE.title = 'a') or (NSIL_COMMON.language = 'en'))", tr.Translate(filter.Negate(filter.Any(a, b))))
	assert.Equal(t, "", tr.Translate(filter.Filter{Kind: filter.Not}))
	assert.Equal(t, "", tr.Translate(filter.Filter{Kind: "unknown"}))
}

func TestTranslateLike(t *testing.T) {
	tr := newTestTranslator()

	assert.Equal(t, "(NSIL_FILE.title like '%bridge%')", tr.Translate(filter.Matches("title", "bridge")))
	assert.Equal(t, "(NSIL_FILE.title like '%test%')", tr.Translate(filter.Matches("title", "*test?")))
	assert.Equal(t, "(NSIL_FILE.title like '%a%b%')", tr.Translate(filter.Matches("title", "a*b")))

	expanded := "((NSIL_FILE.title like '%test%') or (NSIL_COMMON.language = 'test'))"
	assert.Equal(t, expanded, tr.Translate(filter.Matches(AnyText, "*test?")))

	// a property that cannot be queried falls back to every text attribute
	assert.Equal(t, expanded, tr.Translate(filter.Matches("NSIL_FILE.creator", "*test?")))
}

func TestTranslateTemporal(t *testing.T) {
	tr := newTestTranslator()
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	assert.Equal(t, "(NSIL_CARD.dateTimeModified >= '2024/01/02 03:04:05')", tr.Translate(filter.AfterTime("modified", start)))
	assert.Equal(t, "(NSIL_CARD.dateTimeModified <= '2024/01/02 03:04:05')", tr.Translate(filter.BeforeTime("modified", start)))
	assert.Equal(t,
		"((NSIL_CARD.dateTimeModified >= '2024/01/02 03:04:05') and (NSIL_CARD.dateTimeModified <= '2024/01/03 03:04:05'))",
		tr.Translate(filter.DuringPeriod("modified", start, end)))

	assert.Equal(t, "", tr.Translate(filter.AfterTime("NSIL_FILE.creator", start)))
	assert.Equal(t, "", tr.Translate(filter.AfterTime("NSIL_NOWHERE.attr", start)))
}

func TestTranslateSpatial(t *testing.T) {
	tr := newTestTranslator()
	polygon := "POLYGON((1 2, 3 2, 3 4, 1 4, 1 2))"

	assert.Equal(t,
		"(NSIL_COVERAGE.spatialGeographicReferenceBox intersect POLYGON(2,1,2,3,4,3,4,1,2,1))",
		tr.Translate(filter.Spatial(filter.Intersects, AnyGeo, polygon)))
	assert.Equal(t,
		"(NSIL_COVERAGE.spatialGeographicReferenceBox inside POLYGON(2,1,2,3,4,3,4,1,2,1))",
		tr.Translate(filter.Spatial(filter.Within, AnyGeo, polygon)))
	assert.Equal(t,
		"(NSIL_COVERAGE.spatialGeographicReferenceBox outside POINT(20,10))",
		tr.Translate(filter.Spatial(filter.Disjoint, AnyGeo, "POINT(10 20)")))
	assert.Equal(t,
		"(NSIL_COVERAGE.spatialGeographicReferenceBox within 500 meters of POINT(20,10))",
		tr.Translate(filter.Distance(filter.DWithin, AnyGeo, "POINT(10 20)", 500)))
	assert.Equal(t,
		"(NSIL_COVERAGE.spatialGeographicReferenceBox beyond 1.5 meters of POINT(20,10))",
		tr.Translate(filter.Distance(filter.Beyond, AnyGeo, "POINT(10 20)", 1.5)))

	assert.Equal(t, "", tr.Translate(filter.Spatial(filter.Intersects, AnyGeo, "garbage")))
	assert.Equal(t, "", tr.Translate(filter.Spatial(filter.Intersects, AnyGeo, "POINT EMPTY")))
	assert.Equal(t, "", tr.Translate(filter.Spatial(filter.Intersects, "NSIL_FILE.creator", polygon)))
}

func TestTranslatePropertyMap(t *testing.T) {
	tr := newTestTranslator().WithPropertyMap(map[string][]string{
		"when": {"NSIL_CARD.dateTimeModified", "NSIL_FILE.creator"},
	})
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t,
		"((NSIL_CARD.dateTimeModified = '2024/01/02 03:04:05') or (NSIL_FILE.creator = '2024/01/02 03:04:05'))",
		tr.Translate(filter.Eq("when", filter.At(at))))

	// temporal predicates only keep queryable targets
	assert.Equal(t, "(NSIL_CARD.dateTimeModified >= '2024/01/02 03:04:05')", tr.Translate(filter.AfterTime("when", at)))
	assert.Equal(t, testView, tr.View())
}

func TestTranslateDefaultSchema(t *testing.T) {
	tr := NewTranslator(nsili.DefaultSchema(), nsili.ImageryView)

	out := tr.Translate(filter.Matches(AnyText, "bridge"))
	assert.Contains(t, out, "(NSIL_IMAGERY.title like '%bridge%')")
	assert.Contains(t, out, "(NSIL_CARD.status = 'bridge')")
	assert.NotContains(t, out, "NSIL_COMMON.type")
	assert.NotContains(t, out, "advancedGeoSpatial")

	assert.Equal(t, "", NewTranslator(nil, nsili.ImageryView).Translate(filter.Matches(AnyText, "x")))
}

func TestQueryableFollowsPropertyMap(t *testing.T) {
	tr := newTestTranslator()
	assert.True(t, tr.Queryable("modified"))
	assert.True(t, tr.Queryable("title"))
	assert.False(t, tr.Queryable("NSIL_FILE.creator"))
	assert.False(t, tr.Queryable("nonexistent"))

	assoc := NewTranslator(nsili.DefaultSchema(), nsili.AssociationView)
	assert.False(t, assoc.Queryable("modified"))
	assert.False(t, NewTranslator(nil, testView).Queryable("modified"))
}
