package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/nsilibridge/pkg/dag"
)

func TestParseAndFlatten(t *testing.T) {
	g, err := Parse("POLYGON ((1 2, 3 2, 3 4, 1 4, 1 2))")
	require.NoError(t, err)
	assert.Equal(t, "POLYGON", TypeName(g))

	coords := Coordinates(g)
	require.Len(t, coords, 5)
	assert.Equal(t, orb.Point{1, 2}, coords[0])

	p, err := Parse("POINT (10 20)")
	require.NoError(t, err)
	assert.Equal(t, "POINT", TypeName(p))

	ls, err := Parse("LINESTRING (0 0, 1 1)")
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING", TypeName(ls))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("NOT A GEOMETRY")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestBoundingBoxAndBack(t *testing.T) {
	g, err := Parse("POLYGON ((1 2, 3 2, 3 4, 1 4, 1 2))")
	require.NoError(t, err)

	box := BoundingBox(g)
	assert.Equal(t, dag.Coordinate{X: 1, Y: 4}, box.UpperLeft)
	assert.Equal(t, dag.Coordinate{X: 3, Y: 2}, box.LowerRight)

	back, err := Parse(RectangleWKT(box))
	require.NoError(t, err)
	assert.Equal(t, box, BoundingBox(back))

	pt := dag.Rectangle{UpperLeft: dag.Coordinate{X: 5, Y: 6}, LowerRight: dag.Coordinate{X: 5, Y: 6}}
	asPoint, err := Parse(RectangleWKT(pt))
	require.NoError(t, err)
	assert.Equal(t, "POINT", TypeName(asPoint))
}
