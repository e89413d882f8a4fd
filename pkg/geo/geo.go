// ABOUTME: Well-known-text geometry helpers
// ABOUTME: Bounding boxes, coordinate flattening and protocol geometry names

package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/nainya/nsilibridge/pkg/dag"
)

// ErrEmptyGeometry is returned for geometries without coordinates
var ErrEmptyGeometry = errors.New("empty geometry")

// Parse reads a WKT string. Empty or coordinate-less geometries are rejected.
func Parse(s string) (orb.Geometry, error) {
	g, err := wkt.Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	if len(Coordinates(g)) == 0 {
		return nil, ErrEmptyGeometry
	}
	return g, nil
}

// Coordinates flattens a geometry into its vertex sequence
func Coordinates(g orb.Geometry) []orb.Point {
	var out []orb.Point
	switch v := g.(type) {
	case orb.Point:
		out = append(out, v)
	case orb.MultiPoint:
		out = append(out, v...)
	case orb.LineString:
		out = append(out, v...)
	case orb.MultiLineString:
		for _, ls := range v {
			out = append(out, ls...)
		}
	case orb.Ring:
		out = append(out, v...)
	case orb.Polygon:
		for _, r := range v {
			out = append(out, r...)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			out = append(out, Coordinates(p)...)
		}
	case orb.Collection:
		for _, c := range v {
			out = append(out, Coordinates(c)...)
		}
	case orb.Bound:
		out = append(out, Coordinates(v.ToPolygon())...)
	}
	return out
}

// TypeName returns the upper-case geometry keyword, e.g. POLYGON
func TypeName(g orb.Geometry) string {
	return strings.ToUpper(g.GeoJSONType())
}

// BoundingBox returns the envelope of a geometry as a protocol rectangle
func BoundingBox(g orb.Geometry) dag.Rectangle {
	b := g.Bound()
	return dag.Rectangle{
		UpperLeft:  dag.Coordinate{X: b.Min.X(), Y: b.Max.Y()},
		LowerRight: dag.Coordinate{X: b.Max.X(), Y: b.Min.Y()},
	}
}

// RectangleWKT renders a protocol rectangle as WKT: a point when degenerate, otherwise a polygon
func RectangleWKT(r dag.Rectangle) string {
	if r.UpperLeft == r.LowerRight {
		return wkt.MarshalString(orb.Point{r.UpperLeft.X, r.UpperLeft.Y})
	}
	b := orb.Bound{
		Min: orb.Point{r.UpperLeft.X, r.LowerRight.Y},
		Max: orb.Point{r.LowerRight.X, r.UpperLeft.Y},
	}
	return wkt.MarshalString(b.ToPolygon())
}
