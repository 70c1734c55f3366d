package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ccwSquare(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

func cwSquare(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}}
}

func TestSignedArea(t *testing.T) {
	assert.InDelta(t, 4.0, SignedArea(ccwSquare(0, 0, 2, 2)), 1e-12)
	assert.InDelta(t, -4.0, SignedArea(cwSquare(0, 0, 2, 2)), 1e-12)
	assert.Zero(t, SignedArea(orb.Ring{{0, 0}, {1, 1}}))
}

func TestBuildRegionsNestsHoles(t *testing.T) {
	rings := []orb.Ring{
		cwSquare(2, 2, 4, 4),     // hole of the big square
		ccwSquare(20, 0, 21, 1),  // separate small region
		ccwSquare(0, 0, 10, 10),  // outer
		ccwSquare(0, 0, 1e-7, 1), // sliver, dropped
	}
	regions := BuildRegions(rings, 1e-6)
	require.Len(t, regions, 2)

	assert.Len(t, regions[0], 2, "outer plus hole")
	assert.InDelta(t, 96.0, RegionArea(regions[0]), 1e-9)
	assert.InDelta(t, 1.0, RegionArea(regions[1]), 1e-9)
}

func TestBuildRegionsHoleGoesToSmallestContainer(t *testing.T) {
	// An island inside a hole inside a square: the inner hole belongs to the
	// island, not to the outer square.
	rings := []orb.Ring{
		ccwSquare(0, 0, 20, 20),
		cwSquare(2, 2, 18, 18),
		ccwSquare(5, 5, 15, 15),
		cwSquare(8, 8, 12, 12),
	}
	regions := BuildRegions(rings, 1e-6)
	require.Len(t, regions, 2)
	for _, r := range regions {
		assert.Len(t, r, 2)
	}
	assert.InDelta(t, 400-256+100-16, RegionArea(regions[0])+RegionArea(regions[1]), 1e-9)
}

func TestInteriorPoint(t *testing.T) {
	square := orb.Polygon{ccwSquare(0, 0, 4, 4)}
	c := InteriorPoint(square)
	assert.InDelta(t, 2.0, c[0], 1e-12)
	assert.InDelta(t, 2.0, c[1], 1e-12)

	// The centroid of an L lies outside it.
	l := orb.Polygon{{{0, 0}, {10, 0}, {10, 1}, {1, 1}, {1, 10}, {0, 10}, {0, 0}}}
	p := InteriorPoint(l)
	assert.True(t, planar.PolygonContains(l, p), "point %v", p)
}

func TestGridPoints(t *testing.T) {
	square := orb.Polygon{ccwSquare(0, 0, 10, 10)}
	pts := GridPoints(square, 3)
	assert.Len(t, pts, 9)
	assert.Equal(t, orb.Point{1.5, 1.5}, pts[0])

	withHole := orb.Polygon{ccwSquare(0, 0, 10, 10), cwSquare(3, 3, 7, 7)}
	for _, p := range GridPoints(withHole, 3) {
		assert.True(t, planar.PolygonContains(withHole, p))
	}
	assert.Len(t, GridPoints(withHole, 3), 8)
	assert.Nil(t, GridPoints(square, 0))
}

func TestTriangulate(t *testing.T) {
	l := orb.Ring{{0, 0}, {10, 0}, {10, 1}, {1, 1}, {1, 10}, {0, 10}, {0, 0}}
	tris, err := Triangulate(l)
	require.NoError(t, err)
	assert.Len(t, tris, 4)

	var area float64
	for _, tr := range tris {
		a := triArea(tr[0], tr[1], tr[2])
		assert.Greater(t, a, 0.0, "triangles are counter-clockwise")
		area += a
	}
	assert.InDelta(t, 19.0, area, 1e-9)

	cw, err := Triangulate(cwSquare(0, 0, 2, 2))
	require.NoError(t, err)
	assert.Len(t, cw, 2)
}

func TestTriangulateTooFewPoints(t *testing.T) {
	tris, err := Triangulate(orb.Ring{{0, 0}, {1, 1}, {0, 0}})
	assert.NoError(t, err)
	assert.Empty(t, tris)
}

func TestIntersectionArea(t *testing.T) {
	a := orb.Polygon{ccwSquare(0, 0, 10, 10)}
	b := orb.Polygon{ccwSquare(5, 5, 15, 15)}
	area, err := IntersectionArea(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, area, 1e-9)

	far := orb.Polygon{ccwSquare(50, 50, 51, 51)}
	area, err = IntersectionArea(a, far)
	require.NoError(t, err)
	assert.Zero(t, area)
}

func TestOverlapAreaWithHoles(t *testing.T) {
	frame, err := NewTriPolygon(orb.Polygon{ccwSquare(0, 0, 10, 10), cwSquare(2, 2, 8, 8)})
	require.NoError(t, err)
	inner, err := NewTriPolygon(orb.Polygon{ccwSquare(3, 3, 7, 7)})
	require.NoError(t, err)
	straddle, err := NewTriPolygon(orb.Polygon{ccwSquare(0, 4, 10, 6)})
	require.NoError(t, err)

	assert.InDelta(t, 64.0, frame.Area, 1e-9)
	assert.InDelta(t, 0.0, frame.OverlapArea(inner), 1e-9, "inner square sits in the hole")
	assert.InDelta(t, 8.0, frame.OverlapArea(straddle), 1e-9)
	assert.InDelta(t, 8.0, straddle.OverlapArea(frame), 1e-9)
}
