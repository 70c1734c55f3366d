package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SignedArea computes the shoelace area of a ring: positive for
// counter-clockwise winding, negative for clockwise.
func SignedArea(r orb.Ring) float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i][0]*r[j][1] - r[j][0]*r[i][1]
	}
	return area / 2
}

// RegionArea returns the area of a polygon region: outer ring minus holes.
func RegionArea(p orb.Polygon) float64 {
	if len(p) == 0 {
		return 0
	}
	area := math.Abs(SignedArea(p[0]))
	for _, h := range p[1:] {
		area -= math.Abs(SignedArea(h))
	}
	return area
}

// BuildRegions nests closed rings into polygon regions. Counter-clockwise
// rings are outer boundaries and clockwise rings are holes; each hole is
// attached to the smallest outer ring containing it. Rings smaller than
// minArea are dropped. Regions are returned largest first.
func BuildRegions(rings []orb.Ring, minArea float64) []orb.Polygon {
	type outer struct {
		ring orb.Ring
		area float64
	}
	var outers []outer
	var holes []orb.Ring

	for _, r := range rings {
		a := SignedArea(r)
		if math.Abs(a) <= minArea {
			continue
		}
		if a > 0 {
			outers = append(outers, outer{ring: r, area: a})
		} else {
			holes = append(holes, r)
		}
	}

	sort.SliceStable(outers, func(i, j int) bool {
		return outers[i].area < outers[j].area
	})

	regions := make([]orb.Polygon, len(outers))
	for i, o := range outers {
		regions[i] = orb.Polygon{o.ring}
	}

	for _, h := range holes {
		inside := pointInsideRing(h)
		for i, o := range outers {
			if planar.RingContains(o.ring, inside) {
				regions[i] = append(regions[i], h)
				break
			}
		}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		ai, aj := RegionArea(regions[i]), RegionArea(regions[j])
		if ai != aj {
			return ai > aj
		}
		bi, bj := regions[i].Bound(), regions[j].Bound()
		if bi.Min[0] != bj.Min[0] {
			return bi.Min[0] < bj.Min[0]
		}
		return bi.Min[1] < bj.Min[1]
	})
	return regions
}

// pointInsideRing returns a point just inside the edge midpoint of the ring's
// first edge, away from any vertex shared with the enclosing ring.
func pointInsideRing(r orb.Ring) orb.Point {
	if len(r) < 2 {
		return r[0]
	}
	a, b := r[0], r[1]
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// InteriorPoint returns the region centroid when it lies inside the region,
// otherwise the centroid of the largest triangle whose centre is inside, and
// failing that the fine grid point closest to the centroid. Concave regions
// (an L or a ring) need the fallbacks.
func InteriorPoint(p orb.Polygon) orb.Point {
	c, _ := planar.CentroidArea(p)
	if planar.PolygonContains(p, c) {
		return c
	}
	tris, err := Triangulate(p[0])
	if err == nil {
		best := -1.0
		var bestPt orb.Point
		for _, t := range tris {
			m := orb.Point{(t[0][0] + t[1][0] + t[2][0]) / 3, (t[0][1] + t[1][1] + t[2][1]) / 3}
			a := math.Abs(triArea(t[0], t[1], t[2]))
			if a > best && planar.PolygonContains(p, m) {
				best, bestPt = a, m
			}
		}
		if best > 0 {
			return bestPt
		}
	}

	// Triangles of the outer ring can all fall inside holes.
	b := p.Bound()
	pitch := math.Min(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]) / 16
	bestD := math.Inf(1)
	bestPt := p[0][0]
	for _, q := range GridPoints(p, pitch) {
		if d := planar.DistanceSquared(q, c); d < bestD {
			bestD, bestPt = d, q
		}
	}
	return bestPt
}

// GridPoints samples points inside the region on a square grid of the given
// pitch, offset by half a pitch from the bounding box corner.
func GridPoints(p orb.Polygon, pitch float64) []orb.Point {
	if pitch <= 0 || len(p) == 0 {
		return nil
	}
	b := p.Bound()
	var pts []orb.Point
	for y := b.Min[1] + pitch/2; y < b.Max[1]; y += pitch {
		for x := b.Min[0] + pitch/2; x < b.Max[0]; x += pitch {
			pt := orb.Point{x, y}
			if planar.PolygonContains(p, pt) {
				pts = append(pts, pt)
			}
		}
	}
	return pts
}
