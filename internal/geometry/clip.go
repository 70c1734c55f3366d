package geometry

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// ErrSelfIntersecting is returned when a ring cannot be ear-clipped, which
// happens for self-intersecting outlines.
var ErrSelfIntersecting = errors.New("ring is self-intersecting")

// Triangle is a 2D triangle in counter-clockwise order.
type Triangle [3]orb.Point

// Triangulate splits a simple ring into counter-clockwise triangles by ear
// clipping. The ring may be open or explicitly closed and wound either way.
func Triangulate(r orb.Ring) ([]Triangle, error) {
	pts := []orb.Point(r)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, nil
	}

	idx := make([]int, len(pts))
	if SignedArea(orb.Ring(pts)) >= 0 {
		for i := range idx {
			idx[i] = i
		}
	} else {
		for i := range idx {
			idx[i] = len(pts) - 1 - i
		}
	}

	tris := make([]Triangle, 0, len(pts)-2)
	for len(idx) > 3 {
		clipped := false
		for i := 0; i < len(idx); i++ {
			prev := pts[idx[(i+len(idx)-1)%len(idx)]]
			cur := pts[idx[i]]
			next := pts[idx[(i+1)%len(idx)]]
			area := triArea(prev, cur, next)

			if math.Abs(area) < Epsilon {
				// Collinear vertex: drop it without emitting a triangle.
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if area < 0 || !isEar(pts, idx, i, prev, cur, next) {
				continue
			}
			tris = append(tris, Triangle{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return tris, ErrSelfIntersecting
		}
	}
	if len(idx) == 3 {
		a, b, c := pts[idx[0]], pts[idx[1]], pts[idx[2]]
		if triArea(a, b, c) > Epsilon {
			tris = append(tris, Triangle{a, b, c})
		}
	}
	return tris, nil
}

// isEar reports whether no other remaining vertex lies inside the candidate ear.
func isEar(pts []orb.Point, idx []int, i int, a, b, c orb.Point) bool {
	n := len(idx)
	for k := 0; k < n; k++ {
		if k == i || k == (i+n-1)%n || k == (i+1)%n {
			continue
		}
		p := pts[idx[k]]
		if p == a || p == b || p == c {
			continue
		}
		if pointInTriangle(p, a, b, c) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c orb.Point) bool {
	return cross2(p, a, b) >= -Epsilon && cross2(p, b, c) >= -Epsilon && cross2(p, c, a) >= -Epsilon
}

// triArea is the signed area of triangle abc.
func triArea(a, b, c orb.Point) float64 {
	return ((b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])) / 2
}

// clipConvex clips convex polygon subject against convex polygon clip
// (Sutherland-Hodgman). Both must be counter-clockwise.
func clipConvex(subject []orb.Point, clip Triangle) []orb.Point {
	out := subject
	for e := 0; e < 3 && len(out) > 0; e++ {
		a, b := clip[e], clip[(e+1)%3]
		in := out
		out = make([]orb.Point, 0, len(in)+2)
		for i := range in {
			cur := in[i]
			prev := in[(i+len(in)-1)%len(in)]
			curIn := side(a, b, cur) >= 0
			prevIn := side(a, b, prev) >= 0
			if curIn {
				if !prevIn {
					out = append(out, lineIntersect(prev, cur, a, b))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, lineIntersect(prev, cur, a, b))
			}
		}
	}
	return out
}

func side(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func lineIntersect(p, q, a, b orb.Point) orb.Point {
	sp := side(a, b, p)
	sq := side(a, b, q)
	t := sp / (sp - sq)
	return orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
}

func polyArea(pts []orb.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	return SignedArea(orb.Ring(pts))
}

// triangleSet is a triangulated ring with per-triangle bounds.
type triangleSet struct {
	tris   []Triangle
	bounds []orb.Bound
	bound  orb.Bound
}

func newTriangleSet(r orb.Ring) (triangleSet, error) {
	tris, err := Triangulate(r)
	ts := triangleSet{tris: tris, bound: r.Bound()}
	ts.bounds = make([]orb.Bound, len(tris))
	for i, t := range tris {
		ts.bounds[i] = orb.MultiPoint{t[0], t[1], t[2]}.Bound()
	}
	return ts, err
}

func (ts triangleSet) overlap(o triangleSet) float64 {
	if !ts.bound.Intersects(o.bound) {
		return 0
	}
	var area float64
	for i, t := range ts.tris {
		if !ts.bounds[i].Intersects(o.bound) {
			continue
		}
		for j, s := range o.tris {
			if !ts.bounds[i].Intersects(o.bounds[j]) {
				continue
			}
			area += polyArea(clipConvex(t[:], s))
		}
	}
	return area
}

// TriPolygon is a polygon region prepared for repeated overlap queries.
type TriPolygon struct {
	Polygon orb.Polygon
	Area    float64
	outer   triangleSet
	holes   []triangleSet
}

// NewTriPolygon triangulates the region's rings once. It returns
// ErrSelfIntersecting when any ring cannot be triangulated.
func NewTriPolygon(p orb.Polygon) (*TriPolygon, error) {
	tp := &TriPolygon{Polygon: p, Area: RegionArea(p)}
	if len(p) == 0 {
		return tp, nil
	}
	var err error
	if tp.outer, err = newTriangleSet(p[0]); err != nil {
		return nil, err
	}
	for _, h := range p[1:] {
		hs, err := newTriangleSet(h)
		if err != nil {
			return nil, err
		}
		tp.holes = append(tp.holes, hs)
	}
	return tp, nil
}

// Bound returns the bounding box of the outer ring.
func (tp *TriPolygon) Bound() orb.Bound {
	return tp.outer.bound
}

// OverlapArea returns the exact area of the intersection of two regions.
// Holes are handled by inclusion-exclusion, which holds because holes are
// disjoint and lie inside their outer ring.
func (tp *TriPolygon) OverlapArea(o *TriPolygon) float64 {
	if len(tp.Polygon) == 0 || len(o.Polygon) == 0 {
		return 0
	}
	if !tp.outer.bound.Intersects(o.outer.bound) {
		return 0
	}
	area := tp.outer.overlap(o.outer)
	for _, h := range tp.holes {
		area -= h.overlap(o.outer)
	}
	for _, h := range o.holes {
		area -= tp.outer.overlap(h)
	}
	for _, h1 := range tp.holes {
		for _, h2 := range o.holes {
			area += h1.overlap(h2)
		}
	}
	if area < 0 {
		return 0
	}
	return area
}

// IntersectionArea is a convenience wrapper around OverlapArea for one-off queries.
func IntersectionArea(a, b orb.Polygon) (float64, error) {
	ta, err := NewTriPolygon(a)
	if err != nil {
		return 0, err
	}
	tb, err := NewTriPolygon(b)
	if err != nil {
		return 0, err
	}
	return ta.OverlapArea(tb), nil
}
