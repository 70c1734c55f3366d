package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// Segment is one piece of a plane cross-section, directed so that solid
// material lies on its left. From and To name the mesh edges the segment
// enters and leaves through, which lets neighbouring faces be chained
// without comparing floating-point coordinates.
type Segment struct {
	A, B     orb.Point
	From, To EdgeKey
}

// SliceTriangle intersects the triangle with the horizontal plane at z.
// A vertex exactly on the plane counts as above it, so a plane touching a
// vertex or lying on a face never produces a duplicate or zero-length segment.
func SliceTriangle(p [3]mgl64.Vec3, idx [3]int, z float64) (Segment, bool) {
	var above [3]bool
	count := 0
	for k := 0; k < 3; k++ {
		above[k] = p[k].Z() >= z
		if above[k] {
			count++
		}
	}
	if count == 0 || count == 3 {
		return Segment{}, false
	}

	var pts []orb.Point
	var keys []EdgeKey
	for k := 0; k < 3; k++ {
		j := (k + 1) % 3
		if above[k] == above[j] {
			continue
		}
		pts = append(pts, edgePoint(p[k], p[j], idx[k], idx[j], z))
		keys = append(keys, NewEdgeKey(idx[k], idx[j]))
	}
	if len(pts) != 2 {
		return Segment{}, false
	}

	seg := Segment{A: pts[0], B: pts[1], From: keys[0], To: keys[1]}

	// Solid lies on the left when walking along up x normal.
	n := TriangleNormal(p[0], p[1], p[2])
	dx, dy := -n.Y(), n.X()
	if (seg.B[0]-seg.A[0])*dx+(seg.B[1]-seg.A[1])*dy < 0 {
		seg.A, seg.B = seg.B, seg.A
		seg.From, seg.To = seg.To, seg.From
	}
	return seg, true
}

// edgePoint interpolates from the lower vertex index to the higher one so
// both faces sharing the edge compute a bit-identical point.
func edgePoint(a, b mgl64.Vec3, ia, ib int, z float64) orb.Point {
	if ia > ib {
		a, b = b, a
	}
	dz := b.Z() - a.Z()
	if math.Abs(dz) < Epsilon {
		return orb.Point{a.X(), a.Y()}
	}
	t := (z - a.Z()) / dz
	return orb.Point{a.X() + t*(b.X()-a.X()), a.Y() + t*(b.Y()-a.Y())}
}

// ChainSegments joins segments into closed rings by following shared edge
// keys. Segments that cannot be closed this way are retried by endpoint
// distance within tolerance. It returns the closed rings (explicitly closed,
// first point repeated last) and the number of segments still left open.
func ChainSegments(segs []Segment, tolerance float64) ([]orb.Ring, int) {
	byFrom := make(map[EdgeKey]int, len(segs))
	for i, s := range segs {
		if _, dup := byFrom[s.From]; !dup {
			byFrom[s.From] = i
		}
	}

	used := make([]bool, len(segs))
	var rings []orb.Ring
	var leftovers []Segment

	for start := range segs {
		if used[start] {
			continue
		}
		var chain []int
		cur := start
		closed := false
		for {
			used[cur] = true
			chain = append(chain, cur)
			next, ok := byFrom[segs[cur].To]
			if !ok {
				break
			}
			if next == start {
				closed = true
				break
			}
			if used[next] {
				break
			}
			cur = next
		}

		if !closed {
			for _, i := range chain {
				leftovers = append(leftovers, segs[i])
			}
			continue
		}

		pts := make([]orb.Point, 0, len(chain)+1)
		for _, i := range chain {
			pts = append(pts, segs[i].A)
		}
		if r := cleanRing(pts, tolerance); r != nil {
			rings = append(rings, r)
		}
	}

	extra, open := chainByDistance(leftovers, tolerance)
	rings = append(rings, extra...)
	return rings, open
}

// chainByDistance connects segments whose endpoints lie within tolerance of
// each other. Only used for the few segments that edge keys could not close.
func chainByDistance(segs []Segment, tolerance float64) ([]orb.Ring, int) {
	if len(segs) == 0 {
		return nil, 0
	}

	used := make([]bool, len(segs))
	var rings []orb.Ring
	open := 0

	for start := range segs {
		if used[start] {
			continue
		}
		used[start] = true
		chain := []orb.Point{segs[start].A, segs[start].B}
		members := 1

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]
			for i, s := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, s.A, tolerance) {
					chain = append(chain, s.B)
					used[i] = true
					members++
					changed = true
					break
				}
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			if r := cleanRing(chain[:len(chain)-1], tolerance); r != nil {
				rings = append(rings, r)
			}
			continue
		}
		open += members
	}
	return rings, open
}

// cleanRing removes consecutive duplicates, rejects rings with fewer than
// three distinct points or no area, and closes the ring.
func cleanRing(pts []orb.Point, tolerance float64) orb.Ring {
	out := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		if len(out) > 0 && pointsClose(out[len(out)-1], p, tolerance) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && pointsClose(out[0], out[len(out)-1], tolerance) {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	out = append(out, out[0])
	if math.Abs(SignedArea(out)) < tolerance*tolerance {
		return nil
	}
	return out
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b orb.Point, tolerance float64) bool {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx+dy*dy) <= tolerance
}
