// Package geometry holds the low-level computations shared by every support
// generation stage: triangle normals and areas, build-direction angles,
// bounding boxes, face adjacency, plane cross-sections and 2D polygon
// operations on the resulting layer outlines.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// Up is the build direction.
var Up = mgl64.Vec3{0, 0, 1}

// Epsilon is the general-purpose length tolerance in mm.
const Epsilon = 1e-9

// TriangleNormal returns the unit normal of triangle abc following the
// right-hand rule. Degenerate triangles yield the zero vector.
func TriangleNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < Epsilon {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

// TriangleArea returns the area of triangle abc.
func TriangleArea(a, b, c mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Len() / 2
}

// ProjectedArea returns the unsigned area of triangle abc projected onto the XY plane.
func ProjectedArea(a, b, c mgl64.Vec3) float64 {
	return math.Abs((b.X()-a.X())*(c.Y()-a.Y())-(c.X()-a.X())*(b.Y()-a.Y())) / 2
}

// TriangleCentroid returns the average of the three corners.
func TriangleCentroid(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return a.Add(b).Add(c).Mul(1.0 / 3.0)
}

// AngleFromUp returns the angle in degrees between n and the build direction.
// A face pointing straight up is 0, a vertical wall 90 and a ceiling 180.
func AngleFromUp(n mgl64.Vec3) float64 {
	d := mgl64.Clamp(n.Dot(Up), -1, 1)
	return mgl64.RadToDeg(math.Acos(d))
}

// TiltFromHorizontal returns the angle in degrees between the surface with
// normal n and the build plate: 0 for floors and ceilings, 90 for walls.
func TiltFromHorizontal(n mgl64.Vec3) float64 {
	return mgl64.RadToDeg(math.Acos(mgl64.Clamp(math.Abs(n.Z()), 0, 1)))
}

// Bounds returns the axis-aligned bounding box of the given points.
func Bounds(points []mgl64.Vec3) (min, max mgl64.Vec3) {
	if len(points) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}

// SignedTetraVolume returns the signed volume of the tetrahedron spanned by
// the origin and triangle abc. Summed over a closed, outward-wound surface
// it gives the enclosed volume.
func SignedTetraVolume(a, b, c mgl64.Vec3) float64 {
	return a.Dot(b.Cross(c)) / 6
}

// XY drops the Z component.
func XY(v mgl64.Vec3) orb.Point {
	return orb.Point{v.X(), v.Y()}
}

// PointInTriangleXY reports whether p lies inside (or on the border of) the
// XY projection of triangle abc.
func PointInTriangleXY(p orb.Point, a, b, c mgl64.Vec3) bool {
	d1 := cross2(p, XY(a), XY(b))
	d2 := cross2(p, XY(b), XY(c))
	d3 := cross2(p, XY(c), XY(a))
	hasNeg := d1 < -Epsilon || d2 < -Epsilon || d3 < -Epsilon
	hasPos := d1 > Epsilon || d2 > Epsilon || d3 > Epsilon
	return !(hasNeg && hasPos)
}

// ZAtXY interpolates the height of triangle abc above p. It returns false when
// p is outside the projected triangle or the triangle is vertical.
func ZAtXY(p orb.Point, a, b, c mgl64.Vec3) (float64, bool) {
	det := (b.Y()-c.Y())*(a.X()-c.X()) + (c.X()-b.X())*(a.Y()-c.Y())
	if math.Abs(det) < Epsilon {
		return 0, false
	}
	l1 := ((b.Y()-c.Y())*(p[0]-c.X()) + (c.X()-b.X())*(p[1]-c.Y())) / det
	l2 := ((c.Y()-a.Y())*(p[0]-c.X()) + (a.X()-c.X())*(p[1]-c.Y())) / det
	l3 := 1 - l1 - l2
	const tol = -1e-9
	if l1 < tol || l2 < tol || l3 < tol {
		return 0, false
	}
	return l1*a.Z() + l2*b.Z() + l3*c.Z(), true
}

// cross2 is the z component of (b-p) x (c-p).
func cross2(p, b, c orb.Point) float64 {
	return (b[0]-p[0])*(c[1]-p[1]) - (c[0]-p[0])*(b[1]-p[1])
}
