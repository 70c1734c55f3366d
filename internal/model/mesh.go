package model

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/piwi3910/SupportGen/internal/geometry"
)

// Face is a triangle given by three vertex indices, counter-clockwise when
// seen from outside.
type Face = [3]int

// Mesh is an indexed triangle mesh in mm. Methods never modify the receiver;
// anything that changes geometry returns a new Mesh.
type Mesh struct {
	Vertices []mgl64.Vec3 `json:"vertices"`
	Faces    []Face       `json:"faces"`
}

// Triangle returns the three corner positions of face i.
func (m Mesh) Triangle(i int) [3]mgl64.Vec3 {
	f := m.Faces[i]
	return [3]mgl64.Vec3{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
}

// FaceNormal returns the unit outward normal of face i.
func (m Mesh) FaceNormal(i int) mgl64.Vec3 {
	t := m.Triangle(i)
	return geometry.TriangleNormal(t[0], t[1], t[2])
}

// FaceArea returns the area of face i.
func (m Mesh) FaceArea(i int) float64 {
	t := m.Triangle(i)
	return geometry.TriangleArea(t[0], t[1], t[2])
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m Mesh) Bounds() (min, max mgl64.Vec3) {
	return geometry.Bounds(m.Vertices)
}

// Volume returns the signed enclosed volume. It is positive for a closed,
// outward-wound mesh.
func (m Mesh) Volume() float64 {
	var v float64
	for i := range m.Faces {
		t := m.Triangle(i)
		v += geometry.SignedTetraVolume(t[0], t[1], t[2])
	}
	return v
}

// SurfaceArea returns the total face area.
func (m Mesh) SurfaceArea() float64 {
	var a float64
	for i := range m.Faces {
		a += m.FaceArea(i)
	}
	return a
}

// Validate checks that the mesh has faces, valid indices, finite
// coordinates and a positive volume. An inside-out mesh is rejected: every
// stage reads face normals as pointing out of the model.
func (m Mesh) Validate() error {
	if len(m.Faces) == 0 {
		return &InvalidMeshError{Reason: "mesh has no faces"}
	}
	for _, v := range m.Vertices {
		for k := 0; k < 3; k++ {
			if math.IsNaN(v[k]) || math.IsInf(v[k], 0) {
				return &InvalidMeshError{Reason: "mesh has non-finite vertex coordinates"}
			}
		}
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return &InvalidMeshError{Reason: fmt.Sprintf("face %d references vertex %d of %d", i, idx, len(m.Vertices))}
			}
		}
	}
	v := m.Volume()
	if math.Abs(v) < 1e-9 {
		return &InvalidMeshError{Reason: "mesh encloses zero volume"}
	}
	if v < 0 {
		return &InvalidMeshError{Reason: "mesh is inside out (faces wound inward)"}
	}
	return nil
}

// Flipped returns a copy with every face wound the other way, which turns
// an inside-out mesh right side out.
func (m Mesh) Flipped() Mesh {
	out := Mesh{Vertices: m.Vertices, Faces: make([]Face, len(m.Faces))}
	for i, f := range m.Faces {
		out.Faces[i] = Face{f[0], f[2], f[1]}
	}
	return out
}

// Transformed returns a copy with t applied to every vertex. Faces are shared
// with the receiver since rigid transforms do not change connectivity.
func (m Mesh) Transformed(t Transform) Mesh {
	out := Mesh{Vertices: make([]mgl64.Vec3, len(m.Vertices)), Faces: m.Faces}
	for i, v := range m.Vertices {
		out.Vertices[i] = t.Apply(v)
	}
	return out
}

// Translated returns a copy shifted by d.
func (m Mesh) Translated(d mgl64.Vec3) Mesh {
	return m.Transformed(Transform{Rotation: mgl64.Ident3(), Translation: d})
}

// Append returns a new mesh holding the triangles of m followed by those of
// others, with face indices rebased.
func (m Mesh) Append(others ...Mesh) Mesh {
	nv, nf := len(m.Vertices), len(m.Faces)
	for _, o := range others {
		nv += len(o.Vertices)
		nf += len(o.Faces)
	}
	out := Mesh{
		Vertices: make([]mgl64.Vec3, 0, nv),
		Faces:    make([]Face, 0, nf),
	}
	out.Vertices = append(out.Vertices, m.Vertices...)
	out.Faces = append(out.Faces, m.Faces...)
	for _, o := range others {
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, o.Vertices...)
		for _, f := range o.Faces {
			out.Faces = append(out.Faces, Face{f[0] + base, f[1] + base, f[2] + base})
		}
	}
	return out
}

// Transform is a rigid rotation followed by a translation.
type Transform struct {
	Rotation    mgl64.Mat3 `json:"rotation"`
	Translation mgl64.Vec3 `json:"translation"`
}

// IdentityTransform leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rotation: mgl64.Ident3()}
}

// Apply rotates then translates v.
func (t Transform) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Mul3x1(v).Add(t.Translation)
}

// Then returns the transform that applies t first and next second.
func (t Transform) Then(next Transform) Transform {
	return Transform{
		Rotation:    next.Rotation.Mul3(t.Rotation),
		Translation: next.Rotation.Mul3x1(t.Translation).Add(next.Translation),
	}
}

// IsIdentity reports whether t leaves points unchanged within a small tolerance.
func (t Transform) IsIdentity() bool {
	return t.Rotation.ApproxEqualThreshold(mgl64.Ident3(), 1e-12) &&
		t.Translation.ApproxEqualThreshold(mgl64.Vec3{}, 1e-12)
}
