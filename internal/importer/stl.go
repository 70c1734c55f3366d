package importer

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"

	"github.com/piwi3910/SupportGen/internal/model"
)

// weldPrecision is the grid, in mm, on which STL corners are merged into
// shared vertices.
const weldPrecision = 1e-5

// MeshResult holds an imported mesh and what happened while indexing it.
type MeshResult struct {
	Mesh      model.Mesh
	Name      string
	ASCII     bool
	Triangles int // Triangles in the file
	Skipped   int // Triangles dropped because two corners welded together
	Warnings  []string
}

// ImportSTL reads an ASCII or binary STL file and welds its triangle soup
// into an indexed mesh.
func ImportSTL(path string) (MeshResult, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return MeshResult{}, fmt.Errorf("failed to read STL %s: %w", path, err)
	}
	return fromSolid(solid)
}

// ReadSTL is ImportSTL for an already open stream. The STL reader needs to
// seek to tell ASCII from binary, so plain readers are buffered first.
func ReadSTL(r io.Reader) (MeshResult, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return MeshResult{}, fmt.Errorf("failed to read STL: %w", err)
		}
		rs = bytes.NewReader(data)
	}
	solid, err := stl.ReadAll(rs)
	if err != nil {
		return MeshResult{}, fmt.Errorf("failed to read STL: %w", err)
	}
	return fromSolid(solid)
}

type weldKey [3]int64

func keyOf(v mgl64.Vec3) weldKey {
	return weldKey{
		int64(math.Round(v.X() / weldPrecision)),
		int64(math.Round(v.Y() / weldPrecision)),
		int64(math.Round(v.Z() / weldPrecision)),
	}
}

func fromSolid(solid *stl.Solid) (MeshResult, error) {
	res := MeshResult{
		Name:      solid.Name,
		ASCII:     solid.IsAscii,
		Triangles: len(solid.Triangles),
	}
	if len(solid.Triangles) == 0 {
		return MeshResult{}, &model.InvalidMeshError{Reason: "STL file contains no triangles"}
	}

	index := make(map[weldKey]int, len(solid.Triangles)/2)
	mesh := model.Mesh{Faces: make([]model.Face, 0, len(solid.Triangles))}
	vertex := func(p stl.Vec3) int {
		v := mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		k := keyOf(v)
		if i, ok := index[k]; ok {
			return i
		}
		i := len(mesh.Vertices)
		index[k] = i
		mesh.Vertices = append(mesh.Vertices, v)
		return i
	}

	for _, tri := range solid.Triangles {
		f := model.Face{vertex(tri.Vertices[0]), vertex(tri.Vertices[1]), vertex(tri.Vertices[2])}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			res.Skipped++
			continue
		}
		mesh.Faces = append(mesh.Faces, f)
	}
	if res.Skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Dropped %d degenerate triangles", res.Skipped))
	}
	if len(mesh.Faces) == 0 {
		return MeshResult{}, &model.InvalidMeshError{Reason: "all STL triangles are degenerate"}
	}
	if mesh.Volume() < 0 {
		mesh = mesh.Flipped()
		res.Warnings = append(res.Warnings, "Mesh was inside out, reversed face winding")
	}
	if err := mesh.Validate(); err != nil {
		return MeshResult{}, err
	}
	res.Mesh = mesh
	return res, nil
}
