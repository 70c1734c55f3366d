package export

import (
	"fmt"
	"io"

	"github.com/hschendel/stl"

	"github.com/piwi3910/SupportGen/internal/model"
)

// ToSolid converts an indexed mesh into an STL triangle list with facet
// normals filled in.
func ToSolid(mesh model.Mesh, name string) *stl.Solid {
	solid := &stl.Solid{
		Name:      name,
		Triangles: make([]stl.Triangle, len(mesh.Faces)),
	}
	for i := range mesh.Faces {
		tri := mesh.Triangle(i)
		n := mesh.FaceNormal(i)
		t := stl.Triangle{Normal: stl.Vec3{float32(n.X()), float32(n.Y()), float32(n.Z())}}
		for k, v := range tri {
			t.Vertices[k] = stl.Vec3{float32(v.X()), float32(v.Y()), float32(v.Z())}
		}
		solid.Triangles[i] = t
	}
	return solid
}

// WriteSTL writes mesh to w, as ASCII when ascii is set and binary otherwise.
func WriteSTL(w io.Writer, mesh model.Mesh, name string, ascii bool) error {
	if len(mesh.Faces) == 0 {
		return fmt.Errorf("no faces to export")
	}
	solid := ToSolid(mesh, name)
	solid.IsAscii = ascii
	return solid.WriteAll(w)
}

// ExportSTL writes mesh to path.
func ExportSTL(path string, mesh model.Mesh, name string, ascii bool) error {
	if len(mesh.Faces) == 0 {
		return fmt.Errorf("no faces to export")
	}
	solid := ToSolid(mesh, name)
	solid.IsAscii = ascii
	if err := solid.WriteFile(path); err != nil {
		return fmt.Errorf("failed to write STL %s: %w", path, err)
	}
	return nil
}
