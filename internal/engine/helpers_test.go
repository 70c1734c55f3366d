package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/model"
)

// testConfig returns defaults with a fixed worker count so tests exercise
// the concurrent paths the same way on every machine.
func testConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.Workers = 4
	return cfg
}

// testBox builds a closed, outward-wound axis-aligned box.
func testBox(x0, y0, z0, x1, y1, z1 float64) model.Mesh {
	return model.Mesh{
		Vertices: []mgl64.Vec3{
			{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
			{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
		},
		Faces: []model.Face{
			{0, 2, 1}, {0, 3, 2}, // bottom
			{4, 5, 6}, {4, 6, 7}, // top
			{0, 1, 5}, {0, 5, 4}, // front
			{3, 7, 6}, {3, 6, 2}, // back
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	}
}

// testPlate is a 10x10 sheet with no thickness lying in the Z=0 plane.
func testPlate() model.Mesh {
	return model.Mesh{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 10, 0}},
		Faces:    []model.Face{{0, 1, 2}, {0, 2, 3}, {0, 2, 1}, {0, 3, 2}},
	}
}

// testMushroom is a 2x2 stem up to Z=5 carrying a 10x10x1 cap, so the cap
// underside is a 10x10 horizontal overhang at Z=5.
func testMushroom() model.Mesh {
	stem := testBox(4, 4, 0, 6, 6, 5)
	head := testBox(0, 0, 5, 10, 10, 6)
	return stem.Append(head)
}

// testBridge extrudes a two-pillar profile along Y: pillars at x in [0,2]
// and [18,20] from the plate to Z=7, joined by a beam spanning Z in [5,7].
// The unsupported beam underside is 16mm long.
func testBridge(t *testing.T, depth float64) model.Mesh {
	t.Helper()
	profile := orb.Ring{
		{0, 0}, {2, 0}, {2, 5}, {18, 5}, {18, 0}, {20, 0}, {20, 7}, {0, 7},
	}
	return extrudeXZ(t, profile, depth)
}

// extrudeXZ sweeps a counter-clockwise profile drawn in the XZ plane
// (u = X, v = Z) along +Y.
func extrudeXZ(t *testing.T, profile orb.Ring, depth float64) model.Mesh {
	t.Helper()
	n := len(profile)
	index := make(map[orb.Point]int, n)
	var m model.Mesh
	for i, p := range profile {
		index[p] = i
		m.Vertices = append(m.Vertices, mgl64.Vec3{p[0], 0, p[1]})
	}
	for _, p := range profile {
		m.Vertices = append(m.Vertices, mgl64.Vec3{p[0], depth, p[1]})
	}

	tris, err := geometry.Triangulate(profile)
	require.NoError(t, err)
	for _, tri := range tris {
		a, b, c := index[tri[0]], index[tri[1]], index[tri[2]]
		// Counter-clockwise in XZ faces -Y, which is outward at y=0.
		m.Faces = append(m.Faces, model.Face{a, b, c}, model.Face{n + a, n + c, n + b})
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		m.Faces = append(m.Faces,
			model.Face{i, n + j, j},
			model.Face{i, n + i, n + j},
		)
	}
	return m
}

func TestHelperMeshesAreValid(t *testing.T) {
	require.NoError(t, testBox(0, 0, 0, 1, 2, 3).Validate())
	require.InDelta(t, 6.0, testBox(0, 0, 0, 1, 2, 3).Volume(), 1e-9)
	require.InDelta(t, 120.0, testMushroom().Volume(), 1e-9)

	bridge := testBridge(t, 4)
	require.NoError(t, bridge.Validate())
	// Profile area: two 2x5 pillars plus a 20x2 beam.
	require.InDelta(t, (10+10+40)*4.0, bridge.Volume(), 1e-9)
}
