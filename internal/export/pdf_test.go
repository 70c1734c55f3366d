package export

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/piwi3910/SupportGen/internal/model"
)

// boxMesh builds a closed axis-aligned box.
func boxMesh(x0, y0, z0, x1, y1, z1 float64) model.Mesh {
	return model.Mesh{
		Vertices: []mgl64.Vec3{
			{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
			{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
		},
		Faces: []model.Face{
			{0, 2, 1}, {0, 3, 2},
			{4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4},
			{3, 7, 6}, {3, 6, 2},
			{0, 4, 7}, {0, 7, 3},
			{1, 2, 6}, {1, 6, 5},
		},
	}
}

// buildTestSolids creates two square pillars standing in for generated ones.
func buildTestSolids() []model.SupportSolid {
	return []model.SupportSolid{
		{
			Mesh:         boxMesh(-0.5, -0.5, 0, 0.5, 0.5, 5),
			Base:         mgl64.Vec3{0, 0, 0},
			Tip:          mgl64.Vec3{0, 0, 5},
			TipDiameter:  0.3,
			BaseDiameter: 1.0,
			Height:       5,
			Members:      1,
			Kinds:        []model.AnchorKind{model.AnchorOverhang},
			Load:         9,
		},
		{
			Mesh:         boxMesh(3.5, 3.5, 0, 4.5, 4.5, 8),
			Base:         mgl64.Vec3{4, 4, 0},
			Tip:          mgl64.Vec3{4, 4, 8},
			TipDiameter:  0.3,
			BaseDiameter: 1.4,
			Height:       8,
			Members:      2,
			Kinds:        []model.AnchorKind{model.AnchorIsland, model.AnchorBridge},
			Load:         4,
		},
	}
}

func buildTestReport() model.Report {
	r := model.NewReport()
	r.LayerCount = 161
	r.IslandCount = 1
	r.AnchorCounts[model.AnchorOverhang] = 1
	r.AnchorCounts[model.AnchorIsland] = 1
	r.AnchorCounts[model.AnchorBridge] = 1
	r.TotalAnchors = 3
	r.DroppedAnchors = 2
	r.SolidCount = 2
	r.SupportVolume = 13
	r.ContactArea = 0.14
	r.FacesBefore = 12
	r.FacesAfter = 36
	return r
}

func buildTestMeta() ReportMeta {
	return ReportMeta{
		MeshName: "bracket.stl",
		Profile:  "Elegoo Mars 4",
		Tier:     "medium",
		Config:   model.DefaultConfig(),
		Model:    boxMesh(-5, -5, 5, 5, 5, 8),
	}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if len(data) < 500 {
		t.Errorf("PDF file seems too small: %d bytes", len(data))
	}
	if string(data[:4]) != "%PDF" {
		t.Errorf("expected PDF header, got %q", data[:4])
	}
}

func TestExportPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")

	err := ExportPDF(path, buildTestReport(), buildTestSolids(), buildTestMeta())
	if err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_NoPillars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convex.pdf")

	report := model.NewReport()
	report.LayerCount = 20
	if err := ExportPDF(path, report, nil, ReportMeta{Config: model.DefaultConfig()}); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_WithCollisions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collisions.pdf")

	report := buildTestReport()
	report.Collisions = []model.Collision{
		{PillarIndex: 1, Tip: mgl64.Vec3{4, 4, 8}, HitZ: 5},
	}
	if err := ExportPDF(path, report, buildTestSolids(), buildTestMeta()); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_ManyPillarsPaginate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	base := buildTestSolids()[0]
	var solids []model.SupportSolid
	for i := 0; i < 120; i++ {
		s := base
		s.Base = mgl64.Vec3{float64(i%12) * 2, float64(i/12) * 2, 0}
		s.Tip = s.Base.Add(mgl64.Vec3{0, 0, 5})
		solids = append(solids, s)
	}
	meta := buildTestMeta()
	meta.Config.BuildVolume = model.BuildVolume{}

	if err := ExportPDF(path, buildTestReport(), solids, meta); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_InvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "report.pdf")
	if err := ExportPDF(path, buildTestReport(), nil, buildTestMeta()); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestPlateFrame(t *testing.T) {
	meta := buildTestMeta()
	min, max := plateFrame(buildTestSolids(), meta)

	bv := meta.Config.BuildVolume
	if min.X() != -bv.X/2 || max.Y() != bv.Y/2 {
		t.Errorf("frame should cover the build plate, got %v %v", min, max)
	}

	meta.Config.BuildVolume = model.BuildVolume{}
	meta.Model = model.Mesh{}
	min, max = plateFrame(buildTestSolids(), meta)
	if min.X() != -0.5 || min.Y() != -0.5 {
		t.Errorf("expected min (-0.5, -0.5), got %v", min)
	}
	if math.Abs(max.X()-4.7) > 1e-9 || math.Abs(max.Y()-4.7) > 1e-9 {
		t.Errorf("expected max (4.7, 4.7), got %v", max)
	}
}
