package export

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SupportGen/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestSolids()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportLabels_NoPillars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.pdf")
	if err := ExportLabels(path, nil); err == nil {
		t.Fatal("expected error when there are no pillars")
	}
}

func TestExportLabels_MultiplePages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.pdf")

	base := buildTestSolids()[0]
	solids := make([]model.SupportSolid, labelsPerPage+5)
	for i := range solids {
		solids[i] = base
	}
	if err := ExportLabels(path, solids); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestCollectPillarLabels(t *testing.T) {
	labels := CollectPillarLabels(buildTestSolids())
	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(labels))
	}

	l := labels[1]
	if l.Index != 2 {
		t.Errorf("expected index 2, got %d", l.Index)
	}
	if len(l.Kinds) != 2 || l.Kinds[0] != "island" || l.Kinds[1] != "bridge" {
		t.Errorf("unexpected kinds %v", l.Kinds)
	}
	if l.Z != 8 || l.BaseDiameter != 1.4 || l.Members != 2 {
		t.Errorf("unexpected label %+v", l)
	}

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("failed to marshal label: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"pillar", "kinds", "x_mm", "y_mm", "z_mm", "tip_mm", "base_mm", "anchors"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("QR payload is missing %q", key)
		}
	}
}

func TestCollectSummary(t *testing.T) {
	info := CollectSummary(buildTestReport(), buildTestMeta())
	if info.Mesh != "bracket.stl" || info.Tier != "medium" {
		t.Errorf("unexpected meta fields %+v", info)
	}
	if info.Layers != 161 || info.Pillars != 2 {
		t.Errorf("unexpected counts %+v", info)
	}
	if info.Anchors["overhang"] != 1 || info.Anchors["island"] != 1 {
		t.Errorf("unexpected anchors %v", info.Anchors)
	}
	if _, ok := info.Anchors["manual"]; ok {
		t.Error("kinds without anchors should be omitted")
	}
	if info.ResinML != 0.013 {
		t.Errorf("expected 0.013 ml, got %f", info.ResinML)
	}
}
