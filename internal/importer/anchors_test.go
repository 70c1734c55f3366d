package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"

	"github.com/piwi3910/SupportGen/internal/model"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Name,X,Y,Z\nA,1,2,3\nB,4,5,6\n", ','},
		{"semicolon", "Name;X;Y;Z\nA;1;2;3\nB;4;5;6\n", ';'},
		{"tab", "Name\tX\tY\tZ\nA\t1\t2\t3\nB\t4\t5\t6\n", '\t'},
		{"pipe", "Name|X|Y|Z\nA|1|2|3\nB|4|5|6\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Name", "X", "Y", "Z", "Tip Diameter", "Load"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Label: 0, X: 1, Y: 2, Z: 3, Tip: 4, Load: 5}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_ReorderedCaseInsensitive(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"DIAMETER", "z", "Pos X", "POSITION Y"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Tip != 0 || mapping.Z != 1 || mapping.X != 2 || mapping.Y != 3 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.Label != -1 || mapping.Load != -1 {
		t.Errorf("absent columns should map to -1, got %+v", mapping)
	}
}

func TestDetectColumns_Positional(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"1.5", "2", "3"})
	if isHeader {
		t.Error("numeric row is not a header")
	}
	if mapping.Label != -1 || mapping.X != 0 || mapping.Z != 2 || mapping.Tip != 3 {
		t.Errorf("unexpected numeric mapping %+v", mapping)
	}

	mapping, _ = DetectColumns([]string{"tip A", "1", "2", "3"})
	if mapping.Label != 0 || mapping.X != 1 || mapping.Z != 3 || mapping.Tip != 4 {
		t.Errorf("unexpected labelled mapping %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Name,X,Y,Z,Tip\nhook,1,2,3,0.4\nlip,-4.5,0,12,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(result.Anchors))
	}
	a := result.Anchors[0]
	if a.Position.X() != 1 || a.Position.Y() != 2 || a.Position.Z() != 3 {
		t.Errorf("unexpected position %v", a.Position)
	}
	if a.TipDiameter != 0.4 {
		t.Errorf("expected tip 0.4, got %f", a.TipDiameter)
	}
	if a.Kind != model.AnchorManual {
		t.Errorf("expected kind manual, got %s", a.Kind)
	}
	if result.Anchors[1].TipDiameter != 0 {
		t.Errorf("empty tip should leave the default, got %f", result.Anchors[1].TipDiameter)
	}
	if result.Anchors[1].Position.X() != -4.5 {
		t.Errorf("expected x=-4.5, got %f", result.Anchors[1].Position.X())
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("1,2,3\n4,5,6,0.25\n"), ',')
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(result.Anchors))
	}
	if result.Anchors[1].TipDiameter != 0.25 {
		t.Errorf("expected tip 0.25, got %f", result.Anchors[1].TipDiameter)
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("what,where,when,why\na,1,2,3\n"), ',')
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(result.Anchors))
	}
	if result.Anchors[0].Position.Z() != 3 {
		t.Errorf("expected z=3, got %f", result.Anchors[0].Position.Z())
	}
}

func TestImportCSVFromReader_MissingRequiredColumn(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Name,X,Y\na,1,2\n"), ',')
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Z") {
		t.Errorf("expected missing Z error, got %v", result.Errors)
	}
	if len(result.Anchors) != 0 {
		t.Errorf("expected no anchors, got %d", len(result.Anchors))
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "X,Y,Z,Tip\n1,2,3,0.3\nabc,2,3,\n4,5,,\n7,8,9,-1\n\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Anchors) != 2 {
		t.Fatalf("expected 2 valid anchors, got %d", len(result.Anchors))
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Line 3") || !strings.Contains(result.Errors[0], "Invalid X") {
		t.Errorf("unexpected first error %q", result.Errors[0])
	}
	if !strings.Contains(result.Errors[1], "Missing Z") {
		t.Errorf("unexpected second error %q", result.Errors[1])
	}

	foundTipWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Tip diameter must be positive") {
			foundTipWarning = true
		}
	}
	if !foundTipWarning {
		t.Errorf("expected negative tip warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')
	if len(result.Errors) == 0 {
		t.Error("expected error for empty input")
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchors.csv")
	if err := os.WriteFile(path, []byte("X;Y;Z\n1;2;3\n4;5;6\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := ImportAnchors(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(result.Anchors))
	}
	if len(result.Warnings) == 0 || result.Warnings[0] != "Detected semicolon delimiter" {
		t.Errorf("expected delimiter warning first, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV(filepath.Join(t.TempDir(), "none.csv"))
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anchors.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Anchor", "X", "Y", "Z", "Tip"},
		{"ear", 10, 20, 30, 0.5},
		{"tail", 1.5, 2.5, 3.5, ""},
	})

	result := ImportAnchors(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(result.Anchors))
	}
	if result.Anchors[0].Position.Z() != 30 || result.Anchors[0].TipDiameter != 0.5 {
		t.Errorf("unexpected first anchor %+v", result.Anchors[0])
	}
	if result.Anchors[1].Position.X() != 1.5 {
		t.Errorf("expected x=1.5, got %f", result.Anchors[1].Position.X())
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel(filepath.Join(t.TempDir(), "none.xlsx"))
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

// ─── DXF Import Tests ──────────────────────────────────────

func TestImportDXF_Circles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchors.dxf")

	d := dxf.NewDrawing()
	if _, err := d.Circle(5, 6, 7, 0.2); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Line(0, 0, 0, 1, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to save DXF: %v", err)
	}

	result := ImportAnchors(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(result.Anchors))
	}
	a := result.Anchors[0]
	if a.Position.X() != 5 || a.Position.Y() != 6 || a.Position.Z() != 7 {
		t.Errorf("unexpected position %v", a.Position)
	}
	if a.TipDiameter < 0.3999 || a.TipDiameter > 0.4001 {
		t.Errorf("expected tip 0.4, got %f", a.TipDiameter)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected a skipped-entity warning, got %v", result.Warnings)
	}
}

func TestImportDXF_FileNotFound(t *testing.T) {
	result := ImportDXF(filepath.Join(t.TempDir(), "none.dxf"))
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}
