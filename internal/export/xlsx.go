package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SupportGen/internal/model"
)

const (
	summarySheet = "Summary"
	anchorSheet  = "Anchors"
	pillarSheet  = "Pillars"
)

// AnchorHeaders is the header row of the anchor sheet. The X, Y, Z and Tip
// columns read back through the anchor importer.
var AnchorHeaders = []interface{}{"#", "Kind", "X", "Y", "Z", "Tip", "Load"}

var pillarHeaders = []interface{}{"#", "Kinds", "Tip X", "Tip Y", "Tip Z", "Base X", "Base Y", "Height", "Tip Diameter", "Base Diameter", "Anchors", "Volume"}

// ExportXLSX writes a workbook with a summary sheet, one row per anchor and
// one row per pillar.
func ExportXLSX(path string, report model.Report, anchors []model.SupportAnchor, solids []model.SupportSolid) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for _, name := range []string{anchorSheet, pillarSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Layers", report.LayerCount},
		{"Degenerate Layers", report.DegenerateLayers},
		{"Islands", report.IslandCount},
		{"Anchors", report.TotalAnchors},
		{"Merged Anchors", report.DroppedAnchors},
	}
	for _, k := range model.AnchorKinds {
		summary = append(summary, []interface{}{"Anchors (" + k.String() + ")", report.AnchorCount(k)})
	}
	summary = append(summary,
		[]interface{}{"Pillars", report.SolidCount},
		[]interface{}{"Support Volume (mm3)", report.SupportVolume},
		[]interface{}{"Resin (ml)", report.ResinML()},
		[]interface{}{"Contact Area (mm2)", report.ContactArea},
		[]interface{}{"Collisions", len(report.Collisions)},
	)
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return err
	}

	if err := setRow(f, anchorSheet, 1, AnchorHeaders); err != nil {
		return err
	}
	for i, a := range anchors {
		row := []interface{}{i + 1, a.Kind.String(), a.Position.X(), a.Position.Y(), a.Position.Z(), a.TipDiameter, a.Load}
		if err := setRow(f, anchorSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := setRow(f, pillarSheet, 1, pillarHeaders); err != nil {
		return err
	}
	for i, s := range solids {
		kinds := ""
		for j, k := range s.Kinds {
			if j > 0 {
				kinds += ","
			}
			kinds += k.String()
		}
		row := []interface{}{
			i + 1, kinds,
			s.Tip.X(), s.Tip.Y(), s.Tip.Z(),
			s.Base.X(), s.Base.Y(),
			s.Height, s.TipDiameter, s.BaseDiameter,
			s.Members, s.Volume(),
		}
		if err := setRow(f, pillarSheet, i+2, row); err != nil {
			return err
		}
	}

	for _, sheet := range []string{anchorSheet, pillarSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
