// Package export writes support generation results: the combined mesh as
// STL, a PDF report, QR-coded pillar labels, an XLSX workbook and a DXF
// drawing.
package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/SupportGen/internal/model"
)

// kindColor represents an RGB color for an anchor kind.
type kindColor struct {
	R, G, B int
}

// kindColors gives every anchor kind a fixed color across the PDF and DXF.
var kindColors = map[model.AnchorKind]kindColor{
	model.AnchorIsland:   {R: 244, G: 67, B: 54},  // red
	model.AnchorOverhang: {R: 33, G: 150, B: 243}, // blue
	model.AnchorBridge:   {R: 255, G: 152, B: 0},  // orange
	model.AnchorManual:   {R: 156, G: 39, B: 176}, // purple
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	rowHeight    = 6.0
)

// ReportMeta carries what the report needs beyond the pipeline report.
type ReportMeta struct {
	MeshName string
	Profile  string
	Tier     string
	Config   model.Config
	Model    model.Mesh // Oriented model; its footprint is drawn on the plate page
}

// ExportPDF generates a PDF report of a support generation run: a summary
// page with statistics and a QR code of the summary, a top view of the
// build plate with every pillar, and a pillar table.
func ExportPDF(path string, report model.Report, solids []model.SupportSolid, meta ReportMeta) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, report, meta); err != nil {
		return err
	}

	if len(solids) > 0 {
		pdf.AddPage()
		renderPlatePage(pdf, solids, meta)
		renderPillarTable(pdf, solids)
	}

	return pdf.OutputFileAndClose(path)
}

// renderSummaryPage draws the first page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, report model.Report, meta ReportMeta) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Support Generation Summary", "", 0, "L", false, 0, "")

	if meta.MeshName != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(marginLeft, marginTop+8)
		pdf.CellFormat(150, 5, meta.MeshName, "", 0, "L", false, 0, "")
	}

	// Separator line
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+14, pageWidth-marginRight, marginTop+14)

	// QR code with the run summary in the top right corner
	png, err := qrPNG(CollectSummary(report, meta))
	if err != nil {
		return err
	}
	pdf.RegisterImageOptionsReader("qr_summary", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("qr_summary", pageWidth-marginRight-35, marginTop+18, 35, 35, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	y := marginTop + 20

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	y = renderItems(pdf, y, []item{
		{"Layers", fmt.Sprintf("%d (%d degenerate)", report.LayerCount, report.DegenerateLayers)},
		{"Islands", fmt.Sprintf("%d", report.IslandCount)},
		{"Anchors", fmt.Sprintf("%d (%d merged as duplicates)", report.TotalAnchors, report.DroppedAnchors)},
		{"Pillars", fmt.Sprintf("%d", report.SolidCount)},
		{"Support Volume", fmt.Sprintf("%.2f mm³ (%.2f ml resin)", report.SupportVolume, report.ResinML())},
		{"Contact Area", fmt.Sprintf("%.2f mm²", report.ContactArea)},
		{"Orientation Score", fmt.Sprintf("%.2f", report.OrientationScore)},
		{"Mesh", fmt.Sprintf("%d / %d faces before / after", report.FacesBefore, report.FacesAfter)},
	}, 10)

	y += 5

	// Anchors by kind table
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Anchors by Kind", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{40, 30}
	y = renderTableHeader(pdf, y, colWidths, []string{"Kind", "Anchors"})
	pdf.SetFont("Helvetica", "", 9)
	for i, k := range model.AnchorKinds {
		c := kindColors[k]
		fillRow(pdf, i)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(colWidths[0], rowHeight, k.String(), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colWidths[1], rowHeight, fmt.Sprintf("%d", report.AnchorCount(k)), "1", 0, "C", true, 0, "")
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.Rect(marginLeft+colWidths[0]+colWidths[1]+2, y+1.5, 3, 3, "F")
		y += rowHeight
	}

	if len(report.Collisions) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Pillars Through the Model", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, w := range report.CollisionWarnings() {
			if y > pageHeight-marginBottom-10 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(200, 5, "- "+w, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	// Settings in the right column
	sx := pageWidth/2 + 10
	sy := marginTop + 60
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(sx, sy)
	pdf.CellFormat(100, 7, "Support Settings", "", 0, "L", false, 0, "")
	sy += 9

	cfg := meta.Config
	settings := []item{
		{"Printer", meta.Profile},
		{"Tier", meta.Tier},
		{"Layer Height", fmt.Sprintf("%.3f mm", cfg.LayerHeight)},
		{"Tip / Base Diameter", fmt.Sprintf("%.2f / %.2f mm", cfg.SupportTipDiameter, cfg.SupportBaseDiameter)},
		{"Taper Angle", fmt.Sprintf("%.1f°", cfg.TaperAngle)},
		{"Overhang Threshold", fmt.Sprintf("%.1f°", cfg.OverhangAngleThreshold)},
		{"Max Bridge Length", fmt.Sprintf("%.1f mm", cfg.MaxBridgeLength)},
		{"Min Island Area", fmt.Sprintf("%.2f mm²", cfg.MinIslandArea)},
		{"Support Spacing", fmt.Sprintf("%.1f mm", cfg.SupportSpacing)},
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, it := range settings {
		if it.value == "" {
			continue
		}
		pdf.SetXY(sx+5, sy)
		pdf.CellFormat(50, 5, it.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 5, utf8ToPDF(pdf, it.value), "", 0, "L", false, 0, "")
		sy += 5
	}

	renderFooter(pdf)
	return nil
}

type item struct {
	label string
	value string
}

func renderItems(pdf *fpdf.Fpdf, y float64, items []item, size float64) float64 {
	pdf.SetFont("Helvetica", "", size)
	for _, it := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, it.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", size)
		pdf.CellFormat(80, 6, utf8ToPDF(pdf, it.value), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", size)
		y += 7
	}
	return y
}

// utf8ToPDF converts the degree and superscript signs to the core font encoding.
func utf8ToPDF(pdf *fpdf.Fpdf, s string) string {
	return pdf.UnicodeTranslatorFromDescriptor("")(s)
}

func renderTableHeader(pdf *fpdf.Fpdf, y float64, widths []float64, headers []string) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(widths[i], rowHeight, header, "1", 0, "C", true, 0, "")
		xPos += widths[i]
	}
	return y + rowHeight
}

// fillRow alternates the row background.
func fillRow(pdf *fpdf.Fpdf, i int) {
	if i%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
}

func renderFooter(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by SupportGen - Resin Support Generator", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// plateFrame returns the XY rectangle shown on the plate page: the build
// plate when the printer has one, grown to include the model and pillars.
func plateFrame(solids []model.SupportSolid, meta ReportMeta) (min, max mgl64.Vec2) {
	min = mgl64.Vec2{math.Inf(1), math.Inf(1)}
	max = mgl64.Vec2{math.Inf(-1), math.Inf(-1)}
	grow := func(x, y float64) {
		min = mgl64.Vec2{math.Min(min.X(), x), math.Min(min.Y(), y)}
		max = mgl64.Vec2{math.Max(max.X(), x), math.Max(max.Y(), y)}
	}

	bv := meta.Config.BuildVolume
	if bv.X > 0 && bv.Y > 0 {
		grow(-bv.X/2, -bv.Y/2)
		grow(bv.X/2, bv.Y/2)
	}
	if len(meta.Model.Vertices) > 0 {
		lo, hi := meta.Model.Bounds()
		grow(lo.X(), lo.Y())
		grow(hi.X(), hi.Y())
	}
	for _, s := range solids {
		r := s.BaseDiameter / 2
		grow(s.Base.X()-r, s.Base.Y()-r)
		grow(s.Base.X()+r, s.Base.Y()+r)
	}
	if max.X()-min.X() < 1 {
		max[0] = min.X() + 1
	}
	if max.Y()-min.Y() < 1 {
		max[1] = min.Y() + 1
	}
	return min, max
}

// renderPlatePage draws a top view of the build plate with the model
// footprint and every pillar base colored by its first anchor kind.
func renderPlatePage(pdf *fpdf.Fpdf, solids []model.SupportSolid, meta ReportMeta) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, "Build Plate (top view)", "", 0, "L", false, 0, "")

	min, max := plateFrame(solids, meta)
	w, h := max.X()-min.X(), max.Y()-min.Y()

	drawWidth := (pageWidth - marginLeft - marginRight) / 2
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawWidth/w, drawHeight/h)
	offsetX := marginLeft
	offsetY := drawAreaTop

	// Plate coordinates have Y up, the page has Y down.
	px := func(x float64) float64 { return offsetX + (x-min.X())*scale }
	py := func(y float64) float64 { return offsetY + (max.Y()-y)*scale }

	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, w*scale, h*scale, "FD")

	if len(meta.Model.Vertices) > 0 {
		lo, hi := meta.Model.Bounds()
		pdf.SetFillColor(210, 210, 180)
		pdf.SetDrawColor(60, 60, 60)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px(lo.X()), py(hi.Y()), (hi.X()-lo.X())*scale, (hi.Y()-lo.Y())*scale, "FD")
	}

	pdf.SetLineWidth(0.1)
	for _, s := range solids {
		c := kindColors[model.AnchorOverhang]
		if len(s.Kinds) > 0 {
			c = kindColors[s.Kinds[0]]
		}
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.SetDrawColor(30, 30, 30)
		r := math.Max(s.BaseDiameter/2*scale, 0.4)
		pdf.Circle(px(s.Base.X()), py(s.Base.Y()), r, "FD")
	}

	// Dimension annotation below the plate
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	dims := fmt.Sprintf("%.1f x %.1f mm", w, h)
	dimsW := pdf.GetStringWidth(dims)
	pdf.SetXY(offsetX+(w*scale-dimsW)/2, offsetY+h*scale+1)
	pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	drawKindLegend(pdf, offsetY+h*scale+7)
}

// drawKindLegend renders the color key for anchor kinds.
func drawKindLegend(pdf *fpdf.Fpdf, startY float64) {
	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft
	for _, k := range model.AnchorKinds {
		c := kindColors[k]
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(20, 4, k.String(), "", 0, "L", false, 0, "")
		xPos += 26
	}
}

// renderPillarTable lists every pillar in the right half of the plate page,
// continuing on new pages as needed.
func renderPillarTable(pdf *fpdf.Fpdf, solids []model.SupportSolid) {
	colWidths := []float64{12, 30, 50, 18, 20}
	headers := []string{"#", "Kinds", "Tip (x, y, z)", "Height", "Base"}
	left := pageWidth / 2
	top := drawAreaTop

	header := func() float64 {
		xPos := left
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, hd := range headers {
			pdf.SetXY(xPos, top)
			pdf.CellFormat(colWidths[i], 5, hd, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		return top + 5
	}

	y := header()
	pdf.SetFont("Helvetica", "", 7)
	for i, s := range solids {
		if y > pageHeight-marginBottom-5 {
			pdf.AddPage()
			y = header()
			pdf.SetFont("Helvetica", "", 7)
		}
		kinds := ""
		for j, k := range s.Kinds {
			if j > 0 {
				kinds += ","
			}
			kinds += k.String()
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			kinds,
			fmt.Sprintf("%.2f, %.2f, %.2f", s.Tip.X(), s.Tip.Y(), s.Tip.Z()),
			fmt.Sprintf("%.2f", s.Height),
			fmt.Sprintf("%.2f", s.BaseDiameter),
		}
		fillRow(pdf, i)
		xPos := left
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 5, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 5
	}
}
