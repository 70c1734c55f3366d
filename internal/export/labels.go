package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SupportGen/internal/model"
)

// PillarLabel holds the data encoded into each pillar label's QR code.
type PillarLabel struct {
	Index        int      `json:"pillar"`
	Kinds        []string `json:"kinds"`
	X            float64  `json:"x_mm"`
	Y            float64  `json:"y_mm"`
	Z            float64  `json:"z_mm"`
	TipDiameter  float64  `json:"tip_mm"`
	BaseDiameter float64  `json:"base_mm"`
	Members      int      `json:"anchors"`
}

// SummaryInfo is the compact run summary encoded into the report QR code.
type SummaryInfo struct {
	Mesh       string         `json:"mesh"`
	Profile    string         `json:"profile,omitempty"`
	Tier       string         `json:"tier,omitempty"`
	Layers     int            `json:"layers"`
	Islands    int            `json:"islands"`
	Anchors    map[string]int `json:"anchors"`
	Pillars    int            `json:"pillars"`
	ResinML    float64        `json:"resin_ml"`
	Collisions int            `json:"collisions"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectSummary builds the QR summary of a run.
func CollectSummary(report model.Report, meta ReportMeta) SummaryInfo {
	info := SummaryInfo{
		Mesh:       meta.MeshName,
		Profile:    meta.Profile,
		Tier:       meta.Tier,
		Layers:     report.LayerCount,
		Islands:    report.IslandCount,
		Anchors:    make(map[string]int),
		Pillars:    report.SolidCount,
		ResinML:    report.ResinML(),
		Collisions: len(report.Collisions),
	}
	for _, k := range model.AnchorKinds {
		if n := report.AnchorCount(k); n > 0 {
			info.Anchors[k.String()] = n
		}
	}
	return info
}

// CollectPillarLabels extracts one label per pillar, numbered from 1.
func CollectPillarLabels(solids []model.SupportSolid) []PillarLabel {
	labels := make([]PillarLabel, 0, len(solids))
	for i, s := range solids {
		kinds := make([]string, len(s.Kinds))
		for j, k := range s.Kinds {
			kinds[j] = k.String()
		}
		labels = append(labels, PillarLabel{
			Index:        i + 1,
			Kinds:        kinds,
			X:            s.Tip.X(),
			Y:            s.Tip.Y(),
			Z:            s.Tip.Z(),
			TipDiameter:  s.TipDiameter,
			BaseDiameter: s.BaseDiameter,
			Members:      s.Members,
		})
	}
	return labels
}

// qrPNG encodes v as JSON into a QR code image.
func qrPNG(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR payload: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// ExportLabels generates a PDF of QR-coded labels, one per pillar, for
// checking a printed support set against the generated one. Labels are
// laid out on a standard label sheet format (Avery 5160 / 3 columns x 10
// rows on US Letter).
func ExportLabels(path string, solids []model.SupportSolid) error {
	labels := CollectPillarLabels(solids)
	if len(labels) == 0 {
		return fmt.Errorf("no pillars to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for pillar %d: %w", label.Index, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info PillarLabel) error {
	// Light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	png, err := qrPNG(info)
	if err != nil {
		return err
	}

	imgName := fmt.Sprintf("qr_pillar_%d", info.Index)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

	// QR code on the right side of the label
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, fmt.Sprintf("Pillar %d", info.Index), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pos := fmt.Sprintf("(%.1f, %.1f, %.1f)", info.X, info.Y, info.Z)
	pdf.CellFormat(textW, 3.5, pos, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	dims := fmt.Sprintf("tip %.2f / base %.2f mm", info.TipDiameter, info.BaseDiameter)
	pdf.CellFormat(textW, 3, dims, "", 1, "L", false, 0, "")

	if info.Members > 1 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, fmt.Sprintf("%d anchors merged", info.Members), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}
