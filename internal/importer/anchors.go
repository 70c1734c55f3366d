// Package importer reads meshes from STL files and manual support anchors
// from CSV, Excel and DXF files. Anchor lists get automatic delimiter
// detection, flexible column mapping and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SupportGen/internal/model"
)

// ImportResult holds the results of an anchor import. Positions are in the
// coordinates of the input mesh.
type ImportResult struct {
	Anchors  []model.SupportAnchor
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Label int
	X     int
	Y     int
	Z     int
	Tip   int
	Load  int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label": {"label", "name", "id", "anchor", "description", "desc", "note"},
	"x":     {"x", "x (mm)", "pos x", "position x"},
	"y":     {"y", "y (mm)", "pos y", "position y"},
	"z":     {"z", "z (mm)", "pos z", "position z", "height"},
	"tip":   {"tip", "tip diameter", "tip_diameter", "diameter", "dia", "size"},
	"load":  {"load", "area", "supported area"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Without a header the mapping is positional: X, Y, Z, Tip when the first
// cell is a number, otherwise Label, X, Y, Z, Tip.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, X: -1, Y: -1, Z: -1, Tip: -1, Load: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				var slot *int
				switch role {
				case "label":
					slot = &mapping.Label
				case "x":
					slot = &mapping.X
				case "y":
					slot = &mapping.Y
				case "z":
					slot = &mapping.Z
				case "tip":
					slot = &mapping.Tip
				case "load":
					slot = &mapping.Load
				}
				if *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if isHeader {
		return mapping, true
	}
	if len(row) > 0 && isNumber(row[0]) {
		return ColumnMapping{Label: -1, X: 0, Y: 1, Z: 2, Tip: 3, Load: -1}, false
	}
	return ColumnMapping{Label: 0, X: 1, Y: 2, Z: 3, Tip: 4, Load: -1}, false
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCoord(row []string, idx int, name, rowLabel string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts an anchor from a row using the given column mapping.
// Returns the anchor, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.SupportAnchor, string, string) {
	var pos mgl64.Vec3
	for k, c := range []struct {
		idx  int
		name string
	}{{mapping.X, "X"}, {mapping.Y, "Y"}, {mapping.Z, "Z"}} {
		v, errMsg := parseCoord(row, c.idx, c.name, rowLabel)
		if errMsg != "" {
			return model.SupportAnchor{}, errMsg, ""
		}
		pos[k] = v
	}

	anchor := model.SupportAnchor{Position: pos, Kind: model.AnchorManual}

	// Optional tip diameter; 0 means the configured default
	var warning string
	if tipStr := getCell(row, mapping.Tip); tipStr != "" {
		tip, err := strconv.ParseFloat(tipStr, 64)
		switch {
		case err != nil:
			warning = fmt.Sprintf("%s: Invalid tip diameter '%s', using default", rowLabel, tipStr)
		case tip <= 0:
			warning = fmt.Sprintf("%s: Tip diameter must be positive, using default", rowLabel)
		default:
			anchor.TipDiameter = tip
		}
	}
	if loadStr := getCell(row, mapping.Load); loadStr != "" {
		if load, err := strconv.ParseFloat(loadStr, 64); err == nil && load >= 0 {
			anchor.Load = load
		}
	}

	return anchor, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportAnchors picks the reader by file extension: .xlsx and .xlsm are read
// as Excel, .dxf as a drawing, anything else as CSV.
func ImportAnchors(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path)
	default:
		return ImportCSV(path)
	}
}

// ImportCSV imports anchors from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports anchors from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports anchors from an Excel (.xlsx) file.
// Reads the sheet named "Anchors", or the first sheet when there is none,
// and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Anchors") {
			sheet = name
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into anchors.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.X == -1 {
			missing = append(missing, "X")
		}
		if mapping.Y == -1 {
			missing = append(missing, "Y")
		}
		if mapping.Z == -1 {
			missing = append(missing, "Z")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if !isNumber(getCell(rows[0], mapping.X)) {
		// Unrecognized header: skip it but keep the positional mapping
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		anchor, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Anchors = append(result.Anchors, anchor)
	}

	return result
}
