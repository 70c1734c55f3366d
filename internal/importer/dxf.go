package importer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/SupportGen/internal/model"
)

// ImportDXF imports manual anchors from a DXF drawing. Every CIRCLE becomes
// an anchor at its center (Z included) whose tip diameter is the circle's
// diameter. Other entities are skipped.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	skipped := 0
	for _, ent := range entities {
		c, ok := ent.(*entity.Circle)
		if !ok {
			skipped++
			continue
		}
		result.Anchors = append(result.Anchors, circleToAnchor(c))
	}

	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d non-circle entities", skipped))
	}
	if len(result.Anchors) == 0 {
		result.Errors = append(result.Errors, "No circles found in DXF file")
	}
	return result
}

func circleToAnchor(c *entity.Circle) model.SupportAnchor {
	var pos mgl64.Vec3
	for k := 0; k < 3 && k < len(c.Center); k++ {
		pos[k] = c.Center[k]
	}
	return model.SupportAnchor{
		Position:    pos,
		Kind:        model.AnchorManual,
		TipDiameter: 2 * c.Radius,
	}
}
