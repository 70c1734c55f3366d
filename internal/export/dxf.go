package export

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/piwi3910/SupportGen/internal/model"
)

// DXF layer names.
const (
	LayerSections = "SECTIONS"
	LayerIslands  = "ISLANDS"
	LayerPillars  = "PILLARS"
)

// DXFOptions selects what the drawing contains.
type DXFOptions struct {
	// SectionEvery draws every n-th layer outline; 0 draws none.
	SectionEvery int
}

// ExportDXF writes a 3D drawing of the run: layer outlines at their heights,
// a circle per island sized to its area, and each pillar as a base circle
// joined to its tip by a line.
func ExportDXF(path string, layers []model.Layer, islands []model.Island, solids []model.SupportSolid, opts DXFOptions) error {
	d := dxf.NewDrawing()

	if _, err := d.AddLayer(LayerSections, color.Cyan, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerSections, err)
	}
	if opts.SectionEvery > 0 {
		for i, l := range layers {
			if i%opts.SectionEvery != 0 || l.Degenerate {
				continue
			}
			for _, region := range l.Regions {
				for _, ring := range region {
					for k := 0; k+1 < len(ring); k++ {
						a, b := ring[k], ring[k+1]
						if _, err := d.Line(a[0], a[1], l.Z, b[0], b[1], l.Z); err != nil {
							return err
						}
					}
				}
			}
		}
	}

	if _, err := d.AddLayer(LayerIslands, color.Red, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerIslands, err)
	}
	for _, is := range islands {
		r := math.Sqrt(is.Area / math.Pi)
		if r <= 0 {
			continue
		}
		if _, err := d.Circle(is.Centroid[0], is.Centroid[1], is.Z, r); err != nil {
			return err
		}
	}

	if _, err := d.AddLayer(LayerPillars, color.Magenta, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerPillars, err)
	}
	for _, s := range solids {
		if _, err := d.Circle(s.Base.X(), s.Base.Y(), s.Base.Z(), s.BaseDiameter/2); err != nil {
			return err
		}
		if _, err := d.Line(s.Base.X(), s.Base.Y(), s.Base.Z(), s.Tip.X(), s.Tip.Y(), s.Tip.Z()); err != nil {
			return err
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write DXF %s: %w", path, err)
	}
	return nil
}
