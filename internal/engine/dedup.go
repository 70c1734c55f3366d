package engine

import (
	"math"

	"github.com/piwi3910/SupportGen/internal/model"
)

// AnchorSet collects the anchors of every analysis before deduplication.
type AnchorSet struct {
	Island   []model.SupportAnchor
	Manual   []model.SupportAnchor
	Bridge   []model.SupportAnchor
	Overhang []model.SupportAnchor
}

// Total returns the number of anchors in the set.
func (s AnchorSet) Total() int {
	return len(s.Island) + len(s.Manual) + len(s.Bridge) + len(s.Overhang)
}

// cell addresses one cube of the proximity grid.
type cell struct {
	x, y, z int64
}

// proximityGrid answers "is an accepted anchor within radius" queries by
// hashing anchors into cubes of edge radius.
type proximityGrid struct {
	radius float64
	cells  map[cell][]model.SupportAnchor
}

func newProximityGrid(radius float64) *proximityGrid {
	return &proximityGrid{radius: radius, cells: make(map[cell][]model.SupportAnchor)}
}

func (g *proximityGrid) cellOf(a model.SupportAnchor) cell {
	p := a.Position
	return cell{
		x: int64(math.Floor(p.X() / g.radius)),
		y: int64(math.Floor(p.Y() / g.radius)),
		z: int64(math.Floor(p.Z() / g.radius)),
	}
}

func (g *proximityGrid) add(a model.SupportAnchor) {
	c := g.cellOf(a)
	g.cells[c] = append(g.cells[c], a)
}

func (g *proximityGrid) near(a model.SupportAnchor) bool {
	c := g.cellOf(a)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, o := range g.cells[cell{c.x + dx, c.y + dy, c.z + dz}] {
					if o.Position.Sub(a.Position).Len() <= g.radius {
						return true
					}
				}
			}
		}
	}
	return false
}

// DeduplicateAnchors merges the anchor set into one list. Island and manual
// anchors are always kept. Bridge anchors, then overhang anchors, are dropped
// when an already accepted anchor lies within radius. The walk is sequential
// and in input order, so the result does not depend on how the analyses were
// scheduled. It returns the kept anchors and the number dropped.
func DeduplicateAnchors(set AnchorSet, radius float64) ([]model.SupportAnchor, int) {
	kept := make([]model.SupportAnchor, 0, set.Total())
	kept = append(kept, set.Island...)
	kept = append(kept, set.Manual...)

	if radius <= 0 {
		kept = append(kept, set.Bridge...)
		kept = append(kept, set.Overhang...)
		return kept, 0
	}

	grid := newProximityGrid(radius)
	for _, a := range kept {
		grid.add(a)
	}

	dropped := 0
	for _, group := range [][]model.SupportAnchor{set.Bridge, set.Overhang} {
		for _, a := range group {
			if grid.near(a) {
				dropped++
				continue
			}
			grid.add(a)
			kept = append(kept, a)
		}
	}
	return kept, dropped
}
