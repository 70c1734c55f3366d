package engine

import (
	"math"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/model"
)

// CheckPillarCollisions reports pillars whose shaft meets the model below
// the tip segment. The axis of each pillar is tested against every model
// face between the plate and the neck; the lowest hit is reported. Faces
// resting on the plate are ignored since the pillar base shares that plane.
func CheckPillarCollisions(mesh model.Mesh, solids []model.SupportSolid, synth *Synthesizer) []model.Collision {
	if len(solids) == 0 || len(mesh.Faces) == 0 {
		return nil
	}
	plate := synth.Config.PlateTolerance

	var collisions []model.Collision
	for i, s := range solids {
		neck := synth.NeckHeight(s.Height)
		axis := geometry.XY(s.Tip)

		hitZ := math.Inf(1)
		hitFace := -1
		for f := range mesh.Faces {
			t := mesh.Triangle(f)
			if math.Min(t[0].Z(), math.Min(t[1].Z(), t[2].Z())) >= neck {
				continue
			}
			z, ok := geometry.ZAtXY(axis, t[0], t[1], t[2])
			if !ok || z <= plate || z >= neck-geometry.Epsilon {
				continue
			}
			if z < hitZ {
				hitZ, hitFace = z, f
			}
		}
		if hitFace >= 0 {
			collisions = append(collisions, model.Collision{
				PillarIndex: i,
				Tip:         s.Tip,
				HitZ:        hitZ,
				FaceIndex:   hitFace,
			})
		}
	}
	return deduplicateCollisions(collisions)
}

// deduplicateCollisions keeps at most one collision per pillar tip position.
// Clustered anchors can produce coincident pillars that would otherwise
// flood the report with identical warnings.
func deduplicateCollisions(collisions []model.Collision) []model.Collision {
	type key struct {
		x, y, z float64
	}
	seen := make(map[key]bool)
	var result []model.Collision

	for _, c := range collisions {
		k := key{c.Tip.X(), c.Tip.Y(), c.Tip.Z()}
		if !seen[k] {
			seen[k] = true
			result = append(result, c)
		}
	}
	return result
}
