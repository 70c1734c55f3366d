package engine

import (
	"math"

	"github.com/piwi3910/SupportGen/internal/model"
)

// volumeTolerance absorbs rounding when comparing combined and model volume.
const volumeTolerance = 1e-6

// Combine merges the model with every pillar into one mesh. No boolean
// kernel is used: triangles are concatenated, so pillar tips leave open
// seams against the model, which is acceptable for slicing software.
// The result is rejected with a *model.CombineError when its volume is not
// positive or falls below the model volume.
func Combine(mesh model.Mesh, solids []model.SupportSolid) (model.Mesh, error) {
	parts := make([]model.Mesh, len(solids))
	for i, s := range solids {
		parts[i] = s.Mesh
	}
	combined := mesh.Append(parts...)

	modelVolume := mesh.Volume()
	volume := combined.Volume()
	tol := volumeTolerance * math.Max(1, math.Abs(modelVolume))
	switch {
	case volume <= 0:
		return model.Mesh{}, &model.CombineError{Volume: volume, ModelVolume: modelVolume, Reason: "combined mesh has no volume"}
	case volume < modelVolume-tol:
		return model.Mesh{}, &model.CombineError{Volume: volume, ModelVolume: modelVolume, Reason: "combined mesh is smaller than the model"}
	}
	return combined, nil
}
