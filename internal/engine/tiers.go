package engine

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/model"
)

// Tier names, matching model.SupportTiers.
const (
	TierLight  = "light"
	TierMedium = "medium"
	TierHeavy  = "heavy"
)

// Tier rules. Tilt is in degrees from horizontal, load in mm², height in mm.
const (
	lightTilt       = 60.0
	lightLoad       = 2.0
	heavyTilt       = 20.0
	heavyLoad       = 10.0
	lowIslandHeight = 5.0
)

// ClassifyTier picks the tip tier for one anchor. thickness is the depth of
// model material directly above the anchor.
//
// Light tips go where marks would show or little load rests. Heavy tips go
// to islands near the plate and to large flat areas. The rest, bridges
// included, are medium.
func ClassifyTier(a model.SupportAnchor, thickness, thinThreshold float64) string {
	switch {
	case thickness < thinThreshold:
		return TierLight
	case a.Tilt > lightTilt:
		return TierLight
	case a.Load < lightLoad:
		return TierLight
	case a.Kind == model.AnchorIsland && a.Position.Z() < lowIslandHeight:
		return TierHeavy
	case a.Tilt < heavyTilt && a.Load > heavyLoad:
		return TierHeavy
	}
	return TierMedium
}

// ThicknessAbove returns the vertical distance from p to the next model
// surface above it, or +Inf when nothing is above.
func ThicknessAbove(mesh model.Mesh, p mgl64.Vec3) float64 {
	xy := geometry.XY(p)
	best := math.Inf(1)
	for f := range mesh.Faces {
		t := mesh.Triangle(f)
		if maxZ(t) <= p.Z()+geometry.Epsilon {
			continue
		}
		z, ok := geometry.ZAtXY(xy, t[0], t[1], t[2])
		if !ok || z <= p.Z()+geometry.Epsilon {
			continue
		}
		if d := z - p.Z(); d < best {
			best = d
		}
	}
	return best
}

// TierAssigner sets a tier and tip diameter on each automatic anchor.
type TierAssigner struct {
	Config model.Config
	Log    *zap.Logger
}

// Assign returns a copy of anchors with Tier and TipDiameter filled in.
// Manual anchors keep the tip they were given.
func (ta *TierAssigner) Assign(ctx context.Context, mesh model.Mesh, anchors []model.SupportAnchor) ([]model.SupportAnchor, error) {
	out := make([]model.SupportAnchor, len(anchors))
	copy(out, anchors)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ta.Config.WorkerCount())
	for i := range out {
		if out[i].Kind == model.AnchorManual {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := &out[i]
			a.Tier = ClassifyTier(*a, ThicknessAbove(mesh, a.Position), ta.Config.ThinFeatureThreshold)
			if tier, ok := model.GetTier(a.Tier); ok {
				a.TipDiameter = tier.TipDiameter
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ta.Log != nil {
		counts := TierCounts(out)
		ta.Log.Debug("tiers assigned",
			zap.Int(TierLight, counts[TierLight]),
			zap.Int(TierMedium, counts[TierMedium]),
			zap.Int(TierHeavy, counts[TierHeavy]))
	}
	return out, nil
}

// TierCounts tallies anchors by assigned tier. Anchors without a tier are
// not counted.
func TierCounts(anchors []model.SupportAnchor) map[string]int {
	counts := make(map[string]int)
	for _, a := range anchors {
		if a.Tier != "" {
			counts[a.Tier]++
		}
	}
	return counts
}
