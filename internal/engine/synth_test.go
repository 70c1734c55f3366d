package engine

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SupportGen/internal/model"
)

func TestSynthesize_SinglePillar(t *testing.T) {
	s := NewSynthesizer(testConfig())
	anchor := anchorAt(model.AnchorOverhang, 1, 2, 5)

	solids, err := s.Synthesize(context.Background(), []model.SupportAnchor{anchor})
	require.NoError(t, err)
	require.Len(t, solids, 1)

	p := solids[0]
	assert.Equal(t, anchor.Position, p.Tip)
	assert.Equal(t, mgl64.Vec3{1, 2, 0}, p.Base)
	assert.Equal(t, 0.3, p.TipDiameter)
	assert.Equal(t, 1.0, p.BaseDiameter)
	assert.Equal(t, 5.0, p.Height)
	assert.Equal(t, 1, p.Members)
	assert.Equal(t, []model.AnchorKind{model.AnchorOverhang}, p.Kinds)

	require.NoError(t, p.Mesh.Validate())
	min, max := p.Mesh.Bounds()
	assert.Equal(t, 0.0, min.Z(), "base on the plate")
	assert.Equal(t, 5.0, max.Z())
	assert.Equal(t, anchor.Position, p.Mesh.Vertices[len(p.Mesh.Vertices)-1], "tip vertex is the anchor")

	// Bounded by the cylinder of the base and the cylinder of the tip.
	assert.Greater(t, p.Volume(), math.Pi*0.15*0.15*5*0.9)
	assert.Less(t, p.Volume(), math.Pi*0.5*0.5*5)
	assert.InDelta(t, math.Pi*0.15*0.15, p.ContactArea(), 1e-12)
}

func TestSynthesize_SkipsAnchorsOnThePlate(t *testing.T) {
	s := NewSynthesizer(testConfig())
	solids, err := s.Synthesize(context.Background(), []model.SupportAnchor{
		anchorAt(model.AnchorIsland, 0, 0, 0.3),
		anchorAt(model.AnchorIsland, 10, 0, 0),
		anchorAt(model.AnchorIsland, 20, 0, 3),
	})
	require.NoError(t, err)
	require.Len(t, solids, 1)
	assert.Equal(t, 20.0, solids[0].Tip.X())
}

func TestSynthesize_ClustersNearbyAnchors(t *testing.T) {
	s := NewSynthesizer(testConfig()) // cluster radius 1.5mm
	solids, err := s.Synthesize(context.Background(), []model.SupportAnchor{
		anchorAt(model.AnchorOverhang, 0, 0, 5),
		anchorAt(model.AnchorBridge, 1, 0, 5),
		anchorAt(model.AnchorOverhang, 10, 0, 5),
	})
	require.NoError(t, err)
	require.Len(t, solids, 2)

	merged := solids[0]
	assert.Equal(t, 2, merged.Members)
	assert.InDelta(t, 0.5, merged.Tip.X(), 1e-12, "tip at the member centroid")
	assert.InDelta(t, math.Sqrt2, merged.BaseDiameter, 1e-12)
	assert.InDelta(t, 2.0, merged.Load, 1e-12)
	assert.Equal(t, []model.AnchorKind{model.AnchorOverhang, model.AnchorBridge}, merged.Kinds)

	assert.Equal(t, 1, solids[1].Members)
	assert.Equal(t, 1.0, solids[1].BaseDiameter)
}

func TestClusterAnchors_LeaderSemantics(t *testing.T) {
	anchors := []model.SupportAnchor{
		anchorAt(model.AnchorOverhang, 0, 0, 5),
		anchorAt(model.AnchorOverhang, 1.4, 0, 5),
		anchorAt(model.AnchorOverhang, 2.8, 0, 5), // within 1.5 of the second, not of the leader
	}
	clusters := ClusterAnchors(anchors, 1.5)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Members, 2)
	assert.Len(t, clusters[1].Members, 1)
	assert.Equal(t, anchors[2].Position, clusters[1].Position)
}

func TestClusterAnchors_ZeroRadius(t *testing.T) {
	anchors := []model.SupportAnchor{
		anchorAt(model.AnchorOverhang, 0, 0, 5),
		anchorAt(model.AnchorOverhang, 0, 0, 5),
	}
	assert.Len(t, ClusterAnchors(anchors, 0), 2)
}

func TestClusterAnchors_LargestTipWins(t *testing.T) {
	a := anchorAt(model.AnchorOverhang, 0, 0, 5)
	b := anchorAt(model.AnchorManual, 0.5, 0, 5)
	b.TipDiameter = 0.6
	clusters := ClusterAnchors([]model.SupportAnchor{a, b}, 1.5)
	require.Len(t, clusters, 1)
	assert.Equal(t, 0.6, clusters[0].TipDiameter)
}

func TestBaseDiameter(t *testing.T) {
	s := NewSynthesizer(testConfig())
	assert.Equal(t, 1.0, s.BaseDiameter(1, 0.3))
	assert.InDelta(t, 2.0, s.BaseDiameter(4, 0.3), 1e-12)
	assert.Equal(t, 2.0, s.BaseDiameter(50, 0.3), "growth is capped")
	assert.Equal(t, 3.0, s.BaseDiameter(1, 3.0), "never thinner than the tip")
}

func TestNeckHeight(t *testing.T) {
	s := NewSynthesizer(testConfig())
	assert.InDelta(t, 4.5, s.NeckHeight(5), 1e-12)
	assert.InDelta(t, 0.3, s.NeckHeight(0.6), 1e-12, "tip segment never exceeds half the pillar")
}

func TestPillar_Taper(t *testing.T) {
	cfg := testConfig()
	cfg.PillarSegments = 8
	tip := mgl64.Vec3{0, 0, 10}

	ring := func(m model.Mesh, k int) mgl64.Vec3 {
		return m.Vertices[1+k*cfg.PillarSegments]
	}
	radius := func(v mgl64.Vec3) float64 { return math.Hypot(v.X(), v.Y()) }

	cfg.TaperAngle = 7
	tapered := NewSynthesizer(cfg).Pillar(tip, 0.3, 1.0)
	zt := 0.35 / math.Tan(mgl64.DegToRad(7))
	assert.InDelta(t, zt, ring(tapered, 1).Z(), 1e-12, "taper meets the tip radius")
	assert.InDelta(t, 0.15, radius(ring(tapered, 1)), 1e-12)
	assert.InDelta(t, 9.5, ring(tapered, 2).Z(), 1e-12)
	assert.Len(t, tapered.Faces, 2*8+2*3*8)

	cfg.TaperAngle = 60
	steep := NewSynthesizer(cfg).Pillar(tip, 0.3, 1.0)
	assert.InDelta(t, 0.35/math.Sqrt(3), ring(steep, 1).Z(), 1e-12)
	assert.Len(t, steep.Faces, 2*8+2*3*8)

	// No taper: the body narrows evenly up to the neck.
	cfg.TaperAngle = 0
	straight := NewSynthesizer(cfg).Pillar(tip, 0.3, 1.0)
	assert.InDelta(t, 9.5, ring(straight, 1).Z(), 1e-12)
	assert.InDelta(t, 0.15, radius(ring(straight, 1)), 1e-12)
	assert.Len(t, straight.Faces, 2*8+2*2*8)

	for _, m := range []model.Mesh{straight, tapered, steep} {
		require.NoError(t, m.Validate())
		assert.Greater(t, m.Volume(), 0.0)
	}
}

func TestPillar_ShortPillarKeepsTipDiameter(t *testing.T) {
	cfg := testConfig() // 7 degrees reaches the tip radius only after ~2.85mm
	cfg.PillarSegments = 8
	s := NewSynthesizer(cfg)
	m := s.Pillar(mgl64.Vec3{0, 0, 2}, 0.3, 1.0)
	require.NoError(t, m.Validate())

	neck := s.NeckHeight(2)
	for _, v := range m.Vertices[1 : len(m.Vertices)-1] {
		if v.Z() >= neck-1e-12 {
			assert.InDelta(t, 0.15, math.Hypot(v.X(), v.Y()), 1e-12, "vertex %v above the neck", v)
		}
	}
	assert.Len(t, m.Faces, 2*8+2*2*8)
}

func TestSynthesize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSynthesizer(testConfig()).Synthesize(ctx, []model.SupportAnchor{anchorAt(model.AnchorOverhang, 0, 0, 5)})
	assert.ErrorIs(t, err, context.Canceled)
}
