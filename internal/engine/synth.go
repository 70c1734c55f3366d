package engine

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
)

// maxClusterGrowth caps how much a merged pillar's base may grow.
const maxClusterGrowth = 2.0

// Cluster is a group of anchors served by one pillar.
type Cluster struct {
	Position    mgl64.Vec3 // Member centroid
	TipDiameter float64    // Largest member tip
	Load        float64
	Members     []model.SupportAnchor
}

// Kinds returns the distinct kinds of the members in report order.
func (c Cluster) Kinds() []model.AnchorKind {
	seen := make(map[model.AnchorKind]bool, len(c.Members))
	for _, m := range c.Members {
		seen[m.Kind] = true
	}
	var kinds []model.AnchorKind
	for _, k := range model.AnchorKinds {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// ClusterAnchors groups anchors in input order: an anchor joins the first
// cluster whose leader (its first member) lies within radius, otherwise it
// starts a new cluster.
func ClusterAnchors(anchors []model.SupportAnchor, radius float64) []Cluster {
	type group struct {
		leader  mgl64.Vec3
		members []model.SupportAnchor
	}
	var groups []*group
	for _, a := range anchors {
		var target *group
		if radius > 0 {
			for _, g := range groups {
				if g.leader.Sub(a.Position).Len() <= radius {
					target = g
					break
				}
			}
		}
		if target == nil {
			target = &group{leader: a.Position}
			groups = append(groups, target)
		}
		target.members = append(target.members, a)
	}

	clusters := make([]Cluster, len(groups))
	for i, g := range groups {
		var sum mgl64.Vec3
		c := Cluster{Members: g.members}
		for _, m := range g.members {
			sum = sum.Add(m.Position)
			c.TipDiameter = math.Max(c.TipDiameter, m.TipDiameter)
			c.Load += m.Load
		}
		if len(g.members) == 1 {
			c.Position = g.members[0].Position
		} else {
			c.Position = sum.Mul(1 / float64(len(g.members)))
		}
		clusters[i] = c
	}
	return clusters
}

// Synthesizer turns anchors into tapered pillar solids.
type Synthesizer struct {
	Config model.Config
	Log    *zap.Logger
}

// NewSynthesizer creates a Synthesizer for the given configuration.
func NewSynthesizer(cfg model.Config) *Synthesizer {
	return &Synthesizer{Config: cfg, Log: logger.Named("synth")}
}

// Synthesize clusters the anchors and builds one pillar per cluster. Clusters
// lower than the minimum support height already rest on the plate and get
// no pillar. Solids are returned in cluster order.
func (s *Synthesizer) Synthesize(ctx context.Context, anchors []model.SupportAnchor) ([]model.SupportSolid, error) {
	clusters := ClusterAnchors(anchors, s.Config.ClusterRadius())

	slots := make([]*model.SupportSolid, len(clusters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Config.WorkerCount())
	for i := range clusters {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if solid, ok := s.solidFor(clusters[i]); ok {
				slots[i] = &solid
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	solids := make([]model.SupportSolid, 0, len(slots))
	skipped := 0
	for _, sl := range slots {
		if sl == nil {
			skipped++
			continue
		}
		solids = append(solids, *sl)
	}
	s.Log.Debug("pillars synthesized",
		zap.Int("anchors", len(anchors)),
		zap.Int("clusters", len(clusters)),
		zap.Int("solids", len(solids)),
		zap.Int("too_low", skipped))
	return solids, nil
}

// BaseDiameter returns the base diameter of a pillar serving the given
// number of anchors with the given tip: the configured base grown by
// sqrt(members), capped at twice the configured base and never below the tip.
func (s *Synthesizer) BaseDiameter(members int, tip float64) float64 {
	growth := math.Min(maxClusterGrowth, math.Sqrt(float64(members)))
	if growth < 1 {
		growth = 1
	}
	return math.Max(s.Config.SupportBaseDiameter*growth, tip)
}

func (s *Synthesizer) solidFor(c Cluster) (model.SupportSolid, bool) {
	h := c.Position.Z()
	if h < s.Config.MinSupportHeight || h <= 1e-9 {
		return model.SupportSolid{}, false
	}
	base := s.BaseDiameter(len(c.Members), c.TipDiameter)
	return model.SupportSolid{
		Mesh:         s.Pillar(c.Position, c.TipDiameter, base),
		Base:         mgl64.Vec3{c.Position.X(), c.Position.Y(), 0},
		Tip:          c.Position,
		TipDiameter:  c.TipDiameter,
		BaseDiameter: base,
		Height:       h,
		Members:      len(c.Members),
		Kinds:        c.Kinds(),
		Load:         c.Load,
	}, true
}

// NeckHeight is where the tapered body ends and the tip segment begins.
func (s *Synthesizer) NeckHeight(height float64) float64 {
	return height - math.Min(s.Config.TipLength, height/2)
}

// Pillar builds a closed, outward-wound pillar mesh from the plate to tip.
// The body starts as a disc of the base diameter at Z=0 and narrows at the
// taper angle until it reaches the tip radius, then runs straight. When the
// taper would not reach the tip radius by the neck, the body narrows evenly
// from base to neck instead. The tip segment above the neck always keeps
// the tip diameter and closes onto a disc whose centre vertex is exactly tip.
func (s *Synthesizer) Pillar(tip mgl64.Vec3, tipDiameter, baseDiameter float64) model.Mesh {
	n := s.Config.PillarSegments
	if n < 3 {
		n = 3
	}
	h := tip.Z()
	neck := s.NeckHeight(h)
	rb := baseDiameter / 2
	rt := tipDiameter / 2

	type band struct{ z, r float64 }
	rings := []band{{0, rb}}
	if rb > rt {
		// Height at which the configured taper meets the tip radius.
		zt := math.Inf(1)
		if tan := math.Tan(mgl64.DegToRad(s.Config.TaperAngle)); tan > 0 {
			zt = (rb - rt) / tan
		}
		if zt < neck {
			rings = append(rings, band{zt, rt})
		}
	}
	rings = append(rings, band{neck, rt}, band{h, rt})

	cx, cy := tip.X(), tip.Y()

	verts := make([]mgl64.Vec3, 0, 2+len(rings)*n)
	verts = append(verts, mgl64.Vec3{cx, cy, 0})
	for _, ring := range rings {
		for i := 0; i < n; i++ {
			theta := 2 * math.Pi * float64(i) / float64(n)
			verts = append(verts, mgl64.Vec3{cx + ring.r*math.Cos(theta), cy + ring.r*math.Sin(theta), ring.z})
		}
	}
	verts = append(verts, tip)
	top := len(verts) - 1

	at := func(ring, i int) int { return 1 + ring*n + i%n }

	faces := make([]model.Face, 0, 2*n+2*(len(rings)-1)*n)
	for i := 0; i < n; i++ {
		faces = append(faces, model.Face{0, at(0, i+1), at(0, i)})
	}
	for ring := 0; ring < len(rings)-1; ring++ {
		for i := 0; i < n; i++ {
			l0, l1 := at(ring, i), at(ring, i+1)
			u0, u1 := at(ring+1, i), at(ring+1, i+1)
			faces = append(faces, model.Face{l0, l1, u1}, model.Face{l0, u1, u0})
		}
	}
	last := len(rings) - 1
	for i := 0; i < n; i++ {
		faces = append(faces, model.Face{top, at(last, i), at(last, i+1)})
	}
	return model.Mesh{Vertices: verts, Faces: faces}
}
