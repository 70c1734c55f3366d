package engine

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
)

// classifyChunk is the number of faces one worker classifies at a time.
const classifyChunk = 4096

// Adaptive overhang grid. Surfaces flatter than flatTiltLimit use the
// tighter edge pitch, steeper than steepTiltLimit the sparse one. Regions
// larger than areaReference mm² grow the pitch logarithmically, up to
// maxAreaFactor.
const (
	flatTiltLimit  = 20.0
	steepTiltLimit = 40.0
	edgePitchRatio = 2.0 / 3.0
	sparsePitch    = 1.5
	areaReference  = 10.0
	areaGrowth     = 0.3
	maxAreaFactor  = 2.5
)

// AnalysisResult holds the anchors found by the surface analysis.
type AnalysisResult struct {
	Overhang        []model.SupportAnchor
	Bridge          []model.SupportAnchor
	OverhangRegions [][]int // Face indices of each overhang region
	BridgeRegions   [][]int // Face indices of each bridge region
}

// Analyzer inspects faces of the oriented mesh for overhangs and bridges.
type Analyzer struct {
	Config model.Config
	Log    *zap.Logger
}

// NewAnalyzer creates an Analyzer for the given configuration.
func NewAnalyzer(cfg model.Config) *Analyzer {
	return &Analyzer{Config: cfg, Log: logger.Named("analyzer")}
}

// Analyze runs the overhang and bridge analyses enabled in the configuration.
func (a *Analyzer) Analyze(ctx context.Context, mesh model.Mesh) (AnalysisResult, error) {
	var result AnalysisResult
	adj := geometry.BuildAdjacency(mesh.Faces)

	if a.Config.EnableOverhangs {
		anchors, regions, err := a.overhangs(ctx, mesh, adj)
		if err != nil {
			return AnalysisResult{}, err
		}
		result.Overhang, result.OverhangRegions = anchors, regions
	}
	if a.Config.EnableBridges {
		anchors, regions, err := a.bridges(ctx, mesh, adj)
		if err != nil {
			return AnalysisResult{}, err
		}
		result.Bridge, result.BridgeRegions = anchors, regions
	}
	return result, nil
}

// Overhangs returns the overhang anchors and the face regions they support.
func (a *Analyzer) Overhangs(ctx context.Context, mesh model.Mesh) ([]model.SupportAnchor, [][]int, error) {
	return a.overhangs(ctx, mesh, geometry.BuildAdjacency(mesh.Faces))
}

// IsOverhang reports whether a face with normal n and corners t needs
// support: it faces down, leans past the threshold and is not on the plate.
func (a *Analyzer) IsOverhang(n mgl64.Vec3, t [3]mgl64.Vec3) bool {
	if n.Z() >= 0 {
		return false
	}
	if maxZ(t) <= a.Config.PlateTolerance {
		return false
	}
	return geometry.AngleFromUp(n) > a.Config.OverhangAngleThreshold
}

func (a *Analyzer) overhangs(ctx context.Context, mesh model.Mesh, adj *geometry.Adjacency) ([]model.SupportAnchor, [][]int, error) {
	flags, err := classifyFaces(ctx, mesh, a.Config.WorkerCount(), a.IsOverhang)
	if err != nil {
		return nil, nil, err
	}
	regions := adj.Components(func(f int) bool { return flags[f] })

	perRegion := make([][]model.SupportAnchor, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.WorkerCount())
	for i := range regions {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perRegion[i] = a.regionAnchors(mesh, regions[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var anchors []model.SupportAnchor
	for _, r := range perRegion {
		anchors = append(anchors, r...)
	}
	a.Log.Debug("overhang analysis complete",
		zap.Int("regions", len(regions)),
		zap.Int("anchors", len(anchors)))
	return anchors, regions, nil
}

// classifyFaces evaluates pred for every face in parallel chunks.
func classifyFaces(ctx context.Context, mesh model.Mesh, workers int, pred func(n mgl64.Vec3, t [3]mgl64.Vec3) bool) ([]bool, error) {
	flags := make([]bool, len(mesh.Faces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(mesh.Faces); start += classifyChunk {
		start := start
		end := start + classifyChunk
		if end > len(mesh.Faces) {
			end = len(mesh.Faces)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for f := start; f < end; f++ {
				t := mesh.Triangle(f)
				flags[f] = pred(geometry.TriangleNormal(t[0], t[1], t[2]), t)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flags, nil
}

// RegionPitch returns the anchor grid pitch for an overhang region whose
// faces lean tilt degrees from horizontal on average and cover area mm².
// Without adaptive spacing it is the configured support spacing.
func (a *Analyzer) RegionPitch(tilt, area float64) float64 {
	pitch := a.Config.SupportSpacing
	if !a.Config.AdaptiveSpacing {
		return pitch
	}
	switch {
	case tilt < flatTiltLimit:
		pitch *= edgePitchRatio
	case tilt >= steepTiltLimit:
		pitch *= sparsePitch
	}
	if area > areaReference {
		pitch *= math.Min(1+areaGrowth*math.Log10(area/areaReference), maxAreaFactor)
	}
	return pitch
}

// regionAnchors samples a grid over the XY projection of the region. Each
// grid point that lands on a region face becomes an anchor on the lowest
// such face. Regions too thin to catch a grid point get a single anchor at
// their area-weighted centroid. The region area is shared evenly as load.
func (a *Analyzer) regionAnchors(mesh model.Mesh, faces []int) []model.SupportAnchor {
	var area, tilt float64
	var centroid mgl64.Vec3
	pts := make([]mgl64.Vec3, 0, len(faces)*3)
	for _, f := range faces {
		t := mesh.Triangle(f)
		fa := geometry.TriangleArea(t[0], t[1], t[2])
		area += fa
		centroid = centroid.Add(geometry.TriangleCentroid(t[0], t[1], t[2]).Mul(fa))
		tilt += geometry.TiltFromHorizontal(geometry.TriangleNormal(t[0], t[1], t[2])) * fa
		pts = append(pts, t[0], t[1], t[2])
	}
	if area > 0 {
		centroid = centroid.Mul(1 / area)
		tilt /= area
	}

	min, max := geometry.Bounds(pts)
	pitch := a.RegionPitch(tilt, area)

	var positions []mgl64.Vec3
	for y := min.Y() + pitch/2; y < max.Y(); y += pitch {
		for x := min.X() + pitch/2; x < max.X(); x += pitch {
			if z, ok := lowestZAt(mesh, faces, orb.Point{x, y}); ok {
				positions = append(positions, mgl64.Vec3{x, y, z})
			}
		}
	}

	if len(positions) == 0 {
		p := geometry.XY(centroid)
		if z, ok := lowestZAt(mesh, faces, p); ok {
			positions = append(positions, mgl64.Vec3{p[0], p[1], z})
		} else {
			positions = append(positions, centroid)
		}
	}

	anchors := make([]model.SupportAnchor, len(positions))
	for i, p := range positions {
		anchors[i] = model.SupportAnchor{
			Position:    p,
			Kind:        model.AnchorOverhang,
			TipDiameter: a.Config.SupportTipDiameter,
			Load:        area / float64(len(positions)),
			Tilt:        tilt,
		}
	}
	return anchors
}

// lowestZAt returns the lowest height of the given faces above p.
func lowestZAt(mesh model.Mesh, faces []int, p orb.Point) (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, f := range faces {
		t := mesh.Triangle(f)
		if z, ok := geometry.ZAtXY(p, t[0], t[1], t[2]); ok && z < best {
			best = z
			found = true
		}
	}
	return best, found
}

func maxZ(t [3]mgl64.Vec3) float64 {
	return math.Max(t[0].Z(), math.Max(t[1].Z(), t[2].Z()))
}
