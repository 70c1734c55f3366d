package engine

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
)

// OrientationWeights combine the per-candidate measurements into one cost.
type OrientationWeights struct {
	Overhang  float64 // per mm² of overhanging surface
	Stability float64 // divided by (footprint + 1)
	Height    float64 // per mm of bounding-box height
	Overflow  float64 // flat penalty for not fitting the build volume
}

// DefaultOrientationWeights returns the weights used by the CLI.
func DefaultOrientationWeights() OrientationWeights {
	return OrientationWeights{
		Overhang:  1.0,
		Stability: 200.0,
		Height:    0.5,
		Overflow:  1e6,
	}
}

// OrientationCandidate is one scored rotation.
type OrientationCandidate struct {
	Index        int
	Rotation     mgl64.Mat3
	Down         mgl64.Vec3 // Model-space direction that ends up facing the plate
	Footprint    float64    // mm² resting on the plate
	OverhangArea float64    // mm²
	Height       float64    // mm
	Fits         bool       // Inside the build volume
	Cost         float64
}

// OrientationResult is the outcome of an orientation search.
type OrientationResult struct {
	Transform  model.Transform
	Best       OrientationCandidate
	Candidates []OrientationCandidate
	Refined    bool // The genetic refinement improved on the best candidate
}

// Orienter searches rotations of a mesh for the cheapest print orientation.
type Orienter struct {
	Config  model.Config
	Weights OrientationWeights
	Log     *zap.Logger
}

// NewOrienter creates an Orienter with default weights.
func NewOrienter(cfg model.Config) *Orienter {
	return &Orienter{
		Config:  cfg,
		Weights: DefaultOrientationWeights(),
		Log:     logger.Named("orient"),
	}
}

// Optimize scores Config.OrientationSampleCount candidate rotations and
// returns the transform of the cheapest one. The input mesh is not modified.
// Scoring runs concurrently; the winner is picked by a sequential scan so the
// result does not depend on scheduling.
func (o *Orienter) Optimize(ctx context.Context, mesh model.Mesh) (OrientationResult, error) {
	if err := mesh.Validate(); err != nil {
		return OrientationResult{}, err
	}

	rotations, downs := CandidateRotations(o.Config.OrientationSampleCount)
	candidates := make([]OrientationCandidate, len(rotations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Config.WorkerCount())
	for i := range rotations {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := o.Score(mesh, rotations[i])
			c.Index = i
			c.Down = downs[i]
			candidates[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return OrientationResult{}, err
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidateLess(candidates[i], candidates[best]) {
			best = i
		}
	}

	result := OrientationResult{Best: candidates[best], Candidates: candidates}

	if o.Config.OrientationRefineGenerations > 0 {
		refined, ok := o.refine(ctx, mesh, candidates[best])
		if ok {
			result.Best = refined
			result.Refined = true
		}
	}

	result.Transform = o.placement(mesh, result.Best.Rotation)
	o.Log.Debug("orientation selected",
		zap.Int("candidate", result.Best.Index),
		zap.Float64("cost", result.Best.Cost),
		zap.Float64("overhang_area", result.Best.OverhangArea),
		zap.Float64("footprint", result.Best.Footprint),
		zap.Bool("refined", result.Refined))
	return result, nil
}

// Keep scores the mesh as-is and only applies the plate placement. It is
// used when automatic orientation is disabled.
func (o *Orienter) Keep(mesh model.Mesh) (OrientationResult, error) {
	if err := mesh.Validate(); err != nil {
		return OrientationResult{}, err
	}
	c := o.Score(mesh, mgl64.Ident3())
	c.Down = mgl64.Vec3{0, 0, -1}
	return OrientationResult{
		Transform:  o.placement(mesh, c.Rotation),
		Best:       c,
		Candidates: []OrientationCandidate{c},
	}, nil
}

// placement builds the final transform: rotation, then (optionally) a
// translation resting the model on Z=0 centred on the origin.
func (o *Orienter) placement(mesh model.Mesh, rot mgl64.Mat3) model.Transform {
	t := model.Transform{Rotation: rot}
	if !o.Config.CenterOnPlate {
		return t
	}
	rotated := mesh.Transformed(t)
	min, max := rotated.Bounds()
	t.Translation = mgl64.Vec3{-(min.X() + max.X()) / 2, -(min.Y() + max.Y()) / 2, -min.Z()}
	return t
}

// Score measures the mesh under rotation rot.
func (o *Orienter) Score(mesh model.Mesh, rot mgl64.Mat3) OrientationCandidate {
	verts := make([]mgl64.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		verts[i] = rot.Mul3x1(v)
	}
	min, max := geometry.Bounds(verts)
	tol := math.Max(o.Config.PlateTolerance, 1e-6)

	var footprint, overhang float64
	for _, f := range mesh.Faces {
		a, b, c := verts[f[0]], verts[f[1]], verts[f[2]]
		n := geometry.TriangleNormal(a, b, c)
		if n.Z() >= 0 {
			continue
		}
		top := math.Max(a.Z(), math.Max(b.Z(), c.Z()))
		area := geometry.TriangleArea(a, b, c)
		if top <= min.Z()+tol {
			if n.Z() < -0.9 {
				footprint += area
			}
			continue
		}
		if geometry.AngleFromUp(n) > o.Config.OverhangAngleThreshold {
			overhang += area
		}
	}

	ext := max.Sub(min)
	c := OrientationCandidate{
		Rotation:     rot,
		Footprint:    footprint,
		OverhangArea: overhang,
		Height:       ext.Z(),
		Fits:         fitsBuildVolume(ext, o.Config.BuildVolume),
	}
	c.Cost = o.Weights.Overhang*overhang +
		o.Weights.Stability/(footprint+1) +
		o.Weights.Height*c.Height
	if !c.Fits {
		c.Cost += o.Weights.Overflow
	}
	return c
}

// fitsBuildVolume allows the model to be turned 90 degrees on the plate.
func fitsBuildVolume(ext mgl64.Vec3, bv model.BuildVolume) bool {
	fitsAxis := func(v, limit float64) bool { return limit <= 0 || v <= limit }
	if !fitsAxis(ext.Z(), bv.Z) {
		return false
	}
	return (fitsAxis(ext.X(), bv.X) && fitsAxis(ext.Y(), bv.Y)) ||
		(fitsAxis(ext.Y(), bv.X) && fitsAxis(ext.X(), bv.Y))
}

// candidateLess orders candidates by cost, then bounding-box height, then
// footprint, then index. Costs within a relative 1e-9 count as equal so that
// symmetric orientations tie instead of being split by rounding noise.
func candidateLess(a, b OrientationCandidate) bool {
	if !nearlyEqual(a.Cost, b.Cost) {
		return a.Cost < b.Cost
	}
	if !nearlyEqual(a.Height, b.Height) {
		return a.Height < b.Height
	}
	if !nearlyEqual(a.Footprint, b.Footprint) {
		return a.Footprint < b.Footprint
	}
	return a.Index < b.Index
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// CandidateRotations returns n rotations and the model direction each one
// points at the plate: first the six principal axes, then directions spread
// over the sphere on a Fibonacci lattice. The list depends only on n.
func CandidateRotations(n int) ([]mgl64.Mat3, []mgl64.Vec3) {
	dirs := []mgl64.Vec3{
		{0, 0, -1}, {0, 0, 1},
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
	}
	if n < len(dirs) {
		dirs = dirs[:n]
	}
	extra := n - len(dirs)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < extra; i++ {
		y := 1 - 2*(float64(i)+0.5)/float64(extra)
		r := math.Sqrt(1 - y*y)
		theta := golden * float64(i)
		dirs = append(dirs, mgl64.Vec3{r * math.Cos(theta), y, r * math.Sin(theta)})
	}

	rots := make([]mgl64.Mat3, len(dirs))
	for i, d := range dirs {
		rots[i] = RotationToDown(d)
	}
	return rots, dirs
}

// RotationToDown returns the rotation that maps direction d onto -Z.
func RotationToDown(d mgl64.Vec3) mgl64.Mat3 {
	down := mgl64.Vec3{0, 0, -1}
	d = d.Normalize()
	cos := mgl64.Clamp(d.Dot(down), -1, 1)
	if cos > 1-1e-12 {
		return mgl64.Ident3()
	}
	if cos < -1+1e-12 {
		return mgl64.Rotate3DX(math.Pi)
	}
	axis := d.Cross(down).Normalize()
	return mgl64.HomogRotate3D(math.Acos(cos), axis).Mat3()
}
