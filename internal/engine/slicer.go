package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
)

// chainTolerance is the distance below which two section points are the same.
const chainTolerance = 1e-9

// planeNudge moves planes that touch the bottom or top of the mesh into the
// material. It must stay well above chainTolerance, or the points where the
// nudged plane crosses a side diagonal merge into the corners.
const planeNudge = 1e-5

// Slicer cuts an oriented mesh into horizontal layers.
type Slicer struct {
	Config model.Config
	Log    *zap.Logger
}

// NewSlicer creates a Slicer for the given configuration.
func NewSlicer(cfg model.Config) *Slicer {
	return &Slicer{Config: cfg, Log: logger.Named("slicer")}
}

// faceSpan is a face with its vertical extent, for quick plane rejection.
type faceSpan struct {
	face       int
	zmin, zmax float64
}

// sliceIndex holds faces sorted by lowest Z so a plane only visits faces
// that start below it.
type sliceIndex struct {
	mesh     model.Mesh
	spans    []faceSpan
	min, max mgl64.Vec3
}

func newSliceIndex(mesh model.Mesh) *sliceIndex {
	spans := make([]faceSpan, len(mesh.Faces))
	for i := range mesh.Faces {
		t := mesh.Triangle(i)
		spans[i] = faceSpan{
			face: i,
			zmin: math.Min(t[0].Z(), math.Min(t[1].Z(), t[2].Z())),
			zmax: math.Max(t[0].Z(), math.Max(t[1].Z(), t[2].Z())),
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].zmin != spans[j].zmin {
			return spans[i].zmin < spans[j].zmin
		}
		return spans[i].face < spans[j].face
	})
	min, max := mesh.Bounds()
	return &sliceIndex{mesh: mesh, spans: spans, min: min, max: max}
}

// segments returns the cross-section segments at z, in face order.
func (ix *sliceIndex) segments(z float64) []geometry.Segment {
	end := sort.Search(len(ix.spans), func(i int) bool { return ix.spans[i].zmin >= z })
	var hits []int
	for _, s := range ix.spans[:end] {
		if s.zmax >= z {
			hits = append(hits, s.face)
		}
	}
	sort.Ints(hits)

	segs := make([]geometry.Segment, 0, len(hits))
	for _, fi := range hits {
		seg, ok := geometry.SliceTriangle(ix.mesh.Triangle(fi), ix.mesh.Faces[fi], z)
		if ok {
			segs = append(segs, seg)
		}
	}
	return segs
}

// LayerHeights returns the nominal Z of every layer: k*h for k = 0..n with
// the last layer clamped to maxZ so the top of the model is always included.
func LayerHeights(maxZ, h float64) []float64 {
	if h <= 0 || maxZ < 0 {
		return nil
	}
	n := int(math.Ceil(maxZ/h - 1e-9))
	if n < 0 {
		n = 0
	}
	zs := make([]float64, n+1)
	for k := range zs {
		zs[k] = math.Min(float64(k)*h, maxZ)
	}
	return zs
}

// Slice produces the layers of the mesh from Z=0 to its top. Degenerate
// layers are logged and returned with Degenerate set and no regions; they
// never abort the pass.
func (s *Slicer) Slice(ctx context.Context, mesh model.Mesh) ([]model.Layer, error) {
	_, max := mesh.Bounds()
	zs := LayerHeights(max.Z(), s.Config.LayerHeight)
	layers := make([]model.Layer, len(zs))
	ix := newSliceIndex(mesh)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Config.WorkerCount())
	for k := range zs {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			layer, err := s.sliceLayer(ix, k, zs[k])
			if err != nil {
				var dle *model.DegenerateLayerError
				if !errors.As(err, &dle) {
					return err
				}
				s.Log.Warn("skipping layer", zap.Int("layer", k), zap.Float64("z", zs[k]), zap.Error(err))
			}
			layers[k] = layer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

// SliceAt returns the single layer at height z.
func (s *Slicer) SliceAt(mesh model.Mesh, index int, z float64) (model.Layer, error) {
	return s.sliceLayer(newSliceIndex(mesh), index, z)
}

func (s *Slicer) sliceLayer(ix *sliceIndex, index int, z float64) (model.Layer, error) {
	layer := model.Layer{Index: index, Z: z}
	zEval, ok := s.evalHeight(ix, z)
	if !ok {
		return layer, nil
	}

	segs := ix.segments(zEval)
	if len(segs) == 0 {
		return layer, nil
	}
	rings, open := geometry.ChainSegments(segs, chainTolerance)
	if open > 0 {
		layer.Degenerate = true
		return layer, &model.DegenerateLayerError{
			Layer:  index,
			Z:      z,
			Reason: fmt.Sprintf("%d of %d section segments do not close", open, len(segs)),
		}
	}
	layer.Regions = geometry.BuildRegions(rings, chainTolerance*chainTolerance)
	return layer, nil
}

// evalHeight nudges planes that coincide with the bottom or top of the mesh
// inward so the first and last layers cut through material. It returns false
// when z lies outside the mesh.
func (s *Slicer) evalHeight(ix *sliceIndex, z float64) (float64, bool) {
	if len(ix.spans) == 0 {
		return 0, false
	}
	lo, hi := ix.min.Z(), ix.max.Z()
	eps := math.Min(planeNudge, (hi-lo)/4)
	if z < lo-eps || z > hi+eps {
		return 0, false
	}
	return mgl64.Clamp(z, lo+eps, hi-eps), true
}
