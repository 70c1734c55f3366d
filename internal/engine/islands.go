package engine

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
)

// IslandResult holds the layers of one slicing pass and what was found in them.
type IslandResult struct {
	Layers           []model.Layer
	Islands          []model.Island
	Anchors          []model.SupportAnchor
	DegenerateLayers int
}

// IslandDetector finds cross-section regions with nothing beneath them.
type IslandDetector struct {
	Config model.Config
	Log    *zap.Logger
}

// NewIslandDetector creates an IslandDetector for the given configuration.
func NewIslandDetector(cfg model.Config) *IslandDetector {
	return &IslandDetector{Config: cfg, Log: logger.Named("islands")}
}

// Detect slices the mesh and classifies every layer.
func (d *IslandDetector) Detect(ctx context.Context, mesh model.Mesh) (IslandResult, error) {
	slicer := &Slicer{Config: d.Config, Log: d.Log}
	layers, err := slicer.Slice(ctx, mesh)
	if err != nil {
		return IslandResult{}, fmt.Errorf("failed to slice mesh: %w", err)
	}
	return d.Classify(ctx, layers)
}

// Classify finds the islands of already sliced layers. Layer k is compared
// with the closest layer below it that is not degenerate. Layer 0 rests on
// the build plate and never holds an island.
func (d *IslandDetector) Classify(ctx context.Context, layers []model.Layer) (IslandResult, error) {
	result := IslandResult{Layers: layers}

	// Triangulate every region once; layers whose rings cannot be
	// triangulated are treated like any other degenerate layer.
	prepared := make([][]*geometry.TriPolygon, len(layers))
	failed := make([]error, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Config.WorkerCount())
	for k := range layers {
		k := k
		if layers[k].Degenerate {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tps := make([]*geometry.TriPolygon, len(layers[k].Regions))
			for i, r := range layers[k].Regions {
				tp, err := geometry.NewTriPolygon(r)
				if err != nil {
					failed[k] = &model.DegenerateLayerError{Layer: k, Z: layers[k].Z, Reason: err.Error()}
					return nil
				}
				tps[i] = tp
			}
			prepared[k] = tps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IslandResult{}, err
	}

	usable := make([]bool, len(layers))
	for k := range layers {
		switch {
		case layers[k].Degenerate:
			result.DegenerateLayers++
		case failed[k] != nil:
			d.Log.Warn("skipping layer", zap.Int("layer", k), zap.Error(failed[k]))
			result.DegenerateLayers++
		default:
			usable[k] = true
		}
	}

	below := make([]int, len(layers))
	prev := -1
	for k := range layers {
		below[k] = prev
		if usable[k] {
			prev = k
		}
	}

	found := make([][]islandHit, len(layers))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(d.Config.WorkerCount())
	for k := 1; k < len(layers); k++ {
		k := k
		// With no usable layer beneath, the layer is the first one the
		// model is known to occupy and rests on the plate like layer 0.
		if !usable[k] || below[k] < 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[k] = d.classifyLayer(layers[k], prepared[k], prepared[below[k]])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IslandResult{}, err
	}

	for k := range found {
		for _, hit := range found[k] {
			result.Islands = append(result.Islands, hit.island)
			result.Anchors = append(result.Anchors, d.anchorsFor(hit.island, hit.region)...)
		}
	}

	d.Log.Debug("island classification complete",
		zap.Int("layers", len(layers)),
		zap.Int("degenerate", result.DegenerateLayers),
		zap.Int("islands", len(result.Islands)),
		zap.Int("anchors", len(result.Anchors)))
	return result, nil
}

type islandHit struct {
	island model.Island
	region orb.Polygon
}

// classifyLayer returns the regions of layer that overlap the regions below
// by no more than the configured tolerance.
func (d *IslandDetector) classifyLayer(layer model.Layer, regions, support []*geometry.TriPolygon) []islandHit {
	var islands []islandHit
	for _, r := range regions {
		if r.Area < d.Config.MinIslandArea {
			continue
		}
		var overlap float64
		for _, s := range support {
			overlap += r.OverlapArea(s)
			if overlap > d.Config.IslandOverlapTolerance {
				break
			}
		}
		if overlap > d.Config.IslandOverlapTolerance {
			continue
		}
		c, _ := planar.CentroidArea(r.Polygon)
		islands = append(islands, islandHit{
			island: model.Island{
				Layer:    layer.Index,
				Z:        layer.Z,
				Centroid: c,
				Area:     r.Area,
			},
			region: r.Polygon,
		})
	}
	return islands
}

// anchorsFor places one anchor at an interior point of the island and, for
// islands larger than one grid cell, extra anchors on the support grid.
// The island area is shared evenly as load.
func (d *IslandDetector) anchorsFor(island model.Island, region orb.Polygon) []model.SupportAnchor {
	primary := geometry.InteriorPoint(region)
	pts := []orb.Point{primary}

	spacing := d.Config.SupportSpacing
	if island.Area > spacing*spacing {
		for _, p := range geometry.GridPoints(region, spacing) {
			if planar.Distance(p, primary) > spacing/2 {
				pts = append(pts, p)
			}
		}
	}

	load := island.Area / float64(len(pts))
	anchors := make([]model.SupportAnchor, len(pts))
	for i, p := range pts {
		anchors[i] = model.SupportAnchor{
			Position:    mgl64.Vec3{p[0], p[1], island.Z},
			Kind:        model.AnchorIsland,
			TipDiameter: d.Config.SupportTipDiameter,
			Load:        load,
		}
	}
	return anchors
}
