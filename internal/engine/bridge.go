package engine

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/geometry"
	"github.com/piwi3910/SupportGen/internal/model"
)

// samplesPerBridgeLength is how finely a span is sampled per max bridge length.
const samplesPerBridgeLength = 20

// Span is an unsupported stretch of a bridge region along one direction.
type Span struct {
	Start, End mgl64.Vec3
}

// Length returns the horizontal length of the span.
func (s Span) Length() float64 {
	return math.Hypot(s.End.X()-s.Start.X(), s.End.Y()-s.Start.Y())
}

// Bridges returns the bridge anchors and the face regions they support.
func (a *Analyzer) Bridges(ctx context.Context, mesh model.Mesh) ([]model.SupportAnchor, [][]int, error) {
	return a.bridges(ctx, mesh, geometry.BuildAdjacency(mesh.Faces))
}

// IsBridgeFace reports whether a face is a near-horizontal ceiling above the plate.
func (a *Analyzer) IsBridgeFace(n mgl64.Vec3, t [3]mgl64.Vec3) bool {
	limit := math.Cos(mgl64.DegToRad(a.Config.BridgeAngleTolerance))
	return n.Z() <= -limit && maxZ(t) > a.Config.PlateTolerance
}

func (a *Analyzer) bridges(ctx context.Context, mesh model.Mesh, adj *geometry.Adjacency) ([]model.SupportAnchor, [][]int, error) {
	flags, err := classifyFaces(ctx, mesh, a.Config.WorkerCount(), a.IsBridgeFace)
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
			perRegion[i] = a.bridgeAnchors(mesh, regions[i], flags)
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
	a.Log.Debug("bridge analysis complete",
		zap.Int("regions", len(regions)),
		zap.Int("anchors", len(anchors)))
	return anchors, regions, nil
}

// bridgeRegion is a set of ceiling faces prepared for span tracing.
type bridgeRegion struct {
	mesh     model.Mesh
	faces    []int
	below    []int // Non-region faces that could sit under the region
	centroid mgl64.Vec3
	area     float64
	min, max mgl64.Vec3
}

func newBridgeRegion(mesh model.Mesh, faces []int) *bridgeRegion {
	r := &bridgeRegion{mesh: mesh, faces: faces}
	pts := make([]mgl64.Vec3, 0, len(faces)*3)
	for _, f := range faces {
		t := mesh.Triangle(f)
		fa := geometry.TriangleArea(t[0], t[1], t[2])
		r.area += fa
		r.centroid = r.centroid.Add(geometry.TriangleCentroid(t[0], t[1], t[2]).Mul(fa))
		pts = append(pts, t[0], t[1], t[2])
	}
	if r.area > 0 {
		r.centroid = r.centroid.Mul(1 / r.area)
	}
	r.min, r.max = geometry.Bounds(pts)
	return r
}

// collectBelow finds the faces outside the region whose bounds reach under
// it, including faces flush with the region.
func (r *bridgeRegion) collectBelow(inRegion []bool) {
	mesh := r.mesh
	for f := range mesh.Faces {
		if inRegion[f] {
			continue
		}
		t := mesh.Triangle(f)
		fmin, fmax := geometry.Bounds(t[:])
		if fmin.Z() > r.max.Z()+geometry.Epsilon {
			continue
		}
		if fmax.X() < r.min.X() || fmin.X() > r.max.X() || fmax.Y() < r.min.Y() || fmin.Y() > r.max.Y() {
			continue
		}
		r.below = append(r.below, f)
	}
}

// principalAxis returns the dominant horizontal direction of the region from
// its area covariance in XY. Regions without a dominant direction use the
// X axis.
func (r *bridgeRegion) principalAxis() orb.Point {
	var sxx, sxy, syy float64
	c := r.centroid
	for _, f := range r.faces {
		t := r.mesh.Triangle(f)
		w := geometry.TriangleArea(t[0], t[1], t[2])
		g := geometry.TriangleCentroid(t[0], t[1], t[2])
		// Uniform triangle about its centroid: sum of d*d^T over the corners / 12.
		var txx, txy, tyy float64
		for _, v := range t {
			dx, dy := v.X()-g.X(), v.Y()-g.Y()
			txx += dx * dx
			txy += dx * dy
			tyy += dy * dy
		}
		dx, dy := g.X()-c.X(), g.Y()-c.Y()
		sxx += w * (txx/12 + dx*dx)
		sxy += w * (txy/12 + dx*dy)
		syy += w * (tyy/12 + dy*dy)
	}
	scale := math.Max(1e-12, sxx+syy)
	if math.Abs(sxy)/scale < 1e-9 {
		if syy > sxx*(1+1e-9) {
			return orb.Point{0, 1}
		}
		return orb.Point{1, 0}
	}
	half := (sxx - syy) / 2
	lambda := (sxx+syy)/2 + math.Sqrt(half*half+sxy*sxy)
	ux, uy := lambda-syy, sxy
	n := math.Hypot(ux, uy)
	return orb.Point{ux / n, uy / n}
}

// ceilingAt returns the lowest region height above p.
func (r *bridgeRegion) ceilingAt(p orb.Point) (float64, bool) {
	return lowestZAt(r.mesh, r.faces, p)
}

// supportedAt reports whether something holds the ceiling at p within gap:
// the build plate or a model face directly beneath.
func (r *bridgeRegion) supportedAt(p orb.Point, z, gap, plate float64) bool {
	if z <= gap+plate {
		return true
	}
	for _, f := range r.below {
		t := r.mesh.Triangle(f)
		if bz, ok := geometry.ZAtXY(p, t[0], t[1], t[2]); ok && bz <= z+geometry.Epsilon && z-bz <= gap {
			return true
		}
	}
	return false
}

// extent returns the parameter range of the region along dir through the centroid.
func (r *bridgeRegion) extent(dir orb.Point) (float64, float64) {
	tmin, tmax := math.Inf(1), math.Inf(-1)
	for _, f := range r.faces {
		for _, v := range r.mesh.Triangle(f) {
			t := (v.X()-r.centroid.X())*dir[0] + (v.Y()-r.centroid.Y())*dir[1]
			tmin = math.Min(tmin, t)
			tmax = math.Max(tmax, t)
		}
	}
	return tmin, tmax
}

// spans traces the line through the region centroid along dir and returns
// the unsupported stretches longer than maxLen.
func (r *bridgeRegion) spans(dir orb.Point, maxLen, gap, plate float64) []Span {
	tmin, tmax := r.extent(dir)
	if tmax-tmin <= maxLen {
		return nil
	}
	n := int(math.Ceil((tmax - tmin) / (maxLen / samplesPerBridgeLength)))
	step := (tmax - tmin) / float64(n)

	at := func(t float64) orb.Point {
		return orb.Point{r.centroid.X() + t*dir[0], r.centroid.Y() + t*dir[1]}
	}

	var spans []Span
	open := false
	var start float64
	var startZ, lastZ float64
	flush := func(end float64) {
		if open && end-start > maxLen {
			s, e := at(start), at(end)
			spans = append(spans, Span{
				Start: mgl64.Vec3{s[0], s[1], startZ},
				End:   mgl64.Vec3{e[0], e[1], lastZ},
			})
		}
		open = false
	}

	for i := 0; i < n; i++ {
		t := tmin + (float64(i)+0.5)*step
		p := at(t)
		z, inRegion := r.ceilingAt(p)
		if !inRegion || r.supportedAt(p, z, gap, plate) {
			flush(t - step/2)
			continue
		}
		if !open {
			open = true
			start = t - step/2
			startZ = z
		}
		lastZ = z
	}
	flush(tmax)
	return spans
}

// bridgeAnchors places ceil(S/L)-1 evenly spaced anchors inside every
// unsupported span of length S along the principal axis and its
// perpendicular, so no unsupported stretch is longer than L.
func (a *Analyzer) bridgeAnchors(mesh model.Mesh, faces []int, inRegion []bool) []model.SupportAnchor {
	maxLen := a.Config.MaxBridgeLength
	r := newBridgeRegion(mesh, faces)

	// A region whose diagonal fits within the limit cannot hold a long span.
	if math.Hypot(r.max.X()-r.min.X(), r.max.Y()-r.min.Y()) <= maxLen {
		return nil
	}
	r.collectBelow(inRegion)

	u := r.principalAxis()
	v := orb.Point{-u[1], u[0]}

	var positions []mgl64.Vec3
	for _, dir := range []orb.Point{u, v} {
		for _, s := range r.spans(dir, maxLen, a.Config.BridgeSupportGap, a.Config.PlateTolerance) {
			length := s.Length()
			count := int(math.Ceil(length/maxLen-1e-9)) - 1
			for i := 1; i <= count; i++ {
				f := float64(i) / float64(count+1)
				p := orb.Point{
					s.Start.X() + f*(s.End.X()-s.Start.X()),
					s.Start.Y() + f*(s.End.Y()-s.Start.Y()),
				}
				z, ok := r.ceilingAt(p)
				if !ok {
					z = r.centroid.Z()
				}
				positions = append(positions, mgl64.Vec3{p[0], p[1], z})
			}
		}
	}

	anchors := make([]model.SupportAnchor, len(positions))
	for i, p := range positions {
		anchors[i] = model.SupportAnchor{
			Position:    p,
			Kind:        model.AnchorBridge,
			TipDiameter: a.Config.SupportTipDiameter,
			Load:        r.area / float64(len(positions)),
		}
	}
	return anchors
}
