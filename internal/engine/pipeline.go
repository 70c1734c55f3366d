package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
)

// Stage names used in timings and logs.
const (
	StageOrient     = "orient"
	StageAnalyze    = "analyze"
	StageDedup      = "dedup"
	StageTiers      = "tiers"
	StageSynthesize = "synthesize"
	StageCollisions = "collisions"
	StageCombine    = "combine"
)

// Stages is the set of optional stages a run invokes.
type Stages struct {
	Orient     bool
	Islands    bool
	Overhangs  bool
	Bridges    bool
	Collisions bool
}

// StagesFromConfig reads the enable flags of cfg.
func StagesFromConfig(cfg model.Config) Stages {
	return Stages{
		Orient:     cfg.AutoOrient,
		Islands:    cfg.EnableIslands,
		Overhangs:  cfg.EnableOverhangs,
		Bridges:    cfg.EnableBridges,
		Collisions: cfg.CheckCollisions,
	}
}

// Result holds every intermediate product of a run along with the report.
type Result struct {
	Mesh        model.Mesh // Model and pillars combined
	Oriented    model.Mesh
	Orientation OrientationResult
	Layers      []model.Layer
	Islands     []model.Island
	Anchors     []model.SupportAnchor // After deduplication
	Solids      []model.SupportSolid
	Report      model.Report
}

// Pipeline runs the stages in order on one mesh.
type Pipeline struct {
	Config  model.Config
	Stages  Stages
	Weights OrientationWeights
	Log     *zap.Logger
}

// New creates a pipeline whose stages follow the enable flags of cfg.
func New(cfg model.Config) *Pipeline {
	return &Pipeline{
		Config:  cfg,
		Stages:  StagesFromConfig(cfg),
		Weights: DefaultOrientationWeights(),
		Log:     logger.Named("pipeline"),
	}
}

// stageConfig returns the configuration each stage sees, with the enable
// flags replaced by the pipeline's stage set.
func (p *Pipeline) stageConfig() model.Config {
	cfg := p.Config
	cfg.AutoOrient = p.Stages.Orient
	cfg.EnableIslands = p.Stages.Islands
	cfg.EnableOverhangs = p.Stages.Overhangs
	cfg.EnableBridges = p.Stages.Bridges
	cfg.CheckCollisions = p.Stages.Collisions
	return cfg
}

// Run generates supports for mesh. Manual anchors are given in the
// coordinates of the input mesh and follow the chosen orientation. The run
// can be cancelled between stages through ctx. No partial result is
// returned on error.
func (p *Pipeline) Run(ctx context.Context, mesh model.Mesh, manual ...model.SupportAnchor) (Result, error) {
	cfg := p.stageConfig()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := mesh.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Report: model.NewReport()}
	rep := &res.Report
	rep.VerticesBefore = len(mesh.Vertices)
	rep.FacesBefore = len(mesh.Faces)

	timed := func(stage string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := fn()
		elapsed := time.Since(start)
		rep.Timings = append(rep.Timings, model.StageTiming{Stage: stage, Duration: elapsed})
		p.Log.Info("stage finished", zap.String("stage", stage), zap.Duration("elapsed", elapsed))
		return err
	}

	// Orientation
	err := timed(StageOrient, func() error {
		orienter := &Orienter{Config: cfg, Weights: p.Weights, Log: p.Log.Named(StageOrient)}
		var err error
		if p.Stages.Orient {
			res.Orientation, err = orienter.Optimize(ctx, mesh)
		} else {
			res.Orientation, err = orienter.Keep(mesh)
		}
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to orient mesh: %w", err)
	}
	res.Oriented = mesh.Transformed(res.Orientation.Transform)
	rep.Orientation = res.Orientation.Transform
	rep.OrientationScore = res.Orientation.Best.Cost
	rep.ModelVolume = res.Oriented.Volume()

	// Islands and surface analysis only read the oriented mesh and run side by side.
	var islands IslandResult
	var analysis AnalysisResult
	err = timed(StageAnalyze, func() error {
		g, gctx := errgroup.WithContext(ctx)
		if p.Stages.Islands {
			g.Go(func() error {
				var err error
				islands, err = (&IslandDetector{Config: cfg, Log: p.Log.Named("islands")}).Detect(gctx, res.Oriented)
				return err
			})
		}
		if p.Stages.Overhangs || p.Stages.Bridges {
			g.Go(func() error {
				var err error
				analysis, err = (&Analyzer{Config: cfg, Log: p.Log.Named("analyzer")}).Analyze(gctx, res.Oriented)
				return err
			})
		}
		return g.Wait()
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to analyze mesh: %w", err)
	}
	res.Layers = islands.Layers
	res.Islands = islands.Islands
	_, top := res.Oriented.Bounds()
	rep.LayerCount = len(LayerHeights(top.Z(), cfg.LayerHeight))
	rep.DegenerateLayers = islands.DegenerateLayers
	rep.IslandCount = len(islands.Islands)

	// Deduplication
	_ = timed(StageDedup, func() error {
		set := AnchorSet{
			Island:   islands.Anchors,
			Manual:   orientManual(manual, res.Orientation.Transform, cfg.SupportTipDiameter),
			Bridge:   analysis.Bridge,
			Overhang: analysis.Overhang,
		}
		res.Anchors, rep.DroppedAnchors = DeduplicateAnchors(set, cfg.DedupRadius)
		return nil
	})
	if cfg.AdaptiveTiers && len(res.Anchors) > 0 {
		err = timed(StageTiers, func() error {
			var err error
			assigner := &TierAssigner{Config: cfg, Log: p.Log.Named(StageTiers)}
			res.Anchors, err = assigner.Assign(ctx, res.Oriented, res.Anchors)
			return err
		})
		if err != nil {
			return Result{}, fmt.Errorf("failed to assign support tiers: %w", err)
		}
		rep.TierCounts = TierCounts(res.Anchors)
	}
	for _, a := range res.Anchors {
		rep.AnchorCounts[a.Kind]++
	}
	rep.TotalAnchors = len(res.Anchors)
	if rep.DroppedAnchors > 0 {
		p.Log.Debug("dropped duplicate anchors", zap.Int("dropped", rep.DroppedAnchors))
	}

	// Pillars
	synth := &Synthesizer{Config: cfg, Log: p.Log.Named("synth")}
	err = timed(StageSynthesize, func() error {
		var err error
		res.Solids, err = synth.Synthesize(ctx, res.Anchors)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to synthesize supports: %w", err)
	}
	rep.SolidCount = len(res.Solids)
	for _, s := range res.Solids {
		rep.SupportVolume += s.Volume()
		rep.ContactArea += s.ContactArea()
	}

	if p.Stages.Collisions {
		_ = timed(StageCollisions, func() error {
			rep.Collisions = CheckPillarCollisions(res.Oriented, res.Solids, synth)
			return nil
		})
		for _, w := range rep.CollisionWarnings() {
			p.Log.Warn(w)
		}
	}

	// Combine
	err = timed(StageCombine, func() error {
		var err error
		res.Mesh, err = Combine(res.Oriented, res.Solids)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to combine meshes: %w", err)
	}
	rep.CombinedVolume = res.Mesh.Volume()
	rep.VerticesAfter = len(res.Mesh.Vertices)
	rep.FacesAfter = len(res.Mesh.Faces)

	p.Log.Info("support generation complete",
		zap.Int("anchors", rep.TotalAnchors),
		zap.Int("pillars", rep.SolidCount),
		zap.Float64("resin_ml", rep.ResinML()))
	return res, nil
}

// orientManual moves manual anchors into the oriented frame and fills in
// missing tip diameters.
func orientManual(anchors []model.SupportAnchor, t model.Transform, tip float64) []model.SupportAnchor {
	if len(anchors) == 0 {
		return nil
	}
	out := make([]model.SupportAnchor, len(anchors))
	for i, a := range anchors {
		a.Position = t.Apply(a.Position)
		a.Kind = model.AnchorManual
		if a.TipDiameter <= 0 {
			a.TipDiameter = tip
		}
		out[i] = a
	}
	return out
}
