package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/SupportGen/internal/engine"
	"github.com/piwi3910/SupportGen/internal/export"
	"github.com/piwi3910/SupportGen/internal/importer"
	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
	"github.com/piwi3910/SupportGen/internal/project"
)

// runFlags are the support options shared by generate, analyze and compare.
type runFlags struct {
	noOrient     bool
	noIslands    bool
	noOverhangs  bool
	noBridges    bool
	noCollisions bool
	tiered       bool
	fixedSpacing bool
	layerHeight  float64
	spacing      float64
	workers      int
	anchorsPath  string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.noOrient, "no-orient", false, "Keep the input orientation")
	fl.BoolVar(&f.noIslands, "no-islands", false, "Skip island detection")
	fl.BoolVar(&f.noOverhangs, "no-overhangs", false, "Skip overhang detection")
	fl.BoolVar(&f.noBridges, "no-bridges", false, "Skip bridge detection")
	fl.BoolVar(&f.noCollisions, "no-collisions", false, "Skip the pillar collision check")
	fl.BoolVar(&f.tiered, "tiered", false, "Pick a light, medium or heavy tip for each anchor")
	fl.BoolVar(&f.fixedSpacing, "fixed-spacing", false, "Use the same anchor pitch on every overhang")
	fl.Float64Var(&f.layerHeight, "layer-height", 0, "Layer height in mm (overrides the profile)")
	fl.Float64Var(&f.spacing, "spacing", 0, "Anchor grid spacing in mm")
	fl.IntVar(&f.workers, "workers", 0, "Worker goroutines, 0 for one per CPU")
	fl.StringVar(&f.anchorsPath, "anchors", "", "Manual anchors from a CSV, Excel or DXF file")
}

// apply returns cfg with the flags that were set on cmd.
func (f *runFlags) apply(cmd *cobra.Command, cfg model.Config) model.Config {
	fl := cmd.Flags()
	if f.noOrient {
		cfg.AutoOrient = false
	}
	if f.noIslands {
		cfg.EnableIslands = false
	}
	if f.noOverhangs {
		cfg.EnableOverhangs = false
	}
	if f.noBridges {
		cfg.EnableBridges = false
	}
	if f.noCollisions {
		cfg.CheckCollisions = false
	}
	if f.tiered {
		cfg.AdaptiveTiers = true
	}
	if f.fixedSpacing {
		cfg.AdaptiveSpacing = false
	}
	if fl.Changed("layer-height") {
		cfg.LayerHeight = f.layerHeight
	}
	if fl.Changed("spacing") {
		cfg.SupportSpacing = f.spacing
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	return cfg
}

// job is everything a command needs to run the pipeline on one mesh.
type job struct {
	settings settings
	config   model.Config
	meshPath string
	mesh     importer.MeshResult
	anchors  []model.SupportAnchor
}

// prepare loads settings, the mesh and any manual anchors.
func (f *runFlags) prepare(cmd *cobra.Command, meshPath string) (job, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return job{}, err
	}
	cfg := f.apply(cmd, s.Config())
	if err := cfg.Validate(); err != nil {
		return job{}, err
	}

	mesh, err := importer.ImportSTL(meshPath)
	if err != nil {
		return job{}, err
	}
	for _, w := range mesh.Warnings {
		logger.Warn(w, zap.String("mesh", meshPath))
	}
	logger.Info("mesh loaded",
		zap.String("path", meshPath),
		zap.Int("triangles", mesh.Triangles),
		zap.Int("vertices", len(mesh.Mesh.Vertices)),
		zap.Int("skipped", mesh.Skipped),
	)

	j := job{settings: s, config: cfg, meshPath: meshPath, mesh: mesh}
	if f.anchorsPath != "" {
		res := importer.ImportAnchors(f.anchorsPath)
		for _, w := range res.Warnings {
			logger.Warn(w, zap.String("anchors", f.anchorsPath))
		}
		if len(res.Errors) > 0 {
			return job{}, fmt.Errorf("reading anchors from %s: %s", f.anchorsPath, strings.Join(res.Errors, "; "))
		}
		j.anchors = res.Anchors
	}
	return j, nil
}

// run executes the pipeline, stopping early on Ctrl-C.
func (j job) run() (engine.Result, error) {
	ctx, cancel := signalContext()
	defer cancel()
	return engine.New(j.config).Run(ctx, j.mesh.Mesh, j.anchors...)
}

// meta describes the run for the PDF report.
func (j job) meta(res engine.Result) export.ReportMeta {
	return export.ReportMeta{
		MeshName: filepath.Base(j.meshPath),
		Profile:  j.settings.app.DefaultProfile,
		Tier:     j.settings.app.DefaultTier,
		Config:   j.config,
		Model:    res.Oriented,
	}
}

// reportOutputs are the optional side files written after a run.
type reportOutputs struct {
	reportPDF   string
	labelsPDF   string
	anchorsXLSX string
	layersDXF   string
	dxfEvery    int
}

func (o *reportOutputs) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&o.reportPDF, "report-pdf", "", "Write a PDF report")
	fl.StringVar(&o.labelsPDF, "labels-pdf", "", "Write printable pillar labels with QR codes")
	fl.StringVar(&o.anchorsXLSX, "anchors-xlsx", "", "Write anchors and pillars to an Excel workbook")
	fl.StringVar(&o.layersDXF, "layers-dxf", "", "Write sections, islands and pillars to a DXF drawing")
	fl.IntVar(&o.dxfEvery, "dxf-every", 20, "Draw every Nth layer section in the DXF, 0 for none")
}

func (o *reportOutputs) write(j job, res engine.Result) error {
	if o.reportPDF != "" {
		if err := export.ExportPDF(o.reportPDF, res.Report, res.Solids, j.meta(res)); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", o.reportPDF)
	}
	if o.labelsPDF != "" {
		if len(res.Solids) == 0 {
			logger.Warn("no pillars, skipping labels")
		} else if err := export.ExportLabels(o.labelsPDF, res.Solids); err != nil {
			return fmt.Errorf("writing labels: %w", err)
		} else {
			fmt.Printf("Labels written to %s\n", o.labelsPDF)
		}
	}
	if o.anchorsXLSX != "" {
		if err := export.ExportXLSX(o.anchorsXLSX, res.Report, res.Anchors, res.Solids); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		fmt.Printf("Workbook written to %s\n", o.anchorsXLSX)
	}
	if o.layersDXF != "" {
		opts := export.DXFOptions{SectionEvery: o.dxfEvery}
		if err := export.ExportDXF(o.layersDXF, res.Layers, res.Islands, res.Solids, opts); err != nil {
			return fmt.Errorf("writing drawing: %w", err)
		}
		fmt.Printf("Drawing written to %s\n", o.layersDXF)
	}
	return nil
}

var (
	genRun     runFlags
	genOutputs reportOutputs
	genOut     string
	genASCII   bool
	genNoSave  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <mesh.stl>",
	Short: "Add supports to a mesh and write the combined STL",
	Long: `Orient the mesh, detect islands, overhangs and bridges, build tapered
pillars under every anchor and write the model and pillars as one STL.

The output defaults to <name>_supported.stl next to the input, or in the
configured output directory. Nothing is written if any stage fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := genRun.prepare(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := j.run()
		if err != nil {
			return err
		}

		out := genOut
		if out == "" {
			out = defaultOutputPath(j.meshPath, j.settings.app.OutputDir)
		}
		if dir := filepath.Dir(out); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		name := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
		if err := export.ExportSTL(out, res.Mesh, name, genASCII); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		printReport(os.Stdout, filepath.Base(j.meshPath), res.Report)
		fmt.Printf("\nSupported mesh written to %s\n", out)

		if err := genOutputs.write(j, res); err != nil {
			return err
		}
		if !genNoSave {
			recordRun(j, out, res.Report)
		}
		return nil
	},
}

func init() {
	genRun.register(generateCmd)
	genOutputs.register(generateCmd)
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output STL path")
	generateCmd.Flags().BoolVar(&genASCII, "ascii", false, "Write ASCII STL instead of binary")
	generateCmd.Flags().BoolVar(&genNoSave, "no-history", false, "Do not record the run in the history")
	rootCmd.AddCommand(generateCmd)
}

// defaultOutputPath derives <name>_supported.stl for meshPath.
func defaultOutputPath(meshPath, outputDir string) string {
	base := filepath.Base(meshPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "_supported.stl"
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(filepath.Dir(meshPath), name)
}

// recordRun appends the run to the history and remembers the mesh as
// recently used. Both live under ~/.supportgen; the config file is never
// written. Failures are logged, not returned: the STL is already written.
func recordRun(j job, out string, report model.Report) {
	path := project.DefaultHistoryPath()
	history, err := project.LoadHistory(path)
	if err != nil {
		logger.Warn("could not load history", zap.Error(err))
		history = project.NewHistory(0)
	}
	rec := project.NewRunRecord(absPath(j.meshPath), absPath(out), j.config, report)
	rec.Profile = j.settings.app.DefaultProfile
	rec.Tier = j.settings.app.DefaultTier
	history.Add(rec)
	if err := project.SaveHistory(path, history); err != nil {
		logger.Warn("could not save history", zap.Error(err))
	} else {
		logger.Debug("run recorded", zap.String("id", rec.ID))
	}

	recent := project.DefaultRecentPath()
	if err := project.RememberMesh(recent, absPath(j.meshPath), j.settings.app.MaxRecent); err != nil {
		logger.Warn("could not save recent meshes", zap.String("path", recent), zap.Error(err))
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
