package model

import (
	"runtime"
)

// BuildVolume is the printable envelope of a printer in mm. A zero
// dimension means unlimited.
type BuildVolume struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Config holds every support generation option. It is passed by value into
// each stage and never modified by them.
type Config struct {
	// Core options
	LayerHeight            float64 `json:"layer_height" yaml:"layer_height"`                         // mm
	SupportTipDiameter     float64 `json:"support_tip_diameter" yaml:"support_tip_diameter"`         // mm
	SupportBaseDiameter    float64 `json:"support_base_diameter" yaml:"support_base_diameter"`       // mm
	TaperAngle             float64 `json:"taper_angle" yaml:"taper_angle"`                           // degrees from vertical
	MaxBridgeLength        float64 `json:"max_bridge_length" yaml:"max_bridge_length"`               // mm
	MinIslandArea          float64 `json:"min_island_area" yaml:"min_island_area"`                   // mm²
	OverhangAngleThreshold float64 `json:"overhang_angle_threshold" yaml:"overhang_angle_threshold"` // degrees from +Z
	OrientationSampleCount int     `json:"orientation_sample_count" yaml:"orientation_sample_count"`
	AutoOrient             bool    `json:"auto_orient" yaml:"auto_orient"`
	EnableIslands          bool    `json:"enable_islands" yaml:"enable_islands"`
	EnableOverhangs        bool    `json:"enable_overhangs" yaml:"enable_overhangs"`
	EnableBridges          bool    `json:"enable_bridges" yaml:"enable_bridges"`

	// Anchor placement
	SupportSpacing         float64 `json:"support_spacing" yaml:"support_spacing"`                   // grid pitch for region anchors, mm
	DedupRadius            float64 `json:"dedup_radius" yaml:"dedup_radius"`                         // mm
	PlateTolerance         float64 `json:"plate_tolerance" yaml:"plate_tolerance"`                   // faces below this height rest on the plate
	BridgeAngleTolerance   float64 `json:"bridge_angle_tolerance" yaml:"bridge_angle_tolerance"`     // degrees from horizontal
	BridgeSupportGap       float64 `json:"bridge_support_gap" yaml:"bridge_support_gap"`             // geometry this close below a span supports it
	IslandOverlapTolerance float64 `json:"island_overlap_tolerance" yaml:"island_overlap_tolerance"` // mm² of overlap still counted as unsupported
	AdaptiveSpacing        bool    `json:"adaptive_spacing" yaml:"adaptive_spacing"`                 // scale the overhang grid by surface tilt and region area
	AdaptiveTiers          bool    `json:"adaptive_tiers" yaml:"adaptive_tiers"`                     // pick a tip tier per anchor
	ThinFeatureThreshold   float64 `json:"thin_feature_threshold" yaml:"thin_feature_threshold"`     // model thinner than this above an anchor gets light tips, mm

	// Pillar shape
	MinSupportHeight float64 `json:"min_support_height" yaml:"min_support_height"` // anchors lower than this get no pillar
	TipLength        float64 `json:"tip_length" yaml:"tip_length"`                 // mm
	PillarSegments   int     `json:"pillar_segments" yaml:"pillar_segments"`       // sides of the pillar cross-section
	ClusterFactor    float64 `json:"cluster_factor" yaml:"cluster_factor"`         // cluster radius = factor x tip diameter

	// Orientation and pipeline
	CenterOnPlate                bool        `json:"center_on_plate" yaml:"center_on_plate"`
	CheckCollisions              bool        `json:"check_collisions" yaml:"check_collisions"`
	OrientationRefineGenerations int         `json:"orientation_refine_generations" yaml:"orientation_refine_generations"`
	Workers                      int         `json:"workers" yaml:"workers"` // 0 = one per CPU
	BuildVolume                  BuildVolume `json:"build_volume" yaml:"build_volume"`
}

// DefaultConfig returns the defaults for a 0.05mm layer resin printer with
// medium supports.
func DefaultConfig() Config {
	return Config{
		LayerHeight:            0.05,
		SupportTipDiameter:     0.3,
		SupportBaseDiameter:    1.0,
		TaperAngle:             7.0,
		MaxBridgeLength:        5.0,
		MinIslandArea:          0.5,
		OverhangAngleThreshold: 45.0,
		OrientationSampleCount: 24,
		AutoOrient:             true,
		EnableIslands:          true,
		EnableOverhangs:        true,
		EnableBridges:          true,

		SupportSpacing:         3.0,
		DedupRadius:            1.0,
		PlateTolerance:         0.05,
		BridgeAngleTolerance:   10.0,
		BridgeSupportGap:       0.5,
		IslandOverlapTolerance: 0.01,
		AdaptiveSpacing:        true,
		AdaptiveTiers:          false,
		ThinFeatureThreshold:   2.0,

		MinSupportHeight: 0.5,
		TipLength:        0.5,
		PillarSegments:   16,
		ClusterFactor:    5.0,

		CenterOnPlate:                true,
		CheckCollisions:              true,
		OrientationRefineGenerations: 0,
		Workers:                      0,
		BuildVolume:                  BuildVolume{X: 153.4, Y: 87, Z: 165},
	}
}

// Validate rejects out-of-range options. The first offending option is
// reported as a *ConfigurationError.
func (c Config) Validate() error {
	checks := []struct {
		ok     bool
		option string
		value  interface{}
		reason string
	}{
		{c.LayerHeight > 0, "layer_height", c.LayerHeight, "must be > 0"},
		{c.SupportTipDiameter > 0, "support_tip_diameter", c.SupportTipDiameter, "must be > 0"},
		{c.SupportBaseDiameter >= c.SupportTipDiameter, "support_base_diameter", c.SupportBaseDiameter, "must be >= support_tip_diameter"},
		{c.TaperAngle >= 0 && c.TaperAngle < 90, "taper_angle", c.TaperAngle, "must be in [0, 90)"},
		{c.MaxBridgeLength > 0, "max_bridge_length", c.MaxBridgeLength, "must be > 0"},
		{c.MinIslandArea >= 0, "min_island_area", c.MinIslandArea, "must be >= 0"},
		{c.OverhangAngleThreshold >= 0 && c.OverhangAngleThreshold <= 90, "overhang_angle_threshold", c.OverhangAngleThreshold, "must be in [0, 90]"},
		{c.OrientationSampleCount >= 1, "orientation_sample_count", c.OrientationSampleCount, "must be >= 1"},
		{c.SupportSpacing > 0, "support_spacing", c.SupportSpacing, "must be > 0"},
		{c.DedupRadius >= 0, "dedup_radius", c.DedupRadius, "must be >= 0"},
		{c.PlateTolerance >= 0, "plate_tolerance", c.PlateTolerance, "must be >= 0"},
		{c.BridgeAngleTolerance >= 0 && c.BridgeAngleTolerance < 90, "bridge_angle_tolerance", c.BridgeAngleTolerance, "must be in [0, 90)"},
		{c.BridgeSupportGap >= 0, "bridge_support_gap", c.BridgeSupportGap, "must be >= 0"},
		{c.IslandOverlapTolerance >= 0, "island_overlap_tolerance", c.IslandOverlapTolerance, "must be >= 0"},
		{c.ThinFeatureThreshold >= 0, "thin_feature_threshold", c.ThinFeatureThreshold, "must be >= 0"},
		{c.MinSupportHeight >= 0, "min_support_height", c.MinSupportHeight, "must be >= 0"},
		{c.TipLength >= 0, "tip_length", c.TipLength, "must be >= 0"},
		{c.PillarSegments >= 3, "pillar_segments", c.PillarSegments, "must be >= 3"},
		{c.ClusterFactor >= 0, "cluster_factor", c.ClusterFactor, "must be >= 0"},
		{c.OrientationRefineGenerations >= 0, "orientation_refine_generations", c.OrientationRefineGenerations, "must be >= 0"},
		{c.Workers >= 0, "workers", c.Workers, "must be >= 0"},
		{c.BuildVolume.X >= 0 && c.BuildVolume.Y >= 0 && c.BuildVolume.Z >= 0, "build_volume", c.BuildVolume, "dimensions must be >= 0"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return &ConfigurationError{Option: chk.option, Value: chk.value, Reason: chk.reason}
		}
	}
	return nil
}

// WorkerCount returns the effective parallelism.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// ClusterRadius is the distance below which anchors share a pillar.
func (c Config) ClusterRadius() float64 {
	return c.ClusterFactor * c.SupportTipDiameter
}

// WithTier returns a copy using the tip and base diameters of the tier.
func (c Config) WithTier(t SupportTier) Config {
	c.SupportTipDiameter = t.TipDiameter
	c.SupportBaseDiameter = t.BaseDiameter
	return c
}
