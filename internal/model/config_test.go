package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		option string
		mutate func(c *Config)
	}{
		{"layer_height", func(c *Config) { c.LayerHeight = 0 }},
		{"support_tip_diameter", func(c *Config) { c.SupportTipDiameter = -1 }},
		{"support_base_diameter", func(c *Config) { c.SupportBaseDiameter = 0.1 }},
		{"taper_angle", func(c *Config) { c.TaperAngle = 90 }},
		{"max_bridge_length", func(c *Config) { c.MaxBridgeLength = 0 }},
		{"min_island_area", func(c *Config) { c.MinIslandArea = -0.1 }},
		{"overhang_angle_threshold", func(c *Config) { c.OverhangAngleThreshold = 91 }},
		{"orientation_sample_count", func(c *Config) { c.OrientationSampleCount = 0 }},
		{"pillar_segments", func(c *Config) { c.PillarSegments = 2 }},
		{"thin_feature_threshold", func(c *Config) { c.ThinFeatureThreshold = -1 }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"build_volume", func(c *Config) { c.BuildVolume.Z = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.option, ce.Option)
			assert.Contains(t, err.Error(), tt.option)
		})
	}
}

func TestValidateAcceptsBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SupportBaseDiameter = cfg.SupportTipDiameter
	cfg.TaperAngle = 0
	cfg.MinIslandArea = 0
	cfg.OverhangAngleThreshold = 90
	cfg.OrientationSampleCount = 1
	assert.NoError(t, cfg.Validate())
}

func TestWorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	assert.Equal(t, 3, cfg.WorkerCount())
	cfg.Workers = 0
	assert.GreaterOrEqual(t, cfg.WorkerCount(), 1)
}

func TestWithTierAndClusterRadius(t *testing.T) {
	tier, _ := GetTier("light")
	cfg := DefaultConfig().WithTier(tier)
	assert.Equal(t, 0.2, cfg.SupportTipDiameter)
	assert.Equal(t, 0.6, cfg.SupportBaseDiameter)
	assert.InDelta(t, 1.0, cfg.ClusterRadius(), 1e-12)
}
