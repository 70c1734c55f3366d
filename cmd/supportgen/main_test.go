package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SupportGen/internal/engine"
	"github.com/piwi3910/SupportGen/internal/model"
	"github.com/piwi3910/SupportGen/internal/project"
)

func TestDefaultOutputPath(t *testing.T) {
	got := defaultOutputPath(filepath.Join("parts", "bracket.stl"), "")
	assert.Equal(t, filepath.Join("parts", "bracket_supported.stl"), got)

	got = defaultOutputPath(filepath.Join("parts", "bracket.STL"), "out")
	assert.Equal(t, filepath.Join("out", "bracket_supported.stl"), got)
}

func TestRunFlagsApply(t *testing.T) {
	var f runFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	err := cmd.Flags().Parse([]string{"--no-bridges", "--no-orient", "--spacing", "1.5", "--workers", "2", "--tiered", "--fixed-spacing"})
	assert.NoError(t, err)

	cfg := f.apply(cmd, model.DefaultConfig())
	assert.False(t, cfg.EnableBridges)
	assert.False(t, cfg.AutoOrient)
	assert.True(t, cfg.EnableIslands)
	assert.True(t, cfg.EnableOverhangs)
	assert.Equal(t, 1.5, cfg.SupportSpacing)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.AdaptiveTiers)
	assert.False(t, cfg.AdaptiveSpacing)
	assert.Equal(t, model.DefaultConfig().LayerHeight, cfg.LayerHeight, "unset flags keep the config value")
}

func TestPrintReport(t *testing.T) {
	r := model.NewReport()
	r.LayerCount = 100
	r.AnchorCounts[model.AnchorOverhang] = 4
	r.TotalAnchors = 4
	r.TierCounts = map[string]int{"light": 3, "heavy": 1}
	r.SolidCount = 3
	r.SupportVolume = 2500
	r.Collisions = []model.Collision{{PillarIndex: 0, HitZ: 2}}

	var buf bytes.Buffer
	printReport(&buf, "part.stl", r)
	out := buf.String()

	assert.Contains(t, out, "part.stl")
	assert.Contains(t, out, "overhang anchors:")
	assert.NotContains(t, out, "bridge anchors:")
	assert.Contains(t, out, "light tips:")
	assert.NotContains(t, out, "medium tips:")
	assert.Contains(t, out, "2.50 ml")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "Pillar 1")
}

func TestPrintComparison(t *testing.T) {
	ok := model.NewReport()
	ok.TotalAnchors = 7
	ok.SupportVolume = 1000
	results := []engine.ComparisonResult{
		{Scenario: engine.ComparisonScenario{Name: "Current Settings"}, Report: ok},
		{Scenario: engine.ComparisonScenario{Name: "Heavy Supports"}, Err: errors.New("boom")},
	}

	var buf bytes.Buffer
	printComparison(&buf, results)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "1.00")
	assert.Contains(t, lines[2], "failed: boom")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, project.NewHistory(0))
	assert.Equal(t, "No runs recorded.\n", buf.String())

	h := project.NewHistory(0)
	h.Add(project.RunRecord{ID: "abcd1234", MeshPath: "/tmp/part.stl", Profile: "Generic", Tier: "light"})
	buf.Reset()
	printHistory(&buf, h)
	assert.Contains(t, buf.String(), "abcd1234")
	assert.Contains(t, buf.String(), "part.stl")
}

func TestVolumeString(t *testing.T) {
	assert.Equal(t, "unlimited", volumeString(model.BuildVolume{}))
	assert.Equal(t, "153.4 x 87 x 165", volumeString(model.BuildVolume{X: 153.4, Y: 87, Z: 165}))
}

func TestRecordRunLeavesConfigFileAlone(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfgPath := filepath.Join(t.TempDir(), "supportgen.yaml")
	written := []byte("# tuned for the shop printer\ndefault_tier: heavy\n")
	require.NoError(t, os.WriteFile(cfgPath, written, 0644))

	app := model.DefaultAppConfig()
	app.DefaultTier = "heavy"
	j := job{
		settings: settings{path: cfgPath, file: app, app: app},
		config:   app.ResolveConfig(),
		meshPath: "bracket.stl",
	}
	recordRun(j, "bracket_supported.stl", model.NewReport())

	got, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, string(written), string(got), "config file must not be rewritten")

	recent, err := project.LoadRecentMeshes(filepath.Join(home, ".supportgen", "recent.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{absPath("bracket.stl")}, recent)

	h, err := project.LoadHistory(filepath.Join(home, ".supportgen", "history.json"))
	require.NoError(t, err)
	assert.Len(t, h.Runs, 1)
}
