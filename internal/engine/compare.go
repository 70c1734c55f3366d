package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/piwi3910/SupportGen/internal/model"
)

// ComparisonScenario defines a named configuration to compare.
type ComparisonScenario struct {
	Name   string
	Config model.Config
}

// ComparisonResult holds the report of a single scenario, or the error that
// stopped it.
type ComparisonResult struct {
	Scenario ComparisonScenario
	Report   model.Report
	Err      error
}

// ResinML returns the support resin estimate, or 0 for failed scenarios.
func (r ComparisonResult) ResinML() float64 {
	if r.Err != nil {
		return 0
	}
	return r.Report.ResinML()
}

// CompareScenarios runs the pipeline for each scenario on the same mesh and
// returns the results in scenario order. A failing scenario does not stop
// the others; only cancellation of ctx does.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, mesh model.Mesh) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := New(scenario.Config).Run(ctx, mesh)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results = append(results, ComparisonResult{
			Scenario: scenario,
			Report:   res.Report,
			Err:      err,
		})
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current configuration, varying key parameters to show what-if
// alternatives: each support tier, denser and sparser spacing, and the
// opposite orientation mode.
func BuildDefaultScenarios(base model.Config) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:   "Current Settings",
			Config: base,
		},
	}

	for _, tier := range model.SupportTiers {
		if tier.TipDiameter == base.SupportTipDiameter && tier.BaseDiameter == base.SupportBaseDiameter {
			continue
		}
		scenarios = append(scenarios, ComparisonScenario{
			Name:   strings.ToUpper(tier.Name[:1]) + tier.Name[1:] + " Supports",
			Config: base.WithTier(tier),
		})
	}

	dense := base
	dense.SupportSpacing = base.SupportSpacing * 0.5
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("Spacing %.1fmm (half)", dense.SupportSpacing),
		Config: dense,
	})

	sparse := base
	sparse.SupportSpacing = base.SupportSpacing * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("Spacing %.1fmm (double)", sparse.SupportSpacing),
		Config: sparse,
	})

	flipped := base
	flipped.AutoOrient = !base.AutoOrient
	name := "Auto Orientation"
	if base.AutoOrient {
		name = "Keep Orientation"
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:   name,
		Config: flipped,
	})

	return scenarios
}
