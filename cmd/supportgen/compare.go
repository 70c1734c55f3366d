package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SupportGen/internal/engine"
)

var cmpRun runFlags

var compareCmd = &cobra.Command{
	Use:   "compare <mesh.stl>",
	Short: "Compare support tiers, spacing and orientation on one mesh",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := cmpRun.prepare(cmd, args[0])
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		results, err := engine.CompareScenarios(ctx, engine.BuildDefaultScenarios(j.config), j.mesh.Mesh)
		if err != nil {
			return err
		}
		printComparison(os.Stdout, results)
		return nil
	},
}

func init() {
	cmpRun.register(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Scenario\tAnchors\tPillars\tResin (ml)\tContact (mm²)\tCollisions")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\tfailed: %v\t\t\t\t\n", r.Scenario.Name, r.Err)
			continue
		}
		rep := r.Report
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\t%d\n",
			r.Scenario.Name, rep.TotalAnchors, rep.SolidCount, r.ResinML(), rep.ContactArea, len(rep.Collisions))
	}
	tw.Flush()
}
