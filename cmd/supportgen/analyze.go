package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SupportGen/internal/model"
)

var (
	anaRun     runFlags
	anaOutputs reportOutputs
	anaJSON    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <mesh.stl>",
	Short: "Report what supports a mesh needs without writing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := anaRun.prepare(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := j.run()
		if err != nil {
			return err
		}

		if anaJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Report); err != nil {
				return err
			}
		} else {
			printReport(os.Stdout, filepath.Base(j.meshPath), res.Report)
		}
		return anaOutputs.write(j, res)
	},
}

func init() {
	anaRun.register(analyzeCmd)
	anaOutputs.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

// printReport writes a human readable run summary.
func printReport(w io.Writer, name string, r model.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mesh:\t%s\n", name)
	fmt.Fprintf(tw, "Orientation score:\t%.2f\n", r.OrientationScore)
	fmt.Fprintf(tw, "Layers:\t%d (%d degenerate)\n", r.LayerCount, r.DegenerateLayers)
	fmt.Fprintf(tw, "Islands:\t%d\n", r.IslandCount)
	for _, k := range model.AnchorKinds {
		if n := r.AnchorCount(k); n > 0 {
			fmt.Fprintf(tw, "  %s anchors:\t%d\n", k, n)
		}
	}
	fmt.Fprintf(tw, "Anchors:\t%d (%d merged)\n", r.TotalAnchors, r.DroppedAnchors)
	for _, tier := range model.SupportTiers {
		if n := r.TierCounts[tier.Name]; n > 0 {
			fmt.Fprintf(tw, "  %s tips:\t%d\n", tier.Name, n)
		}
	}
	fmt.Fprintf(tw, "Pillars:\t%d\n", r.SolidCount)
	fmt.Fprintf(tw, "Support resin:\t%.2f ml\n", r.ResinML())
	fmt.Fprintf(tw, "Contact area:\t%.2f mm²\n", r.ContactArea)
	fmt.Fprintf(tw, "Faces:\t%d -> %d\n", r.FacesBefore, r.FacesAfter)

	var total time.Duration
	for _, t := range r.Timings {
		total += t.Duration
	}
	fmt.Fprintf(tw, "Time:\t%s\n", total.Round(time.Millisecond))
	tw.Flush()

	if warnings := r.CollisionWarnings(); len(warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		sort.Strings(warnings)
		for _, msg := range warnings {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
}
