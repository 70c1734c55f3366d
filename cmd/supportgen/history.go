package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SupportGen/internal/model"
	"github.com/piwi3910/SupportGen/internal/project"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past generate runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := project.LoadHistory(project.DefaultHistoryPath())
		if err != nil {
			return err
		}
		printHistory(os.Stdout, h)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one run, including its full settings, as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := project.LoadHistory(project.DefaultHistoryPath())
		if err != nil {
			return err
		}
		rec, err := h.Find(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recorded runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return project.SaveHistory(project.DefaultHistoryPath(), project.NewHistory(0))
	},
}

func printHistory(w io.Writer, h *project.History) {
	if h.Len() == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWhen\tMesh\tProfile\tTier\tPillars\tResin (ml)")
	for _, r := range h.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\n",
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			filepath.Base(r.MeshPath),
			r.Profile,
			r.Tier,
			r.Summary.SolidCount,
			r.Summary.SupportVolume/1000,
		)
	}
	tw.Flush()
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore settings, profiles and history",
}

var backupExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Write settings, custom profiles and history to one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		h, err := project.LoadHistory(project.DefaultHistoryPath())
		if err != nil {
			return err
		}
		if err := project.ExportAllData(args[0], s.file, model.CustomProfiles, h); err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", args[0])
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Restore a backup, replacing the current settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := project.ImportAllData(args[0])
		if err != nil {
			return err
		}
		if err := data.Config.Support.Validate(); err != nil {
			return fmt.Errorf("backup holds invalid settings: %w", err)
		}

		if err := project.SaveAppConfig(project.DefaultConfigPath(), data.Config); err != nil {
			return err
		}
		if err := project.SaveCustomProfiles(project.DefaultProfilesPath(), data.Profiles); err != nil {
			return err
		}
		h := project.NewHistory(0)
		for i := len(data.History) - 1; i >= 0; i-- {
			h.Add(data.History[i])
		}
		if err := project.SaveHistory(project.DefaultHistoryPath(), h); err != nil {
			return err
		}
		fmt.Printf("Restored %d profiles and %d runs from %s\n", len(data.Profiles), h.Len(), args[0])
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd, historyClearCmd)
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(historyCmd, backupCmd)
}
