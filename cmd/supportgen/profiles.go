package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SupportGen/internal/model"
	"github.com/piwi3910/SupportGen/internal/project"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List and manage printer profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom printer profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Name\tBuild volume (mm)\tLayer (mm)\tDescription")
		for _, p := range model.AllProfiles() {
			name := p.Name
			if !p.IsBuiltIn {
				name += " *"
			}
			fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n", name, volumeString(p.BuildVolume), p.LayerHeight, p.Description)
		}
		return tw.Flush()
	},
}

func volumeString(bv model.BuildVolume) string {
	if bv.X == 0 && bv.Y == 0 && bv.Z == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%g x %g x %g", bv.X, bv.Y, bv.Z)
}

var (
	newProfileDesc  string
	newProfileX     float64
	newProfileY     float64
	newProfileZ     float64
	newProfileLayer float64
)

var profilesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or update a custom printer profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := model.NewCustomProfile(args[0])
		for _, existing := range model.CustomProfiles {
			if existing.Name == args[0] {
				p = existing
			}
		}
		fl := cmd.Flags()
		if fl.Changed("description") {
			p.Description = newProfileDesc
		}
		if fl.Changed("x") {
			p.BuildVolume.X = newProfileX
		}
		if fl.Changed("y") {
			p.BuildVolume.Y = newProfileY
		}
		if fl.Changed("z") {
			p.BuildVolume.Z = newProfileZ
		}
		if fl.Changed("layer-height") {
			p.LayerHeight = newProfileLayer
		}
		if err := model.AddCustomProfile(p); err != nil {
			return err
		}
		if err := saveProfiles(); err != nil {
			return err
		}
		fmt.Printf("Saved profile %q\n", p.Name)
		return nil
	},
}

var profilesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a custom printer profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := model.RemoveCustomProfile(args[0]); err != nil {
			return err
		}
		return saveProfiles()
	},
}

var profilesExportCmd = &cobra.Command{
	Use:   "export <name> <file.json>",
	Short: "Write one profile to a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range model.AllProfiles() {
			if p.Name == args[0] {
				return project.ExportProfile(args[1], p)
			}
		}
		return fmt.Errorf("profile %q not found", args[0])
	},
}

var profilesImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Add a profile from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.ImportProfile(args[0])
		if err != nil {
			return err
		}
		if err := model.AddCustomProfile(p); err != nil {
			return err
		}
		if err := saveProfiles(); err != nil {
			return err
		}
		fmt.Printf("Imported profile %q\n", p.Name)
		return nil
	},
}

func saveProfiles() error {
	return project.SaveCustomProfiles(project.DefaultProfilesPath(), model.CustomProfiles)
}

func init() {
	fl := profilesAddCmd.Flags()
	fl.StringVar(&newProfileDesc, "description", "", "Profile description")
	fl.Float64Var(&newProfileX, "x", 0, "Build volume X in mm, 0 for unlimited")
	fl.Float64Var(&newProfileY, "y", 0, "Build volume Y in mm, 0 for unlimited")
	fl.Float64Var(&newProfileZ, "z", 0, "Build volume Z in mm, 0 for unlimited")
	fl.Float64Var(&newProfileLayer, "layer-height", 0.05, "Native layer height in mm")

	profilesCmd.AddCommand(profilesListCmd, profilesAddCmd, profilesRemoveCmd, profilesExportCmd, profilesImportCmd)
	rootCmd.AddCommand(profilesCmd)
}
