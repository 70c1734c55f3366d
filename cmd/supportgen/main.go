// SupportGen - Resin Print Support Generator
//
// A command line tool that orients a mesh for resin printing, finds the
// islands, overhangs and bridges that need support, and writes the model
// combined with tapered support pillars.
//
// Build:
//   go build -o supportgen ./cmd/supportgen
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o supportgen.exe ./cmd/supportgen
//   GOOS=darwin  GOARCH=arm64 go build -o supportgen-darwin ./cmd/supportgen

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/SupportGen/internal/logger"
	"github.com/piwi3910/SupportGen/internal/model"
	"github.com/piwi3910/SupportGen/internal/project"
)

var (
	configPath string
	logLevel   string
	logFile    string
	profile    string
	tier       string
)

var rootCmd = &cobra.Command{
	Use:           "supportgen",
	Short:         "Generate support structures for resin printing",
	Long:          "SupportGen orients a triangle mesh for resin printing, detects islands, overhangs and bridges, and adds tapered support pillars.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := logger.Init(s.app.LogLevel, s.app.LogFile); err != nil {
			return fmt.Errorf("failed to initialise logging: %w", err)
		}
		if err := project.LoadCustomProfilesIntoModel(project.DefaultProfilesPath()); err != nil {
			logger.Warn("could not load custom profiles", zap.Error(err))
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (YAML or JSON). Searches ./supportgen.yaml and ~/.supportgen/config.yaml by default.")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotating file")
	pf.StringVarP(&profile, "profile", "p", "", "Printer profile name")
	pf.StringVarP(&tier, "tier", "t", "", "Support tier: light, medium or heavy")
}

// settings is the configuration a command runs with.
type settings struct {
	path string          // File the config was read from, "" for none
	file model.AppConfig // As stored in the file
	app  model.AppConfig // With command line overrides applied
}

// Config returns the support options after applying profile and tier.
func (s settings) Config() model.Config {
	return s.app.ResolveConfig()
}

// loadSettings reads the config file and applies the persistent flags that
// were set on the command line.
func loadSettings(cmd *cobra.Command) (settings, error) {
	path := configPath
	if path == "" {
		path = project.FindConfigFile()
	}

	file := model.DefaultAppConfig()
	if path != "" {
		var err error
		file, err = project.LoadAppConfig(path)
		if err != nil {
			return settings{}, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	flags := cmd.Flags()
	app, err := project.Load(path, func(c *model.AppConfig) {
		if flags.Changed("log-level") {
			c.LogLevel = logLevel
		}
		if flags.Changed("log-file") {
			c.LogFile = logFile
		}
		if flags.Changed("profile") {
			c.DefaultProfile = profile
		}
		if flags.Changed("tier") {
			c.DefaultTier = tier
		}
	})
	if err != nil {
		return settings{}, err
	}
	if _, ok := model.GetTier(app.DefaultTier); app.DefaultTier != "" && !ok {
		return settings{}, &model.ConfigurationError{Option: "tier", Value: app.DefaultTier, Reason: "must be light, medium or heavy"}
	}
	return settings{path: path, file: file, app: app}, nil
}

// signalContext is cancelled on Ctrl-C so a long run stops between stages.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
