// Package project persists application settings, custom printer profiles
// and the run history under the user's ~/.supportgen directory.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/SupportGen/internal/model"
)

// DefaultConfigDir returns the default directory for application data.
// On all platforms this is ~/.supportgen/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".supportgen")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// FindConfigFile looks for a config file in the working directory and then
// in the config directory. It returns "" when none exists.
func FindConfigFile() string {
	candidates := []string{
		"./supportgen.yaml",
		"./supportgen.yml",
		"./supportgen.json",
		DefaultConfigPath(),
		filepath.Join(DefaultConfigDir(), "config.json"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveAppConfig persists an AppConfig to the given path, as YAML for .yaml
// and .yml files and JSON otherwise. It creates any missing parent
// directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path. Values missing from
// the file keep their defaults. If the file does not exist, it returns
// DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return model.AppConfig{}, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return config, nil
}

// Override changes a loaded config, typically from command line flags.
type Override func(*model.AppConfig)

// Load builds the effective configuration with priority
// defaults < file < overrides. An empty path searches the standard
// locations; no file at all is not an error.
func Load(path string, overrides ...Override) (model.AppConfig, error) {
	if path == "" {
		path = FindConfigFile()
	}

	config := model.DefaultAppConfig()
	if path != "" {
		loaded, err := LoadAppConfig(path)
		if err != nil {
			return model.AppConfig{}, fmt.Errorf("loading config from %s: %w", path, err)
		}
		config = loaded
	}

	for _, o := range overrides {
		o(&config)
	}
	if err := config.Support.Validate(); err != nil {
		return model.AppConfig{}, err
	}
	return config, nil
}
