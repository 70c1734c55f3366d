package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to every run unless overridden
	DefaultProfile string `json:"default_profile" yaml:"default_profile"`
	DefaultTier    string `json:"default_tier" yaml:"default_tier"`
	OutputDir      string `json:"output_dir" yaml:"output_dir"` // empty = next to the input mesh

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"` // debug, info, warn, error
	LogFile  string `json:"log_file" yaml:"log_file"`   // empty = console only

	// Length of the recent mesh list kept under ~/.supportgen
	MaxRecent int `json:"max_recent" yaml:"max_recent"`

	// Support generation options
	Support Config `json:"support" yaml:"support"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultConfig().
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultProfile: PrinterProfiles[0].Name,
		DefaultTier:    "medium",
		LogLevel:       "info",
		MaxRecent:      10,
		Support:        DefaultConfig(),
	}
}

// ResolveConfig applies the default printer profile and support tier to the
// stored support options.
func (c AppConfig) ResolveConfig() Config {
	cfg := c.Support
	if c.DefaultProfile != "" {
		cfg = GetProfile(c.DefaultProfile).ApplyToConfig(cfg)
	}
	if tier, ok := GetTier(c.DefaultTier); ok {
		cfg = cfg.WithTier(tier)
	}
	return cfg
}
