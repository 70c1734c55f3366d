package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// PrinterProfile describes a resin printer's build envelope and native layer height.
type PrinterProfile struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	BuildVolume BuildVolume `json:"build_volume" yaml:"build_volume"`
	LayerHeight float64     `json:"layer_height" yaml:"layer_height"` // mm
	IsBuiltIn   bool        `json:"is_built_in" yaml:"-"`
}

// ApplyToConfig copies the printer's envelope and layer height into c.
func (p PrinterProfile) ApplyToConfig(c Config) Config {
	c.BuildVolume = p.BuildVolume
	if p.LayerHeight > 0 {
		c.LayerHeight = p.LayerHeight
	}
	return c
}

// Validate rejects envelopes and layer heights no printer can have. A zero
// dimension means unlimited and a zero layer height keeps the configured
// one.
func (p PrinterProfile) Validate() error {
	v := p.BuildVolume
	for _, d := range []float64{v.X, v.Y, v.Z} {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return &ConfigurationError{Option: "build_volume", Value: v, Reason: "dimensions must be finite and >= 0"}
		}
	}
	if p.LayerHeight < 0 || math.IsNaN(p.LayerHeight) || math.IsInf(p.LayerHeight, 0) {
		return &ConfigurationError{Option: "layer_height", Value: p.LayerHeight, Reason: "must be finite and >= 0"}
	}
	return nil
}

// PrinterProfiles are the built-in printers. Generic must stay last: it is
// the fallback for unknown names.
var PrinterProfiles = []PrinterProfile{
	{
		Name:        "Anycubic Photon Mono 4",
		Description: "7\" 10K mono LCD",
		BuildVolume: BuildVolume{X: 153.4, Y: 87, Z: 165},
		LayerHeight: 0.05,
		IsBuiltIn:   true,
	},
	{
		Name:        "Elegoo Mars 4",
		Description: "7\" 9K mono LCD",
		BuildVolume: BuildVolume{X: 153.36, Y: 77.76, Z: 175},
		LayerHeight: 0.05,
		IsBuiltIn:   true,
	},
	{
		Name:        "Elegoo Saturn 3",
		Description: "10\" 12K mono LCD",
		BuildVolume: BuildVolume{X: 218.88, Y: 122.88, Z: 250},
		LayerHeight: 0.05,
		IsBuiltIn:   true,
	},
	{
		Name:        "Generic",
		Description: "No build volume limit",
		LayerHeight: 0.05,
		IsBuiltIn:   true,
	},
}

// CustomProfiles holds user-defined printers loaded at startup.
var CustomProfiles []PrinterProfile

// AllProfiles returns built-in profiles followed by custom ones.
func AllProfiles() []PrinterProfile {
	all := make([]PrinterProfile, 0, len(PrinterProfiles)+len(CustomProfiles))
	all = append(all, PrinterProfiles...)
	all = append(all, CustomProfiles...)
	return all
}

// GetProfile looks up a profile by name, falling back to Generic.
func GetProfile(name string) PrinterProfile {
	for _, p := range AllProfiles() {
		if p.Name == name {
			return p
		}
	}
	return PrinterProfiles[len(PrinterProfiles)-1]
}

// GetProfileNames returns a list of all available profile names.
func GetProfileNames() []string {
	var names []string
	for _, p := range AllProfiles() {
		names = append(names, p.Name)
	}
	return names
}

func isBuiltInName(name string) bool {
	for _, p := range PrinterProfiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// AddCustomProfile adds a custom profile or replaces the one with the same name.
func AddCustomProfile(p PrinterProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name must not be empty")
	}
	if isBuiltInName(p.Name) {
		return fmt.Errorf("cannot override built-in profile %q", p.Name)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	p.IsBuiltIn = false
	for i := range CustomProfiles {
		if CustomProfiles[i].Name == p.Name {
			CustomProfiles[i] = p
			return nil
		}
	}
	CustomProfiles = append(CustomProfiles, p)
	return nil
}

// RemoveCustomProfile deletes a custom profile by name.
func RemoveCustomProfile(name string) error {
	if isBuiltInName(name) {
		return fmt.Errorf("cannot remove built-in profile %q", name)
	}
	for i, p := range CustomProfiles {
		if p.Name == name {
			CustomProfiles = append(CustomProfiles[:i], CustomProfiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("profile %q not found", name)
}

// NewCustomProfile creates a profile pre-filled from Generic.
func NewCustomProfile(name string) PrinterProfile {
	p := PrinterProfiles[len(PrinterProfiles)-1]
	p.Name = name
	p.Description = ""
	p.IsBuiltIn = false
	return p
}

// SupportTier is a named tip/base diameter pair.
type SupportTier struct {
	Name         string  `json:"name"`
	TipDiameter  float64 `json:"tip_diameter"`  // mm
	BaseDiameter float64 `json:"base_diameter"` // mm
}

// SupportTiers are the light, medium and heavy presets.
var SupportTiers = []SupportTier{
	{Name: "light", TipDiameter: 0.2, BaseDiameter: 0.6},
	{Name: "medium", TipDiameter: 0.3, BaseDiameter: 0.8},
	{Name: "heavy", TipDiameter: 0.4, BaseDiameter: 1.0},
}

// GetTier looks up a tier by name (case-insensitive).
func GetTier(name string) (SupportTier, bool) {
	for _, t := range SupportTiers {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return SupportTier{}, false
}
