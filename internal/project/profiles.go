package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/SupportGen/internal/model"
)

// DefaultProfilesPath returns the default file path for custom printer profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.json")
}

// SaveCustomProfiles saves custom profiles to a JSON file.
func SaveCustomProfiles(path string, profiles []model.PrinterProfile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCustomProfiles loads custom profiles from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]model.PrinterProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.PrinterProfile{}, nil
		}
		return nil, err
	}

	var profiles []model.PrinterProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}

	// Ensure loaded profiles are not marked as built-in
	for i := range profiles {
		profiles[i].IsBuiltIn = false
	}
	return profiles, nil
}

// LoadCustomProfilesIntoModel reads the profiles at path and registers them
// as model.CustomProfiles.
func LoadCustomProfilesIntoModel(path string) error {
	profiles, err := LoadCustomProfiles(path)
	if err != nil {
		return err
	}
	model.CustomProfiles = nil
	for _, p := range profiles {
		if err := model.AddCustomProfile(p); err != nil {
			return err
		}
	}
	return nil
}

// ExportProfile exports a single profile to a JSON file (for sharing).
func ExportProfile(path string, profile model.PrinterProfile) error {
	profile.IsBuiltIn = false
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ImportProfile imports a single profile from a JSON file. Profiles with a
// negative or non-finite build volume or layer height are rejected.
func ImportProfile(path string) (model.PrinterProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PrinterProfile{}, err
	}

	var profile model.PrinterProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return model.PrinterProfile{}, err
	}

	profile.IsBuiltIn = false
	if profile.Name == "" {
		return model.PrinterProfile{}, errors.New("imported profile has no name")
	}
	if err := profile.Validate(); err != nil {
		return model.PrinterProfile{}, fmt.Errorf("imported profile %q: %w", profile.Name, err)
	}
	return profile, nil
}
