package model

import (
	"errors"
	"math"
	"testing"
)

func TestAllProfilesIncludesBuiltInAndCustom(t *testing.T) {
	CustomProfiles = nil

	builtInCount := len(PrinterProfiles)
	all := AllProfiles()
	if len(all) != builtInCount {
		t.Errorf("expected %d profiles with no custom, got %d", builtInCount, len(all))
	}

	CustomProfiles = []PrinterProfile{
		{Name: "Custom1", Description: "Test custom"},
	}
	defer func() { CustomProfiles = nil }()

	all = AllProfiles()
	if len(all) != builtInCount+1 {
		t.Errorf("expected %d profiles with 1 custom, got %d", builtInCount+1, len(all))
	}
}

func TestGetProfileFindsCustom(t *testing.T) {
	CustomProfiles = []PrinterProfile{
		{Name: "MyPrinter", BuildVolume: BuildVolume{X: 100, Y: 60, Z: 120}},
	}
	defer func() { CustomProfiles = nil }()

	p := GetProfile("MyPrinter")
	if p.Name != "MyPrinter" {
		t.Errorf("expected MyPrinter, got %s", p.Name)
	}
	if p.BuildVolume.X != 100 {
		t.Errorf("expected build volume X=100, got %f", p.BuildVolume.X)
	}
}

func TestGetProfileFallsBackToGeneric(t *testing.T) {
	p := GetProfile("NonExistent")
	if p.Name != "Generic" {
		t.Errorf("expected Generic fallback, got %s", p.Name)
	}
	if p.BuildVolume != (BuildVolume{}) {
		t.Errorf("Generic should not limit the build volume, got %+v", p.BuildVolume)
	}
}

func TestGetProfileNamesIncludesCustom(t *testing.T) {
	CustomProfiles = []PrinterProfile{
		{Name: "CustomA"},
		{Name: "CustomB"},
	}
	defer func() { CustomProfiles = nil }()

	found := map[string]bool{}
	for _, n := range GetProfileNames() {
		found[n] = true
	}
	for _, want := range []string{"Elegoo Mars 4", "CustomA", "CustomB"} {
		if !found[want] {
			t.Errorf("missing profile %s", want)
		}
	}
}

func TestAddCustomProfile(t *testing.T) {
	CustomProfiles = nil
	defer func() { CustomProfiles = nil }()

	p := PrinterProfile{Name: "NewPrinter", IsBuiltIn: true}
	if err := AddCustomProfile(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(CustomProfiles) != 1 {
		t.Fatalf("expected 1 custom profile, got %d", len(CustomProfiles))
	}
	if CustomProfiles[0].IsBuiltIn {
		t.Error("custom profile must not be marked built-in")
	}

	p.Description = "updated"
	if err := AddCustomProfile(p); err != nil {
		t.Fatalf("unexpected error on replace: %v", err)
	}
	if len(CustomProfiles) != 1 || CustomProfiles[0].Description != "updated" {
		t.Errorf("expected the profile to be replaced, got %+v", CustomProfiles)
	}
}

func TestAddCustomProfileRejectsBuiltInAndEmpty(t *testing.T) {
	CustomProfiles = nil
	defer func() { CustomProfiles = nil }()

	if err := AddCustomProfile(PrinterProfile{Name: "Generic"}); err == nil {
		t.Error("expected error when overriding a built-in profile")
	}
	if err := AddCustomProfile(PrinterProfile{Name: "  "}); err == nil {
		t.Error("expected error for an empty name")
	}
}

func TestAddCustomProfileRejectsBadEnvelope(t *testing.T) {
	CustomProfiles = nil
	defer func() { CustomProfiles = nil }()

	tests := []struct {
		name   string
		mutate func(p *PrinterProfile)
		option string
	}{
		{"negative width", func(p *PrinterProfile) { p.BuildVolume.X = -10 }, "build_volume"},
		{"infinite height", func(p *PrinterProfile) { p.BuildVolume.Z = math.Inf(1) }, "build_volume"},
		{"NaN depth", func(p *PrinterProfile) { p.BuildVolume.Y = math.NaN() }, "build_volume"},
		{"negative layer", func(p *PrinterProfile) { p.LayerHeight = -0.05 }, "layer_height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCustomProfile("Broken")
			tt.mutate(&p)
			err := AddCustomProfile(p)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected a ConfigurationError, got %v", err)
			}
			if ce.Option != tt.option {
				t.Errorf("expected option %s, got %s", tt.option, ce.Option)
			}
		})
	}
	if len(CustomProfiles) != 0 {
		t.Errorf("rejected profiles must not be registered, got %d", len(CustomProfiles))
	}

	unlimited := NewCustomProfile("Open Frame")
	unlimited.BuildVolume = BuildVolume{}
	unlimited.LayerHeight = 0
	if err := AddCustomProfile(unlimited); err != nil {
		t.Errorf("zero dimensions and layer height are allowed: %v", err)
	}
}

func TestRemoveCustomProfile(t *testing.T) {
	CustomProfiles = []PrinterProfile{{Name: "Gone"}, {Name: "Stays"}}
	defer func() { CustomProfiles = nil }()

	if err := RemoveCustomProfile("Gone"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(CustomProfiles) != 1 || CustomProfiles[0].Name != "Stays" {
		t.Errorf("unexpected profiles after remove: %+v", CustomProfiles)
	}
	if err := RemoveCustomProfile("Gone"); err == nil {
		t.Error("expected error removing a missing profile")
	}
	if err := RemoveCustomProfile("Elegoo Saturn 3"); err == nil {
		t.Error("expected error removing a built-in profile")
	}
}

func TestApplyToConfig(t *testing.T) {
	cfg := DefaultConfig()
	p := GetProfile("Elegoo Saturn 3")
	got := p.ApplyToConfig(cfg)
	if got.BuildVolume != p.BuildVolume {
		t.Errorf("expected build volume %+v, got %+v", p.BuildVolume, got.BuildVolume)
	}

	p.LayerHeight = 0
	if got := p.ApplyToConfig(cfg); got.LayerHeight != cfg.LayerHeight {
		t.Errorf("zero layer height should keep %f, got %f", cfg.LayerHeight, got.LayerHeight)
	}
}

func TestNewCustomProfile(t *testing.T) {
	p := NewCustomProfile("Bench")
	if p.Name != "Bench" || p.IsBuiltIn {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestGetTier(t *testing.T) {
	tier, ok := GetTier("HEAVY")
	if !ok {
		t.Fatal("expected heavy tier")
	}
	if tier.TipDiameter != 0.4 || tier.BaseDiameter != 1.0 {
		t.Errorf("unexpected heavy tier: %+v", tier)
	}
	if _, ok := GetTier("extreme"); ok {
		t.Error("unknown tier should not be found")
	}
	for _, tr := range SupportTiers {
		if tr.BaseDiameter < tr.TipDiameter {
			t.Errorf("tier %s has a base thinner than its tip", tr.Name)
		}
	}
}
