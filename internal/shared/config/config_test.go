package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPolicyEmptyPathUsesDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Governor.DefaultRegionCost != 3 {
		t.Errorf("default region cost = %d, want 3", p.Governor.DefaultRegionCost)
	}
	if p.Rotation.BaseRegion != "us" {
		t.Errorf("base region = %s, want us", p.Rotation.BaseRegion)
	}
	if p.Thresholds.NearArbPercent != 2.0 || p.Thresholds.ValuePercent != 5.0 {
		t.Errorf("thresholds = %+v", p.Thresholds)
	}
}

func TestLoadPolicyFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	data := []byte(`
rotation:
  base_region: uk
  rotation_order: [us, eu]
  base_only_cycles: 1
thresholds:
  near_arb_percent: 1.5
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Rotation.BaseRegion != "uk" || len(p.Rotation.RotationOrder) != 2 {
		t.Errorf("rotation = %+v", p.Rotation)
	}
	if p.Thresholds.NearArbPercent != 1.5 {
		t.Errorf("near arb percent = %v, want 1.5", p.Thresholds.NearArbPercent)
	}
	// campos omitidos no arquivo mantêm os defaults
	if p.Thresholds.ValuePercent != 5.0 {
		t.Errorf("value percent = %v, want default 5.0", p.Thresholds.ValuePercent)
	}
	if _, ok := p.Governor.Tiers["pro"]; !ok {
		t.Error("tier table should keep compiled defaults when file omits governor")
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy("/nonexistent/policy.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
