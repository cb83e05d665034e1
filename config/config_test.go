package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironcliff/hegemon/internal/gamerules"
)

func TestDefaultSettings(t *testing.T) {
	cfg := Default()
	if cfg.Rules.ExponentialPriceChanges {
		t.Fatal("linear prices should be the default")
	}
	if cfg.GameRules().ArtisanalInputDemandCategory() != gamerules.DemandNone {
		t.Fatal("artisanal demand should default to none")
	}
	if cfg.ClockIntervals() != nil {
		t.Fatal("default clock table should defer to the built-in intervals")
	}
	if cfg.Snapshot.Path != "" {
		t.Fatal("persistence should be disabled by default")
	}
}

func TestFromFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hegemon.yaml")
	content := `
rules:
  exponential_price_changes: true
  artisanal_demand: pop_needs
clock:
  intervals_ms: [1000, 100, 1]
snapshot:
  path: run.db
telemetry:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rules := cfg.GameRules()
	if !rules.UseExponentialPriceChanges() {
		t.Fatal("exponential prices not applied")
	}
	if rules.ArtisanalInputDemandCategory() != gamerules.DemandPopNeeds {
		t.Fatal("artisanal demand not applied")
	}
	intervals := cfg.ClockIntervals()
	if len(intervals) != 3 || intervals[0] != time.Second || intervals[2] != time.Millisecond {
		t.Fatalf("unexpected intervals %v", intervals)
	}
	if cfg.Snapshot.Path != "run.db" || !cfg.Telemetry.Enabled {
		t.Fatalf("overlay incomplete: %+v", cfg)
	}
}

func TestFromFileMissingKeepsDefaults(t *testing.T) {
	cfg, err := FromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rules.ExponentialPriceChanges || cfg.Snapshot.Path != "" || cfg.Telemetry.Enabled {
		t.Fatal("missing file must keep defaults")
	}
}

func TestFromFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("rules: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(path); err == nil {
		t.Fatal("broken yaml must error")
	}
}

func TestApplyOptions(t *testing.T) {
	base := Default()
	cfg := Apply(base,
		WithExponentialPriceChanges(true),
		WithSnapshotPath("save.db"),
		WithSequential(true),
		WithClockIntervals([]int64{500, 50}),
		nil,
	)
	if !cfg.Rules.ExponentialPriceChanges || cfg.Snapshot.Path != "save.db" || !cfg.Parallelism.Sequential {
		t.Fatalf("options not applied: %+v", cfg)
	}
	if len(cfg.ClockIntervals()) != 2 {
		t.Fatalf("clock override not applied: %v", cfg.ClockIntervals())
	}
	// The base stays untouched.
	if base.Rules.ExponentialPriceChanges || base.Snapshot.Path != "" || len(base.Clock.IntervalsMS) != 0 {
		t.Fatalf("base mutated: %+v", base)
	}
}
