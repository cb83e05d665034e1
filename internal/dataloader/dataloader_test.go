package dataloader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/lib/logging"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeBaseData(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "defines.yaml", `
gold_to_worker_pay_rate: "0.5"
great_power_rank_cutoff: 8
start_date: "1836.01.01"
end_date: "1936.01.01"
`)
	writeFile(t, dir, "goods.yaml", `
- id: grain
  category: agricultural
  base_price: "2.2"
  tradeable: true
- id: precious_metal
  category: raw
  base_price: "8"
  money: true
  tradeable: true
`)
	writeFile(t, dir, "production_types.yaml", `
- id: grain_farm
  output_good: grain
  base_output: "10"
  base_workforce: 1000
`)
	writeFile(t, dir, "buildings.yaml", `
- id: fort
  max_level: 6
  build_time_days: 1080
`)
	writeFile(t, dir, "continents.yaml", `
- id: europe
`)
	writeFile(t, dir, "ideologies.yaml", `
- id: conservative
`)
	writeFile(t, dir, "pop_types.yaml", `
- id: farmers
  strata: poor
`)
	writeFile(t, dir, "countries.yaml", `
- id: ENG
  name: England
  history:
    - date: "1836.01.01"
      capital: london
      ideology: conservative
      literacy: "0.6"
      prestige: "10"
      civilised: true
`)
	writeFile(t, dir, "provinces.yaml", `
- id: london
  continent: europe
  rgo: grain_farm
  history:
    - date: "1836.01.01"
      owner: ENG
      cores: [ENG]
      pops:
        - type: farmers
          culture: british
          size: 1000
          literacy: "0.5"
`)
	writeFile(t, dir, "bookmarks.yaml", `
- id: grand_campaign
  name: Grand Campaign
  date: "1836.01.01"
`)
}

func TestLoadBaseDirectory(t *testing.T) {
	dir := t.TempDir()
	writeBaseData(t, dir)

	manager := defs.NewManager()
	loader := New(manager, logging.New(io.Discard, slog.LevelInfo).Logger())
	if !loader.Load(dir) {
		t.Fatal("load should succeed")
	}

	if manager.Goods.Len() != 2 || manager.Provinces.Len() != 1 {
		t.Fatalf("got %d goods, %d provinces", manager.Goods.Len(), manager.Provinces.Len())
	}
	good, ok := manager.Goods.ByID("precious_metal")
	if !ok || !good.IsMoney {
		t.Fatal("precious_metal should load as a money good")
	}
	production, ok := manager.ProductionTypes.ByID("grain_farm")
	if !ok {
		t.Fatal("grain_farm missing")
	}
	if grain, _ := manager.Goods.Lookup("grain"); production.OutputGood != grain {
		t.Fatal("grain_farm output good not resolved")
	}
	province, ok := manager.Provinces.ByID("london")
	if !ok || !province.RGOProductionType.Valid() {
		t.Fatal("london RGO not resolved")
	}
	if d := manager.DefineValues; d.GreatPowerRankCutoff != 8 || d.StartDate.String() != "1836.01.01" {
		t.Fatalf("defines not loaded: %+v", d)
	}
	if len(manager.ProvinceHistory("london")) != 1 || len(manager.CountryHistory("ENG")) != 1 {
		t.Fatal("history entries missing")
	}
}

func TestModOverlayAddsAndOverrides(t *testing.T) {
	base := t.TempDir()
	writeBaseData(t, base)
	mod := t.TempDir()
	writeFile(t, mod, "goods.yaml", `
- id: iron
  category: raw
  base_price: "4"
  tradeable: true
`)
	writeFile(t, mod, "defines.yaml", `
great_power_rank_cutoff: 3
`)

	manager := defs.NewManager()
	loader := New(manager, logging.New(io.Discard, slog.LevelInfo).Logger())
	if !loader.Load(base, mod) {
		t.Fatal("load should succeed")
	}
	if manager.Goods.Len() != 3 {
		t.Fatalf("got %d goods, want 3", manager.Goods.Len())
	}
	if manager.DefineValues.GreatPowerRankCutoff != 3 {
		t.Fatalf("cutoff = %d, want mod override 3", manager.DefineValues.GreatPowerRankCutoff)
	}
	// Overridden defines must not clear fields the mod leaves out.
	if manager.DefineValues.StartDate.String() != "1836.01.01" {
		t.Fatal("mod overlay cleared the start date")
	}
}

func TestBadItemsAreSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeBaseData(t, dir)
	writeFile(t, dir, "goods.yaml", `
- id: grain
  category: agricultural
  base_price: "2.2"
  tradeable: true
- id: ""
  base_price: "1"
- id: broken
  base_price: not-a-number
`)

	manager := defs.NewManager()
	recorder := logging.New(io.Discard, slog.LevelInfo)
	loader := New(manager, recorder.Logger())
	if loader.Load(dir) {
		t.Fatal("load with bad items should report failure")
	}
	// The good item still registered and everything else loaded.
	if manager.Goods.Len() != 1 {
		t.Fatalf("got %d goods, want 1", manager.Goods.Len())
	}
	if manager.Provinces.Len() != 1 {
		t.Fatal("remaining files should still load")
	}
	if _, _, errCount := recorder.Counts(); errCount == 0 {
		t.Fatal("skipped items should be logged as errors")
	}
}

func TestLoadRejectsLockedManager(t *testing.T) {
	dir := t.TempDir()
	writeBaseData(t, dir)
	manager := defs.NewManager()
	manager.Lock()
	if New(manager, logging.New(io.Discard, slog.LevelInfo).Logger()).Load(dir) {
		t.Fatal("locked manager must refuse loading")
	}
}

func TestFindBaseDir(t *testing.T) {
	dir := t.TempDir()
	writeBaseData(t, dir)

	found, err := FindBaseDir(dir)
	if err != nil || found != dir {
		t.Fatalf("got %q, %v", found, err)
	}
	if _, err := FindBaseDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("unresolvable hint should error")
	}
}
