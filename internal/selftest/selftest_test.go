package selftest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/gamerules"
	"github.com/ironcliff/hegemon/internal/script"
	"github.com/ironcliff/hegemon/internal/sim"
	"github.com/ironcliff/hegemon/lib/chrono"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	m := defs.NewManager()
	if _, err := m.Goods.Register(defs.GoodDefinition{
		ID: "grain", Category: "agricultural", BasePrice: decimal.NewFromInt(2), Tradeable: true,
	}); err != nil {
		t.Fatal(err)
	}
	grain, _ := m.Goods.Lookup("grain")
	if _, err := m.ProductionTypes.Register(defs.ProductionType{
		ID: "grain_farm", OutputGood: grain, BaseOutput: decimal.NewFromInt(10), BaseWorkforce: 1000,
	}); err != nil {
		t.Fatal(err)
	}
	grainFarm, _ := m.ProductionTypes.Lookup("grain_farm")
	if _, err := m.PopTypes.Register(defs.PopType{ID: "farmers", Strata: "poor"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Countries.Register(defs.CountryDefinition{ID: "ENG", Name: "England"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Provinces.Register(defs.ProvinceDefinition{ID: "london", RGOProductionType: grainFarm}); err != nil {
		t.Fatal(err)
	}
	start, err := chrono.ParseDate("1836.01.01")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Bookmarks.Register(defs.Bookmark{ID: "start", Name: "Start", Date: start}); err != nil {
		t.Fatal(err)
	}
	m.DefineValues = defs.Defines{
		GoldToWorkerPayRate:  decimal.NewFromFloat(0.5),
		GreatPowerRankCutoff: 1,
		StartDate:            start,
		EndDate:              start.AddDays(100 * 365),
	}
	m.AddProvinceHistory("london", defs.ProvinceHistoryEntry{
		Date: start, Owner: "ENG", Cores: []string{"ENG"},
		Pops: []defs.PopEntry{{Type: "farmers", Culture: "british", Size: 1000}},
	})
	m.AddCountryHistory("ENG", defs.CountryHistoryEntry{
		Date: start, Capital: "london", Prestige: decimal.NewFromInt(10), Civilised: true,
	})
	m.Lock()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	im := sim.NewInstanceManager(m, gamerules.New(false, gamerules.DemandNone), sim.Options{Log: log})
	if err := im.Setup(); err != nil {
		t.Fatal(err)
	}
	bookmark, _ := m.Bookmarks.Get(0)
	if err := im.LoadBookmark(bookmark); err != nil {
		t.Fatal(err)
	}
	if err := im.StartGameSession(); err != nil {
		t.Fatal(err)
	}
	im.UpdateGamestate()

	conditions, err := script.NewManager(m, log)
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(im, conditions, log)
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunDirPassingScript(t *testing.T) {
	runner := newTestRunner(t)
	dir := t.TempDir()
	writeScript(t, dir, "basic.js", `
check("session starts in 1836", game.year() === 1836);
check("ENG exists", game.countryExists("ENG"));
check("london belongs to ENG", game.provinceOwner("london") === "ENG");
check("london is populated", game.provincePopulation("london") === 1000);
check("grain opens at base price", game.price("grain") === 2);
check("condition engine agrees", game.evalCountry("ENG", "owns: london"));
check("province conditions work", game.evalProvince("london", "owned_by: ENG"));
`)

	results, ok := runner.RunDir(dir)
	if !ok {
		t.Fatalf("run should pass: %+v", results)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Passed != 7 || results[0].Failed != 0 {
		t.Fatalf("passed=%d failed=%d", results[0].Passed, results[0].Failed)
	}
}

func TestRunDirFailingCheck(t *testing.T) {
	runner := newTestRunner(t)
	dir := t.TempDir()
	writeScript(t, dir, "failing.js", `
check("this one holds", true);
check("this one does not", game.countryExists("ZZZ"));
`)

	results, ok := runner.RunDir(dir)
	if ok {
		t.Fatal("failing check must fail the run")
	}
	if results[0].Passed != 1 || results[0].Failed != 1 {
		t.Fatalf("passed=%d failed=%d", results[0].Passed, results[0].Failed)
	}
}

func TestRunDirBrokenScript(t *testing.T) {
	runner := newTestRunner(t)
	dir := t.TempDir()
	writeScript(t, dir, "broken.js", `this is not javascript`)

	results, ok := runner.RunDir(dir)
	if ok {
		t.Fatal("compile failure must fail the run")
	}
	if results[0].Err == nil {
		t.Fatal("compile failure should be reported on the result")
	}
}

func TestRunDirOrdersScriptsByName(t *testing.T) {
	runner := newTestRunner(t)
	dir := t.TempDir()
	writeScript(t, dir, "b_second.js", `check("second", true);`)
	writeScript(t, dir, "a_first.js", `check("first", true);`)

	results, ok := runner.RunDir(dir)
	if !ok {
		t.Fatal("run should pass")
	}
	if results[0].Script != "a_first.js" || results[1].Script != "b_second.js" {
		t.Fatalf("unexpected order: %s, %s", results[0].Script, results[1].Script)
	}
}
