package sim

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/gamerules"
)

// stateFixture builds a world exercising every grouping rule: England
// holds two european provinces and one asian one, France holds one
// european province, plus a water province and an unowned province.
func stateFixture(t *testing.T) *defs.Manager {
	t.Helper()
	m := defs.NewManager()

	grain := mustRegister(t, m.Goods, defs.GoodDefinition{
		ID: "grain", Category: "agricultural", BasePrice: decimal.NewFromInt(2), Tradeable: true,
	})
	grainFarm := mustRegister(t, m.ProductionTypes, defs.ProductionType{
		ID: "grain_farm", OutputGood: grain, BaseOutput: decimal.NewFromInt(10), BaseWorkforce: 1000,
	})

	europe := mustRegister(t, m.Continents, defs.Continent{ID: "europe"})
	asia := mustRegister(t, m.Continents, defs.Continent{ID: "asia"})
	mustRegister(t, m.PopTypes, defs.PopType{ID: "farmers", Strata: "poor"})
	mustRegister(t, m.Countries, defs.CountryDefinition{ID: "ENG", Name: "England"})
	mustRegister(t, m.Countries, defs.CountryDefinition{ID: "FRA", Name: "France"})

	mustRegister(t, m.Provinces, defs.ProvinceDefinition{ID: "london", Continent: europe, RGOProductionType: grainFarm})
	mustRegister(t, m.Provinces, defs.ProvinceDefinition{ID: "york", Continent: europe, RGOProductionType: grainFarm})
	mustRegister(t, m.Provinces, defs.ProvinceDefinition{ID: "delhi", Continent: asia, RGOProductionType: grainFarm})
	mustRegister(t, m.Provinces, defs.ProvinceDefinition{ID: "paris", Continent: europe, RGOProductionType: grainFarm})
	mustRegister(t, m.Provinces, defs.ProvinceDefinition{ID: "channel", Water: true, Continent: europe, RGOProductionType: defs.InvalidHandle})
	mustRegister(t, m.Provinces, defs.ProvinceDefinition{ID: "zurich", Continent: europe, RGOProductionType: grainFarm})

	start := date(t, "1836.01.01")
	mustRegister(t, m.Bookmarks, defs.Bookmark{ID: "start", Name: "Start", Date: start})
	m.DefineValues = defs.Defines{
		GoldToWorkerPayRate:  decimal.NewFromFloat(0.5),
		GreatPowerRankCutoff: 1,
		StartDate:            start,
		EndDate:              date(t, "1936.01.01"),
	}

	pops := func(size int64) []defs.PopEntry {
		return []defs.PopEntry{{Type: "farmers", Culture: "british", Size: size}}
	}
	m.AddProvinceHistory("london", defs.ProvinceHistoryEntry{Date: start, Owner: "ENG", Pops: pops(1000)})
	m.AddProvinceHistory("york", defs.ProvinceHistoryEntry{Date: start, Owner: "ENG", Pops: pops(500)})
	m.AddProvinceHistory("delhi", defs.ProvinceHistoryEntry{Date: start, Owner: "ENG", Pops: pops(2000)})
	m.AddProvinceHistory("paris", defs.ProvinceHistoryEntry{Date: start, Owner: "FRA", Pops: pops(800)})
	m.AddCountryHistory("ENG", defs.CountryHistoryEntry{Date: start, Capital: "london", Prestige: decimal.NewFromInt(10)})
	m.AddCountryHistory("FRA", defs.CountryHistoryEntry{Date: start, Capital: "paris", Prestige: decimal.NewFromInt(5)})

	m.Lock()
	return m
}

func newStateInstance(t *testing.T) *InstanceManager {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	im := NewInstanceManager(stateFixture(t), gamerules.New(false, gamerules.DemandNone), Options{Log: log})
	if err := im.Setup(); err != nil {
		t.Fatal(err)
	}
	bookmark, _ := im.Definitions().Bookmarks.Get(0)
	if err := im.LoadBookmark(bookmark); err != nil {
		t.Fatal(err)
	}
	if err := im.StartGameSession(); err != nil {
		t.Fatal(err)
	}
	return im
}

func TestLoadBookmarkGeneratesStateGroupings(t *testing.T) {
	im := newStateInstance(t)
	mapInst := im.Map()

	// ENG europe, ENG asia, FRA europe.
	if got := mapInst.StateCount(); got != 3 {
		t.Fatalf("got %d states, want 3", got)
	}

	handleOf := func(id string) defs.Handle {
		t.Helper()
		p, err := mapInst.ProvinceByID(id)
		if err != nil {
			t.Fatal(err)
		}
		return p.Handle()
	}

	london := mapInst.StateOf(handleOf("london"))
	york := mapInst.StateOf(handleOf("york"))
	delhi := mapInst.StateOf(handleOf("delhi"))
	paris := mapInst.StateOf(handleOf("paris"))
	if london == nil || york == nil || delhi == nil || paris == nil {
		t.Fatal("owned land provinces must belong to a state")
	}

	if london.Handle() != york.Handle() {
		t.Fatal("same-owner provinces on one continent must share a state")
	}
	if london.Handle() == delhi.Handle() {
		t.Fatal("continents must split a country's states")
	}
	if london.Handle() == paris.Handle() {
		t.Fatal("owners must split a continent's states")
	}
	if len(london.Provinces()) != 2 {
		t.Fatalf("ENG europe state has %d provinces, want 2", len(london.Provinces()))
	}
	if london.Capital() != handleOf("london") {
		t.Fatal("state capital must be the first grouped province")
	}

	if mapInst.StateOf(handleOf("channel")) != nil {
		t.Fatal("water provinces belong to no state")
	}
	if mapInst.StateOf(handleOf("zurich")) != nil {
		t.Fatal("unowned provinces belong to no state")
	}
}

func TestStatePopulationAggregatesOnUpdate(t *testing.T) {
	im := newStateInstance(t)
	im.UpdateGamestate()

	london, err := im.Map().ProvinceByID("london")
	if err != nil {
		t.Fatal(err)
	}
	state := im.Map().StateOf(london.Handle())
	if state == nil {
		t.Fatal("london must belong to a state")
	}
	// london 1000 + york 500.
	if got := state.TotalPopulation(); got != 1500 {
		t.Fatalf("state population %d, want 1500", got)
	}
}
