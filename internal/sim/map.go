package sim

import (
	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/market"
	"github.com/ironcliff/hegemon/lib/chrono"
	"github.com/ironcliff/hegemon/lib/parallel"
)

// MapInstance owns the arena of province instances, one per province
// definition in registry order, addressed by handle. Province references
// never move after setup.
type MapInstance struct {
	manager   *defs.Manager
	market    *market.Market
	provinces []ProvinceInstance
	states    []StateInstance

	totalPopulation           int64
	highestProvincePopulation int64
}

// NewMapInstance builds and sets up one province instance per locked
// province definition.
func NewMapInstance(manager *defs.Manager, mkt *market.Market) (*MapInstance, error) {
	if !manager.Provinces.Locked() || !manager.BuildingTypes.Locked() {
		return nil, errs.Lifecycle("map", "cannot build province instances before definitions are locked")
	}
	definitions := manager.Provinces.All()
	provinces := make([]ProvinceInstance, len(definitions))
	for i := range definitions {
		provinces[i] = newProvinceInstance(&definitions[i], defs.Handle(i))
		provinces[i].setup(manager)
	}
	return &MapInstance{manager: manager, market: mkt, provinces: provinces}, nil
}

// ProvinceCount returns the number of province instances.
func (m *MapInstance) ProvinceCount() int { return len(m.provinces) }

// Province returns the instance for a province handle, nil out of range.
func (m *MapInstance) Province(h defs.Handle) *ProvinceInstance {
	if int(h) < 0 || int(h) >= len(m.provinces) {
		return nil
	}
	return &m.provinces[h]
}

// Provinces returns the backing province slice in registry order.
func (m *MapInstance) Provinces() []ProvinceInstance { return m.provinces }

// ProvinceByID resolves a province instance by its definition identifier.
func (m *MapInstance) ProvinceByID(id string) (*ProvinceInstance, error) {
	h, ok := m.manager.Provinces.Lookup(id)
	if !ok {
		return nil, errs.Identifier("map", "province", id)
	}
	return &m.provinces[h], nil
}

// TotalPopulation returns the map-wide population from the last update.
func (m *MapInstance) TotalPopulation() int64 { return m.totalPopulation }

// HighestProvincePopulation returns the largest single-province
// population from the last update.
func (m *MapInstance) HighestProvincePopulation() int64 { return m.highestProvincePopulation }

// ApplyHistory folds every province history entry dated at or before the
// bookmark date into the land provinces, oldest first. Water provinces
// never carry history.
func (m *MapInstance) ApplyHistory(date chrono.Date, countries *CountryInstanceManager) error {
	for i := range m.provinces {
		province := &m.provinces[i]
		if province.def.Water {
			continue
		}
		entries := m.manager.ProvinceHistory(province.def.ID)
		for j := range entries {
			if entries[j].Date.After(date) {
				continue
			}
			if err := province.applyHistory(&entries[j], m.manager, countries); err != nil {
				return err
			}
		}
	}
	return nil
}

// MapTick runs every province's daily tick. Provinces are independent
// during the tick phase, so the pass parallelizes across them; order
// submission is the only cross-province touch point and the market
// queues are append-safe.
func (m *MapInstance) MapTick(today chrono.Date) {
	parallel.ForEach(m.provinces, func(p *ProvinceInstance) {
		p.ProvinceTick(today, m.market, m.manager)
	})
}

// UpdateModifierSums rebuilds every province's modifier sum from its own
// contributions plus its owner's country sum. Country sums must already
// be current.
func (m *MapInstance) UpdateModifierSums(countries *CountryInstanceManager) {
	for i := range m.provinces {
		province := &m.provinces[i]
		province.updateModifierSum(countries.Instance(province.owner))
	}
}

// UpdateGamestate recomputes per-province derived state and the map-wide
// population totals.
func (m *MapInstance) UpdateGamestate(today chrono.Date) {
	m.totalPopulation = 0
	m.highestProvincePopulation = 0
	for i := range m.provinces {
		province := &m.provinces[i]
		province.UpdateGamestate(today)

		population := province.totalPopulation
		if population > m.highestProvincePopulation {
			m.highestProvincePopulation = population
		}
		m.totalPopulation += population
	}
	m.updateStates()
}

// InitialiseForNewGame primes the map after history application: one
// gamestate update, then an RGO reset and first tick so day one starts
// from live production figures.
func (m *MapInstance) InitialiseForNewGame(today chrono.Date) {
	m.UpdateGamestate(today)
	parallel.ForEach(m.provinces, func(p *ProvinceInstance) {
		p.initialiseRGO()
		p.ProvinceTick(today, m.market, m.manager)
	})
}
