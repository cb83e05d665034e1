package sim

import (
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/market"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// ProvinceInstance is the live state of one map province: political
// ownership, construction, population and the resource gathering
// operation producing for the market. Instances live in the map arena and
// refer to countries and to each other by handle only.
type ProvinceInstance struct {
	def    *defs.ProvinceDefinition
	handle defs.Handle

	owner      defs.Handle // country instance, InvalidHandle when unowned
	controller defs.Handle
	state      defs.Handle // geographic state, InvalidHandle until generated
	cores      map[defs.Handle]struct{}

	buildings []Building // indexed by building type handle
	pops      []Pop

	rgo rgoState

	modifierSum ModifierSum

	totalPopulation      int64
	averageLiteracy      decimal.Decimal
	averageMilitancy     decimal.Decimal
	averageConsciousness decimal.Decimal
	popTypeDistribution  map[defs.Handle]int64
}

// rgoState is the province's resource gathering operation.
type rgoState struct {
	productionType   defs.Handle // InvalidHandle disables production
	sizeMultiplier   decimal.Decimal
	outputYesterday  decimal.Decimal
	revenueYesterday decimal.Decimal
}

func newProvinceInstance(def *defs.ProvinceDefinition, handle defs.Handle) ProvinceInstance {
	return ProvinceInstance{
		def:        def,
		handle:     handle,
		owner:      defs.InvalidHandle,
		controller: defs.InvalidHandle,
		state:      defs.InvalidHandle,
		cores:      make(map[defs.Handle]struct{}),
		rgo: rgoState{
			productionType:   def.RGOProductionType,
			sizeMultiplier:   decimal.NewFromInt(1),
			outputYesterday:  decimal.Zero,
			revenueYesterday: decimal.Zero,
		},
		modifierSum:         NewModifierSum(),
		popTypeDistribution: make(map[defs.Handle]int64),
	}
}

// setup creates one building per locked building type. Water provinces
// carry no buildings.
func (p *ProvinceInstance) setup(manager *defs.Manager) {
	if p.def.Water {
		return
	}
	types := manager.BuildingTypes.All()
	p.buildings = make([]Building, len(types))
	for i := range types {
		p.buildings[i] = newBuilding(&types[i])
	}
}

// Definition returns the province's immutable definition.
func (p *ProvinceInstance) Definition() *defs.ProvinceDefinition { return p.def }

// Handle returns the province's arena handle.
func (p *ProvinceInstance) Handle() defs.Handle { return p.handle }

// Owner returns the owning country handle, InvalidHandle when unowned.
func (p *ProvinceInstance) Owner() defs.Handle { return p.owner }

// Controller returns the controlling country handle.
func (p *ProvinceInstance) Controller() defs.Handle { return p.controller }

// State returns the geographic state handle, InvalidHandle before state
// generation and for water or unowned provinces.
func (p *ProvinceInstance) State() defs.Handle { return p.state }

// HasCore reports whether a country holds a core on this province.
func (p *ProvinceInstance) HasCore(country defs.Handle) bool {
	_, ok := p.cores[country]
	return ok
}

// Cores returns the set of countries with a core on this province.
func (p *ProvinceInstance) Cores() map[defs.Handle]struct{} { return p.cores }

// Building returns the building instance for a building type handle.
func (p *ProvinceInstance) Building(typ defs.Handle) *Building {
	if int(typ) < 0 || int(typ) >= len(p.buildings) {
		return nil
	}
	return &p.buildings[typ]
}

// Buildings returns the province's building instances.
func (p *ProvinceInstance) Buildings() []Building { return p.buildings }

// Pops returns the province's population units.
func (p *ProvinceInstance) Pops() []Pop { return p.pops }

// TotalPopulation returns the population total from the last update.
func (p *ProvinceInstance) TotalPopulation() int64 { return p.totalPopulation }

// AverageLiteracy returns the size-weighted literacy from the last update.
func (p *ProvinceInstance) AverageLiteracy() decimal.Decimal { return p.averageLiteracy }

// PopulationOfType returns the last-update population of one pop type.
func (p *ProvinceInstance) PopulationOfType(typ defs.Handle) int64 {
	return p.popTypeDistribution[typ]
}

// RGOProductionType returns the active RGO production type handle.
func (p *ProvinceInstance) RGOProductionType() defs.Handle { return p.rgo.productionType }

// RGOOutputYesterday returns the quantity produced on the last tick.
func (p *ProvinceInstance) RGOOutputYesterday() decimal.Decimal { return p.rgo.outputYesterday }

// RGORevenueYesterday returns the sale proceeds from the last clearing.
func (p *ProvinceInstance) RGORevenueYesterday() decimal.Decimal { return p.rgo.revenueYesterday }

// ModifierSum returns the province's aggregated modifier effects.
func (p *ProvinceInstance) ModifierSum() *ModifierSum { return &p.modifierSum }

// applyHistory folds one dated history entry into the province. Empty
// fields leave the current value unchanged; pops replace wholesale.
func (p *ProvinceInstance) applyHistory(entry *defs.ProvinceHistoryEntry, manager *defs.Manager, countries *CountryInstanceManager) error {
	if entry.Owner != "" {
		country, err := countries.ByTag(entry.Owner)
		if err != nil {
			return err
		}
		if prev := countries.Instance(p.owner); prev != nil {
			prev.removeOwnedProvince(p.handle)
		}
		p.owner = country.Handle()
		p.controller = country.Handle()
		country.addOwnedProvince(p.handle)
	}
	for _, tag := range entry.Cores {
		country, err := countries.ByTag(tag)
		if err != nil {
			return err
		}
		p.cores[country.Handle()] = struct{}{}
		country.addCoreProvince(p.handle)
	}
	if entry.RGO != "" {
		h, ok := manager.ProductionTypes.Lookup(entry.RGO)
		if !ok {
			return errs.Identifier("province", "production type", entry.RGO)
		}
		p.rgo.productionType = h
	}
	if len(entry.Pops) > 0 {
		p.pops = p.pops[:0]
		for _, pe := range entry.Pops {
			typ, ok := manager.PopTypes.Lookup(pe.Type)
			if !ok {
				return errs.Identifier("province", "pop type", pe.Type)
			}
			ideology := defs.InvalidHandle
			if pe.Ideology != "" {
				if h, ok := manager.Ideologies.Lookup(pe.Ideology); ok {
					ideology = h
				}
			}
			p.pops = append(p.pops, newPop(pe, typ, ideology))
		}
	}
	return nil
}

// initialiseRGO resets yesterday's production figures for a new game.
func (p *ProvinceInstance) initialiseRGO() {
	p.rgo.outputYesterday = decimal.Zero
	p.rgo.revenueYesterday = decimal.Zero
}

// ProvinceTick advances the province by one day: buildings progress and
// the RGO produces and offers its output for sale. The sale callback runs
// later, during market clearing, and writes only this province's revenue.
func (p *ProvinceInstance) ProvinceTick(today chrono.Date, mkt *market.Market, manager *defs.Manager) {
	for i := range p.buildings {
		p.buildings[i].Tick(today)
	}
	p.rgoTick(mkt, manager)
}

func (p *ProvinceInstance) rgoTick(mkt *market.Market, manager *defs.Manager) {
	if p.rgo.productionType == defs.InvalidHandle {
		return
	}
	production, ok := manager.ProductionTypes.Get(p.rgo.productionType)
	if !ok {
		return
	}

	output := production.BaseOutput.Mul(p.rgo.sizeMultiplier)
	bonus := p.modifierSum.Effect(EffectRGOSize)
	if !bonus.IsZero() {
		output = output.Mul(decimal.NewFromInt(1).Add(bonus))
	}
	p.rgo.outputYesterday = output
	p.rgo.revenueYesterday = decimal.Zero
	if !output.IsPositive() {
		return
	}

	mkt.PlaceMarketSellOrder(market.SellOrder{
		Good:     production.OutputGood,
		Quantity: output,
		AfterTrade: func(r market.SellResult) {
			p.rgo.revenueYesterday = r.Earned
		},
	})
}

// UpdateGamestate recomputes the province's derived state: building
// expansion data and population aggregates.
func (p *ProvinceInstance) UpdateGamestate(today chrono.Date) {
	for i := range p.buildings {
		p.buildings[i].UpdateState(today)
	}
	p.updatePopulationStats()
}

func (p *ProvinceInstance) updatePopulationStats() {
	p.totalPopulation = 0
	for k := range p.popTypeDistribution {
		delete(p.popTypeDistribution, k)
	}
	literacy := decimal.Zero
	militancy := decimal.Zero
	consciousness := decimal.Zero

	for i := range p.pops {
		pop := &p.pops[i]
		p.totalPopulation += pop.Size
		p.popTypeDistribution[pop.Type] += pop.Size
		size := decimal.NewFromInt(pop.Size)
		literacy = literacy.Add(pop.Literacy.Mul(size))
		militancy = militancy.Add(pop.Militancy.Mul(size))
		consciousness = consciousness.Add(pop.Consciousness.Mul(size))
	}

	if p.totalPopulation > 0 {
		total := decimal.NewFromInt(p.totalPopulation)
		p.averageLiteracy = literacy.Div(total)
		p.averageMilitancy = militancy.Div(total)
		p.averageConsciousness = consciousness.Div(total)
	} else {
		p.averageLiteracy = decimal.Zero
		p.averageMilitancy = decimal.Zero
		p.averageConsciousness = decimal.Zero
	}
}

// updateModifierSum rebuilds the province sum from its own contributions
// and the owner's already-recomputed country sum. Country sums update
// first each pass.
func (p *ProvinceInstance) updateModifierSum(owner *CountryInstance) {
	p.modifierSum.Clear()
	for i := range p.buildings {
		b := &p.buildings[i]
		if b.level > 0 {
			p.modifierSum.Add(b.typ.ID, EffectBuildingLevels, decimal.NewFromInt(int64(b.level)))
		}
	}
	if owner != nil {
		p.modifierSum.AddSum(owner.Definition().ID, owner.ModifierSum())
	}
}
