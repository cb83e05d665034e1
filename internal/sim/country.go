package sim

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// CountryInstance is the live state of one nation tag. A country "exists"
// once it owns at least one province; non-existent tags still carry
// instances so history and scripted references resolve by handle.
type CountryInstance struct {
	def    *defs.CountryDefinition
	handle defs.Handle

	capital  defs.Handle // province handle, InvalidHandle when unset
	ideology defs.Handle

	civilised bool
	literacy  decimal.Decimal
	prestige  decimal.Decimal

	ownedProvinces map[defs.Handle]struct{}
	coreProvinces  map[defs.Handle]struct{}

	rank       int // 1-based prestige rank among existing countries, 0 before ranking
	greatPower bool

	modifierSum ModifierSum
}

func newCountryInstance(def *defs.CountryDefinition, handle defs.Handle) CountryInstance {
	return CountryInstance{
		def:            def,
		handle:         handle,
		capital:        defs.InvalidHandle,
		ideology:       defs.InvalidHandle,
		literacy:       decimal.Zero,
		prestige:       decimal.Zero,
		ownedProvinces: make(map[defs.Handle]struct{}),
		coreProvinces:  make(map[defs.Handle]struct{}),
		modifierSum:    NewModifierSum(),
	}
}

// Definition returns the country's immutable definition.
func (c *CountryInstance) Definition() *defs.CountryDefinition { return c.def }

// Handle returns the country's arena handle.
func (c *CountryInstance) Handle() defs.Handle { return c.handle }

// Exists reports whether the country owns at least one province.
func (c *CountryInstance) Exists() bool { return len(c.ownedProvinces) > 0 }

// Capital returns the capital province handle, InvalidHandle when unset.
func (c *CountryInstance) Capital() defs.Handle { return c.capital }

// Ideology returns the ruling ideology handle.
func (c *CountryInstance) Ideology() defs.Handle { return c.ideology }

// IsCivilised reports whether the country counts as civilised.
func (c *CountryInstance) IsCivilised() bool { return c.civilised }

// Literacy returns the country's national literacy.
func (c *CountryInstance) Literacy() decimal.Decimal { return c.literacy }

// Prestige returns the country's prestige score.
func (c *CountryInstance) Prestige() decimal.Decimal { return c.prestige }

// Rank returns the country's 1-based prestige rank, 0 before any update.
func (c *CountryInstance) Rank() int { return c.rank }

// IsGreatPower reports whether the country ranked as a great power in the
// last gamestate update.
func (c *CountryInstance) IsGreatPower() bool { return c.greatPower }

// Owns reports whether the country owns a province.
func (c *CountryInstance) Owns(province defs.Handle) bool {
	_, ok := c.ownedProvinces[province]
	return ok
}

// OwnedProvinces returns the set of owned province handles.
func (c *CountryInstance) OwnedProvinces() map[defs.Handle]struct{} { return c.ownedProvinces }

// CoreProvinces returns the set of province handles the country has a
// core on.
func (c *CountryInstance) CoreProvinces() map[defs.Handle]struct{} { return c.coreProvinces }

// ModifierSum returns the country's aggregated modifier effects.
func (c *CountryInstance) ModifierSum() *ModifierSum { return &c.modifierSum }

func (c *CountryInstance) addOwnedProvince(province defs.Handle)    { c.ownedProvinces[province] = struct{}{} }
func (c *CountryInstance) removeOwnedProvince(province defs.Handle) { delete(c.ownedProvinces, province) }
func (c *CountryInstance) addCoreProvince(province defs.Handle)     { c.coreProvinces[province] = struct{}{} }

// applyHistory folds one dated history entry into the country.
func (c *CountryInstance) applyHistory(entry *defs.CountryHistoryEntry, manager *defs.Manager) error {
	if entry.Capital != "" {
		h, ok := manager.Provinces.Lookup(entry.Capital)
		if !ok {
			return errs.Identifier("country", "capital province", entry.Capital)
		}
		c.capital = h
	}
	if entry.Ideology != "" {
		h, ok := manager.Ideologies.Lookup(entry.Ideology)
		if !ok {
			return errs.Identifier("country", "ideology", entry.Ideology)
		}
		c.ideology = h
	}
	if !entry.Literacy.IsZero() {
		c.literacy = entry.Literacy
	}
	if !entry.Prestige.IsZero() {
		c.prestige = entry.Prestige
	}
	if entry.Civilised {
		c.civilised = true
	}
	return nil
}

// countryTick advances per-day country state. The daily pipeline reserves
// this slot between the map tick and the unit tick.
func (c *CountryInstance) countryTick(today chrono.Date) {
	_ = today
}

// updateModifierSum rebuilds the country's sum from national stats.
// Runs before any province sum so provinces can fold this in.
func (c *CountryInstance) updateModifierSum() {
	c.modifierSum.Clear()
	if !c.prestige.IsZero() {
		c.modifierSum.Add(c.def.ID, EffectPrestige, c.prestige)
	}
	if !c.literacy.IsZero() {
		c.modifierSum.Add(c.def.ID, EffectLiteracy, c.literacy)
	}
}

// CountryInstanceManager owns one instance per country definition, in
// registry order, and maintains the great-power ranking.
type CountryInstanceManager struct {
	manager   *defs.Manager
	instances []CountryInstance

	greatPowers []defs.Handle // prestige order, best first
}

// NewCountryInstanceManager builds one instance per locked country
// definition.
func NewCountryInstanceManager(manager *defs.Manager) (*CountryInstanceManager, error) {
	if !manager.Countries.Locked() {
		return nil, errs.Lifecycle("countries", "cannot build country instances before definitions are locked")
	}
	definitions := manager.Countries.All()
	instances := make([]CountryInstance, len(definitions))
	for i := range definitions {
		instances[i] = newCountryInstance(&definitions[i], defs.Handle(i))
	}
	return &CountryInstanceManager{manager: manager, instances: instances}, nil
}

// Count returns the number of country instances.
func (m *CountryInstanceManager) Count() int { return len(m.instances) }

// Instance returns the country instance for a handle, nil if out of range.
func (m *CountryInstanceManager) Instance(h defs.Handle) *CountryInstance {
	if int(h) < 0 || int(h) >= len(m.instances) {
		return nil
	}
	return &m.instances[h]
}

// Instances returns the backing instance slice in registry order.
func (m *CountryInstanceManager) Instances() []CountryInstance { return m.instances }

// ByTag resolves a country instance by its definition tag.
func (m *CountryInstanceManager) ByTag(tag string) (*CountryInstance, error) {
	h, ok := m.manager.Countries.Lookup(tag)
	if !ok {
		return nil, errs.Identifier("countries", "country tag", tag)
	}
	return &m.instances[h], nil
}

// GreatPowers returns the current great powers in prestige order.
func (m *CountryInstanceManager) GreatPowers() []defs.Handle { return m.greatPowers }

// ApplyHistory folds every country history entry dated at or before the
// bookmark date, oldest first. Later entries override earlier ones
// field by field.
func (m *CountryInstanceManager) ApplyHistory(date chrono.Date) error {
	for i := range m.instances {
		country := &m.instances[i]
		entries := m.manager.CountryHistory(country.def.ID)
		for j := range entries {
			if entries[j].Date.After(date) {
				continue
			}
			if err := country.applyHistory(&entries[j], m.manager); err != nil {
				return err
			}
		}
	}
	return nil
}

// Tick advances every country by one day.
func (m *CountryInstanceManager) Tick(today chrono.Date) {
	for i := range m.instances {
		m.instances[i].countryTick(today)
	}
}

// UpdateModifierSums recomputes every country's modifier sum. Must run
// before province sums each update pass.
func (m *CountryInstanceManager) UpdateModifierSums() {
	for i := range m.instances {
		m.instances[i].updateModifierSum()
	}
}

// UpdateGamestate recomputes derived country state, including the
// prestige ranking and great-power set. Only existing countries rank;
// the great-power cutoff comes from the defines.
func (m *CountryInstanceManager) UpdateGamestate(today chrono.Date) {
	_ = today
	ranked := make([]defs.Handle, 0, len(m.instances))
	for i := range m.instances {
		m.instances[i].rank = 0
		m.instances[i].greatPower = false
		if m.instances[i].Exists() {
			ranked = append(ranked, defs.Handle(i))
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return m.instances[ranked[a]].prestige.GreaterThan(m.instances[ranked[b]].prestige)
	})

	cutoff := m.manager.DefineValues.GreatPowerRankCutoff
	m.greatPowers = m.greatPowers[:0]
	for i, h := range ranked {
		country := &m.instances[h]
		country.rank = i + 1
		if country.civilised && country.rank <= cutoff {
			country.greatPower = true
			m.greatPowers = append(m.greatPowers, h)
		}
	}
}
