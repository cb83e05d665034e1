package defs

// Manager aggregates every definition registry plus the tuning defines and
// history data. It is populated by the dataloader, locked once, and then
// shared read-only across the whole session (including parallel tick
// workers, which rely on it never changing).
type Manager struct {
	Goods           *Registry[GoodDefinition]
	ProductionTypes *Registry[ProductionType]
	BuildingTypes   *Registry[BuildingType]
	Continents      *Registry[Continent]
	Ideologies      *Registry[Ideology]
	PopTypes        *Registry[PopType]
	Countries       *Registry[CountryDefinition]
	Provinces       *Registry[ProvinceDefinition]
	Bookmarks       *Registry[Bookmark]

	DefineValues Defines

	provinceHistory map[string][]ProvinceHistoryEntry // keyed by province identifier
	countryHistory  map[string][]CountryHistoryEntry  // keyed by country tag

	locked bool
}

// NewManager builds an empty definition manager.
func NewManager() *Manager {
	return &Manager{
		Goods:           NewRegistry[GoodDefinition]("goods"),
		ProductionTypes: NewRegistry[ProductionType]("production types"),
		BuildingTypes:   NewRegistry[BuildingType]("building types"),
		Continents:      NewRegistry[Continent]("continents"),
		Ideologies:      NewRegistry[Ideology]("ideologies"),
		PopTypes:        NewRegistry[PopType]("pop types"),
		Countries:       NewRegistry[CountryDefinition]("country definitions"),
		Provinces:       NewRegistry[ProvinceDefinition]("province definitions"),
		Bookmarks:       NewRegistry[Bookmark]("bookmarks"),
		DefineValues:    Defines{},
		provinceHistory: make(map[string][]ProvinceHistoryEntry),
		countryHistory:  make(map[string][]CountryHistoryEntry),
		locked:          false,
	}
}

// AddProvinceHistory appends a dated history entry for a province.
func (m *Manager) AddProvinceHistory(provinceID string, entry ProvinceHistoryEntry) {
	m.provinceHistory[provinceID] = append(m.provinceHistory[provinceID], entry)
}

// AddCountryHistory appends a dated history entry for a country.
func (m *Manager) AddCountryHistory(tag string, entry CountryHistoryEntry) {
	m.countryHistory[tag] = append(m.countryHistory[tag], entry)
}

// ProvinceHistory returns the dated history entries for a province, oldest
// first in load order.
func (m *Manager) ProvinceHistory(provinceID string) []ProvinceHistoryEntry {
	return m.provinceHistory[provinceID]
}

// CountryHistory returns the dated history entries for a country tag.
func (m *Manager) CountryHistory(tag string) []CountryHistoryEntry {
	return m.countryHistory[tag]
}

// Lock freezes every registry. Instance setup refuses to run against an
// unlocked manager.
func (m *Manager) Lock() {
	m.Goods.Lock()
	m.ProductionTypes.Lock()
	m.BuildingTypes.Lock()
	m.Continents.Lock()
	m.Ideologies.Lock()
	m.PopTypes.Lock()
	m.Countries.Lock()
	m.Provinces.Lock()
	m.Bookmarks.Lock()
	m.locked = true
}

// Locked reports whether the manager has been frozen.
func (m *Manager) Locked() bool { return m.locked }
