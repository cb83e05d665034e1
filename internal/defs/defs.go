package defs

import (
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/lib/chrono"
)

// GoodDefinition describes one tradeable commodity.
type GoodDefinition struct {
	ID        string
	Category  string
	BasePrice decimal.Decimal
	IsMoney   bool
	Tradeable bool
}

// Identifier implements Identified.
func (g GoodDefinition) Identifier() string { return g.ID }

// ProductionType describes how a resource-gathering operation or factory
// turns workforce into an output good.
type ProductionType struct {
	ID            string
	OutputGood    Handle
	BaseOutput    decimal.Decimal
	BaseWorkforce int64
}

// Identifier implements Identified.
func (p ProductionType) Identifier() string { return p.ID }

// BuildingType describes a constructible province building.
type BuildingType struct {
	ID        string
	MaxLevel  int
	BuildTime chrono.Timespan
}

// Identifier implements Identified.
func (b BuildingType) Identifier() string { return b.ID }

// Continent groups provinces geographically.
type Continent struct {
	ID string
}

// Identifier implements Identified.
func (c Continent) Identifier() string { return c.ID }

// Ideology is a political definition referenced by pop distributions.
type Ideology struct {
	ID string
}

// Identifier implements Identified.
func (i Ideology) Identifier() string { return i.ID }

// PopType is a population stratum definition (farmers, labourers, ...).
type PopType struct {
	ID     string
	Strata string
}

// Identifier implements Identified.
func (p PopType) Identifier() string { return p.ID }

// CountryDefinition describes a playable or historical nation tag.
type CountryDefinition struct {
	ID   string // three-letter tag
	Name string
}

// Identifier implements Identified.
func (c CountryDefinition) Identifier() string { return c.ID }

// ProvinceDefinition describes one map province.
type ProvinceDefinition struct {
	ID        string
	Water     bool
	Continent Handle
	// Terrain-determined default for the RGO; history entries may override.
	RGOProductionType Handle
}

// Identifier implements Identified.
func (p ProvinceDefinition) Identifier() string { return p.ID }

// Defines holds the game-balance tuning constants read by the core.
type Defines struct {
	GoldToWorkerPayRate    decimal.Decimal
	InfamyContainmentLimit decimal.Decimal
	GreatPowerRankCutoff   int
	StartDate              chrono.Date
	EndDate                chrono.Date
}

// InGamePeriod reports whether a date falls within the playable period.
func (d Defines) InGamePeriod(date chrono.Date) bool {
	return date.InRange(d.StartDate, d.EndDate)
}

// PopEntry is one population unit in a province history entry.
type PopEntry struct {
	Type     string
	Culture  string
	Size     int64
	Literacy decimal.Decimal
	Ideology string
}

// ProvinceHistoryEntry carries dated historical province state.
type ProvinceHistoryEntry struct {
	Date  chrono.Date
	Owner string // country tag; empty leaves ownership unchanged
	Cores []string
	RGO   string // production type identifier; empty leaves the RGO unchanged
	Pops  []PopEntry
}

// CountryHistoryEntry carries dated historical country state.
type CountryHistoryEntry struct {
	Date      chrono.Date
	Capital   string // province identifier
	Ideology  string
	Literacy  decimal.Decimal
	Prestige  decimal.Decimal
	Civilised bool
}

// Bookmark names a playable start date.
type Bookmark struct {
	ID   string
	Name string
	Date chrono.Date
}

// Identifier implements Identified.
func (b Bookmark) Identifier() string { return b.ID }
