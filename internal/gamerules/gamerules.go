// Package gamerules holds the session-scoped rule toggles read by the
// market and production logic.
package gamerules

// DemandCategory selects which consumer bucket artisanal input demand is
// accounted under.
type DemandCategory uint8

// Demand categories.
const (
	DemandNone DemandCategory = iota
	DemandPopNeeds
	DemandFactoryNeeds
)

// String returns the yaml/config spelling of the category.
func (d DemandCategory) String() string {
	switch d {
	case DemandPopNeeds:
		return "pop_needs"
	case DemandFactoryNeeds:
		return "factory_needs"
	default:
		return "none"
	}
}

// ParseDemandCategory maps a config spelling onto a category, defaulting to
// DemandNone for unknown values.
func ParseDemandCategory(s string) DemandCategory {
	switch s {
	case "pop_needs":
		return DemandPopNeeds
	case "factory_needs":
		return DemandFactoryNeeds
	default:
		return DemandNone
	}
}

// Rules is the set of game-rule toggles. Changing the price model mid-session
// requires notifying every good instance; Market.OnPriceModelChanged exists
// for exactly that, and SetUseExponentialPriceChanges will not do it for you.
type Rules struct {
	useExponentialPriceChanges   bool
	artisanalInputDemandCategory DemandCategory
}

// New builds rules with the given toggles.
func New(exponentialPrices bool, artisanalDemand DemandCategory) *Rules {
	return &Rules{
		useExponentialPriceChanges:   exponentialPrices,
		artisanalInputDemandCategory: artisanalDemand,
	}
}

// UseExponentialPriceChanges reports whether order clearing uses the
// exponential price-adjustment curve instead of the linear one.
func (r *Rules) UseExponentialPriceChanges() bool { return r.useExponentialPriceChanges }

// SetUseExponentialPriceChanges flips the price model toggle.
func (r *Rules) SetUseExponentialPriceChanges(on bool) { r.useExponentialPriceChanges = on }

// ArtisanalInputDemandCategory returns the configured demand bucket.
func (r *Rules) ArtisanalInputDemandCategory() DemandCategory {
	return r.artisanalInputDemandCategory
}

// SetArtisanalInputDemandCategory updates the demand bucket.
func (r *Rules) SetArtisanalInputDemandCategory(c DemandCategory) {
	r.artisanalInputDemandCategory = c
}
