package sim

import (
	"github.com/shopspring/decimal"
)

// Common modifier effect keys contributed by the core itself.
const (
	EffectBuildingLevels = "building_levels"
	EffectLiteracy       = "literacy"
	EffectPrestige       = "prestige"
	EffectRGOSize        = "rgo_size"
)

// ModifierContribution records one source's effect on a modifier sum, kept
// for tooltips and debugging rather than gameplay.
type ModifierContribution struct {
	Source string
	Effect string
	Value  decimal.Decimal
}

// ModifierSum aggregates numeric effect contributions affecting one
// province or country. Sums are recomputed from scratch each gamestate
// update: countries first, then provinces, so a province can fold in its
// owner's already-complete sum.
type ModifierSum struct {
	effects       map[string]decimal.Decimal
	contributions []ModifierContribution
}

// NewModifierSum returns an empty sum.
func NewModifierSum() ModifierSum {
	return ModifierSum{effects: make(map[string]decimal.Decimal)}
}

// Clear resets the sum for recomputation, keeping allocated capacity.
func (s *ModifierSum) Clear() {
	for k := range s.effects {
		delete(s.effects, k)
	}
	s.contributions = s.contributions[:0]
}

// Add folds one contribution into the sum.
func (s *ModifierSum) Add(source, effect string, value decimal.Decimal) {
	s.effects[effect] = s.effects[effect].Add(value)
	s.contributions = append(s.contributions, ModifierContribution{Source: source, Effect: effect, Value: value})
}

// AddSum folds every effect of another sum into this one, attributed to
// the given source. Used to apply an owner country's sum to a province.
func (s *ModifierSum) AddSum(source string, other *ModifierSum) {
	for effect, value := range other.effects {
		s.Add(source, effect, value)
	}
}

// Effect returns the aggregated value for an effect key, zero if absent.
func (s *ModifierSum) Effect(key string) decimal.Decimal {
	return s.effects[key]
}

// Contributions returns the individual recorded contributions.
func (s *ModifierSum) Contributions() []ModifierContribution {
	return s.contributions
}
