package sim

import (
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// UnitGroup is one army or fleet: a named group of strength attached to
// a country and stationed in a province.
type UnitGroup struct {
	Name     string
	Country  defs.Handle
	Location defs.Handle
	Strength decimal.Decimal
}

// UnitInstanceManager owns all unit groups. It occupies a fixed slot in
// the daily pipeline, between the country tick and market clearing, even
// while the unit model itself stays minimal.
type UnitInstanceManager struct {
	groups []UnitGroup
}

// NewUnitInstanceManager returns an empty unit manager.
func NewUnitInstanceManager() *UnitInstanceManager {
	return &UnitInstanceManager{}
}

// AddGroup registers a unit group.
func (m *UnitInstanceManager) AddGroup(group UnitGroup) {
	m.groups = append(m.groups, group)
}

// Groups returns the registered unit groups.
func (m *UnitInstanceManager) Groups() []UnitGroup { return m.groups }

// Tick advances unit state by one day.
func (m *UnitInstanceManager) Tick(today chrono.Date) {
	_ = today
}

// UpdateGamestate recomputes derived unit state.
func (m *UnitInstanceManager) UpdateGamestate(today chrono.Date) {
	_ = today
}
