package sim

import (
	"github.com/ironcliff/hegemon/internal/defs"
)

// StateInstance groups one country's owned land provinces on one continent
// into a geographic state. States are generated after bookmark history has
// settled province ownership and aggregate their population on every
// gamestate update.
type StateInstance struct {
	handle    defs.Handle
	owner     defs.Handle
	continent defs.Handle
	capital   defs.Handle // first province grouped into the state
	provinces []defs.Handle

	totalPopulation int64
}

// Handle returns the state's arena handle.
func (s *StateInstance) Handle() defs.Handle { return s.handle }

// Owner returns the owning country handle.
func (s *StateInstance) Owner() defs.Handle { return s.owner }

// Continent returns the state's continent handle.
func (s *StateInstance) Continent() defs.Handle { return s.continent }

// Capital returns the state's capital province handle.
func (s *StateInstance) Capital() defs.Handle { return s.capital }

// Provinces returns the member province handles in handle order.
func (s *StateInstance) Provinces() []defs.Handle { return s.provinces }

// TotalPopulation returns the state population from the last update.
func (s *StateInstance) TotalPopulation() int64 { return s.totalPopulation }

type stateKey struct {
	owner     defs.Handle
	continent defs.Handle
}

// GenerateStates rebuilds the state arena by grouping owned land provinces
// by owner and continent. Provinces are visited in handle order, so state
// handles and member lists are deterministic. Water and unowned provinces
// belong to no state.
func (m *MapInstance) GenerateStates() {
	m.states = m.states[:0]
	index := make(map[stateKey]defs.Handle)
	for i := range m.provinces {
		province := &m.provinces[i]
		province.state = defs.InvalidHandle
		if province.def.Water || province.owner == defs.InvalidHandle {
			continue
		}
		key := stateKey{owner: province.owner, continent: province.def.Continent}
		h, ok := index[key]
		if !ok {
			h = defs.Handle(len(m.states))
			index[key] = h
			m.states = append(m.states, StateInstance{
				handle:    h,
				owner:     province.owner,
				continent: province.def.Continent,
				capital:   province.handle,
			})
		}
		state := &m.states[h]
		state.provinces = append(state.provinces, province.handle)
		province.state = h
	}
}

// StateCount returns the number of generated states.
func (m *MapInstance) StateCount() int { return len(m.states) }

// State returns the instance for a state handle, nil out of range.
func (m *MapInstance) State(h defs.Handle) *StateInstance {
	if int(h) < 0 || int(h) >= len(m.states) {
		return nil
	}
	return &m.states[h]
}

// States returns the backing state slice in generation order.
func (m *MapInstance) States() []StateInstance { return m.states }

// StateOf returns the state a province belongs to, nil for water and
// unowned provinces.
func (m *MapInstance) StateOf(province defs.Handle) *StateInstance {
	p := m.Province(province)
	if p == nil {
		return nil
	}
	return m.State(p.state)
}

// updateStates refolds member province populations into each state.
// Province population stats must already be current.
func (m *MapInstance) updateStates() {
	for i := range m.states {
		state := &m.states[i]
		state.totalPopulation = 0
		for _, h := range state.provinces {
			state.totalPopulation += m.provinces[h].totalPopulation
		}
	}
}
