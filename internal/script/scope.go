package script

import (
	"github.com/ironcliff/hegemon/internal/sim"
)

// ScopeKind tags which entity kind a live scope refers to.
type ScopeKind uint8

const (
	ScopeNone ScopeKind = iota
	ScopeCountry
	ScopeProvince
	ScopePop
	ScopeState
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNone:
		return "none"
	case ScopeCountry:
		return "country"
	case ScopeProvince:
		return "province"
	case ScopePop:
		return "pop"
	case ScopeState:
		return "state"
	default:
		return "unknown"
	}
}

// Scope is a tagged reference to one live game entity. The zero value is
// the no-entity scope. Pop scopes additionally carry the pop's home
// province so location-style conditions can resolve it.
type Scope struct {
	kind     ScopeKind
	country  *sim.CountryInstance
	province *sim.ProvinceInstance
	pop      *sim.Pop
	popHome  *sim.ProvinceInstance
	state    *sim.StateInstance
}

// NoScope returns the no-entity scope.
func NoScope() Scope { return Scope{} }

// CountryScope wraps a country instance. A nil country yields NoScope.
func CountryScope(c *sim.CountryInstance) Scope {
	if c == nil {
		return Scope{}
	}
	return Scope{kind: ScopeCountry, country: c}
}

// ProvinceScope wraps a province instance. A nil province yields NoScope.
func ProvinceScope(p *sim.ProvinceInstance) Scope {
	if p == nil {
		return Scope{}
	}
	return Scope{kind: ScopeProvince, province: p}
}

// PopScope wraps a pop together with its home province.
func PopScope(pop *sim.Pop, home *sim.ProvinceInstance) Scope {
	if pop == nil {
		return Scope{}
	}
	return Scope{kind: ScopePop, pop: pop, popHome: home}
}

// StateScope wraps a state instance. A nil state yields NoScope.
func StateScope(s *sim.StateInstance) Scope {
	if s == nil {
		return Scope{}
	}
	return Scope{kind: ScopeState, state: s}
}

// Kind returns the scope's entity kind.
func (s Scope) Kind() ScopeKind { return s.kind }

// IsNone reports whether the scope refers to no entity.
func (s Scope) IsNone() bool { return s.kind == ScopeNone }

// Country returns the scoped country, if the scope is a country.
func (s Scope) Country() (*sim.CountryInstance, bool) {
	return s.country, s.kind == ScopeCountry
}

// Province returns the scoped province, if the scope is a province.
func (s Scope) Province() (*sim.ProvinceInstance, bool) {
	return s.province, s.kind == ScopeProvince
}

// Pop returns the scoped pop and its home province, if the scope is a pop.
func (s Scope) Pop() (*sim.Pop, *sim.ProvinceInstance, bool) {
	return s.pop, s.popHome, s.kind == ScopePop
}

// State returns the scoped state, if the scope is a state.
func (s Scope) State() (*sim.StateInstance, bool) {
	return s.state, s.kind == ScopeState
}

// ScopeTypes is the parse-time bitmask of scope kinds a condition may
// appear under, plus the THIS and FROM bits marking that a value argument
// may be the corresponding sentinel keyword.
type ScopeTypes uint8

const (
	ScopeTypeCountry ScopeTypes = 1 << iota
	ScopeTypeProvince
	ScopeTypePop
	ScopeTypeState
	ScopeTypeThis
	ScopeTypeFrom

	// AllScopes covers every concrete entity kind, without THIS/FROM.
	AllScopes = ScopeTypeCountry | ScopeTypeProvince | ScopeTypePop | ScopeTypeState
)

// Shares reports whether two masks have any concrete scope bit in common.
func (t ScopeTypes) Shares(other ScopeTypes) bool {
	return t&other&AllScopes != 0
}

// Has reports whether the mask includes a bit.
func (t ScopeTypes) Has(bit ScopeTypes) bool { return t&bit != 0 }

func (t ScopeTypes) String() string {
	if t&AllScopes == AllScopes {
		return "any"
	}
	out := ""
	add := func(s string) {
		if out != "" {
			out += "|"
		}
		out += s
	}
	if t.Has(ScopeTypeCountry) {
		add("country")
	}
	if t.Has(ScopeTypeProvince) {
		add("province")
	}
	if t.Has(ScopeTypePop) {
		add("pop")
	}
	if t.Has(ScopeTypeState) {
		add("state")
	}
	if out == "" {
		return "none"
	}
	return out
}

// typeOfKind maps an entity kind to its parse-time bit.
func typeOfKind(k ScopeKind) ScopeTypes {
	switch k {
	case ScopeCountry:
		return ScopeTypeCountry
	case ScopeProvince:
		return ScopeTypeProvince
	case ScopePop:
		return ScopeTypePop
	case ScopeState:
		return ScopeTypeState
	default:
		return 0
	}
}
