package script

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/sim"
)

const (
	thisKeyword = "THIS"
	fromKeyword = "FROM"
)

// argKind tags the typed argument a condition node stores after parsing.
type argKind uint8

const (
	argNone argKind = iota
	argBool
	argInt
	argString
	argDecimal
	argCountry   // resolved country definition handle
	argProvince  // resolved province definition handle
	argGood      // resolved good definition handle
	argContinent // resolved continent handle
	argChildren  // recursively parsed child nodes
	argThis      // THIS sentinel, resolved against this-scope at execute time
	argFrom      // FROM sentinel, resolved against from-scope at execute time
)

// argument is the typed payload of one parsed condition node. Sentinel
// THIS/FROM arguments deliberately stay unresolved until execution so one
// parsed tree can run under different caller-supplied bindings.
type argument struct {
	kind     argKind
	boolVal  bool
	intVal   int64
	strVal   string
	decVal   decimal.Decimal
	handle   defs.Handle
	children []ConditionNode
}

// EvalContext carries the live state a condition evaluation reads.
type EvalContext struct {
	Instance *sim.InstanceManager
	Log      *slog.Logger
}

// NewEvalContext wraps an instance manager for condition evaluation.
func NewEvalContext(instance *sim.InstanceManager, log *slog.Logger) *EvalContext {
	if log == nil {
		log = slog.Default()
	}
	return &EvalContext{Instance: instance, Log: log}
}

// Runtime scope casts. Mismatches are logged and reported as failure,
// never panicked on: parse-time checking makes them unlikely but the
// interpreter does not trust that guarantee.
func (ec *EvalContext) country(s Scope) (*sim.CountryInstance, bool) {
	c, ok := s.Country()
	if !ok {
		ec.Log.Error("condition scope mismatch", "expected", "country", "got", s.Kind().String())
	}
	return c, ok
}

func (ec *EvalContext) province(s Scope) (*sim.ProvinceInstance, bool) {
	p, ok := s.Province()
	if !ok {
		ec.Log.Error("condition scope mismatch", "expected", "province", "got", s.Kind().String())
	}
	return p, ok
}

func (ec *EvalContext) pop(s Scope) (*sim.Pop, *sim.ProvinceInstance, bool) {
	pop, home, ok := s.Pop()
	if !ok {
		ec.Log.Error("condition scope mismatch", "expected", "pop", "got", s.Kind().String())
	}
	return pop, home, ok
}

func (ec *EvalContext) state(s Scope) (*sim.StateInstance, bool) {
	st, ok := s.State()
	if !ok {
		ec.Log.Error("condition scope mismatch", "expected", "state", "got", s.Kind().String())
	}
	return st, ok
}

type parseFunc func(m *Manager, current, this, from ScopeTypes, node Node) (argument, error)

type execFunc func(ec *EvalContext, current, this, from Scope, arg *argument) bool

// Condition is one registered condition: a name, a parse callback turning
// an AST subtree into a typed argument, and an execute callback.
type Condition struct {
	name  string
	parse parseFunc
	exec  execFunc
}

// Name returns the condition's script keyword.
func (c *Condition) Name() string { return c.name }

// ConditionNode is one node of a parsed, immutable condition tree.
type ConditionNode struct {
	condition *Condition
	arg       argument
}

// Execute evaluates the node against live state. Read-only and
// synchronous; failures degrade to false.
func (n *ConditionNode) Execute(ec *EvalContext, current, this, from Scope) bool {
	if n.condition == nil {
		ec.Log.Error("condition node has no condition")
		return false
	}
	return n.condition.exec(ec, current, this, from, &n.arg)
}

// executeIterative drives both logical combinators: expected is the value
// children should produce (true for AND/OR, false for NOT) and requireAll
// selects all-vs-any. Short-circuits on the first decisive result.
func executeIterative[T any](items []T, expected, requireAll bool, eval func(*T) bool) bool {
	for i := range items {
		if eval(&items[i]) == (expected != requireAll) {
			return !requireAll
		}
	}
	return requireAll
}

func executeList(ec *EvalContext, scope, this, from Scope, children []ConditionNode, expected, requireAll bool) bool {
	return executeIterative(children, expected, requireAll, func(n *ConditionNode) bool {
		return n.Execute(ec, scope, this, from)
	})
}

// Manager owns the locked condition registry and the root condition used
// to parse free-standing scripts.
type Manager struct {
	log        *slog.Logger
	defs       *defs.Manager
	conditions map[string]*Condition
	root       *Condition
	locked     bool
}

// NewManager builds and locks the condition registry over locked
// definitions.
func NewManager(definitions *defs.Manager, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	if !definitions.Locked() {
		return nil, errs.Lifecycle("script", "cannot set up conditions before definitions are locked")
	}
	m := &Manager{
		log:        log,
		defs:       definitions,
		conditions: make(map[string]*Condition),
	}
	if err := m.registerBuiltins(); err != nil {
		return nil, err
	}
	m.root = &Condition{
		name:  "root",
		parse: listParse(0, AllScopes),
		exec:  listExec(true, true, keepCurrentScope),
	}
	m.locked = true
	return m, nil
}

func (m *Manager) add(name string, parse parseFunc, exec execFunc) error {
	if m.locked {
		return errs.Lifecycle("script", "cannot add conditions after the registry is locked")
	}
	if name == "" {
		return errs.New("script", errs.CodeInvalid, errs.WithMessage("empty condition identifier"))
	}
	if _, exists := m.conditions[name]; exists {
		return errs.Identifier("script", "duplicate condition", name)
	}
	m.conditions[name] = &Condition{name: name, parse: parse, exec: exec}
	return nil
}

// lookup resolves a condition name, falling back to the generic
// named-entity conditions for country tags and province identifiers.
func (m *Manager) lookup(name string) *Condition {
	if c, ok := m.conditions[name]; ok {
		return c
	}
	if h, ok := m.defs.Countries.Lookup(name); ok {
		return namedCountryCondition(name, h)
	}
	if h, ok := m.defs.Provinces.Lookup(name); ok {
		return namedProvinceCondition(name, h)
	}
	return nil
}

// ParseScript parses a free-standing condition script against an initial
// scope-type triple. Unknown condition names are fatal to the whole
// script: no partial tree is ever returned.
func (m *Manager) ParseScript(node Node, initial, this, from ScopeTypes) (*ConditionNode, error) {
	arg, err := m.root.parse(m, initial, this, from, node)
	if err != nil {
		return nil, err
	}
	return &ConditionNode{condition: m.root, arg: arg}, nil
}

// ParseScriptYAML parses YAML script source via ParseScript.
func (m *Manager) ParseScriptYAML(source []byte, initial, this, from ScopeTypes) (*ConditionNode, error) {
	node, err := ParseYAML(source)
	if err != nil {
		return nil, err
	}
	return m.ParseScript(node, initial, this, from)
}

func (m *Manager) parseChildren(current, this, from ScopeTypes, node Node) ([]ConditionNode, error) {
	entries, err := node.ExpectEntries()
	if err != nil {
		return nil, err
	}
	children := make([]ConditionNode, 0, len(entries))
	for _, entry := range entries {
		condition := m.lookup(entry.Key)
		if condition == nil {
			return nil, errs.Identifier("script", "condition", entry.Key)
		}
		arg, err := condition.parse(m, current, this, from, entry.Node)
		if err != nil {
			return nil, err
		}
		children = append(children, ConditionNode{condition: condition, arg: arg})
	}
	return children, nil
}

// PARSE HELPERS

func scopeMismatch(name string, allowed, current ScopeTypes) error {
	return errs.New("script", errs.CodeScopeMismatch,
		errs.WithMessage("condition not allowed under current scope"),
		errs.WithField("condition", name),
		errs.WithField("allowed", allowed.String()),
		errs.WithField("current", current.String()))
}

// listParse parses a child condition list. changeTo selects the scope the
// children parse under: 0 keeps the current scope, ScopeTypeThis/From
// switch to the caller-supplied bindings, any concrete mask switches to
// that kind.
func listParse(changeTo, allowed ScopeTypes) parseFunc {
	return func(m *Manager, current, this, from ScopeTypes, node Node) (argument, error) {
		if !current.Shares(allowed) {
			return argument{}, scopeMismatch("condition list", allowed, current)
		}
		newScope := current
		switch changeTo {
		case 0:
		case ScopeTypeThis:
			newScope = this
		case ScopeTypeFrom:
			newScope = from
		default:
			newScope = changeTo
		}
		if newScope&AllScopes == 0 {
			return argument{}, errs.New("script", errs.CodeScopeMismatch,
				errs.WithMessage("condition list scope change produced no scope"))
		}
		children, err := m.parseChildren(newScope, this, from, node)
		if err != nil {
			return argument{}, err
		}
		return argument{kind: argChildren, children: children}, nil
	}
}

// valueParse parses a single typed value argument. When allowed carries
// the THIS/FROM bits, those keywords are matched case-insensitively
// before the regular value parse and stored as sentinels.
func valueParse(kind argKind, allowed ScopeTypes) parseFunc {
	return func(m *Manager, current, this, from ScopeTypes, node Node) (argument, error) {
		if !current.Shares(allowed) {
			return argument{}, scopeMismatch("condition value", allowed, current)
		}
		if allowed.Has(ScopeTypeThis) || allowed.Has(ScopeTypeFrom) {
			if s, err := node.ExpectScalar(); err == nil {
				if allowed.Has(ScopeTypeThis) && strings.EqualFold(s, thisKeyword) {
					return argument{kind: argThis}, nil
				}
				if allowed.Has(ScopeTypeFrom) && strings.EqualFold(s, fromKeyword) {
					return argument{kind: argFrom}, nil
				}
			}
		}
		switch kind {
		case argBool:
			v, err := node.ExpectBool()
			if err != nil {
				return argument{}, err
			}
			return argument{kind: argBool, boolVal: v}, nil
		case argInt:
			v, err := node.ExpectInt()
			if err != nil {
				return argument{}, err
			}
			return argument{kind: argInt, intVal: v}, nil
		case argString:
			v, err := node.ExpectScalar()
			if err != nil {
				return argument{}, err
			}
			return argument{kind: argString, strVal: v}, nil
		case argDecimal:
			v, err := node.ExpectDecimal()
			if err != nil {
				return argument{}, err
			}
			return argument{kind: argDecimal, decVal: v}, nil
		case argCountry:
			return m.parseHandle(node, argCountry, "country", m.defs.Countries.Lookup)
		case argProvince:
			return m.parseHandle(node, argProvince, "province", m.defs.Provinces.Lookup)
		case argGood:
			return m.parseHandle(node, argGood, "good", m.defs.Goods.Lookup)
		case argContinent:
			return m.parseHandle(node, argContinent, "continent", m.defs.Continents.Lookup)
		}
		return argument{}, errs.New("script", errs.CodeScript,
			errs.WithMessage("condition has no value parser"))
	}
}

func (m *Manager) parseHandle(node Node, kind argKind, what string, lookup func(string) (defs.Handle, bool)) (argument, error) {
	id, err := node.ExpectScalar()
	if err != nil {
		return argument{}, err
	}
	h, ok := lookup(id)
	if !ok {
		return argument{}, errs.Identifier("script", what, id)
	}
	return argument{kind: kind, handle: h}, nil
}

// EXECUTE HELPERS

type changeScopeFunc func(ec *EvalContext, current, this, from Scope, arg *argument) Scope

func keepCurrentScope(_ *EvalContext, current, _, _ Scope, _ *argument) Scope { return current }

// listExec evaluates a child list under one (possibly changed) scope.
func listExec(expected, requireAll bool, change changeScopeFunc) execFunc {
	return func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
		if arg.kind != argChildren {
			ec.Log.Error("condition node missing child list argument")
			return false
		}
		newScope := change(ec, current, this, from, arg)
		if newScope.IsNone() {
			ec.Log.Error("condition list scope change produced no scope")
			return false
		}
		return executeList(ec, newScope, this, from, arg.children, expected, requireAll)
	}
}

// multiListExec evaluates a child list once per computed scope, requiring
// all children true for each scope, then folds the per-scope results.
func multiListExec(expected, requireAll bool, scopes func(ec *EvalContext, current, this, from Scope, arg *argument) []Scope) execFunc {
	return func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
		if arg.kind != argChildren {
			ec.Log.Error("condition node missing child list argument")
			return false
		}
		return executeIterative(scopes(ec, current, this, from, arg), expected, requireAll, func(s *Scope) bool {
			return executeList(ec, *s, this, from, arg.children, true, true)
		})
	}
}

// countryValueExec runs a leaf evaluator against a country scope.
func countryValueExec(eval func(ec *EvalContext, c *sim.CountryInstance, arg *argument) bool) execFunc {
	return func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
		c, ok := ec.country(current)
		if !ok {
			return false
		}
		return eval(ec, c, arg)
	}
}

// provinceValueExec runs a leaf evaluator against a province scope.
func provinceValueExec(eval func(ec *EvalContext, p *sim.ProvinceInstance, arg *argument) bool) execFunc {
	return func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
		p, ok := ec.province(current)
		if !ok {
			return false
		}
		return eval(ec, p, arg)
	}
}

// resolveCountryArg resolves a country-valued argument: either a parsed
// definition handle or the THIS/FROM sentinel cast to a country scope.
func resolveCountryArg(ec *EvalContext, arg *argument, this, from Scope) (*sim.CountryInstance, bool) {
	switch arg.kind {
	case argCountry:
		return ec.Instance.Countries().Instance(arg.handle), true
	case argThis:
		return ec.country(this)
	case argFrom:
		return ec.country(from)
	}
	ec.Log.Error("condition node missing country argument")
	return nil, false
}

// BUILTIN CONDITIONS

func (m *Manager) registerBuiltins() error {
	type entry struct {
		name  string
		parse parseFunc
		exec  execFunc
	}

	thisScope := func(_ *EvalContext, _, this, _ Scope, _ *argument) Scope { return this }
	fromScope := func(_ *EvalContext, _, _, from Scope, _ *argument) Scope { return from }

	coreScopes := func(ec *EvalContext, current, _, _ Scope, _ *argument) []Scope {
		c, ok := ec.country(current)
		if !ok {
			return nil
		}
		return provinceScopes(ec, c.CoreProvinces())
	}
	ownedScopes := func(ec *EvalContext, current, _, _ Scope, _ *argument) []Scope {
		c, ok := ec.country(current)
		if !ok {
			return nil
		}
		return provinceScopes(ec, c.OwnedProvinces())
	}
	greatPowerScopes := func(ec *EvalContext, _, _, _ Scope, _ *argument) []Scope {
		handles := ec.Instance.Countries().GreatPowers()
		scopes := make([]Scope, 0, len(handles))
		for _, h := range handles {
			scopes = append(scopes, CountryScope(ec.Instance.Countries().Instance(h)))
		}
		return scopes
	}
	neighbourScopes := func(ec *EvalContext, current, _, _ Scope, _ *argument) []Scope {
		if _, ok := ec.country(current); !ok {
			return nil
		}
		// Province adjacency is not part of the loaded map data, so the
		// neighbour vector is always empty.
		return nil
	}
	popScopes := func(ec *EvalContext, current, _, _ Scope, _ *argument) []Scope {
		switch current.Kind() {
		case ScopeProvince:
			p, _ := current.Province()
			return popScopesOf(p)
		case ScopeCountry:
			c, _ := current.Country()
			var scopes []Scope
			for h := range c.OwnedProvinces() {
				scopes = append(scopes, popScopesOf(ec.Instance.Map().Province(h))...)
			}
			return scopes
		default:
			ec.Log.Error("condition scope mismatch", "expected", "country|province", "got", current.Kind().String())
			return nil
		}
	}

	entries := []entry{
		// Special scopes.
		{thisKeyword, listParse(ScopeTypeThis, AllScopes), listExec(true, true, thisScope)},
		{fromKeyword, listParse(ScopeTypeFrom, AllScopes), listExec(true, true, fromScope)},

		// Logical combinators.
		{"AND", listParse(0, AllScopes), listExec(true, true, keepCurrentScope)},
		{"OR", listParse(0, AllScopes), listExec(true, false, keepCurrentScope)},
		{"NOT", listParse(0, AllScopes), listExec(false, true, keepCurrentScope)},

		// Multi-scope country combinators.
		{"all_core", listParse(ScopeTypeProvince, ScopeTypeCountry), multiListExec(true, true, coreScopes)},
		{"any_core", listParse(ScopeTypeProvince, ScopeTypeCountry), multiListExec(true, false, coreScopes)},
		{"any_owned_province", listParse(ScopeTypeProvince, ScopeTypeCountry), multiListExec(true, false, ownedScopes)},
		{"any_greater_power", listParse(ScopeTypeCountry, AllScopes), multiListExec(true, false, greatPowerScopes)},
		{"any_neighbor_country", listParse(ScopeTypeCountry, ScopeTypeCountry), multiListExec(true, false, neighbourScopes)},
		{"any_pop", listParse(ScopeTypePop, ScopeTypeCountry | ScopeTypeProvince), multiListExec(true, false, popScopes)},

		// Scope changers.
		{"capital_scope", listParse(ScopeTypeProvince, ScopeTypeCountry), listExec(true, true,
			func(ec *EvalContext, current, _, _ Scope, _ *argument) Scope {
				c, ok := ec.country(current)
				if !ok {
					return NoScope()
				}
				return ProvinceScope(ec.Instance.Map().Province(c.Capital()))
			})},
		{"owner", listParse(ScopeTypeCountry, ScopeTypeProvince), listExec(true, true,
			func(ec *EvalContext, current, _, _ Scope, _ *argument) Scope {
				p, ok := ec.province(current)
				if !ok {
					return NoScope()
				}
				return CountryScope(ec.Instance.Countries().Instance(p.Owner()))
			})},
		{"controller", listParse(ScopeTypeCountry, ScopeTypeProvince), listExec(true, true,
			func(ec *EvalContext, current, _, _ Scope, _ *argument) Scope {
				p, ok := ec.province(current)
				if !ok {
					return NoScope()
				}
				return CountryScope(ec.Instance.Countries().Instance(p.Controller()))
			})},
		{"location", listParse(ScopeTypeProvince, ScopeTypePop), listExec(true, true,
			func(ec *EvalContext, current, _, _ Scope, _ *argument) Scope {
				_, home, ok := ec.pop(current)
				if !ok {
					return NoScope()
				}
				return ProvinceScope(home)
			})},
		{"state_scope", listParse(ScopeTypeState, ScopeTypeProvince), listExec(true, true,
			func(ec *EvalContext, current, _, _ Scope, _ *argument) Scope {
				p, ok := ec.province(current)
				if !ok {
					return NoScope()
				}
				return StateScope(ec.Instance.Map().StateOf(p.Handle()))
			})},

		// Global conditions.
		{"year", valueParse(argInt, AllScopes), func(ec *EvalContext, _, _, _ Scope, arg *argument) bool {
			return int64(ec.Instance.Today().Year()) >= arg.intVal
		}},
		// Script month values are zero-based while dates count from one,
		// so strict greater-than is the correct comparison.
		{"month", valueParse(argInt, AllScopes), func(ec *EvalContext, _, _, _ Scope, arg *argument) bool {
			return int64(ec.Instance.Today().Month()) > arg.intVal
		}},
		{"always", valueParse(argBool, AllScopes), func(_ *EvalContext, _, _, _ Scope, arg *argument) bool {
			return arg.boolVal
		}},
		{"has_global_flag", valueParse(argString, AllScopes), func(ec *EvalContext, _, _, _ Scope, arg *argument) bool {
			return ec.Instance.HasGlobalFlag(arg.strVal)
		}},
		{"exists", valueParse(argCountry, AllScopes), func(ec *EvalContext, _, _, _ Scope, arg *argument) bool {
			c := ec.Instance.Countries().Instance(arg.handle)
			return c != nil && c.Exists()
		}},

		// Country conditions.
		{"tag", valueParse(argCountry, ScopeTypeCountry | ScopeTypeThis | ScopeTypeFrom),
			func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
				c, ok := ec.country(current)
				if !ok {
					return false
				}
				other, ok := resolveCountryArg(ec, arg, this, from)
				return ok && other != nil && c.Handle() == other.Handle()
			}},
		{"civilized", valueParse(argBool, ScopeTypeCountry), countryValueExec(
			func(_ *EvalContext, c *sim.CountryInstance, arg *argument) bool {
				return c.IsCivilised() == arg.boolVal
			})},
		{"is_greater_power", valueParse(argBool, ScopeTypeCountry), countryValueExec(
			func(_ *EvalContext, c *sim.CountryInstance, arg *argument) bool {
				return c.IsGreatPower() == arg.boolVal
			})},
		{"prestige", valueParse(argDecimal, ScopeTypeCountry), countryValueExec(
			func(_ *EvalContext, c *sim.CountryInstance, arg *argument) bool {
				return c.Prestige().GreaterThanOrEqual(arg.decVal)
			})},
		{"literacy", valueParse(argDecimal, ScopeTypeCountry), countryValueExec(
			func(_ *EvalContext, c *sim.CountryInstance, arg *argument) bool {
				return c.Literacy().GreaterThanOrEqual(arg.decVal)
			})},
		{"owns", valueParse(argProvince, ScopeTypeCountry), countryValueExec(
			func(_ *EvalContext, c *sim.CountryInstance, arg *argument) bool {
				return c.Owns(arg.handle)
			})},

		// is_core works from both sides: a province scope takes a country
		// argument, a country scope takes a province argument.
		{"is_core", m.isCoreParse(), func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
			switch current.Kind() {
			case ScopeProvince:
				p, _ := current.Province()
				c, ok := resolveCountryArg(ec, arg, this, from)
				return ok && c != nil && p.HasCore(c.Handle())
			case ScopeCountry:
				c, _ := current.Country()
				if arg.kind != argProvince {
					ec.Log.Error("condition node missing province argument")
					return false
				}
				province := ec.Instance.Map().Province(arg.handle)
				return province != nil && province.HasCore(c.Handle())
			default:
				ec.Log.Error("condition scope mismatch", "expected", "country|province", "got", current.Kind().String())
				return false
			}
		}},

		// Province conditions.
		{"owned_by", valueParse(argCountry, ScopeTypeProvince | ScopeTypeThis | ScopeTypeFrom),
			func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
				p, ok := ec.province(current)
				if !ok {
					return false
				}
				c, ok := resolveCountryArg(ec, arg, this, from)
				return ok && c != nil && p.Owner() == c.Handle()
			}},
		{"controlled_by", valueParse(argCountry, ScopeTypeProvince | ScopeTypeThis | ScopeTypeFrom),
			func(ec *EvalContext, current, this, from Scope, arg *argument) bool {
				p, ok := ec.province(current)
				if !ok {
					return false
				}
				c, ok := resolveCountryArg(ec, arg, this, from)
				return ok && c != nil && p.Controller() == c.Handle()
			}},
		{"continent", valueParse(argContinent, ScopeTypeProvince), provinceValueExec(
			func(_ *EvalContext, p *sim.ProvinceInstance, arg *argument) bool {
				return p.Definition().Continent == arg.handle
			})},
		{"trade_goods", valueParse(argGood, ScopeTypeProvince), provinceValueExec(
			func(ec *EvalContext, p *sim.ProvinceInstance, arg *argument) bool {
				production, ok := ec.Instance.Definitions().ProductionTypes.Get(p.RGOProductionType())
				return ok && production.OutputGood == arg.handle
			})},
		{"population", valueParse(argInt, ScopeTypeProvince), provinceValueExec(
			func(_ *EvalContext, p *sim.ProvinceInstance, arg *argument) bool {
				return p.TotalPopulation() >= arg.intVal
			})},

		// trade_goods_in_state checks every province grouped into the same
		// state. A province outside any state (unowned) matches nothing.
		{"trade_goods_in_state", valueParse(argGood, ScopeTypeProvince | ScopeTypeState),
			func(ec *EvalContext, current, _, _ Scope, arg *argument) bool {
				var state *sim.StateInstance
				switch current.Kind() {
				case ScopeProvince:
					p, _ := current.Province()
					state = ec.Instance.Map().StateOf(p.Handle())
				case ScopeState:
					state, _ = ec.state(current)
				default:
					ec.Log.Error("condition scope mismatch", "expected", "province|state", "got", current.Kind().String())
					return false
				}
				if state == nil {
					return false
				}
				for _, h := range state.Provinces() {
					p := ec.Instance.Map().Province(h)
					if p == nil {
						continue
					}
					production, ok := ec.Instance.Definitions().ProductionTypes.Get(p.RGOProductionType())
					if ok && production.OutputGood == arg.handle {
						return true
					}
				}
				return false
			}},
	}

	for _, e := range entries {
		if err := m.add(e.name, e.parse, e.exec); err != nil {
			return err
		}
	}
	return nil
}

// isCoreParse picks the argument type from the current scope: country
// argument under a province scope, province argument under a country
// scope.
func (m *Manager) isCoreParse() parseFunc {
	provinceSide := valueParse(argCountry, ScopeTypeProvince|ScopeTypeThis|ScopeTypeFrom)
	countrySide := valueParse(argProvince, ScopeTypeCountry)
	return func(m *Manager, current, this, from ScopeTypes, node Node) (argument, error) {
		if current.Has(ScopeTypeProvince) {
			return provinceSide(m, current, this, from, node)
		}
		if current.Has(ScopeTypeCountry) {
			return countrySide(m, current, this, from, node)
		}
		return argument{}, scopeMismatch("is_core", ScopeTypeCountry|ScopeTypeProvince, current)
	}
}

func provinceScopes(ec *EvalContext, handles map[defs.Handle]struct{}) []Scope {
	scopes := make([]Scope, 0, len(handles))
	for h := range handles {
		if p := ec.Instance.Map().Province(h); p != nil {
			scopes = append(scopes, ProvinceScope(p))
		}
	}
	return scopes
}

func popScopesOf(p *sim.ProvinceInstance) []Scope {
	if p == nil {
		return nil
	}
	pops := p.Pops()
	scopes := make([]Scope, 0, len(pops))
	for i := range pops {
		scopes = append(scopes, PopScope(&pops[i], p))
	}
	return scopes
}

// namedCountryCondition is the generic per-tag scope condition: a script
// key naming a country evaluates its children against that country.
func namedCountryCondition(name string, h defs.Handle) *Condition {
	return &Condition{
		name:  name,
		parse: listParseWithHandle(ScopeTypeCountry, AllScopes, h),
		exec: listExec(true, true, func(ec *EvalContext, _, _, _ Scope, arg *argument) Scope {
			return CountryScope(ec.Instance.Countries().Instance(arg.handle))
		}),
	}
}

// namedProvinceCondition mirrors namedCountryCondition for province
// identifiers.
func namedProvinceCondition(name string, h defs.Handle) *Condition {
	return &Condition{
		name:  name,
		parse: listParseWithHandle(ScopeTypeProvince, AllScopes, h),
		exec: listExec(true, true, func(ec *EvalContext, _, _, _ Scope, arg *argument) Scope {
			return ProvinceScope(ec.Instance.Map().Province(arg.handle))
		}),
	}
}

func listParseWithHandle(changeTo, allowed ScopeTypes, h defs.Handle) parseFunc {
	inner := listParse(changeTo, allowed)
	return func(m *Manager, current, this, from ScopeTypes, node Node) (argument, error) {
		arg, err := inner(m, current, this, from, node)
		if err != nil {
			return argument{}, err
		}
		arg.handle = h
		return arg, nil
	}
}
