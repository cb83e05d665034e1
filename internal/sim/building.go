package sim

import (
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// ExpansionState is the construction phase of one province building.
type ExpansionState int

const (
	ExpansionCannotExpand ExpansionState = iota
	ExpansionCanExpand
	ExpansionPreparing
	ExpansionExpanding
)

func (s ExpansionState) String() string {
	switch s {
	case ExpansionCannotExpand:
		return "cannot_expand"
	case ExpansionCanExpand:
		return "can_expand"
	case ExpansionPreparing:
		return "preparing"
	case ExpansionExpanding:
		return "expanding"
	default:
		return "unknown"
	}
}

// Building is the per-province instance of a building type: its current
// level and the expansion state machine driving construction. Expansion
// runs CanExpand -> Preparing -> Expanding -> CannotExpand, with the
// terminal state re-evaluated on the next gamestate update.
type Building struct {
	typ   *defs.BuildingType
	level int

	expansionState ExpansionState
	start          chrono.Date
	end            chrono.Date
	progress       decimal.Decimal
}

func newBuilding(typ *defs.BuildingType) Building {
	return Building{typ: typ, progress: decimal.Zero}
}

// Type returns the building's immutable type definition.
func (b *Building) Type() *defs.BuildingType { return b.typ }

// Level returns the current construction level.
func (b *Building) Level() int { return b.level }

// State returns the current expansion state.
func (b *Building) State() ExpansionState { return b.expansionState }

// Progress returns the expansion completion fraction in [0, 1].
func (b *Building) Progress() decimal.Decimal { return b.progress }

func (b *Building) canExpand() bool {
	return b.level < b.typ.MaxLevel
}

// Expand requests one level of expansion. It only succeeds from the
// CanExpand state; the actual work happens over subsequent ticks.
func (b *Building) Expand() bool {
	if b.expansionState != ExpansionCanExpand {
		return false
	}
	b.expansionState = ExpansionPreparing
	b.progress = decimal.Zero
	return true
}

// UpdateState refreshes derived expansion data for the update phase:
// Preparing stamps the construction window, Expanding recomputes the
// progress fraction, and settled states re-evaluate expandability.
func (b *Building) UpdateState(today chrono.Date) {
	switch b.expansionState {
	case ExpansionPreparing:
		b.start = today
		b.end = today.Add(b.typ.BuildTime)
	case ExpansionExpanding:
		total := b.end.Sub(b.start)
		if total > 0 {
			elapsed := today.Sub(b.start)
			b.progress = decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(total)))
		}
	default:
		if b.canExpand() {
			b.expansionState = ExpansionCanExpand
		} else {
			b.expansionState = ExpansionCannotExpand
		}
	}
}

// Tick advances the expansion state machine by one day: Preparing starts
// Expanding, and an Expanding build whose end date has arrived completes,
// raising the level.
func (b *Building) Tick(today chrono.Date) {
	if b.expansionState == ExpansionPreparing {
		b.expansionState = ExpansionExpanding
	}
	if b.expansionState == ExpansionExpanding {
		if !b.end.After(today) {
			b.level++
			b.expansionState = ExpansionCannotExpand
		}
	}
}
