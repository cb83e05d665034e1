package sim

import (
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
)

// Pop is one population unit living in a province.
type Pop struct {
	Type     defs.Handle
	Culture  string
	Ideology defs.Handle
	Size     int64

	Literacy      decimal.Decimal
	Militancy     decimal.Decimal
	Consciousness decimal.Decimal
}

func newPop(entry defs.PopEntry, typ, ideology defs.Handle) Pop {
	return Pop{
		Type:          typ,
		Culture:       entry.Culture,
		Ideology:      ideology,
		Size:          entry.Size,
		Literacy:      entry.Literacy,
		Militancy:     decimal.Zero,
		Consciousness: decimal.Zero,
	}
}
