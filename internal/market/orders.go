// Package market implements the per-good order book and the once-per-tick
// batch clearing of buy and sell orders. Orders accumulate on good queues
// during a tick and are drained exactly once at the tick boundary; price
// responds to the aggregate imbalance between demand and supply.
package market

import (
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
)

// BuyResult reports the outcome of a buy-up-to order after clearing.
type BuyResult struct {
	Quantity decimal.Decimal // quantity actually bought
	Spent    decimal.Decimal // money spent on the purchase
}

// NoPurchaseResult is the result delivered for rejected or unfilled buys.
func NoPurchaseResult() BuyResult {
	return BuyResult{Quantity: decimal.Zero, Spent: decimal.Zero}
}

// SellResult reports the outcome of a market-sell order after clearing.
type SellResult struct {
	Quantity decimal.Decimal // quantity actually sold
	Earned   decimal.Decimal // money received for the sale
}

// NoSalesResult is the result delivered for rejected or unfilled sells.
func NoSalesResult() SellResult {
	return SellResult{Quantity: decimal.Zero, Earned: decimal.Zero}
}

// BuyUpToOrder asks the market for up to MaxQuantity of a good, limited by
// MoneyToSpend. AfterTrade is required and is invoked exactly once: either
// synchronously on rejection or during the next order execution.
type BuyUpToOrder struct {
	Good         defs.Handle
	MaxQuantity  decimal.Decimal
	MoneyToSpend decimal.Decimal
	AfterTrade   func(BuyResult)
}

// SellOrder offers a quantity of a good at whatever price clearing produces.
// AfterTrade follows the same exactly-once convention as BuyUpToOrder.
type SellOrder struct {
	Good       defs.Handle
	Quantity   decimal.Decimal
	AfterTrade func(SellResult)
}
