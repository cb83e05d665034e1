package market

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// Price bounds and adjustment steps relative to a good's base price.
var (
	priceFloorRatio   = decimal.NewFromInt(1).Div(decimal.NewFromInt(5))
	priceCeilingRatio = decimal.NewFromInt(5)
	linearStepRatio   = decimal.New(1, -2)   // 1% of base price per day
	exponentialFactor = decimal.New(101, -2) // 1% of current price per day
)

// PricePoint is one monthly price history sample.
type PricePoint struct {
	Date  chrono.Date
	Price decimal.Decimal
}

// Good is the live market state for one tradeable good definition: the
// queued orders for the current tick, the current price and the monthly
// price history. The order queues are the only structures written by
// multiple tick workers at once, so appends are mutex guarded; everything
// else is owned by the clearing pass.
type Good struct {
	def    *defs.GoodDefinition
	handle defs.Handle

	mu         sync.Mutex
	buyOrders  []BuyUpToOrder
	sellOrders []SellOrder

	price       decimal.Decimal
	exponential bool

	demandYesterday decimal.Decimal
	supplyYesterday decimal.Decimal

	history []PricePoint
}

func newGood(def *defs.GoodDefinition, handle defs.Handle, exponential bool) Good {
	return Good{
		def:             def,
		handle:          handle,
		buyOrders:       nil,
		sellOrders:      nil,
		price:           def.BasePrice,
		exponential:     exponential,
		demandYesterday: decimal.Zero,
		supplyYesterday: decimal.Zero,
		history:         nil,
	}
}

// Definition returns the good's immutable definition.
func (g *Good) Definition() *defs.GoodDefinition { return g.def }

// Handle returns the good's definition handle.
func (g *Good) Handle() defs.Handle { return g.handle }

// Price returns the current market price.
func (g *Good) Price() decimal.Decimal { return g.price }

// DemandYesterday returns total buy interest from the last cleared tick.
func (g *Good) DemandYesterday() decimal.Decimal { return g.demandYesterday }

// SupplyYesterday returns total sell volume offered in the last cleared tick.
func (g *Good) SupplyYesterday() decimal.Decimal { return g.supplyYesterday }

// History returns the monthly price history, oldest first.
func (g *Good) History() []PricePoint { return g.history }

func (g *Good) addBuyOrder(order BuyUpToOrder) {
	g.mu.Lock()
	g.buyOrders = append(g.buyOrders, order)
	g.mu.Unlock()
}

func (g *Good) addSellOrder(order SellOrder) {
	g.mu.Lock()
	g.sellOrders = append(g.sellOrders, order)
	g.mu.Unlock()
}

// setPriceModel switches between linear and exponential price adjustment.
// Called via Market.OnPriceModelChanged, never directly by rule setters.
func (g *Good) setPriceModel(exponential bool) { g.exponential = exponential }

// executeOrders drains the order queues, reprices the good from the
// demand/supply imbalance and settles every order's callback. Runs on at
// most one worker per good per tick.
func (g *Good) executeOrders() {
	g.mu.Lock()
	buys := g.buyOrders
	sells := g.sellOrders
	g.buyOrders = nil
	g.sellOrders = nil
	g.mu.Unlock()

	totalDemand := decimal.Zero
	for i := range buys {
		totalDemand = totalDemand.Add(buys[i].MaxQuantity)
	}
	totalSupply := decimal.Zero
	for i := range sells {
		totalSupply = totalSupply.Add(sells[i].Quantity)
	}

	g.price = g.adjustPrice(totalDemand, totalSupply)
	g.demandYesterday = totalDemand
	g.supplyYesterday = totalSupply

	traded := decimal.Min(totalDemand, totalSupply)
	if traded.IsPositive() {
		g.settle(buys, sells, traded, totalDemand, totalSupply)
		return
	}
	for i := range buys {
		if buys[i].AfterTrade != nil {
			buys[i].AfterTrade(NoPurchaseResult())
		}
	}
	for i := range sells {
		if sells[i].AfterTrade != nil {
			sells[i].AfterTrade(NoSalesResult())
		}
	}
}

// adjustPrice applies the configured price-adjustment rule to the aggregate
// imbalance and clamps the result to the good's price band.
func (g *Good) adjustPrice(demand, supply decimal.Decimal) decimal.Decimal {
	imbalance := demand.Cmp(supply)
	price := g.price

	switch {
	case imbalance > 0:
		if g.exponential {
			price = price.Mul(exponentialFactor)
		} else {
			price = price.Add(g.def.BasePrice.Mul(linearStepRatio))
		}
	case imbalance < 0:
		if g.exponential {
			price = price.Div(exponentialFactor)
		} else {
			price = price.Sub(g.def.BasePrice.Mul(linearStepRatio))
		}
	}

	floor := g.def.BasePrice.Mul(priceFloorRatio)
	ceiling := g.def.BasePrice.Mul(priceCeilingRatio)
	if price.LessThan(floor) {
		return floor
	}
	if price.GreaterThan(ceiling) {
		return ceiling
	}
	return price
}

// settle fills both sides pro-rata at the post-adjustment price. Buyers are
// additionally limited by the money they committed.
func (g *Good) settle(buys []BuyUpToOrder, sells []SellOrder, traded, totalDemand, totalSupply decimal.Decimal) {
	buyFill := traded.Div(totalDemand)
	for i := range buys {
		order := &buys[i]
		bought := order.MaxQuantity.Mul(buyFill)
		spent := bought.Mul(g.price)
		if spent.GreaterThan(order.MoneyToSpend) {
			spent = order.MoneyToSpend
			bought = spent.Div(g.price)
		}
		if order.AfterTrade != nil {
			order.AfterTrade(BuyResult{Quantity: bought, Spent: spent})
		}
	}

	sellFill := traded.Div(totalSupply)
	for i := range sells {
		order := &sells[i]
		sold := order.Quantity.Mul(sellFill)
		if order.AfterTrade != nil {
			order.AfterTrade(SellResult{Quantity: sold, Earned: sold.Mul(g.price)})
		}
	}
}

// recordPriceHistory appends the post-clearing price for the given date.
// Callers gate this to month starts; the good does not check.
func (g *Good) recordPriceHistory(today chrono.Date) {
	g.history = append(g.history, PricePoint{Date: today, Price: g.price})
}
