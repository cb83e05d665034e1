package market

import (
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/gamerules"
	"github.com/ironcliff/hegemon/internal/telemetry"
	"github.com/ironcliff/hegemon/lib/chrono"
	"github.com/ironcliff/hegemon/lib/parallel"
)

// Market routes orders onto per-good books and clears every book once per
// tick. Money-denominated goods bypass the book entirely: selling currency
// converts directly to cash at the defines' gold-to-worker pay rate.
type Market struct {
	log     *slog.Logger
	defines defs.Defines
	rules   *gamerules.Rules
	metrics *telemetry.Metrics
	goods   []Good // indexed by good definition handle
}

// New builds one good instance per good definition. The definition manager
// must already be locked.
func New(manager *defs.Manager, rules *gamerules.Rules, log *slog.Logger, metrics *telemetry.Metrics) *Market {
	if log == nil {
		log = slog.Default()
	}
	definitions := manager.Goods.All()
	goods := make([]Good, len(definitions))
	for i := range definitions {
		goods[i] = newGood(&definitions[i], defs.Handle(i), rules.UseExponentialPriceChanges())
	}
	return &Market{
		log:     log,
		defines: manager.DefineValues,
		rules:   rules,
		metrics: metrics,
		goods:   goods,
	}
}

// GoodCount returns the number of good instances.
func (m *Market) GoodCount() int { return len(m.goods) }

// Good returns the live instance for a good definition handle.
func (m *Market) Good(h defs.Handle) *Good {
	if int(h) < 0 || int(h) >= len(m.goods) {
		return nil
	}
	return &m.goods[h]
}

// Goods returns the backing slice of good instances.
func (m *Market) Goods() []Good { return m.goods }

// PriceOf returns the current price for a good handle, or zero for an
// unknown handle.
func (m *Market) PriceOf(h defs.Handle) decimal.Decimal {
	good := m.Good(h)
	if good == nil {
		return decimal.Zero
	}
	return good.Price()
}

// PlaceBuyUpToOrder queues a buy order for the next clearing. Orders for
// unknown or untradeable goods and non-positive quantities are rejected
// synchronously through the order's own callback.
func (m *Market) PlaceBuyUpToOrder(order BuyUpToOrder) {
	good := m.Good(order.Good)
	if good == nil {
		err := errs.New("market", errs.CodeInvalidOrder,
			errs.WithMessage("buy order for unknown good"),
			errs.WithField("handle", strconv.Itoa(int(order.Good))))
		m.log.Error("order rejected", "error", err)
		if order.AfterTrade != nil {
			order.AfterTrade(NoPurchaseResult())
		}
		return
	}
	if !good.def.Tradeable {
		m.rejectBuy(good, order, "buy order for untradeable good")
		return
	}
	if !order.MaxQuantity.IsPositive() {
		m.rejectBuy(good, order, "buy order with non-positive max quantity")
		return
	}

	good.addBuyOrder(order)
	m.metrics.RecordOrder(good.def.ID, true)
}

func (m *Market) rejectBuy(good *Good, order BuyUpToOrder, msg string) {
	err := errs.New("market", errs.CodeInvalidOrder,
		errs.WithMessage(msg),
		errs.WithField("good", good.def.ID),
		errs.WithField("max_quantity", order.MaxQuantity.String()))
	m.log.Error("order rejected", "error", err)
	m.metrics.RecordOrder(good.def.ID, false)
	if order.AfterTrade != nil {
		order.AfterTrade(NoPurchaseResult())
	}
}

// PlaceMarketSellOrder queues a sell order for the next clearing, or
// converts directly to cash for money goods. Orders for unknown or
// untradeable goods and non-positive quantities are rejected synchronously
// through the order's own callback.
func (m *Market) PlaceMarketSellOrder(order SellOrder) {
	good := m.Good(order.Good)
	if good == nil {
		err := errs.New("market", errs.CodeInvalidOrder,
			errs.WithMessage("sell order for unknown good"),
			errs.WithField("handle", strconv.Itoa(int(order.Good))))
		m.log.Error("order rejected", "error", err)
		if order.AfterTrade != nil {
			order.AfterTrade(NoSalesResult())
		}
		return
	}
	if !order.Quantity.IsPositive() {
		m.rejectSell(good, order, "sell order with non-positive quantity")
		return
	}

	if good.def.IsMoney {
		// Currency converts at a fixed rate with no market friction.
		if order.AfterTrade != nil {
			order.AfterTrade(SellResult{
				Quantity: order.Quantity,
				Earned:   order.Quantity.Mul(m.defines.GoldToWorkerPayRate).Mul(good.def.BasePrice),
			})
		}
		m.metrics.RecordOrder(good.def.ID, true)
		return
	}
	if !good.def.Tradeable {
		m.rejectSell(good, order, "sell order for untradeable good")
		return
	}

	good.addSellOrder(order)
	m.metrics.RecordOrder(good.def.ID, true)
}

func (m *Market) rejectSell(good *Good, order SellOrder, msg string) {
	err := errs.New("market", errs.CodeInvalidOrder,
		errs.WithMessage(msg),
		errs.WithField("good", good.def.ID),
		errs.WithField("quantity", order.Quantity.String()))
	m.log.Error("order rejected", "error", err)
	m.metrics.RecordOrder(good.def.ID, false)
	if order.AfterTrade != nil {
		order.AfterTrade(NoSalesResult())
	}
}

// ExecuteOrders clears every good's order book. Goods are independent, so
// clearing runs under the parallel-for; results match sequential execution.
func (m *Market) ExecuteOrders() {
	parallel.ForEach(m.goods, func(g *Good) {
		g.executeOrders()
	})
	m.metrics.RecordClearing(len(m.goods))
}

// RecordPriceHistory appends the current price of every good to its monthly
// series. Callers invoke this on month-start ticks only.
func (m *Market) RecordPriceHistory(today chrono.Date) {
	for i := range m.goods {
		m.goods[i].recordPriceHistory(today)
	}
}

// OnPriceModelChanged pushes the current exponential-price toggle to every
// good. Must be called after flipping the rule mid-session.
func (m *Market) OnPriceModelChanged() {
	exponential := m.rules.UseExponentialPriceChanges()
	for i := range m.goods {
		m.goods[i].setPriceModel(exponential)
	}
}
