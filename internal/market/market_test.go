package market

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/gamerules"
	"github.com/ironcliff/hegemon/lib/chrono"
)

func mustDate(t *testing.T, s string) chrono.Date {
	t.Helper()
	d, err := chrono.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func testManager(t *testing.T) *defs.Manager {
	t.Helper()
	manager := defs.NewManager()
	goods := []defs.GoodDefinition{
		{ID: "grain", Category: "agricultural", BasePrice: decimal.NewFromInt(2), Tradeable: true},
		{ID: "iron", Category: "raw", BasePrice: decimal.NewFromInt(4), Tradeable: true},
		{ID: "precious_metal", Category: "raw", BasePrice: decimal.NewFromInt(8), IsMoney: true},
		{ID: "ration", Category: "consumer", BasePrice: decimal.NewFromInt(1), Tradeable: false},
	}
	for _, g := range goods {
		if _, err := manager.Goods.Register(g); err != nil {
			t.Fatal(err)
		}
	}
	manager.DefineValues.GoldToWorkerPayRate = decimal.NewFromFloat(0.5)
	manager.Lock()
	return manager
}

func newTestMarket(t *testing.T, rules *gamerules.Rules) (*Market, *defs.Manager) {
	t.Helper()
	manager := testManager(t)
	if rules == nil {
		rules = gamerules.New(false, gamerules.DemandNone)
	}
	return New(manager, rules, nil, nil), manager
}

func handleOf(t *testing.T, manager *defs.Manager, id string) defs.Handle {
	t.Helper()
	h, ok := manager.Goods.Lookup(id)
	if !ok {
		t.Fatalf("missing good %s", id)
	}
	return h
}

func TestSellOrderZeroQuantityRejectedSynchronously(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	grain := handleOf(t, manager, "grain")

	called := false
	m.PlaceMarketSellOrder(SellOrder{
		Good:     grain,
		Quantity: decimal.Zero,
		AfterTrade: func(r SellResult) {
			called = true
			if !r.Quantity.IsZero() || !r.Earned.IsZero() {
				t.Errorf("expected no-sale result, got %+v", r)
			}
		},
	})

	if !called {
		t.Fatal("completion callback not invoked synchronously")
	}
	if got := len(m.Good(grain).sellOrders); got != 0 {
		t.Fatalf("rejected order reached the queue: %d entries", got)
	}
}

func TestBuyOrderNonPositiveRejected(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	iron := handleOf(t, manager, "iron")

	called := false
	m.PlaceBuyUpToOrder(BuyUpToOrder{
		Good:         iron,
		MaxQuantity:  decimal.NewFromInt(-3),
		MoneyToSpend: decimal.NewFromInt(10),
		AfterTrade:   func(r BuyResult) { called = true },
	})
	if !called {
		t.Fatal("completion callback not invoked synchronously")
	}
	if got := len(m.Good(iron).buyOrders); got != 0 {
		t.Fatalf("rejected order reached the queue: %d entries", got)
	}
}

func TestUntradeableGoodOrdersRejected(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	ration := handleOf(t, manager, "ration")

	buyCalled := false
	m.PlaceBuyUpToOrder(BuyUpToOrder{
		Good:         ration,
		MaxQuantity:  decimal.NewFromInt(5),
		MoneyToSpend: decimal.NewFromInt(5),
		AfterTrade: func(r BuyResult) {
			buyCalled = true
			if !r.Quantity.IsZero() || !r.Spent.IsZero() {
				t.Errorf("expected no-purchase result, got %+v", r)
			}
		},
	})
	sellCalled := false
	m.PlaceMarketSellOrder(SellOrder{
		Good:     ration,
		Quantity: decimal.NewFromInt(5),
		AfterTrade: func(r SellResult) {
			sellCalled = true
			if !r.Quantity.IsZero() || !r.Earned.IsZero() {
				t.Errorf("expected no-sale result, got %+v", r)
			}
		},
	})

	if !buyCalled || !sellCalled {
		t.Fatal("completion callbacks not invoked synchronously")
	}
	good := m.Good(ration)
	if len(good.buyOrders) != 0 || len(good.sellOrders) != 0 {
		t.Fatal("untradeable orders reached the book")
	}
	m.ExecuteOrders()
	if !m.PriceOf(ration).Equal(decimal.NewFromInt(1)) {
		t.Fatalf("untradeable price moved: %s", m.PriceOf(ration))
	}
}

func TestMoneyGoodConvertsDirectly(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	gold := handleOf(t, manager, "precious_metal")

	var result SellResult
	m.PlaceMarketSellOrder(SellOrder{
		Good:       gold,
		Quantity:   decimal.NewFromInt(10),
		AfterTrade: func(r SellResult) { result = r },
	})

	// 10 * 0.5 pay rate * 8 base price
	if !result.Earned.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected conversion: earned %s", result.Earned)
	}
	if !result.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected quantity: %s", result.Quantity)
	}
	if got := len(m.Good(gold).sellOrders); got != 0 {
		t.Fatal("money sale must not touch the order book")
	}
}

func TestPriceRisesOnExcessDemand(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	grain := handleOf(t, manager, "grain")
	before := m.PriceOf(grain)

	m.PlaceBuyUpToOrder(BuyUpToOrder{
		Good:         grain,
		MaxQuantity:  decimal.NewFromInt(100),
		MoneyToSpend: decimal.NewFromInt(1000),
		AfterTrade:   func(BuyResult) {},
	})
	m.ExecuteOrders()

	after := m.PriceOf(grain)
	if !after.GreaterThan(before) {
		t.Fatalf("price did not rise: %s -> %s", before, after)
	}
	// 1% of base price 2 = 0.02
	if !after.Sub(before).Equal(decimal.NewFromFloat(0.02)) {
		t.Fatalf("unexpected linear step: %s", after.Sub(before))
	}
}

func TestPriceFallsOnExcessSupplyAndClamps(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	grain := handleOf(t, manager, "grain")
	floor := decimal.NewFromInt(2).Div(decimal.NewFromInt(5))

	for i := 0; i < 200; i++ {
		m.PlaceMarketSellOrder(SellOrder{
			Good:       grain,
			Quantity:   decimal.NewFromInt(5),
			AfterTrade: func(SellResult) {},
		})
		m.ExecuteOrders()
	}

	if !m.PriceOf(grain).Equal(floor) {
		t.Fatalf("price not clamped at floor: %s vs %s", m.PriceOf(grain), floor)
	}
}

func TestClearingFillsProRata(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	iron := handleOf(t, manager, "iron")

	var sellA, sellB SellResult
	var buy BuyResult
	m.PlaceMarketSellOrder(SellOrder{Good: iron, Quantity: decimal.NewFromInt(30), AfterTrade: func(r SellResult) { sellA = r }})
	m.PlaceMarketSellOrder(SellOrder{Good: iron, Quantity: decimal.NewFromInt(10), AfterTrade: func(r SellResult) { sellB = r }})
	m.PlaceBuyUpToOrder(BuyUpToOrder{
		Good:         iron,
		MaxQuantity:  decimal.NewFromInt(20),
		MoneyToSpend: decimal.NewFromInt(1000),
		AfterTrade:   func(r BuyResult) { buy = r },
	})
	m.ExecuteOrders()

	// Demand 20, supply 40: sellers fill half their offers.
	if !sellA.Quantity.Equal(decimal.NewFromInt(15)) || !sellB.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected pro-rata fills: %s / %s", sellA.Quantity, sellB.Quantity)
	}
	if !buy.Quantity.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("buyer not fully filled: %s", buy.Quantity)
	}
	price := m.PriceOf(iron)
	if !buy.Spent.Equal(buy.Quantity.Mul(price)) {
		t.Fatalf("spent mismatch: %s vs %s", buy.Spent, buy.Quantity.Mul(price))
	}
	if !sellA.Earned.Equal(sellA.Quantity.Mul(price)) {
		t.Fatalf("earnings mismatch: %s", sellA.Earned)
	}
}

func TestBuyLimitedByMoney(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	iron := handleOf(t, manager, "iron")

	var buy BuyResult
	m.PlaceMarketSellOrder(SellOrder{Good: iron, Quantity: decimal.NewFromInt(100), AfterTrade: func(SellResult) {}})
	m.PlaceBuyUpToOrder(BuyUpToOrder{
		Good:         iron,
		MaxQuantity:  decimal.NewFromInt(50),
		MoneyToSpend: decimal.NewFromInt(10),
		AfterTrade:   func(r BuyResult) { buy = r },
	})
	m.ExecuteOrders()

	if !buy.Spent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("buyer overspent: %s", buy.Spent)
	}
	if !buy.Quantity.Equal(decimal.NewFromInt(10).Div(m.PriceOf(iron))) {
		t.Fatalf("quantity not limited by money: %s", buy.Quantity)
	}
}

func TestExponentialPriceModelSwitch(t *testing.T) {
	rules := gamerules.New(false, gamerules.DemandNone)
	m, manager := newTestMarket(t, rules)
	grain := handleOf(t, manager, "grain")

	rules.SetUseExponentialPriceChanges(true)
	m.OnPriceModelChanged()

	before := m.PriceOf(grain)
	m.PlaceBuyUpToOrder(BuyUpToOrder{
		Good:         grain,
		MaxQuantity:  decimal.NewFromInt(1),
		MoneyToSpend: decimal.NewFromInt(100),
		AfterTrade:   func(BuyResult) {},
	})
	m.ExecuteOrders()

	want := before.Mul(decimal.NewFromFloat(1.01))
	if !m.PriceOf(grain).Equal(want) {
		t.Fatalf("expected exponential step to %s, got %s", want, m.PriceOf(grain))
	}
}

func TestRecordPriceHistory(t *testing.T) {
	m, manager := newTestMarket(t, nil)
	grain := handleOf(t, manager, "grain")

	m.RecordPriceHistory(mustDate(t, "1836.02.01"))
	m.RecordPriceHistory(mustDate(t, "1836.03.01"))

	history := m.Good(grain).History()
	if len(history) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(history))
	}
	if history[0].Date.Month() != 2 || history[1].Date.Month() != 3 {
		t.Fatalf("unexpected sample dates: %v", history)
	}
}
