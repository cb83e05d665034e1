package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/gamerules"
	"github.com/ironcliff/hegemon/internal/market"
	"github.com/ironcliff/hegemon/lib/chrono"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "save.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testMarket(t *testing.T) *market.Market {
	t.Helper()
	m := defs.NewManager()
	if _, err := m.Goods.Register(defs.GoodDefinition{
		ID: "grain", Category: "agricultural", BasePrice: decimal.NewFromInt(2), Tradeable: true,
	}); err != nil {
		t.Fatal(err)
	}
	m.Lock()
	return market.New(m, gamerules.New(false, gamerules.DemandNone), nil, nil)
}

func mustDate(t *testing.T, s string) chrono.Date {
	t.Helper()
	d, err := chrono.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSaveAndLoadHistory(t *testing.T) {
	store := openTestStore(t)
	mkt := testMarket(t)
	session := uuid.New()

	mkt.RecordPriceHistory(mustDate(t, "1836.02.01"))
	mkt.RecordPriceHistory(mustDate(t, "1836.03.01"))

	if err := store.SaveSession(session, "grand_campaign", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveHistory(session, mkt.Goods()); err != nil {
		t.Fatal(err)
	}

	points, err := store.LoadHistory(session, "grain")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d samples, want 2", len(points))
	}
	if points[0].Date.String() != "1836.02.01" || points[1].Date.String() != "1836.03.01" {
		t.Fatalf("unexpected sample dates %v, %v", points[0].Date, points[1].Date)
	}
	if !points[0].Price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("price = %s, want 2", points[0].Price)
	}
}

func TestSaveHistoryIsIdempotentPerDay(t *testing.T) {
	store := openTestStore(t)
	mkt := testMarket(t)
	session := uuid.New()

	mkt.RecordPriceHistory(mustDate(t, "1836.02.01"))
	if err := store.SaveHistory(session, mkt.Goods()); err != nil {
		t.Fatal(err)
	}
	// A longer run of the same session re-saves the whole series.
	mkt.RecordPriceHistory(mustDate(t, "1836.03.01"))
	if err := store.SaveHistory(session, mkt.Goods()); err != nil {
		t.Fatal(err)
	}

	points, err := store.LoadHistory(session, "grain")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d samples, want 2", len(points))
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	store := openTestStore(t)
	session := uuid.New()
	day := mustDate(t, "1836.06.01")

	in := Summary{
		Date:            day.String(),
		TotalPopulation: 1500,
		GreatPowers:     []string{"ENG"},
		Prices:          map[string]string{"grain": "2.02"},
	}
	if err := store.SaveSummary(session, day, in); err != nil {
		t.Fatal(err)
	}

	var out Summary
	found, err := store.LoadSummary(session, day, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("summary not found")
	}
	if out.TotalPopulation != 1500 || out.Prices["grain"] != "2.02" {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	found, err = store.LoadSummary(session, day.AddDays(1), &out)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("no summary should exist for the next day")
	}
}
