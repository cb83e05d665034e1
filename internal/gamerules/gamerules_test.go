package gamerules

import "testing"

func TestDemandCategorySpellingsRoundTrip(t *testing.T) {
	for _, c := range []DemandCategory{DemandNone, DemandPopNeeds, DemandFactoryNeeds} {
		if got := ParseDemandCategory(c.String()); got != c {
			t.Fatalf("ParseDemandCategory(%q) = %v, want %v", c.String(), got, c)
		}
	}
}

func TestParseDemandCategoryUnknownDefaultsToNone(t *testing.T) {
	if got := ParseDemandCategory("artisan_needs"); got != DemandNone {
		t.Fatalf("got %v, want DemandNone", got)
	}
}

func TestRuleToggles(t *testing.T) {
	r := New(false, DemandNone)
	if r.UseExponentialPriceChanges() {
		t.Fatal("linear prices expected")
	}
	r.SetUseExponentialPriceChanges(true)
	if !r.UseExponentialPriceChanges() {
		t.Fatal("toggle not applied")
	}
	r.SetArtisanalInputDemandCategory(DemandFactoryNeeds)
	if r.ArtisanalInputDemandCategory() != DemandFactoryNeeds {
		t.Fatal("demand category not applied")
	}
}
