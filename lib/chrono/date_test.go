package chrono

import "testing"

func TestDateRoundTrip(t *testing.T) {
	for year := 0; year <= 2; year++ {
		for month := 1; month <= 12; month++ {
			for day := 1; int64(day) <= DaysInMonth(month); day++ {
				d := NewDate(year, month, day)
				if d.Year() != year || d.Month() != month || d.Day() != day {
					t.Fatalf("round trip failed for %d.%d.%d: got %d.%d.%d",
						year, month, day, d.Year(), d.Month(), d.Day())
				}
			}
		}
	}
}

func TestDateMonthStarts(t *testing.T) {
	starts := 0
	for days := int64(0); days < DaysInYear; days++ {
		if DateFromDays(days).IsMonthStart() {
			starts++
		}
	}
	if starts != int(MonthsInYear) {
		t.Fatalf("expected %d month starts in a year, got %d", MonthsInYear, starts)
	}
}

func TestDateClamping(t *testing.T) {
	if got := DateFromDays(-5); got.Days() != 0 {
		t.Errorf("negative day count not clamped: %d", got.Days())
	}
	if got := NewDate(1836, 13, 1); got.Month() != 12 {
		t.Errorf("month not clamped: %d", got.Month())
	}
	if got := NewDate(1836, 2, 31); got.Day() != 28 {
		t.Errorf("day not clamped: %d", got.Day())
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(1836, 1, 1)
	next := d.AddDays(31)
	if next.Month() != 2 || next.Day() != 1 {
		t.Fatalf("expected 1836.02.01, got %s", next)
	}
	if span := next.Sub(d); span.Days() != 31 {
		t.Fatalf("expected 31 day span, got %d", span.Days())
	}
	if !d.Before(next) || next.Before(d) {
		t.Error("ordering inconsistent")
	}
	if d.Compare(next) != -1 || next.Compare(d) != 1 || d.Compare(d) != 0 {
		t.Error("compare inconsistent")
	}
	if !d.InRange(NewDate(1835, 1, 1), NewDate(1837, 1, 1)) {
		t.Error("expected date in range")
	}
}

func TestDateString(t *testing.T) {
	d := NewDate(1836, 1, 1)
	if d.String() != "1836.01.01" {
		t.Fatalf("unexpected format: %s", d.String())
	}
	if d.MonthName() != "January" {
		t.Fatalf("unexpected month name: %s", d.MonthName())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1861.7.4")
	if err != nil {
		t.Fatal(err)
	}
	if d.Year() != 1861 || d.Month() != 7 || d.Day() != 4 {
		t.Fatalf("unexpected parse result: %s", d)
	}

	for _, bad := range []string{"", "1836", "1836.1", "1836.0.1", "1836.13.1", "1836.2.29", "abc.1.1", "1836.1.x"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("expected error parsing %q", bad)
		}
	}
}

func TestTimespanConstructors(t *testing.T) {
	if TimespanFromYears(2).Days() != 730 {
		t.Error("unexpected year span")
	}
	if TimespanFromMonths(1).Days() != 31 {
		t.Error("unexpected month span")
	}
	if TimespanFromMonths(14).Days() != DaysInYear+31+28 {
		t.Error("unexpected multi-year month span")
	}
	if TimespanFromDays(7).Days() != 7 {
		t.Error("unexpected day span")
	}
}
