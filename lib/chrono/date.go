// Package chrono provides the simulation calendar: an immutable day-count
// Date and a relative Timespan, both measured in days. The calendar has no
// leap years; every year is 365 days with fixed month lengths.
package chrono

import (
	"fmt"
	"strconv"
	"strings"
)

// Timespan is a relative period between points in time, measured in days.
type Timespan int64

// Days returns the timespan as a raw day count.
func (t Timespan) Days() int64 { return int64(t) }

func (t Timespan) String() string { return strconv.FormatInt(int64(t), 10) }

// TimespanFromDays builds a timespan of n days.
func TimespanFromDays(n int64) Timespan { return Timespan(n) }

// TimespanFromMonths builds a timespan spanning n calendar months from the
// start of a year.
func TimespanFromMonths(n int64) Timespan {
	return Timespan((n/MonthsInYear)*DaysInYear + daysUpToMonth[n%MonthsInYear])
}

// TimespanFromYears builds a timespan of n calendar years.
func TimespanFromYears(n int64) Timespan { return Timespan(n * DaysInYear) }

// Calendar constants.
const (
	MonthsInYear int64 = 12
	DaysInYear   int64 = 365
)

var daysInMonth = [MonthsInYear]int64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

var monthNames = [MonthsInYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// daysUpToMonth[m] is the number of days in the year before month index m.
var daysUpToMonth = func() [MonthsInYear]int64 {
	var table [MonthsInYear]int64
	var days int64
	for m := int64(0); m < MonthsInYear; m++ {
		table[m] = days
		days += daysInMonth[m]
	}
	return table
}()

// monthFromDayInYear[d] is the 1-indexed month containing day-in-year d.
var monthFromDayInYear = func() [DaysInYear]uint8 {
	var table [DaysInYear]uint8
	var daysLeft int64
	var month uint8
	for d := int64(0); d < DaysInYear; d++ {
		if daysLeft == 0 {
			daysLeft = daysInMonth[month]
			month++
		}
		daysLeft--
		table[d] = month
	}
	return table
}()

// DaysInMonth returns the fixed length of the given 1-indexed month, or 0 if
// the month is out of range.
func DaysInMonth(month int) int64 {
	if month < 1 || int64(month) > MonthsInYear {
		return 0
	}
	return daysInMonth[month-1]
}

// Date is an in-game calendar day, stored as the number of days since
// January 1st of year 0. The zero value is 0.1.1. Dates before year 0 are
// not representable; construction clamps negative day counts to zero.
type Date struct {
	days int64
}

// DateFromDays builds a date from a raw day count since year 0, clamping
// negative values to day zero.
func DateFromDays(days int64) Date {
	if days < 0 {
		days = 0
	}
	return Date{days: days}
}

// NewDate builds a date from a year/month/day triple. Out-of-range month and
// day values are clamped into the calendar rather than rejected.
func NewDate(year int, month int, day int) Date {
	if year < 0 {
		year = 0
	}
	if month < 1 {
		month = 1
	} else if int64(month) > MonthsInYear {
		month = int(MonthsInYear)
	}
	if day < 1 {
		day = 1
	} else if int64(day) > daysInMonth[month-1] {
		day = int(daysInMonth[month-1])
	}
	return Date{days: int64(year)*DaysInYear + daysUpToMonth[month-1] + int64(day) - 1}
}

// Days returns the number of days since year 0.
func (d Date) Days() int64 { return d.days }

// Year returns the calendar year.
func (d Date) Year() int { return int(d.days / DaysInYear) }

// Month returns the 1-indexed calendar month.
func (d Date) Month() int { return int(monthFromDayInYear[d.days%DaysInYear]) }

// Day returns the 1-indexed day of the month.
func (d Date) Day() int {
	return int(d.days%DaysInYear - daysUpToMonth[d.Month()-1] + 1)
}

// MonthName returns the English name of the date's month.
func (d Date) MonthName() string { return monthNames[d.Month()-1] }

// IsMonthStart reports whether the date is the first day of its month.
func (d Date) IsMonthStart() bool { return d.Day() == 1 }

// Add returns the date shifted by the given timespan, clamped at day zero.
func (d Date) Add(t Timespan) Date { return DateFromDays(d.days + int64(t)) }

// AddDays returns the date shifted by n days, clamped at day zero.
func (d Date) AddDays(n int64) Date { return DateFromDays(d.days + n) }

// Next returns the following day.
func (d Date) Next() Date { return Date{days: d.days + 1} }

// Sub returns the timespan between two dates.
func (d Date) Sub(other Date) Timespan { return Timespan(d.days - other.days) }

// Compare returns -1, 0 or 1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.days < other.days:
		return -1
	case d.days > other.days:
		return 1
	default:
		return 0
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.days < other.days }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.days > other.days }

// InRange reports whether d lies within [start, end] inclusive.
func (d Date) InRange(start, end Date) bool {
	return start.days <= d.days && d.days <= end.days
}

// String formats the date as YYYY.MM.DD with zero-padded month and day.
func (d Date) String() string {
	return fmt.Sprintf("%d.%02d.%02d", d.Year(), d.Month(), d.Day())
}

// ParseDate parses a date of the form YYYY.MM.DD. Month and day values must
// be within calendar range; errors name the offending field.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("chrono: invalid date %q: want YYYY.MM.DD", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 0 {
		return Date{}, fmt.Errorf("chrono: invalid year in date %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || int64(month) > MonthsInYear {
		return Date{}, fmt.Errorf("chrono: invalid month in date %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || int64(day) > daysInMonth[month-1] {
		return Date{}, fmt.Errorf("chrono: invalid day in date %q", s)
	}
	return NewDate(year, month, day), nil
}
