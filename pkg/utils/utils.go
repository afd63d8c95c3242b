package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept on currency amounts.
const MoneyPlaces = 2

// RoundMoney rounds a currency amount to 2 places, half away from zero.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// DivideMoney divides amount into n parts and rounds the quotient to 2 places.
// The quotient is computed exactly before rounding, so no intermediate precision is lost.
func DivideMoney(amount decimal.Decimal, n int) decimal.Decimal {
	return amount.DivRound(decimal.NewFromInt(int64(n)), MoneyPlaces)
}

// SumDecimals adds up all values, returning zero for an empty slice.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FitsPlaces reports whether d has no significant digits beyond the given number of
// fractional places.
func FitsPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// DateOf strips the time-of-day from t and returns its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from `from` to `to`.
// The result is positive when `to` is after `from`.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// AddMonths adds n calendar months to date, clamping the day to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(date time.Time, n int) time.Time {
	d := DateOf(date)
	firstOfTarget := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()

	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

// FirstDayOfNextMonth returns the first calendar day of the month following date.
func FirstDayOfNextMonth(date time.Time) time.Time {
	d := DateOf(date)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
