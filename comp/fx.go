/*
fx.go - Exchange-rate conversion of local-currency deal values

Rates are monthly facts entered upstream; the core only looks them up and
converts. A missing rate is an error - defaulting to 1.0 would misstate
pay in the deal's favor or against it.
*/
package comp

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the conversion rate for one currency in one booking month.
type ExchangeRate struct {
	Currency Currency
	Month    time.Time // normalized to the first of the month
	RateUSD  decimal.Decimal
}

// RateTable indexes rates by currency and month.
type RateTable struct {
	rates map[Currency]map[string]decimal.Decimal
}

func NewRateTable(rates []ExchangeRate) *RateTable {
	t := &RateTable{rates: make(map[Currency]map[string]decimal.Decimal)}
	for _, r := range rates {
		byMonth, ok := t.rates[r.Currency]
		if !ok {
			byMonth = make(map[string]decimal.Decimal)
			t.rates[r.Currency] = byMonth
		}
		byMonth[monthKey(r.Month)] = r.RateUSD
	}
	return t
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ToUSD converts a local amount booked in the given month.
func (t *RateTable) ToUSD(value decimal.Decimal, currency Currency, bookingMonth time.Time) (Money, error) {
	if currency == CurrencyUSD {
		return USDFromDecimal(value), nil
	}
	byMonth, ok := t.rates[currency]
	if !ok {
		return ZeroUSD(), fmt.Errorf("%w: %s", ErrRateNotFound, currency)
	}
	rate, ok := byMonth[monthKey(bookingMonth)]
	if !ok {
		return ZeroUSD(), fmt.Errorf("%w: %s %s", ErrRateNotFound, currency, monthKey(bookingMonth))
	}
	return USDFromDecimal(value.Mul(rate)), nil
}
