package comp_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/comp-engine/comp"
)

func TestRateTable_ToUSD(t *testing.T) {
	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	table := comp.NewRateTable([]comp.ExchangeRate{
		{Currency: "EUR", Month: march, RateUSD: dec(1.08)},
	})

	// Conversion uses the booking month's rate.
	got, err := table.ToUSD(dec(100000), "EUR", march)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(usd(108000)) {
		t.Errorf("expected 108000, got %s", got.Value)
	}
}

func TestRateTable_USDPassthrough(t *testing.T) {
	table := comp.NewRateTable(nil)
	got, err := table.ToUSD(dec(5000), comp.CurrencyUSD, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(usd(5000)) {
		t.Errorf("expected 5000, got %s", got.Value)
	}
}

func TestRateTable_MissingRateIsAnError(t *testing.T) {
	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	april := march.AddDate(0, 1, 0)
	table := comp.NewRateTable([]comp.ExchangeRate{
		{Currency: "EUR", Month: march, RateUSD: dec(1.08)},
	})

	// Unknown currency.
	if _, err := table.ToUSD(dec(100), "GBP", march); !errors.Is(err, comp.ErrRateNotFound) {
		t.Errorf("expected ErrRateNotFound, got: %v", err)
	}
	// Known currency, uncovered month. Never defaults to 1.0.
	if _, err := table.ToUSD(dec(100), "EUR", april); !errors.Is(err, comp.ErrRateNotFound) {
		t.Errorf("expected ErrRateNotFound, got: %v", err)
	}
}
