package countervalue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenAffleck/ledger-live-common/internal/currency"
)

func testRegistry(t *testing.T) *currency.Registry {
	t.Helper()
	return currency.NewRegistry()
}

func mustGet(t *testing.T, r *currency.Registry, ticker string) currency.Currency {
	t.Helper()
	c, err := r.Get(ticker)
	require.NoError(t, err)
	return c
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolveTrackingPairs_Dedup(t *testing.T) {
	reg := testRegistry(t)
	btc := mustGet(t, reg, "BTC")
	usd := mustGet(t, reg, "USD")

	got := ResolveTrackingPairs(reg, []TrackingPair{
		{From: btc, To: usd, StartDate: datePtr(2023, 1, 1)},
		{From: btc, To: usd, StartDate: datePtr(2022, 1, 1)},
	})

	require.Len(t, got, 1)
	require.NotNil(t, got[0].StartDate)
	assert.Equal(t, *datePtr(2022, 1, 1), *got[0].StartDate)
}

func TestResolveTrackingPairs_NilStartDateDominates(t *testing.T) {
	reg := testRegistry(t)
	btc := mustGet(t, reg, "BTC")
	usd := mustGet(t, reg, "USD")

	got := ResolveTrackingPairs(reg, []TrackingPair{
		{From: btc, To: usd, StartDate: datePtr(2022, 1, 1)},
		{From: btc, To: usd},
	})

	require.Len(t, got, 1)
	assert.Nil(t, got[0].StartDate)
}

func TestResolveTrackingPairs_AliasesCollapse(t *testing.T) {
	reg := testRegistry(t)
	btc := mustGet(t, reg, "BTC")
	usd := mustGet(t, reg, "USD")
	usdt := mustGet(t, reg, "USDT")

	// USDT countervalues are tracked as USD, so both requests are the
	// same pair.
	got := ResolveTrackingPairs(reg, []TrackingPair{
		{From: btc, To: usdt, StartDate: datePtr(2023, 6, 1)},
		{From: btc, To: usd, StartDate: datePtr(2023, 1, 1)},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "BTC-USD", got[0].Key())
	assert.Equal(t, *datePtr(2023, 1, 1), *got[0].StartDate)
}

func TestResolveTrackingPairs_DropsIdentityAndDisabled(t *testing.T) {
	reg := testRegistry(t)
	btc := mustGet(t, reg, "BTC")
	usd := mustGet(t, reg, "USD")
	usdt := mustGet(t, reg, "USDT")
	tbtc := mustGet(t, reg, "TBTC")

	got := ResolveTrackingPairs(reg, []TrackingPair{
		{From: usd, To: usd},
		{From: usdt, To: usd}, // aliases to USD-USD
		{From: tbtc, To: usd}, // TBTC is countervalue-disabled
		{From: btc, To: usd},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "BTC-USD", got[0].Key())
}
