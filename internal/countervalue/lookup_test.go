package countervalue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func lookupCache(t *testing.T) *PairCache {
	t.Helper()
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	return BuildCache(RateMap{
		"2024-01-02":    100,
		"2024-01-03T10": 105,
		"2024-01-04":    130,
	}, DefaultSettings(), now)
}

func TestRate_NilDateReturnsLatest(t *testing.T) {
	c := lookupCache(t)

	v, ok := c.Rate(nil)
	assert.True(t, ok)
	assert.Equal(t, 130.0, v)
}

func TestRate_HourlyBeforeDaily(t *testing.T) {
	c := lookupCache(t)

	at := time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)
	v, ok := c.Rate(&at)
	assert.True(t, ok)
	assert.Equal(t, 105.0, v)
}

func TestRate_FallsBackToDaily(t *testing.T) {
	c := lookupCache(t)

	// No hourly bucket for 14:00; the daily bucket answers.
	at := time.Date(2024, 1, 4, 14, 0, 0, 0, time.UTC)
	v, ok := c.Rate(&at)
	assert.True(t, ok)
	assert.Equal(t, 130.0, v)
}

func TestRate_NewerThanCachedDataReturnsLatest(t *testing.T) {
	c := lookupCache(t)

	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	v, ok := c.Rate(&at)
	assert.True(t, ok)
	assert.Equal(t, 130.0, v)
}

func TestRate_OlderThanCachedDataReturnsFallback(t *testing.T) {
	c := lookupCache(t)

	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	v, ok := c.Rate(&at)
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestRate_EmptyCache(t *testing.T) {
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	c := BuildCache(RateMap{}, DefaultSettings(), now)

	_, ok := c.Rate(nil)
	assert.False(t, ok)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, ok = c.Rate(&at)
	assert.False(t, ok)
}

func TestRate_NilCache(t *testing.T) {
	var c *PairCache

	_, ok := c.Rate(nil)
	assert.False(t, ok)
}
