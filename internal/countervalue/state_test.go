package countervalue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRateMapMerge(t *testing.T) {
	base := RateMap{"2024-01-01": 100, KeyLatest: 110}
	patch := RateMap{"2024-01-02": 120, KeyLatest: 125}

	got := base.merge(patch)

	assert.Equal(t, RateMap{
		"2024-01-01": 100,
		"2024-01-02": 120,
		KeyLatest:    125,
	}, got)
	// merge copies; the receiver stays intact.
	assert.Equal(t, 110.0, base[KeyLatest])
}

func TestRateMapMerge_NilReceiver(t *testing.T) {
	var base RateMap
	got := base.merge(RateMap{"2024-01-01": 100})
	assert.Equal(t, RateMap{"2024-01-01": 100}, got)
}

func TestExportImportRaw(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	s := NewState()
	s.Data["BTC-USD"] = RateMap{"2024-01-01": 100, "2024-01-04": 130, KeyLatest: 140}
	s.Data["ETH-USD"] = RateMap{KeyLatest: 20}
	s.Status["BTC-USD"] = FetchStatus{
		Timestamp:           now,
		Failures:            2,
		OldestDateRequested: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := ExportRaw(s)
	require.NoError(t, err)

	// Pair rate maps live at the top level next to the reserved status
	// key.
	doc := gjson.ParseBytes(raw)
	assert.Equal(t, 100.0, doc.Get("BTC-USD.2024-01-01").Float())
	assert.Equal(t, 2.0, doc.Get("status.BTC-USD.failures").Float())

	got, err := ImportRaw(raw, DefaultSettings(), now)
	require.NoError(t, err)

	assert.Equal(t, s.Data, got.Data)
	assert.Equal(t, s.Status, got.Status)

	// The derived cache is rebuilt on import, not deserialized.
	cache := got.Cache["BTC-USD"]
	require.NotNil(t, cache)
	assert.Equal(t, 100.0, cache.Map["2024-01-02"])
	assert.Equal(t, 140.0, cache.Map[KeyLatest])
}

func TestImportRaw_Invalid(t *testing.T) {
	_, err := ImportRaw([]byte("not json"), DefaultSettings(), time.Now())
	assert.Error(t, err)
}

func TestClone_IsolatesSnapshots(t *testing.T) {
	s := NewState()
	s.Data["BTC-USD"] = RateMap{KeyLatest: 100}
	s.Status["BTC-USD"] = FetchStatus{Failures: 1}

	next := s.clone()
	next.Data["BTC-USD"] = next.Data["BTC-USD"].merge(RateMap{KeyLatest: 200})
	next.Status["BTC-USD"] = FetchStatus{Failures: 0}
	next.Data["ETH-USD"] = RateMap{KeyLatest: 20}

	assert.Equal(t, 100.0, s.Data["BTC-USD"][KeyLatest])
	assert.Equal(t, 1, s.Status["BTC-USD"].Failures)
	assert.NotContains(t, s.Data, "ETH-USD")
}
