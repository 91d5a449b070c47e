package countervalue

import (
	"encoding/json"
	"fmt"
	"time"
)

// RateMap is the raw, append-only rate record for one pair: bucket key
// (daily, hourly or KeyLatest) to rate.
type RateMap map[string]float64

// merge returns a copy of base with every bucket from patch applied.
// Fetched buckets are strictly newer than stored ones, so they win;
// nothing is ever deleted.
func (m RateMap) merge(patch RateMap) RateMap {
	out := make(RateMap, len(m)+len(patch))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// FetchStatus tracks fetch attempts for one pair. It drives backoff and
// the incremental-range decisions of the scheduler.
type FetchStatus struct {
	// Timestamp of the last attempt; zero when never attempted.
	Timestamp time.Time `json:"timestamp,omitzero"`
	// Failures counts consecutive attempts that failed with an HTTP
	// status. Transport-level failures do not count.
	Failures int `json:"failures,omitempty"`
	// OldestDateRequested is the earliest start ever requested for the
	// pair; zero when never set. Monotonically non-increasing.
	OldestDateRequested time.Time `json:"oldestDateRequested,omitzero"`
}

// State is one consistent countervalues snapshot. Data and Status are
// the persisted truth; Cache is derived from Data and must be rebuilt,
// never stored.
type State struct {
	Data   map[string]RateMap
	Status map[string]FetchStatus
	Cache  map[string]*PairCache
}

// NewState returns an empty snapshot.
func NewState() *State {
	return &State{
		Data:   make(map[string]RateMap),
		Status: make(map[string]FetchStatus),
		Cache:  make(map[string]*PairCache),
	}
}

// clone copies the snapshot maps. RateMaps are shared until mutated;
// every mutation path goes through RateMap.merge which copies first.
func (s *State) clone() *State {
	next := &State{
		Data:   make(map[string]RateMap, len(s.Data)),
		Status: make(map[string]FetchStatus, len(s.Status)),
		Cache:  make(map[string]*PairCache, len(s.Cache)),
	}
	for k, v := range s.Data {
		next.Data[k] = v
	}
	for k, v := range s.Status {
		next.Status[k] = v
	}
	for k, v := range s.Cache {
		next.Cache[k] = v
	}
	return next
}

// statusKey is the reserved top-level key of the raw wire shape. Pair
// keys always contain a dash, so it cannot collide.
const statusKey = "status"

// ExportRaw serializes the persisted truth as the flat document
// {<pairKey>: rateMap..., "status": {...}}. The derived cache is
// stripped; import rebuilds it.
func ExportRaw(s *State) ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(s.Data)+1)
	for key, m := range s.Data {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("export rates for %s: %w", key, err)
		}
		raw[key] = b
	}
	b, err := json.Marshal(s.Status)
	if err != nil {
		return nil, fmt.Errorf("export status: %w", err)
	}
	raw[statusKey] = b
	return json.Marshal(raw)
}

// ImportRaw reconstructs a full snapshot from the flat document,
// rebuilding the derived cache for every pair with the given settings.
func ImportRaw(data []byte, settings Settings, now time.Time) (*State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("import state: %w", err)
	}

	s := NewState()
	for key, msg := range raw {
		if key == statusKey {
			if err := json.Unmarshal(msg, &s.Status); err != nil {
				return nil, fmt.Errorf("import status: %w", err)
			}
			continue
		}
		var m RateMap
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, fmt.Errorf("import rates for %s: %w", key, err)
		}
		s.Data[key] = m
	}

	for key, m := range s.Data {
		s.Cache[key] = BuildCache(m, settings, now)
	}
	return s, nil
}
