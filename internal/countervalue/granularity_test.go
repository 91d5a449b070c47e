package countervalue

import (
	"sort"
	"testing"
	"time"
)

func TestBucketKey(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		t    time.Time
		want string
	}{
		{
			name: "daily is zero padded",
			g:    Daily,
			t:    time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
			want: "2024-01-02",
		},
		{
			name: "hourly keeps the hour",
			g:    Hourly,
			t:    time.Date(2024, 1, 2, 5, 30, 0, 0, time.UTC),
			want: "2024-01-02T05",
		},
		{
			name: "non-utc times are normalized",
			g:    Daily,
			t:    time.Date(2024, 1, 2, 23, 0, 0, 0, time.FixedZone("", -7200)),
			want: "2024-01-03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.BucketKey(tt.t); got != tt.want {
				t.Errorf("BucketKey = %q, want %q", got, tt.want)
			}
		})
	}
}

// Lexicographic order of bucket keys must equal chronological order;
// stats computation depends on it.
func TestBucketKeyOrdering(t *testing.T) {
	base := time.Date(2023, 11, 28, 22, 0, 0, 0, time.UTC)

	var hourly, daily []string
	for i := range 200 {
		ts := base.Add(time.Duration(i) * 7 * time.Hour)
		hourly = append(hourly, Hourly.BucketKey(ts))
		daily = append(daily, Daily.BucketKey(ts))
	}

	if !sort.StringsAreSorted(hourly) {
		t.Error("hourly keys are not sorted lexicographically")
	}
	if !sort.StringsAreSorted(daily) {
		t.Error("daily keys are not sorted lexicographically")
	}
}

func TestParseBucket(t *testing.T) {
	tests := []struct {
		key     string
		want    time.Time
		wantErr bool
	}{
		{key: "2024-01-02", want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{key: "2024-01-02T05", want: time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)},
		{key: KeyLatest, wantErr: true},
		{key: "not-a-date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseBucket(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseBucket = %v, want %v", got, tt.want)
			}
		})
	}
}
